package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aebroadcast/datafeed-go/broadcast"
)

// handleQuote serves GET /api/v1/quote?symbols=PETR4,VALE3&fields=ULT,VAR
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbols := splitParam(r.URL.Query().Get("symbols"))
	if len(symbols) == 0 {
		writeError(w, http.StatusBadRequest, "symbols query parameter is required")
		return
	}
	fields := splitParam(r.URL.Query().Get("fields"))

	payload, err := s.quoter.GetQuote(r.Context(), symbols, fields)
	if err != nil {
		s.log.Error("quote request failed",
			slog.Any("error", err),
			slog.String("symbols", strings.Join(symbols, ",")))

		var statusErr *broadcast.StatusError
		if errors.As(err, &statusErr) {
			writeErrorWithUpstream(w, http.StatusBadGateway, "upstream rejected the request", statusErr.StatusCode)
			return
		}
		writeError(w, http.StatusBadGateway, "upstream request failed")
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// splitParam splits a comma-separated query value, dropping empty entries.
func splitParam(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func writeErrorWithUpstream(w http.ResponseWriter, status int, message string, upstreamStatus int) {
	writeJSON(w, status, map[string]any{"error": message, "upstream_status": upstreamStatus})
}
