// Package gateway exposes a small local HTTP front for the AEBroadcast
// quotes API, so tools that cannot speak the upstream auth handshake can
// fetch quotes from localhost.
package gateway

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Quoter is the slice of the broadcast client the gateway needs.
type Quoter interface {
	GetQuote(ctx context.Context, symbols, fields []string) (map[string]any, error)
}

// Server routes gateway HTTP requests to a Quoter.
type Server struct {
	quoter Quoter
	log    *slog.Logger
	router *mux.Router
}

// New creates a gateway server around the given quoter.
func New(quoter Quoter, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		quoter: quoter,
		log:    log.With("component", "gateway"),
	}

	r := mux.NewRouter()
	r.Use(s.logRequest)
	r.HandleFunc("/api/v1/quote", s.handleQuote).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.router = r

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
