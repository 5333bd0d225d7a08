package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aebroadcast/datafeed-go/broadcast"
)

// stubQuoter records calls and returns a canned payload or error.
type stubQuoter struct {
	payload map[string]any
	err     error

	gotSymbols []string
	gotFields  []string
	calls      int
}

func (q *stubQuoter) GetQuote(ctx context.Context, symbols, fields []string) (map[string]any, error) {
	q.calls++
	q.gotSymbols = symbols
	q.gotFields = fields
	if q.err != nil {
		return nil, q.err
	}
	return q.payload, nil
}

func newTestServer(q *stubQuoter) *Server {
	return New(q, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func doRequest(t *testing.T, s *Server, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return rec, body
}

func TestHandleQuote(t *testing.T) {
	quoter := &stubQuoter{
		payload: map[string]any{
			"PETR4": map[string]any{"ULT": "28.50"},
			"VALE3": map[string]any{"ULT": "61.10"},
		},
	}
	s := newTestServer(quoter)

	rec, body := doRequest(t, s, "/api/v1/quote?symbols=PETR4,VALE3&fields=ULT,VAR")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %v", rec.Code, body)
	}

	if len(quoter.gotSymbols) != 2 || quoter.gotSymbols[0] != "PETR4" || quoter.gotSymbols[1] != "VALE3" {
		t.Errorf("symbols = %v, want [PETR4 VALE3]", quoter.gotSymbols)
	}
	if len(quoter.gotFields) != 2 || quoter.gotFields[0] != "ULT" || quoter.gotFields[1] != "VAR" {
		t.Errorf("fields = %v, want [ULT VAR]", quoter.gotFields)
	}
	if _, ok := body["PETR4"]; !ok {
		t.Errorf("payload missing PETR4: %v", body)
	}
}

func TestHandleQuoteMissingSymbols(t *testing.T) {
	quoter := &stubQuoter{}
	s := newTestServer(quoter)

	rec, body := doRequest(t, s, "/api/v1/quote")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body["error"] == nil {
		t.Errorf("expected an error message, got %v", body)
	}
	if quoter.calls != 0 {
		t.Errorf("quoter must not be called without symbols, got %d calls", quoter.calls)
	}
}

func TestHandleQuoteUpstreamStatusError(t *testing.T) {
	quoter := &stubQuoter{
		err: &broadcast.StatusError{Op: "quote", StatusCode: http.StatusUnauthorized},
	}
	s := newTestServer(quoter)

	rec, body := doRequest(t, s, "/api/v1/quote?symbols=PETR4")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if got, ok := body["upstream_status"].(float64); !ok || int(got) != http.StatusUnauthorized {
		t.Errorf("upstream_status = %v, want 401", body["upstream_status"])
	}
}

func TestHandleQuoteTransportError(t *testing.T) {
	quoter := &stubQuoter{
		err: &broadcast.RequestError{Op: "quote", Err: context.DeadlineExceeded},
	}
	s := newTestServer(quoter)

	rec, body := doRequest(t, s, "/api/v1/quote?symbols=PETR4")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if _, ok := body["upstream_status"]; ok {
		t.Errorf("transport errors carry no upstream status, got %v", body)
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&stubQuoter{})
	rec, body := doRequest(t, s, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
}

func TestSplitParam(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{"empty", "", nil},
		{"single", "PETR4", []string{"PETR4"}},
		{"multiple", "PETR4,VALE3", []string{"PETR4", "VALE3"}},
		{"spaces and empties", " PETR4 ,,VALE3, ", []string{"PETR4", "VALE3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitParam(tt.value)
			if len(got) != len(tt.want) {
				t.Fatalf("splitParam(%q) = %v, want %v", tt.value, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("splitParam(%q)[%d] = %q, want %q", tt.value, i, got[i], tt.want[i])
				}
			}
		})
	}
}
