package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bryanwahyu/marine-vision/internal/domain/analysis"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(ClientFromContext(r.Context())))
}

func TestAPIKeyAuth(t *testing.T) {
	h := APIKeyAuth(map[string]string{"frontend": "secret"})(http.HandlerFunc(okHandler))

	tests := []struct {
		name   string
		path   string
		header string
		status int
		body   string
	}{
		{"missing", "/v1/history", "", http.StatusUnauthorized, ""},
		{"wrong", "/v1/history", "Bearer nope", http.StatusUnauthorized, ""},
		{"bearer", "/v1/history", "Bearer secret", http.StatusOK, "frontend"},
		{"bare", "/v1/history", "secret", http.StatusOK, "frontend"},
		{"health skips auth", "/healthz", "", http.StatusOK, ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.name, rec.Code, tt.status)
		}
		if tt.status == http.StatusOK && rec.Body.String() != tt.body {
			t.Errorf("%s: client = %q, want %q", tt.name, rec.Body.String(), tt.body)
		}
	}
}

func TestAPIKeyAuthDisabledWithoutKeys(t *testing.T) {
	h := APIKeyAuth(nil)(http.HandlerFunc(okHandler))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/history", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, 0)
	h := rl.Middleware(http.HandlerFunc(okHandler))

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/history", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}

	// another port on the same host shares the bucket
	req := httptest.NewRequest(http.MethodGet, "/v1/history", nil)
	req.RemoteAddr = "10.0.0.1:6666"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("same host different port status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/history", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other host status = %d", rec.Code)
	}

	if n := rl.Prune(-time.Second); n != 2 {
		t.Errorf("pruned %d buckets, want 2", n)
	}
}

func TestMetricsRecorder(t *testing.T) {
	m := NewMetrics()
	m.AnalysisStarted()
	m.AnalysisStarted()
	m.AnalysisFinished(analysis.StateComplete)
	m.AnalysisFinished(analysis.StateDegraded)

	snap := m.Snapshot()
	if snap["analyses_total"] != uint64(2) || snap["analyses_running"] != uint64(0) {
		t.Errorf("totals = %v / %v", snap["analyses_total"], snap["analyses_running"])
	}
	if snap["analyses_complete"] != uint64(1) || snap["analyses_degraded"] != uint64(1) {
		t.Errorf("terminal counts = %v / %v", snap["analyses_complete"], snap["analyses_degraded"])
	}
}

func TestMetricsMiddlewareCountsFailures(t *testing.T) {
	m := NewMetrics()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	if m.RequestsFailed != 1 || m.RequestsTotal != 1 || m.RequestsInProgress != 0 {
		t.Fatalf("metrics = %+v", m)
	}
}
