package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/bryanwahyu/marine-vision/internal/domain/analysis"
)

// Metrics stores application metrics
type Metrics struct {
	RequestsTotal      uint64
	RequestsInProgress uint64
	RequestsSuccess    uint64
	RequestsFailed     uint64
	AnalysesTotal      uint64
	AnalysesRunning    uint64
	AnalysesComplete   uint64
	AnalysesDegraded   uint64
	UploadsRejected    uint64
	StartTime          time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{StartTime: time.Now()}
}

// AnalysisStarted counts a dispatch that has begun.
func (m *Metrics) AnalysisStarted() {
	atomic.AddUint64(&m.AnalysesTotal, 1)
	atomic.AddUint64(&m.AnalysesRunning, 1)
}

// AnalysisFinished counts a dispatch by its terminal state.
func (m *Metrics) AnalysisFinished(state analysis.State) {
	atomic.AddUint64(&m.AnalysesRunning, ^uint64(0))
	switch state {
	case analysis.StateComplete:
		atomic.AddUint64(&m.AnalysesComplete, 1)
	case analysis.StateDegraded:
		atomic.AddUint64(&m.AnalysesDegraded, 1)
	}
}

// UploadRejected counts media refused by the ingestion validator.
func (m *Metrics) UploadRejected() {
	atomic.AddUint64(&m.UploadsRejected, 1)
}

// Snapshot returns current metrics
func (m *Metrics) Snapshot() map[string]any {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return map[string]any{
		"requests_total":       atomic.LoadUint64(&m.RequestsTotal),
		"requests_in_progress": atomic.LoadUint64(&m.RequestsInProgress),
		"requests_success":     atomic.LoadUint64(&m.RequestsSuccess),
		"requests_failed":      atomic.LoadUint64(&m.RequestsFailed),
		"analyses_total":       atomic.LoadUint64(&m.AnalysesTotal),
		"analyses_running":     atomic.LoadUint64(&m.AnalysesRunning),
		"analyses_complete":    atomic.LoadUint64(&m.AnalysesComplete),
		"analyses_degraded":    atomic.LoadUint64(&m.AnalysesDegraded),
		"uploads_rejected":     atomic.LoadUint64(&m.UploadsRejected),
		"uptime_seconds":       time.Since(m.StartTime).Seconds(),
		"memory": map[string]any{
			"alloc_bytes":       mem.Alloc,
			"total_alloc_bytes": mem.TotalAlloc,
			"sys_bytes":         mem.Sys,
			"num_gc":            mem.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// Middleware tracks request metrics
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddUint64(&m.RequestsTotal, 1)
		atomic.AddUint64(&m.RequestsInProgress, 1)
		defer atomic.AddUint64(&m.RequestsInProgress, ^uint64(0))

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			atomic.AddUint64(&m.RequestsSuccess, 1)
		} else {
			atomic.AddUint64(&m.RequestsFailed, 1)
		}
	})
}

// Handler returns metrics as JSON
func (m *Metrics) Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m.Snapshot())
}
