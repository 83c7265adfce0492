package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/bryanwahyu/marine-vision/internal/domain/history"
)

const checkTimeout = 2 * time.Second

// HealthChecker reports whether one dependency is usable.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// CheckFunc adapts a plain function to HealthChecker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

// PingCheck pings the SQL pool behind a history backend.
func PingCheck(db *sql.DB) HealthChecker {
	return CheckFunc(func(ctx context.Context) error { return db.PingContext(ctx) })
}

// HistoryCheck reads the history log; a corrupt value still reads as empty,
// so only an unreachable store fails.
func HistoryCheck(s history.Store) HealthChecker {
	return CheckFunc(func(ctx context.Context) error {
		_, err := s.List(ctx)
		return err
	})
}

// Report is the body of /healthz. Checks maps each dependency to "ok"
// or its error text.
type Report struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Failed    []string          `json:"failed,omitempty"`
}

// Healthy is true when no dependency failed.
func (r Report) Healthy() bool { return len(r.Failed) == 0 }

// RunChecks probes every dependency concurrently, each under its own timeout.
func RunChecks(ctx context.Context, checks map[string]HealthChecker) Report {
	rep := Report{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]string, len(checks)),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, c := range checks {
		wg.Add(1)
		go func(name string, c HealthChecker) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()
			err := c.Check(cctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				rep.Checks[name] = err.Error()
				rep.Failed = append(rep.Failed, name)
				return
			}
			rep.Checks[name] = "ok"
		}(name, c)
	}
	wg.Wait()

	if !rep.Healthy() {
		sort.Strings(rep.Failed)
		rep.Status = "unhealthy"
	}
	return rep
}

// HealthHandler serves the full per-dependency report; 503 if any failed.
func HealthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep := RunChecks(r.Context(), checks)
		status := http.StatusOK
		if !rep.Healthy() {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(rep)
	}
}

// ReadinessHandler answers ready/not-ready from the same checks, without details.
func ReadinessHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rep := RunChecks(r.Context(), checks); !rep.Healthy() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ready"))
	}
}

// LivenessHandler only proves the process is serving.
func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}
