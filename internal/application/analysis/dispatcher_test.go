package analysis

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	domain "github.com/bryanwahyu/marine-vision/internal/domain/analysis"
	"github.com/bryanwahyu/marine-vision/internal/domain/detection"
	"github.com/bryanwahyu/marine-vision/internal/domain/history"
	"github.com/bryanwahyu/marine-vision/internal/domain/media"
	"github.com/bryanwahyu/marine-vision/internal/infra/analyzer/remote"
	"github.com/bryanwahyu/marine-vision/internal/infra/analyzer/synthetic"
)

type memHistory struct {
	mu      sync.Mutex
	log     []history.Entry
	failing bool
}

func (m *memHistory) Append(ctx context.Context, e history.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("disk full")
	}
	m.log = history.Prepend(m.log, e)
	return nil
}

func (m *memHistory) List(ctx context.Context) ([]history.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]history.Entry(nil), m.log...), nil
}

func (m *memHistory) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.log = nil
	m.mu.Unlock()
	return nil
}

type stubAnalyzer struct {
	name  string
	res   detection.Result
	err   error
	calls int
}

func (s *stubAnalyzer) Name() string { return s.name }

func (s *stubAnalyzer) Analyze(ctx context.Context, a *media.Asset) (detection.Result, error) {
	s.calls++
	return s.res, s.err
}

type counter struct {
	started  int
	finished map[domain.State]int
}

func (c *counter) AnalysisStarted() { c.started++ }
func (c *counter) AnalysisFinished(s domain.State) {
	if c.finished == nil {
		c.finished = map[domain.State]int{}
	}
	c.finished[s]++
}

var imageAsset = &media.Asset{Filename: "reef.jpg", Kind: media.KindImage, MIMEType: "image/jpeg", Content: []byte("x")}

func TestRemoteFailureDegradesToLocal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	hist := &memHistory{}
	metrics := &counter{}
	d := &Dispatcher{
		Remote:  remote.NewWithClient(srv.URL, srv.Client()),
		Local:   synthetic.NewWithSource(rand.NewSource(1)),
		History: hist,
		Metrics: metrics,
	}

	out := d.Analyze(context.Background(), imageAsset, domain.ModeRemote)
	if out.State != domain.StateDegraded || out.Message != domain.MsgDegraded {
		t.Fatalf("state = %s %q, want degraded", out.State, out.Message)
	}
	if n := len(out.Result.Detections); n < 1 || n > 3 {
		t.Fatalf("synthetic fallback produced %d detections", n)
	}
	if out.Analyzer != "synthetic" {
		t.Errorf("analyzer = %s", out.Analyzer)
	}

	log, _ := hist.List(context.Background())
	if len(log) != 1 || log[0].ID != out.Entry.ID {
		t.Fatalf("expected exactly the outcome entry in history, got %d", len(log))
	}
	if metrics.started != 1 || metrics.finished[domain.StateDegraded] != 1 {
		t.Errorf("metrics = %+v", metrics)
	}
}

func TestRemoteSuccess(t *testing.T) {
	rem := &stubAnalyzer{name: "remote", res: detection.Result{Detections: []detection.Detection{{Label: "Turtle"}}}}
	loc := &stubAnalyzer{name: "synthetic"}
	d := &Dispatcher{Remote: rem, Local: loc, History: &memHistory{}}

	out := d.Analyze(context.Background(), imageAsset, domain.ModeRemote)
	if out.State != domain.StateComplete || out.Message != domain.MsgComplete {
		t.Fatalf("state = %s", out.State)
	}
	if loc.calls != 0 {
		t.Errorf("local ran on remote success")
	}
	if len(out.Result.Species) != 1 || out.Result.Species[0] != "Turtle" {
		t.Errorf("species = %v", out.Result.Species)
	}
}

func TestLocalModeSkipsRemote(t *testing.T) {
	rem := &stubAnalyzer{name: "remote"}
	d := &Dispatcher{Remote: rem, Local: synthetic.NewWithSource(rand.NewSource(2)), History: &memHistory{}}

	out := d.Analyze(context.Background(), imageAsset, domain.ModeLocal)
	if rem.calls != 0 {
		t.Fatal("remote called in local mode")
	}
	if out.State != domain.StateComplete {
		t.Fatalf("state = %s", out.State)
	}
}

func TestRemoteModeWithoutEndpointRunsLocal(t *testing.T) {
	d := &Dispatcher{Local: synthetic.NewWithSource(rand.NewSource(3)), History: &memHistory{}}
	if d.RemoteConfigured() {
		t.Fatal("remote should not be configured")
	}
	out := d.Analyze(context.Background(), imageAsset, domain.ModeRemote)
	if out.State != domain.StateComplete {
		t.Fatalf("state = %s, want complete", out.State)
	}
}

func TestVideoGetsEmptyResultAndEntry(t *testing.T) {
	hist := &memHistory{}
	d := &Dispatcher{Local: synthetic.New(), History: hist}
	video := &media.Asset{Filename: "dive.mp4", Kind: media.KindVideo}

	out := d.Analyze(context.Background(), video, domain.ModeLocal)
	if out.Result.Detections == nil || len(out.Result.Detections) != 0 {
		t.Fatalf("detections = %#v", out.Result.Detections)
	}
	log, _ := hist.List(context.Background())
	if len(log) != 1 || log[0].Kind != media.KindVideo || log[0].Filename != "dive.mp4" {
		t.Fatalf("history = %+v", log)
	}
}

func TestHistoryFailureDoesNotSurface(t *testing.T) {
	d := &Dispatcher{Local: synthetic.New(), History: &memHistory{failing: true}}
	out := d.Analyze(context.Background(), imageAsset, domain.ModeLocal)
	if !out.State.Terminal() {
		t.Fatalf("state = %s", out.State)
	}
}

func TestLocalFailureStillTerminal(t *testing.T) {
	d := &Dispatcher{Local: &stubAnalyzer{name: "broken", err: errors.New("nope")}, History: &memHistory{}}
	out := d.Analyze(context.Background(), imageAsset, domain.ModeLocal)
	if out.State != domain.StateComplete || len(out.Result.Detections) != 0 {
		t.Fatalf("unexpected outcome %+v", out)
	}
}
