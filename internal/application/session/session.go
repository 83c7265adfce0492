package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	domain "github.com/bryanwahyu/marine-vision/internal/domain/analysis"
	"github.com/bryanwahyu/marine-vision/internal/domain/detection"
	"github.com/bryanwahyu/marine-vision/internal/domain/media"
	"github.com/bryanwahyu/marine-vision/internal/geometry"
)

var (
	ErrNotFound         = errors.New("session not found")
	ErrClosed           = errors.New("session closed")
	ErrNoMedia          = errors.New("no media selected")
	ErrAnalysisInFlight = errors.New("analysis already running for this media")
	// ErrSuperseded means a newer selection replaced the asset while the
	// analysis was running; the outcome was not applied to the session.
	ErrSuperseded = errors.New("analysis superseded by a newer selection")
)

// Classifier is the ingestion side the session depends on.
type Classifier interface {
	Classify(ctx context.Context, f media.File) (*media.Asset, error)
	Release(ctx context.Context, a *media.Asset) error
}

// Dispatcher is the analysis side the session depends on.
type Dispatcher interface {
	Analyze(ctx context.Context, a *media.Asset, mode domain.Mode) domain.Outcome
	RemoteConfigured() bool
}

// StatusFunc observes every status transition of a session. It runs with
// the session lock held and must not call back into the session.
type StatusFunc func(id string, state domain.State, message string)

type Options struct {
	DefaultMode domain.Mode
	OnStatus    StatusFunc
}

// Session owns the currently selected asset, its preview handle and the
// detections shown for it. All methods are safe for concurrent use.
type Session struct {
	ID string

	classifier Classifier
	dispatcher Dispatcher
	opts       Options

	mu         sync.Mutex
	state      domain.State
	message    string
	asset      *media.Asset
	result     detection.Result
	lastEntry  string
	epoch      uint64
	inFlight   bool
	closed     bool
	lastActive time.Time
}

func newSession(id string, c Classifier, d Dispatcher, opts Options) *Session {
	if opts.DefaultMode == "" {
		opts.DefaultMode = domain.ModeLocal
	}
	return &Session{
		ID:         id,
		classifier: c,
		dispatcher: d,
		opts:       opts,
		state:      domain.StateIdle,
		message:    domain.MsgWaiting,
		result:     detection.NewResult(nil),
		lastActive: time.Now(),
	}
}

// Select classifies f and makes it the current asset. A rejected file only
// changes the status message. An accepted one releases the previous preview
// and clears the previous detections.
func (s *Session) Select(ctx context.Context, f media.File) (Snapshot, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Snapshot{}, ErrClosed
	}
	s.mu.Unlock()

	asset, err := s.classifier.Classify(ctx, f)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedFormat) {
			s.setStatus(s.state, domain.MsgUnsupported)
		}
		return s.snapshotLocked(), err
	}
	if s.closed {
		// closed while classifying; drop the new preview too
		s.release(ctx, asset)
		return Snapshot{}, ErrClosed
	}

	prev := s.asset
	s.asset = asset
	s.result = detection.NewResult(nil)
	s.lastEntry = ""
	s.epoch++
	s.inFlight = false
	s.release(ctx, prev)
	s.setStatus(domain.StateReady, domain.MsgReady)
	return s.snapshotLocked(), nil
}

// Analyze dispatches the current asset once. The dispatch is detached from
// ctx cancellation. If a newer selection arrives before it finishes, the
// outcome is discarded and ErrSuperseded is returned with the current snapshot.
func (s *Session) Analyze(ctx context.Context, mode domain.Mode) (Snapshot, error) {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return Snapshot{}, ErrClosed
	case s.asset == nil:
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, ErrNoMedia
	case s.inFlight:
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, ErrAnalysisInFlight
	}
	if mode == "" {
		mode = s.opts.DefaultMode
	}
	epoch := s.epoch
	asset := s.asset
	s.inFlight = true
	s.lastActive = time.Now()
	s.setStatus(domain.StateAnalyzing, domain.MsgAnalyzing)
	s.mu.Unlock()

	out := s.dispatcher.Analyze(context.WithoutCancel(ctx), asset, mode)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || s.closed {
		log.Printf("stale analysis dropped session=%s file=%q entry=%s", s.ID, asset.Filename, out.Entry.ID)
		if s.closed {
			return Snapshot{}, ErrClosed
		}
		return s.snapshotLocked(), ErrSuperseded
	}
	s.inFlight = false
	s.result = out.Result
	s.lastEntry = out.Entry.ID
	s.lastActive = time.Now()
	s.setStatus(out.State, out.Message)
	return s.snapshotLocked(), nil
}

// Close releases the preview handle. Any in-flight outcome is discarded.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.epoch++
	prev := s.asset
	s.asset = nil
	s.result = detection.NewResult(nil)
	s.inFlight = false
	s.state = domain.StateIdle
	s.message = domain.MsgWaiting
	if prev != nil && prev.Preview.ID != "" {
		if err := s.classifier.Release(ctx, prev); err != nil {
			return fmt.Errorf("release preview: %w", err)
		}
	}
	return nil
}

// Snapshot returns the current view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Current returns the selected asset and its detections, or ErrNoMedia.
func (s *Session) Current() (*media.Asset, []detection.Detection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, nil, ErrClosed
	}
	if s.asset == nil {
		return nil, nil, ErrNoMedia
	}
	dets := make([]detection.Detection, len(s.result.Detections))
	copy(dets, s.result.Detections)
	return s.asset, dets, nil
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return time.Now()
	}
	return s.lastActive
}

func (s *Session) release(ctx context.Context, a *media.Asset) {
	if a == nil {
		return
	}
	if err := s.classifier.Release(ctx, a); err != nil {
		log.Printf("preview release failed session=%s handle=%s error=%v", s.ID, a.Preview.ID, err)
	}
}

func (s *Session) setStatus(state domain.State, message string) {
	s.state = state
	s.message = message
	if s.opts.OnStatus != nil {
		s.opts.OnStatus(s.ID, state, message)
	}
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:               s.ID,
		State:            s.state,
		Message:          s.message,
		Detections:       s.result.Detections,
		Species:          s.result.Species,
		Annotations:      []geometry.Annotation{},
		RemoteConfigured: s.dispatcher.RemoteConfigured(),
		HistoryEntryID:   s.lastEntry,
	}
	if snap.Detections == nil {
		snap.Detections = []detection.Detection{}
	}
	if snap.Species == nil {
		snap.Species = []string{}
	}
	if s.asset != nil {
		snap.Asset = &AssetSummary{
			ID:         s.asset.ID,
			Filename:   s.asset.Filename,
			Kind:       s.asset.Kind,
			MIMEType:   s.asset.MIMEType,
			Size:       s.asset.Size,
			PreviewURL: s.asset.Preview.URL,
		}
		if s.asset.Kind == media.KindImage {
			snap.Annotations = geometry.Annotate(s.result.Detections)
		}
	}
	return snap
}
