package analysis

import (
	"context"
	"log"
	"time"

	"github.com/bryanwahyu/marine-vision/internal/application"
	domain "github.com/bryanwahyu/marine-vision/internal/domain/analysis"
	"github.com/bryanwahyu/marine-vision/internal/domain/detection"
	"github.com/bryanwahyu/marine-vision/internal/domain/history"
	"github.com/bryanwahyu/marine-vision/internal/domain/media"
)

// Recorder receives dispatch counters. Optional.
type Recorder interface {
	AnalysisStarted()
	AnalysisFinished(state domain.State)
}

// Dispatcher picks remote or local analysis and always ends with a
// displayable result. It is safe for concurrent use.
type Dispatcher struct {
	Remote  domain.Analyzer // nil = no remote endpoint configured
	Local   domain.Analyzer
	History history.Store
	Clock   application.Clock
	Metrics Recorder
}

// RemoteConfigured reports whether remote mode can be honored.
func (d *Dispatcher) RemoteConfigured() bool { return d.Remote != nil }

// Analyze runs exactly one attempt. Remote failures degrade to the local
// generator; nothing is returned as an error. One history entry is appended
// for the terminal state.
func (d *Dispatcher) Analyze(ctx context.Context, asset *media.Asset, mode domain.Mode) domain.Outcome {
	start := d.now()
	if d.Metrics != nil {
		d.Metrics.AnalysisStarted()
	}

	out := domain.Outcome{State: domain.StateComplete, Message: domain.MsgComplete}
	if mode == domain.ModeRemote && d.Remote != nil {
		res, err := d.Remote.Analyze(ctx, asset)
		if err == nil {
			out.Result = res
			out.Analyzer = d.Remote.Name()
		} else {
			log.Printf("analysis degraded analyzer=%s file=%q kind=%s error=%v",
				d.Remote.Name(), asset.Filename, asset.Kind, err)
			out.State = domain.StateDegraded
			out.Message = domain.MsgDegraded
			out.Result, out.Analyzer = d.runLocal(ctx, asset)
		}
	} else {
		out.Result, out.Analyzer = d.runLocal(ctx, asset)
	}
	if out.Result.Detections == nil {
		out.Result.Detections = []detection.Detection{}
	}
	if out.Result.Species == nil {
		out.Result.Species = detection.DeriveSpecies(out.Result.Detections)
	}

	end := d.now()
	out.Duration = end.Sub(start)
	out.Entry = history.NewEntry(asset, out.Result, end)
	if d.History != nil {
		if err := d.History.Append(context.WithoutCancel(ctx), out.Entry); err != nil {
			log.Printf("history append failed id=%s file=%q error=%v", out.Entry.ID, asset.Filename, err)
		}
	}
	if d.Metrics != nil {
		d.Metrics.AnalysisFinished(out.State)
	}
	return out
}

func (d *Dispatcher) runLocal(ctx context.Context, asset *media.Asset) (detection.Result, string) {
	if d.Local == nil {
		return detection.NewResult(nil), "none"
	}
	res, err := d.Local.Analyze(ctx, asset)
	if err != nil {
		log.Printf("local analysis failed analyzer=%s file=%q error=%v", d.Local.Name(), asset.Filename, err)
		return detection.NewResult(nil), d.Local.Name()
	}
	return res, d.Local.Name()
}

func (d *Dispatcher) now() time.Time {
	if d.Clock == nil {
		return time.Now()
	}
	return d.Clock.Now()
}
