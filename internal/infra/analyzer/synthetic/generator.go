package synthetic

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/bryanwahyu/marine-vision/internal/domain/detection"
	"github.com/bryanwahyu/marine-vision/internal/domain/media"
)

// Labels is the fixed demo vocabulary.
var Labels = []string{"Fish", "Jellyfish", "Turtle", "Crab"}

// Generator bounds. Each value is min + r*span with r in [0,1).
const (
	MaxDetections = 3

	OriginMin  = 0.1
	OriginSpan = 0.6
	WidthMin   = 0.15
	WidthSpan  = 0.3
	HeightMin  = 0.15
	HeightSpan = 0.2
	ScoreMin   = 0.65
	ScoreSpan  = 0.3
)

// Analyzer produces demo detections for images. Videos always get an
// empty result. Boxes may run past the far edge of the frame.
type Analyzer struct {
	mu         sync.Mutex
	randSource *rand.Rand
}

func New() *Analyzer {
	// dedicated random source biar gak rebutan global lock
	return NewWithSource(rand.NewSource(time.Now().UnixNano()))
}

func NewWithSource(src rand.Source) *Analyzer {
	return &Analyzer{randSource: rand.New(src)}
}

func (g *Analyzer) Name() string { return "synthetic" }

func (g *Analyzer) Analyze(ctx context.Context, a *media.Asset) (detection.Result, error) {
	if a == nil || a.Kind != media.KindImage {
		return detection.NewResult(nil), nil
	}
	return detection.NewResult(g.Generate()), nil
}

// Generate returns 1..MaxDetections random detections.
func (g *Analyzer) Generate() []detection.Detection {
	g.mu.Lock()
	defer g.mu.Unlock()

	r := g.randSource
	count := r.Intn(MaxDetections) + 1
	out := make([]detection.Detection, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, detection.Detection{
			Box: detection.Box{
				X: OriginMin + r.Float64()*OriginSpan,
				Y: OriginMin + r.Float64()*OriginSpan,
				W: WidthMin + r.Float64()*WidthSpan,
				H: HeightMin + r.Float64()*HeightSpan,
			},
			Label: Labels[r.Intn(len(Labels))],
			Score: detection.Scored(ScoreMin + r.Float64()*ScoreSpan),
		})
	}
	return out
}
