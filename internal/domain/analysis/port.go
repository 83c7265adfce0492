package analysis

import (
	"context"

	"github.com/bryanwahyu/marine-vision/internal/domain/detection"
	"github.com/bryanwahyu/marine-vision/internal/domain/media"
)

// Analyzer port: one strategy for producing detections from an asset.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, a *media.Asset) (detection.Result, error)
}
