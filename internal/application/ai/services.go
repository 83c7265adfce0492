package ai

import (
	"context"
	"fmt"

	domai "github.com/bryanwahyu/marine-vision/internal/domain/ai"
	"github.com/bryanwahyu/marine-vision/internal/domain/detection"
	"github.com/bryanwahyu/marine-vision/internal/domain/media"
	"github.com/bryanwahyu/marine-vision/internal/infra/ai/prompt"
)

// Service adapts a vision model client to the analysis.Analyzer port.
// Videos are not sent to the model; they get an empty result.
type Service struct {
	client domai.VisionClient
	name   string
}

func NewService(name string, client domai.VisionClient) *Service {
	return &Service{client: client, name: name}
}

func (s *Service) Name() string { return s.name }

func (s *Service) Analyze(ctx context.Context, a *media.Asset) (detection.Result, error) {
	if a.Kind != media.KindImage {
		return detection.NewResult(nil), nil
	}
	raw, err := s.client.Describe(ctx, prompt.DetectionPrompt, a.MIMEType, a.Content)
	if err != nil {
		return detection.Result{}, fmt.Errorf("%s: %w", s.name, err)
	}
	res, err := prompt.ParseDetections(raw)
	if err != nil {
		return detection.Result{}, fmt.Errorf("%s: %w", s.name, err)
	}
	return res, nil
}
