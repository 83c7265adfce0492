package ai

import "context"

// VisionClient sends one prompt plus one image to a vision model and
// returns the raw text answer.
type VisionClient interface {
	Describe(ctx context.Context, prompt, mimeType string, image []byte) (string, error)
}
