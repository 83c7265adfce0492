package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	domai "github.com/bryanwahyu/marine-vision/internal/domain/ai"
)

// DefaultModel is a vision-capable model available in the public library.
const DefaultModel = "llava"

// Client wraps the Ollama API client
type Client struct {
	client *api.Client
	model  string
}

// NewClient creates a new Ollama client for serverURL (path is ignored).
func NewClient(serverURL, model string, timeout time.Duration) (*Client, error) {
	parsedURL, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: %q", serverURL)
	}
	baseURL := &url.URL{Scheme: parsedURL.Scheme, Host: parsedURL.Host}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		client: api.NewClient(baseURL, &http.Client{Timeout: timeout}),
		model:  model,
	}, nil
}

// Describe implements domain ai.VisionClient.
func (c *Client) Describe(ctx context.Context, prompt, mimeType string, image []byte) (string, error) {
	streamFalse := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: prompt,
				Images:  []api.ImageData{api.ImageData(image)},
			},
		},
		Stream:  &streamFalse,
		Options: map[string]any{"temperature": 0.2},
	}

	var content string
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content += resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %w", err)
	}
	if content == "" {
		return "", domai.ErrEmptyResponse
	}
	return content, nil
}
