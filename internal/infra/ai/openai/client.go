package openai

import (
    "context"
    "encoding/base64"
    "errors"
    "fmt"
    "net/http"
    "strings"

    "github.com/sashabaranov/go-openai"

    domai "github.com/bryanwahyu/marine-vision/internal/domain/ai"
)

const maxTokens = 2048

type Client struct {
    *openai.Client
    Model string
}

func NewClient(apiKey, model string) *Client {
    return &Client{Client: openai.NewClient(apiKey), Model: model}
}

// NewClientWithBaseURL points the SDK at an OpenAI-compatible server.
func NewClientWithBaseURL(apiKey, model, baseURL string) *Client {
    cfg := openai.DefaultConfig(apiKey)
    if baseURL != "" {
        cfg.BaseURL = baseURL
    }
    return &Client{Client: openai.NewClientWithConfig(cfg), Model: model}
}

// Describe implements domain ai.VisionClient. The image is sent inline as a data URL.
func (c *Client) Describe(ctx context.Context, prompt, mimeType string, image []byte) (string, error) {
    model := c.Model
    if model == "" {
        model = openai.GPT4o
    }
    if mimeType == "" {
        mimeType = "image/jpeg"
    }
    dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)

    req := openai.ChatCompletionRequest{
        Model: model,
        ResponseFormat: &openai.ChatCompletionResponseFormat{
            Type: openai.ChatCompletionResponseFormatTypeJSONObject,
        },
        Messages: []openai.ChatCompletionMessage{
            {
                Role: openai.ChatMessageRoleUser,
                MultiContent: []openai.ChatMessagePart{
                    {Type: openai.ChatMessagePartTypeText, Text: prompt},
                    {Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
                        URL:    dataURL,
                        Detail: openai.ImageURLDetailAuto,
                    }},
                },
            },
        },
    }
    // For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
    if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
        req.MaxCompletionTokens = maxTokens
    } else {
        req.MaxTokens = maxTokens
    }

    resp, err := c.CreateChatCompletion(ctx, req)
    if err != nil {
        var apiErr *openai.APIError
        if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
            return "", fmt.Errorf("%w: %v", domai.ErrQuotaExceeded, err)
        }
        return "", fmt.Errorf("failed to create chat completion: %w", err)
    }
    if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
        return "", domai.ErrEmptyResponse
    }

    return resp.Choices[0].Message.Content, nil
}
