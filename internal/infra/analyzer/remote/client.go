package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/bryanwahyu/marine-vision/internal/domain/detection"
	"github.com/bryanwahyu/marine-vision/internal/domain/media"
)

// AnalyzePath is appended to the configured base endpoint.
const AnalyzePath = "/api/analyze"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// Analyzer submits the raw media to a remote analysis service.
type Analyzer struct {
	endpoint   string
	httpClient *http.Client
}

// New returns nil when endpoint is empty, meaning "no remote configured".
func New(endpoint string, timeout time.Duration) *Analyzer {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Analyzer{
		endpoint:   strings.TrimSuffix(endpoint, "/") + AnalyzePath,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewWithClient is New with a caller-supplied HTTP client.
func NewWithClient(endpoint string, client *http.Client) *Analyzer {
	a := New(endpoint, 0)
	if a != nil && client != nil {
		a.httpClient = client
	}
	return a
}

func (a *Analyzer) Name() string { return "remote" }

// URL returns the full analyze URL.
func (a *Analyzer) URL() string { return a.endpoint }

// Analyze sends one multipart request with the file under field "file".
// Transport errors, non-2xx statuses and undecodable bodies all come back
// as errors; the caller decides how to degrade.
func (a *Analyzer) Analyze(ctx context.Context, asset *media.Asset) (detection.Result, error) {
	body, contentType, err := encodeMultipart(asset)
	if err != nil {
		return detection.Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, body)
	if err != nil {
		return detection.Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return detection.Result{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return detection.Result{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return detection.Result{}, fmt.Errorf("backend responded %d", resp.StatusCode)
	}
	return detection.ParsePayload(raw)
}

func encodeMultipart(asset *media.Asset) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	filename := asset.Filename
	if filename == "" {
		filename = "upload"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
	h.Set("Content-Type", asset.MIMEType)
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(asset.Content); err != nil {
		return nil, "", fmt.Errorf("copy media data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }
