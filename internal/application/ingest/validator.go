package ingest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/marine-vision/internal/application"
	"github.com/bryanwahyu/marine-vision/internal/domain/media"
)

// Validator classifies uploads and allocates their preview handles.
type Validator struct {
	Previews media.PreviewStore
	Clock    application.Clock
}

// Classify accepts image/* and video/* files. Anything else is rejected
// with media.ErrUnsupportedFormat before any preview is allocated.
func (v *Validator) Classify(ctx context.Context, f media.File) (*media.Asset, error) {
	mimeType := sniffMIME(f)
	kind, ok := KindOf(mimeType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", media.ErrUnsupportedFormat, mimeType)
	}
	if len(f.Content) == 0 {
		return nil, media.ErrEmptyFile
	}

	a := &media.Asset{
		ID:        uuid.New().String(),
		Filename:  f.Filename,
		MIMEType:  mimeType,
		Kind:      kind,
		Size:      int64(len(f.Content)),
		Content:   f.Content,
		CreatedAt: v.now(),
	}
	h, err := v.Previews.Acquire(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("acquire preview: %w", err)
	}
	a.Preview = h
	return a, nil
}

// Release revokes the asset's preview handle. Safe to call more than once.
func (v *Validator) Release(ctx context.Context, a *media.Asset) error {
	if a == nil || a.Preview.ID == "" {
		return nil
	}
	h := a.Preview
	a.Preview = media.PreviewHandle{}
	return v.Previews.Release(ctx, h)
}

// KindOf maps a MIME type prefix to a media kind.
func KindOf(mimeType string) (media.Kind, bool) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.HasPrefix(mt, "image/"):
		return media.KindImage, true
	case strings.HasPrefix(mt, "video/"):
		return media.KindVideo, true
	default:
		return "", false
	}
}

// sniffMIME trusts the declared type unless it is missing or generic.
func sniffMIME(f media.File) string {
	mt := strings.TrimSpace(f.MIMEType)
	if mt != "" && !strings.EqualFold(mt, "application/octet-stream") {
		return mt
	}
	if len(f.Content) == 0 {
		return mt
	}
	return http.DetectContentType(f.Content)
}

func (v *Validator) now() time.Time {
	if v.Clock == nil {
		return time.Now()
	}
	return v.Clock.Now()
}
