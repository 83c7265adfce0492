package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/bryanwahyu/marine-vision/internal/domain/media"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	s := NewMemoryStore("http://host/v1/previews")
	ctx := context.Background()

	h, err := s.Acquire(ctx, &media.Asset{MIMEType: "image/png", Content: []byte("png")})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !strings.HasPrefix(h.URL, "http://host/v1/previews/") || !strings.HasSuffix(h.URL, h.ID) {
		t.Errorf("url = %s", h.URL)
	}

	data, ct, ok := s.Open(h.ID)
	if !ok || string(data) != "png" || ct != "image/png" {
		t.Fatalf("Open = %q %q %v", data, ct, ok)
	}

	if err := s.Release(ctx, h); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, _, ok := s.Open(h.ID); ok {
		t.Error("handle still open after release")
	}
	// releasing twice is harmless
	if err := s.Release(ctx, h); err != nil {
		t.Fatalf("second Release: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d", s.Len())
	}
}
