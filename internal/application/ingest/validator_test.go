package ingest

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bryanwahyu/marine-vision/internal/application"
	"github.com/bryanwahyu/marine-vision/internal/domain/media"
	"github.com/bryanwahyu/marine-vision/internal/infra/storage"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newValidator() (*Validator, *storage.MemoryStore) {
	store := storage.NewMemoryStore("http://localhost/v1/previews")
	clock := application.FixedClock{T: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	return &Validator{Previews: store, Clock: clock}, store
}

func TestClassifyImage(t *testing.T) {
	v, store := newValidator()
	content := bytes.Repeat([]byte{0xff}, 2<<20)

	a, err := v.Classify(context.Background(), media.File{Filename: "reef.jpg", MIMEType: "image/jpeg", Content: content})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if a.Kind != media.KindImage {
		t.Errorf("kind = %s, want image", a.Kind)
	}
	if a.Size != int64(len(content)) || a.Filename != "reef.jpg" {
		t.Errorf("unexpected asset %+v", a)
	}
	if a.Preview.ID == "" || a.Preview.URL == "" {
		t.Errorf("expected preview handle, got %+v", a.Preview)
	}
	if store.Len() != 1 {
		t.Errorf("previews held = %d, want 1", store.Len())
	}
	if !a.CreatedAt.Equal(v.Clock.Now()) {
		t.Errorf("created at = %v", a.CreatedAt)
	}
}

func TestClassifyVideo(t *testing.T) {
	v, _ := newValidator()
	a, err := v.Classify(context.Background(), media.File{Filename: "dive.mp4", MIMEType: "video/mp4", Content: []byte("....ftypmp42")})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if a.Kind != media.KindVideo {
		t.Errorf("kind = %s, want video", a.Kind)
	}
}

func TestClassifyRejectsWithoutPreview(t *testing.T) {
	v, store := newValidator()
	_, err := v.Classify(context.Background(), media.File{Filename: "notes.pdf", MIMEType: "application/pdf", Content: []byte("%PDF-1.4")})
	if !errors.Is(err, media.ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
	if store.Len() != 0 {
		t.Errorf("rejected file allocated %d previews", store.Len())
	}
}

func TestClassifyEmptyFile(t *testing.T) {
	v, store := newValidator()
	_, err := v.Classify(context.Background(), media.File{Filename: "a.png", MIMEType: "image/png"})
	if !errors.Is(err, media.ErrEmptyFile) {
		t.Fatalf("err = %v, want ErrEmptyFile", err)
	}
	if store.Len() != 0 {
		t.Errorf("empty file allocated a preview")
	}
}

func TestClassifySniffsGenericType(t *testing.T) {
	v, _ := newValidator()
	a, err := v.Classify(context.Background(), media.File{Filename: "blob", MIMEType: "application/octet-stream", Content: pngMagic})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if a.MIMEType != "image/png" || a.Kind != media.KindImage {
		t.Errorf("sniffed %s/%s, want image/png", a.MIMEType, a.Kind)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	v, store := newValidator()
	a, err := v.Classify(context.Background(), media.File{Filename: "a.png", MIMEType: "image/png", Content: pngMagic})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if err := v.Release(context.Background(), a); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := v.Release(context.Background(), a); err != nil {
		t.Fatalf("second Release: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("preview still held after release")
	}
	if a.Preview.ID != "" {
		t.Errorf("handle not cleared")
	}
}

func TestKindOf(t *testing.T) {
	tests := map[string]media.Kind{
		"image/jpeg":  media.KindImage,
		"IMAGE/WEBP":  media.KindImage,
		"video/mp4":   media.KindVideo,
		"video/webm":  media.KindVideo,
		"audio/mpeg":  "",
		"text/plain":  "",
		"":            "",
		"imagex/jpeg": "",
	}
	for mt, want := range tests {
		got, ok := KindOf(mt)
		if got != want || ok != (want != "") {
			t.Errorf("KindOf(%q) = %q,%v want %q", mt, got, ok, want)
		}
	}
}
