package synthetic

import (
	"context"
	"math/rand"
	"testing"

	"github.com/bryanwahyu/marine-vision/internal/domain/media"
)

func inRange(v, lo, hi float64) bool { return v >= lo && v < hi }

func TestGenerateBounds(t *testing.T) {
	g := NewWithSource(rand.NewSource(42))
	labels := map[string]bool{}
	for _, l := range Labels {
		labels[l] = true
	}

	for i := 0; i < 500; i++ {
		dets := g.Generate()
		if len(dets) < 1 || len(dets) > MaxDetections {
			t.Fatalf("count = %d, want 1..%d", len(dets), MaxDetections)
		}
		for _, d := range dets {
			if !inRange(d.X, 0.1, 0.7) || !inRange(d.Y, 0.1, 0.7) {
				t.Fatalf("origin out of range: %+v", d.Box)
			}
			if !inRange(d.W, 0.15, 0.45) || !inRange(d.H, 0.15, 0.35) {
				t.Fatalf("size out of range: %+v", d.Box)
			}
			if d.Score == nil || !inRange(*d.Score, 0.65, 0.95) {
				t.Fatalf("score out of range: %v", d.Score)
			}
			if !labels[d.Label] {
				t.Fatalf("unexpected label %q", d.Label)
			}
		}
	}
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	a := NewWithSource(rand.NewSource(7)).Generate()
	b := NewWithSource(rand.NewSource(7)).Generate()
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Box != b[i].Box || a[i].Label != b[i].Label || *a[i].Score != *b[i].Score {
			t.Fatalf("detection %d differs", i)
		}
	}
}

func TestAnalyzeVideoIsEmpty(t *testing.T) {
	g := NewWithSource(rand.NewSource(1))
	r, err := g.Analyze(context.Background(), &media.Asset{Kind: media.KindVideo})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(r.Detections) != 0 || len(r.Species) != 0 {
		t.Fatalf("expected empty result for video, got %+v", r)
	}
}

func TestAnalyzeImageDerivesSpecies(t *testing.T) {
	g := NewWithSource(rand.NewSource(3))
	r, err := g.Analyze(context.Background(), &media.Asset{Kind: media.KindImage})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(r.Detections) == 0 {
		t.Fatal("expected detections for image")
	}
	seen := map[string]bool{}
	for _, s := range r.Species {
		if seen[s] {
			t.Fatalf("duplicate species %q", s)
		}
		seen[s] = true
	}
	for _, d := range r.Detections {
		if !seen[d.Label] {
			t.Fatalf("label %q missing from species", d.Label)
		}
	}
}
