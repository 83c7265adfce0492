package geometry

import (
	"math"
	"testing"

	"github.com/bryanwahyu/marine-vision/internal/domain/detection"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestPercent(t *testing.T) {
	r := Percent(detection.Box{X: 0.1, Y: 0.2, W: 0.3, H: 0.4})
	if !near(r.Left, 10) || !near(r.Top, 20) || !near(r.Width, 30) || !near(r.Height, 40) {
		t.Fatalf("rect = %+v", r)
	}

	// overflow is passed through, clipping is the renderer's job
	r = Percent(detection.Box{X: 0.9, Y: 0.9, W: 0.5, H: 0.5})
	if !near(r.Left+r.Width, 140) {
		t.Errorf("overflow rect = %+v", r)
	}

	r = Percent(detection.Box{X: math.NaN(), Y: math.Inf(1), W: -0.2, H: 0.1})
	if r.Left != 0 || r.Top != 0 || r.Width != 0 || !near(r.Height, 10) {
		t.Errorf("degenerate rect = %+v", r)
	}
}

func TestPixels(t *testing.T) {
	r := Percent(detection.Box{X: 0.1, Y: 0.2, W: 0.3, H: 0.4})
	got := r.Pixels(Size{Width: 1000, Height: 500})
	want := PixelRect{X: 100, Y: 100, W: 300, H: 200}
	if got != want {
		t.Fatalf("pixels = %+v, want %+v", got, want)
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		d    detection.Detection
		want string
	}{
		{detection.Detection{Label: "Fish", Score: detection.Scored(0.873)}, "Fish · 87.3%"},
		{detection.Detection{Label: "Crab", Score: detection.Scored(0)}, "Crab · 0.0%"},
		{detection.Detection{Label: "Crab"}, "Crab"},
		{detection.Detection{Score: detection.Scored(0.5)}, "Object · 50.0%"},
		{detection.Detection{}, "Object"},
	}
	for _, tt := range tests {
		if got := Label(tt.d); got != tt.want {
			t.Errorf("Label = %q, want %q", got, tt.want)
		}
	}
	if got := ScorePercent(detection.Detection{Label: "Fish"}); got != "0.0%" {
		t.Errorf("unscored percent = %q", got)
	}
}

func TestStyle(t *testing.T) {
	got := Rect{Left: 10, Top: 20, Width: 30, Height: 40}.Style()
	if got != "left:10%;top:20%;width:30%;height:40%" {
		t.Fatalf("style = %q", got)
	}
}

func TestOverlayNotLoadedPlacesNothing(t *testing.T) {
	dets := []detection.Detection{{Box: detection.Box{X: 0.1, Y: 0.1, W: 0.2, H: 0.2}, Label: "Fish"}}

	var o Overlay
	if got := o.Place(dets); len(got) != 0 {
		t.Fatalf("unloaded overlay placed %d boxes", len(got))
	}
	o.Resize(640, 480)
	if o.Loaded() {
		t.Fatal("Resize before Load must not load")
	}
	o.Load(0, 480)
	if o.Loaded() {
		t.Fatal("zero width must keep overlay unloaded")
	}
}

func TestOverlayPlaceIsDeterministic(t *testing.T) {
	dets := []detection.Detection{
		{Box: detection.Box{X: 0.1, Y: 0.5, W: 0.2, H: 0.2}, Label: "Fish", Score: detection.Scored(0.9)},
		{Box: detection.Box{X: 0.6, Y: 0.1, W: 0.2, H: 0.2}, Label: "Crab"},
	}
	var o Overlay
	o.Load(400, 200)

	a := o.Place(dets)
	b := o.Place(dets)
	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("placed %d/%d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("placement %d differs between calls", i)
		}
		if a[i].Index != i {
			t.Errorf("index = %d, want %d", a[i].Index, i)
		}
	}
	if a[0].Pixels != (PixelRect{X: 40, Y: 100, W: 80, H: 40}) {
		t.Errorf("pixels = %+v", a[0].Pixels)
	}
	if a[0].LabelY != 100-LabelOffset || a[0].LabelX != 40 {
		t.Errorf("label anchor = %d,%d", a[0].LabelX, a[0].LabelY)
	}

	o.Resize(800, 400)
	if got := o.Place(dets)[0].Pixels; got != (PixelRect{X: 80, Y: 200, W: 160, H: 80}) {
		t.Errorf("after resize pixels = %+v", got)
	}

	o.Unload()
	if len(o.Place(dets)) != 0 {
		t.Error("unloaded overlay still places boxes")
	}
}

func TestAnnotateCarriesDisplayStrings(t *testing.T) {
	anns := Annotate([]detection.Detection{
		{Box: detection.Box{X: 0.5, Y: 0.25, W: 0.25, H: 0.5}, Label: "Turtle", Score: detection.Scored(0.5)},
		{Box: detection.Box{X: 0, Y: 0, W: 0.5, H: 0.5}},
	})
	if len(anns) != 2 {
		t.Fatalf("len = %d", len(anns))
	}
	if anns[0].Style != "left:50%;top:25%;width:25%;height:50%" {
		t.Errorf("style = %q", anns[0].Style)
	}
	if anns[0].ScorePercent != "50.0%" || anns[1].ScorePercent != "0.0%" {
		t.Errorf("score percents = %q, %q", anns[0].ScorePercent, anns[1].ScorePercent)
	}
	if anns[0].Label != "Turtle · 50.0%" {
		t.Errorf("label = %q", anns[0].Label)
	}
	if anns[1].Label != "Object" {
		t.Errorf("label = %q", anns[1].Label)
	}
}
