// Package geometry maps fractional detection boxes onto rendered media.
//
// Boxes are kept in percent of the container so a re-layout needs no
// recomputation; pixel rectangles are derived on demand from the current
// rendered size. Boxes that run past the far edge are allowed to overflow
// in percent form and are clipped when drawn into pixels.
package geometry

import (
	"fmt"
	"math"

	"github.com/bryanwahyu/marine-vision/internal/domain/detection"
)

// LabelOffset is how far above the box's top edge the label is anchored, in px.
const LabelOffset = 24

// Size is a rendered width/height in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is a box in percent of the container.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PixelRect is a box in pixels of a rendered size.
type PixelRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Annotation is one box ready to be drawn, in display order.
type Annotation struct {
	Index        int    `json:"index"`
	Rect         Rect   `json:"rect"`
	Style        string `json:"style"`
	Label        string `json:"label"`
	ScorePercent string `json:"score_percent"`
}

// Placed is an annotation resolved against a rendered size.
type Placed struct {
	Annotation
	Pixels PixelRect `json:"pixels"`
	LabelX int       `json:"label_x"`
	LabelY int       `json:"label_y"`
}

// Percent converts a fractional box to percent units. Non-finite values
// become 0 and negative sizes are flattened to 0.
func Percent(b detection.Box) Rect {
	return Rect{
		Left:   finite(b.X) * 100,
		Top:    finite(b.Y) * 100,
		Width:  math.Max(finite(b.W), 0) * 100,
		Height: math.Max(finite(b.H), 0) * 100,
	}
}

// Style renders the rect as CSS absolute-position declarations.
func (r Rect) Style() string {
	return fmt.Sprintf("left:%g%%;top:%g%%;width:%g%%;height:%g%%", r.Left, r.Top, r.Width, r.Height)
}

// Pixels resolves the rect against a rendered size.
func (r Rect) Pixels(s Size) PixelRect {
	return PixelRect{
		X: int(math.Round(r.Left / 100 * s.Width)),
		Y: int(math.Round(r.Top / 100 * s.Height)),
		W: int(math.Round(r.Width / 100 * s.Width)),
		H: int(math.Round(r.Height / 100 * s.Height)),
	}
}

// Label is the text drawn above a box: "Fish · 87.3%", or just the label
// when unscored. Empty labels read "Object".
func Label(d detection.Detection) string {
	name := d.Label
	if name == "" {
		name = "Object"
	}
	if d.Score == nil {
		return name
	}
	return fmt.Sprintf("%s · %.1f%%", name, *d.Score*100)
}

// ScorePercent is the detections-list figure; unscored reads 0.0%.
func ScorePercent(d detection.Detection) string {
	var v float64
	if d.Score != nil {
		v = *d.Score * 100
	}
	return fmt.Sprintf("%.1f%%", v)
}

// Annotate converts detections to percent annotations, preserving order.
func Annotate(dets []detection.Detection) []Annotation {
	out := make([]Annotation, 0, len(dets))
	for i, d := range dets {
		r := Percent(d.Box)
		out = append(out, Annotation{
			Index:        i,
			Rect:         r,
			Style:        r.Style(),
			Label:        Label(d),
			ScorePercent: ScorePercent(d),
		})
	}
	return out
}

// Overlay tracks the reference dimensions of one media element. Until the
// media reports its intrinsic load no boxes are produced.
type Overlay struct {
	ref    Size
	loaded bool
}

// Load records the rendered size once the media finished loading.
// A zero or negative size keeps the overlay unloaded.
func (o *Overlay) Load(width, height float64) {
	if width <= 0 || height <= 0 || math.IsNaN(width) || math.IsNaN(height) {
		o.loaded = false
		o.ref = Size{}
		return
	}
	o.ref = Size{Width: width, Height: height}
	o.loaded = true
}

// Resize updates the reference size after a re-layout. Ignored before Load.
func (o *Overlay) Resize(width, height float64) {
	if !o.loaded {
		return
	}
	o.Load(width, height)
}

// Unload forgets the reference size, e.g. when new media is selected.
func (o *Overlay) Unload() { o.Load(0, 0) }

func (o *Overlay) Loaded() bool { return o.loaded }

func (o *Overlay) Size() Size { return o.ref }

// Place resolves detections against the current reference size.
// Returns an empty slice before Load.
func (o *Overlay) Place(dets []detection.Detection) []Placed {
	if !o.loaded {
		return []Placed{}
	}
	anns := Annotate(dets)
	out := make([]Placed, 0, len(anns))
	for _, a := range anns {
		px := a.Rect.Pixels(o.ref)
		out = append(out, Placed{
			Annotation: a,
			Pixels:     px,
			LabelX:     px.X,
			LabelY:     px.Y - LabelOffset,
		})
	}
	return out
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
