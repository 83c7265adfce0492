package geometry

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"

	"github.com/bryanwahyu/marine-vision/internal/domain/detection"
)

var (
	boxColor   = color.NRGBA{34, 211, 238, 230}
	labelBg    = color.NRGBA{6, 182, 212, 255}
	labelColor = color.NRGBA{0, 0, 0, 255}
)

// MaxPixels bounds the decoded size of an uploaded image.
const MaxPixels = 40_000_000

// ErrTooLarge means the image header declares more than the pixel budget.
var ErrTooLarge = errors.New("image dimensions exceed pixel budget")

// Decode reads jpeg/png/gif/bmp/tiff/webp media, honoring EXIF orientation.
// The header is checked against MaxPixels before any pixel data is decoded.
func Decode(data []byte) (image.Image, error) {
	return decodeLimited(data, MaxPixels)
}

func decodeLimited(data []byte, maxPixels int64) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Render draws every detection onto a copy of img. maxWidth > 0 first
// shrinks the image to fit that width; boxes stay aligned because they
// are fractional.
func Render(img image.Image, dets []detection.Detection, maxWidth int) *image.NRGBA {
	var dst *image.NRGBA
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		dst = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	} else {
		dst = imaging.Clone(img)
	}

	var o Overlay
	o.Load(float64(dst.Bounds().Dx()), float64(dst.Bounds().Dy()))
	minSide := math.Min(o.ref.Width, o.ref.Height)
	stroke := int(math.Max(2, 0.004*minSide))

	for _, p := range o.Place(dets) {
		drawBox(dst, p.Pixels, boxColor, stroke)
		drawLabel(dst, p)
	}
	return dst
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}

func drawBox(img *image.NRGBA, r PixelRect, c color.NRGBA, stroke int) {
	x0, y0 := r.X, r.Y
	x1, y1 := r.X+r.W, r.Y+r.H
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	for s := 0; s < stroke; s++ {
		drawHLine(img, y0+s, x0, x1, c)
		drawHLine(img, y1-1-s, x0, x1, c)
		drawVLine(img, x0+s, y0, y1, c)
		drawVLine(img, x1-1-s, y0, y1, c)
	}
}

func drawLabel(img *image.NRGBA, p Placed) {
	face := basicfont.Face7x13
	text := p.Label
	width := font.MeasureString(face, text).Ceil() + 8
	height := face.Metrics().Height.Ceil() + 4

	x, y := p.Pixels.X, p.Pixels.Y-height
	if y < 0 {
		// gak muat di atas, taruh di dalam box
		y = p.Pixels.Y
	}
	bg := image.Rect(x, y, x+width, y+height).Intersect(img.Bounds())
	if bg.Empty() {
		return
	}
	draw.Draw(img, bg, image.NewUniform(labelBg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: face,
		Dot:  fixed.P(x+4, y+2+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	b := img.Bounds()
	if y < b.Min.Y || y >= b.Max.Y {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	x0 = max(x0, b.Min.X)
	x1 = min(x1, b.Max.X)
	for x := x0; x < x1; x++ {
		img.SetNRGBA(x, y, c)
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	y0 = max(y0, b.Min.Y)
	y1 = min(y1, b.Max.Y)
	for y := y0; y < y1; y++ {
		img.SetNRGBA(x, y, c)
	}
}
