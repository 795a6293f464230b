// Package raster provides the drawing surface capability consumed by the
// renderers, together with an image.RGBA-backed reference implementation and
// the font registry shared by measurement and drawing.
package raster

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// CompositeMode selects how strokes blend into the surface.
type CompositeMode int

const (
	// CompositeNormal alpha-blends the stroke over existing pixels.
	CompositeNormal CompositeMode = iota
	// CompositeErase removes alpha under the stroke, exposing whatever is
	// composited beneath this layer.
	CompositeErase
)

// Surface is the canvas-like capability the core draws on: pixel buffer
// access, image and line drawing, text measurement and rendering, and PNG
// encoding.
type Surface interface {
	Bounds() image.Rectangle
	Pixels() *image.RGBA
	DrawImage(src image.Image, at image.Point)
	DrawLine(x1, y1, x2, y2, width float64, col color.Color, mode CompositeMode)
	MeasureText(text string, spec FontSpec) float64
	FillText(text string, x, y float64, spec FontSpec, col color.Color)
	StrokeText(text string, x, y float64, spec FontSpec, width float64, col color.Color)
	EncodePNG(w io.Writer) error
}

// ImageSurface implements Surface on an image.RGBA buffer.
type ImageSurface struct {
	img   *image.RGBA
	fonts *FontRegistry
}

// NewImageSurface allocates a transparent surface of the given size.
func NewImageSurface(width, height int, fonts *FontRegistry) *ImageSurface {
	return &ImageSurface{img: image.NewRGBA(image.Rect(0, 0, width, height)), fonts: fonts}
}

// NewImageSurfaceFor wraps an existing buffer; drawing mutates it in place.
func NewImageSurfaceFor(img *image.RGBA, fonts *FontRegistry) *ImageSurface {
	return &ImageSurface{img: img, fonts: fonts}
}

func (s *ImageSurface) Bounds() image.Rectangle { return s.img.Bounds() }

func (s *ImageSurface) Pixels() *image.RGBA { return s.img }

func (s *ImageSurface) DrawImage(src image.Image, at image.Point) {
	r := src.Bounds().Sub(src.Bounds().Min).Add(at)
	draw.Draw(s.img, r, src, src.Bounds().Min, draw.Over)
}

// DrawLine paints a round-capped segment. Coverage is resolved for the whole
// capsule before blending so every pixel composites exactly once per segment;
// semi-transparent brushes must not compound over themselves within a stroke.
func (s *ImageSurface) DrawLine(x1, y1, x2, y2, width float64, col color.Color, mode CompositeMode) {
	if width <= 0 {
		return
	}
	radius := width / 2
	cr, cg, cb, ca := col.RGBA()
	src := color.RGBA{uint8(cr >> 8), uint8(cg >> 8), uint8(cb >> 8), uint8(ca >> 8)}

	b := s.img.Bounds()
	px0 := int(math.Floor(math.Min(x1, x2) - radius))
	px1 := int(math.Ceil(math.Max(x1, x2) + radius))
	py0 := int(math.Floor(math.Min(y1, y2) - radius))
	py1 := int(math.Ceil(math.Max(y1, y2) + radius))

	dx, dy := x2-x1, y2-y1
	lenSq := dx*dx + dy*dy
	rr := radius * radius
	for y := py0; y <= py1; y++ {
		if y < b.Min.Y || y >= b.Max.Y {
			continue
		}
		for x := px0; x <= px1; x++ {
			if x < b.Min.X || x >= b.Max.X {
				continue
			}
			cx := float64(x) + 0.5
			cy := float64(y) + 0.5
			t := 0.0
			if lenSq > 0 {
				t = ((cx-x1)*dx + (cy-y1)*dy) / lenSq
				t = math.Max(0, math.Min(1, t))
			}
			ddx := cx - (x1 + dx*t)
			ddy := cy - (y1 + dy*t)
			if ddx*ddx+ddy*ddy > rr {
				continue
			}
			if mode == CompositeErase {
				s.img.SetRGBA(x, y, color.RGBA{})
				continue
			}
			s.img.SetRGBA(x, y, blendOver(s.img.RGBAAt(x, y), src))
		}
	}
}

// blendOver composites src over dst. Both are alpha-premultiplied, as
// color.Color.RGBA and image.RGBA store them, so the source term carries its
// alpha already: out = src + dst*(255-sa)/255.
func blendOver(dst, src color.RGBA) color.RGBA {
	inv := 255 - uint32(src.A)
	return color.RGBA{
		R: uint8(uint32(src.R) + uint32(dst.R)*inv/255),
		G: uint8(uint32(src.G) + uint32(dst.G)*inv/255),
		B: uint8(uint32(src.B) + uint32(dst.B)*inv/255),
		A: uint8(uint32(src.A) + uint32(dst.A)*inv/255),
	}
}

func (s *ImageSurface) MeasureText(text string, spec FontSpec) float64 {
	return s.fonts.MeasureText(text, spec)
}

// FillText draws the string with its baseline at (x, y).
func (s *ImageSurface) FillText(text string, x, y float64, spec FontSpec, col color.Color) {
	face, err := s.fonts.Face(spec)
	if err != nil {
		return
	}
	d := font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(math.Round(x * 64)),
			Y: fixed.Int26_6(math.Round(y * 64)),
		},
	}
	d.DrawString(text)
}

// StrokeText draws an outline of the given total width around the string.
// The outline is produced by dilating the glyph coverage: the fill is
// repeated at every integer radius up to width/2 across a ring of angles.
func (s *ImageSurface) StrokeText(text string, x, y float64, spec FontSpec, width float64, col color.Color) {
	if width <= 0 {
		return
	}
	const angles = 16
	maxR := width / 2
	for r := 1.0; r <= maxR; r++ {
		for i := 0; i < angles; i++ {
			a := 2 * math.Pi * float64(i) / angles
			s.FillText(text, x+r*math.Cos(a), y+r*math.Sin(a), spec, col)
		}
	}
	if maxR < 1 {
		// Sub-pixel stroke widths still get a minimal ring.
		for i := 0; i < angles; i++ {
			a := 2 * math.Pi * float64(i) / angles
			s.FillText(text, x+maxR*math.Cos(a), y+maxR*math.Sin(a), spec, col)
		}
	}
}

func (s *ImageSurface) EncodePNG(w io.Writer) error {
	return png.Encode(w, s.img)
}
