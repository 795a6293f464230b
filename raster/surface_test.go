package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func testRegistry(t *testing.T) *FontRegistry {
	t.Helper()
	r, err := NewFontRegistry()
	if err != nil {
		t.Fatalf("NewFontRegistry: %v", err)
	}
	return r
}

func TestMeasureText(t *testing.T) {
	r := testRegistry(t)
	spec := FontSpec{Family: DefaultFamily, Size: 24}
	short := r.MeasureText("hi", spec)
	long := r.MeasureText("hi there, much longer", spec)
	if short <= 0 {
		t.Fatalf("short width = %v, want > 0", short)
	}
	if long <= short {
		t.Fatalf("longer text measured %v <= %v", long, short)
	}
	if r.MeasureText("", spec) != 0 {
		t.Fatal("empty string should measure 0")
	}
}

func TestMeasureUnknownFamilyFallsBack(t *testing.T) {
	r := testRegistry(t)
	got := r.MeasureText("fallback", FontSpec{Family: "No Such Family", Size: 24})
	want := r.MeasureText("fallback", FontSpec{Family: DefaultFamily, Size: 24})
	if got != want {
		t.Fatalf("fallback width = %v, want %v", got, want)
	}
}

func TestFaceRejectsBadSize(t *testing.T) {
	r := testRegistry(t)
	if _, err := r.Face(FontSpec{Family: DefaultFamily, Size: 0}); err == nil {
		t.Fatal("expected error for zero size")
	}
}

func TestDrawLinePaintsAndErases(t *testing.T) {
	s := NewImageSurface(40, 40, testRegistry(t))
	red := color.RGBA{R: 255, A: 255}
	s.DrawLine(5, 20, 35, 20, 6, red, CompositeNormal)
	if got := s.Pixels().RGBAAt(20, 20); got != red {
		t.Fatalf("center pixel = %v, want %v", got, red)
	}
	if got := s.Pixels().RGBAAt(20, 5); got.A != 0 {
		t.Fatalf("pixel far from stroke = %v, want transparent", got)
	}

	s.DrawLine(5, 20, 35, 20, 6, red, CompositeErase)
	if got := s.Pixels().RGBAAt(20, 20); got.A != 0 {
		t.Fatalf("erased pixel = %v, want transparent", got)
	}
}

func TestDrawLineSemiTransparentBlendsOnce(t *testing.T) {
	s := NewImageSurface(20, 20, testRegistry(t))
	s.DrawLine(2, 10, 18, 10, 6, color.NRGBA{R: 255, A: 128}, CompositeNormal)

	// Half-alpha pure red premultiplies to R == A == 128; a single source-over
	// pass onto a transparent layer must reproduce it exactly. Higher alpha or
	// a darker red means the segment composited over itself.
	want := color.RGBA{R: 128, A: 128}
	if got := s.Pixels().RGBAAt(10, 10); got != want {
		t.Fatalf("center pixel = %v, want %v", got, want)
	}
}

func TestDrawLineSemiTransparentOverOpaque(t *testing.T) {
	s := NewImageSurface(20, 20, testRegistry(t))
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			s.Pixels().SetRGBA(x, y, white)
		}
	}
	s.DrawLine(2, 10, 18, 10, 6, color.NRGBA{R: 255, A: 128}, CompositeNormal)

	// 50% red over white: red stays saturated, green and blue drop to the
	// remaining white contribution, alpha stays opaque.
	got := s.Pixels().RGBAAt(10, 10)
	if got.A != 255 {
		t.Fatalf("alpha = %d, want 255", got.A)
	}
	if got.R != 255 {
		t.Fatalf("red = %d, want 255", got.R)
	}
	if got.G < 125 || got.G > 129 || got.B != got.G {
		t.Fatalf("pixel = %v, want green/blue near 127", got)
	}
}

func TestFillTextPaintsPixels(t *testing.T) {
	s := NewImageSurface(200, 60, testRegistry(t))
	s.FillText("Hello", 10, 40, FontSpec{Family: DefaultFamily, Size: 32}, color.RGBA{R: 255, A: 255})
	if countOpaque(s.Pixels()) == 0 {
		t.Fatal("FillText painted nothing")
	}
}

func TestStrokeTextCoversMoreThanFill(t *testing.T) {
	reg := testRegistry(t)
	spec := FontSpec{Family: DefaultFamily, Size: 32}

	fill := NewImageSurface(200, 60, reg)
	fill.FillText("Hello", 10, 40, spec, color.RGBA{R: 255, A: 255})

	stroked := NewImageSurface(200, 60, reg)
	stroked.StrokeText("Hello", 10, 40, spec, 4, color.RGBA{A: 255})
	stroked.FillText("Hello", 10, 40, spec, color.RGBA{R: 255, A: 255})

	if countOpaque(stroked.Pixels()) <= countOpaque(fill.Pixels()) {
		t.Fatal("stroked text should cover more pixels than fill alone")
	}
}

func TestDrawImage(t *testing.T) {
	s := NewImageSurface(20, 20, testRegistry(t))
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	s.DrawImage(src, image.Pt(8, 8))
	if got := s.Pixels().RGBAAt(9, 9); got.A != 255 {
		t.Fatalf("pixel = %v, want opaque", got)
	}
	if got := s.Pixels().RGBAAt(0, 0); got.A != 0 {
		t.Fatalf("pixel = %v, want transparent", got)
	}
}

func TestEncodePNG(t *testing.T) {
	s := NewImageSurface(12, 8, testRegistry(t))
	var buf bytes.Buffer
	if err := s.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 12 || img.Bounds().Dy() != 8 {
		t.Fatalf("decoded bounds = %v", img.Bounds())
	}
}

func countOpaque(img *image.RGBA) int {
	n := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			n++
		}
	}
	return n
}
