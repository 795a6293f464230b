package render

import (
	"image"
	"math"

	"annotlib/annotation"
	"annotlib/document"
	"annotlib/raster"
)

// previewOutlineCopies is the fixed number of angularly offset shadow copies
// the preview uses to fake a stroke. Export draws a real outline instead;
// the visual weight intentionally differs, the line breaks never do.
const previewOutlineCopies = 8

// Preview renders the live working state for on-screen display.
type Preview struct {
	c compositor
}

// NewPreview returns a preview renderer measuring and drawing through fonts.
func NewPreview(fonts *raster.FontRegistry) *Preview {
	p := &Preview{}
	p.c = newCompositor(fonts, previewOutline)
	return p
}

// previewOutline fakes the stroke with shadow copies at the configured width.
func previewOutline(s *raster.ImageSurface, line string, x, y float64, spec raster.FontSpec, st annotation.Style) {
	col := st.StrokeColor.NRGBA()
	r := st.StrokeWidth
	for i := 0; i < previewOutlineCopies; i++ {
		a := 2 * math.Pi * float64(i) / previewOutlineCopies
		s.FillText(line, x+r*math.Cos(a), y+r*math.Sin(a), spec, col)
	}
}

// Render composites the given page state. base and layer may be nil; the
// output size follows the base image when present.
func (p *Preview) Render(base, layer *image.RGBA, boxes []annotation.TextBox) *image.RGBA {
	w, h := stateSize(base, layer)
	return p.c.compose(base, layer, w, h, boxes)
}

// RenderLive composites the store's active page from its live buffers. The
// stored record may be stale; the live copy is the truth between sync points.
func (p *Preview) RenderLive(s *document.Store) (*image.RGBA, error) {
	page, err := s.Page(s.ActiveIndex())
	if err != nil {
		return nil, err
	}
	return p.c.compose(page.Base, s.LiveEditLayer(), page.Width, page.Height, s.LiveBoxes()), nil
}

func stateSize(base, layer *image.RGBA) (int, int) {
	switch {
	case base != nil:
		return base.Bounds().Dx(), base.Bounds().Dy()
	case layer != nil:
		return layer.Bounds().Dx(), layer.Bounds().Dy()
	default:
		return 0, 0
	}
}
