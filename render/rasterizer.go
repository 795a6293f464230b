package render

import (
	"fmt"
	"image"

	"annotlib/annotation"
	"annotlib/document"
	"annotlib/layout"
	"annotlib/observability"
	"annotlib/raster"
)

// Rasterizer flattens page records for export. It draws a true outline at
// double the configured stroke width, unlike the preview's shadow-copy
// approximation; both share the same layout engine.
type Rasterizer struct {
	c      compositor
	logger observability.Logger
}

// RasterizerOption configures a Rasterizer.
type RasterizerOption func(*Rasterizer)

// WithRasterizerLogger sets the logger for repair warnings.
func WithRasterizerLogger(l observability.Logger) RasterizerOption {
	return func(r *Rasterizer) { r.logger = l }
}

// NewRasterizer returns an export rasterizer.
func NewRasterizer(fonts *raster.FontRegistry, opts ...RasterizerOption) *Rasterizer {
	r := &Rasterizer{logger: observability.NopLogger{}}
	r.c = newCompositor(fonts, exportOutline)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// exportOutline draws the real stroke pass at double the configured width.
func exportOutline(s *raster.ImageSurface, line string, x, y float64, spec raster.FontSpec, st annotation.Style) {
	s.StrokeText(line, x, y, spec, 2*st.StrokeWidth, st.StrokeColor.NRGBA())
}

// newCompositor wires a compositor for the given outline pass.
func newCompositor(fonts *raster.FontRegistry, outline outlinePainter) compositor {
	return compositor{
		fonts:   fonts,
		eng:     layout.NewEngine(fonts),
		outline: outline,
	}
}

// RenderPage flattens one stored page record. A page with a missing edit
// layer is rendered from an empty overlay and logged; processing continues.
func (r *Rasterizer) RenderPage(p *document.Page) (*image.RGBA, error) {
	if p == nil {
		return nil, fmt.Errorf("render page: nil page")
	}
	if p.EditLayer == nil {
		r.logger.Warn("page record missing edit layer, rendering without overlay",
			observability.String("page", p.ID))
	}
	return r.c.compose(p.Base, p.EditLayer, p.Width, p.Height, p.Boxes), nil
}
