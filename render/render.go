// Package render composites pages: base image, edit layer, then every text
// box in creation order, rotated about its own center. Two renderers share
// one layout engine so line breaking is identical between the interactive
// preview and the export output; only outline fidelity differs.
package render

import (
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"annotlib/annotation"
	"annotlib/layout"
	"annotlib/raster"
)

// outlinePainter draws the outline pass for one laid-out line. The fill pass
// is common to both renderers.
type outlinePainter func(s *raster.ImageSurface, line string, x, y float64, spec raster.FontSpec, st annotation.Style)

// compositor holds the state shared by the preview renderer and the export
// rasterizer.
type compositor struct {
	fonts   *raster.FontRegistry
	eng     *layout.Engine
	outline outlinePainter
}

// specFor maps a box style to a font spec.
func specFor(st annotation.Style) raster.FontSpec {
	return raster.FontSpec{
		Family: st.FontFamily,
		Size:   st.FontSize,
		Bold:   st.Bold,
		Italic: st.Italic,
	}
}

// compose renders one page worth of state into a fresh buffer. base and
// layer may be nil; boxes render in list order.
func (c *compositor) compose(base, layer *image.RGBA, width, height int, boxes []annotation.TextBox) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	if base != nil {
		draw.Draw(out, out.Bounds(), base, base.Bounds().Min, draw.Src)
	}
	if layer != nil {
		draw.Draw(out, out.Bounds(), layer, layer.Bounds().Min, draw.Over)
	}
	for _, box := range boxes {
		c.drawBox(out, box)
	}
	return out
}

// drawBox renders one box's text onto a scratch surface centered on the box
// center, then composites it into dst with the box's rotation.
func (c *compositor) drawBox(dst *image.RGBA, box annotation.TextBox) {
	spec := specFor(box.Style)
	lineHeight := box.Style.LineHeight
	if lineHeight <= 0 {
		lineHeight = 1.2
	}
	g := box.Geometry
	lines := c.eng.Layout(box.Text, g.Width, g.Height, spec, lineHeight)
	if len(lines) == 0 {
		return
	}

	// Scratch extents: text may overflow the nominal box on both axes
	// (oversized words, unclipped vertical overflow) and the outline pass
	// reaches past the glyph edges.
	margin := 2*box.Style.StrokeWidth + 2
	maxLineW := 0.0
	for _, l := range lines {
		if w := c.fonts.MeasureText(l.Text, spec); w > maxLineW {
			maxLineW = w
		}
	}
	lineX := layout.LineX(g.Width)
	halfX := g.Width / 2
	if right := lineX + maxLineW; right > halfX {
		halfX = right
	}
	halfY := g.Height / 2
	if bottom := lines[len(lines)-1].YOffset + spec.Size; bottom > halfY {
		halfY = bottom
	}
	halfX += margin
	halfY += margin

	sw := int(math.Ceil(2 * halfX))
	sh := int(math.Ceil(2 * halfY))
	surf := raster.NewImageSurface(sw, sh, c.fonts)
	for _, l := range lines {
		x := halfX + lineX
		y := halfY + l.YOffset
		if box.Style.StrokeWidth > 0 {
			c.outline(surf, l.Text, x, y, spec, box.Style)
		}
		surf.FillText(l.Text, x, y, spec, box.Style.TextColor.NRGBA())
	}

	c.composite(dst, surf.Pixels(), g, halfX, halfY)
}

// composite places the scratch buffer so its center lands on the box center,
// applying the rotation transform.
func (c *compositor) composite(dst, scratch *image.RGBA, g annotation.Geometry, halfX, halfY float64) {
	cx, cy := g.CenterX(), g.CenterY()
	if g.RotationDegrees == 0 {
		at := image.Pt(int(math.Round(cx-halfX)), int(math.Round(cy-halfY)))
		r := scratch.Bounds().Sub(scratch.Bounds().Min).Add(at)
		draw.Draw(dst, r, scratch, scratch.Bounds().Min, draw.Over)
		return
	}
	rad := g.RotationDegrees * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	aff := f64.Aff3{
		cos, -sin, cx - (cos*halfX - sin*halfY),
		sin, cos, cy - (sin*halfX + cos*halfY),
	}
	xdraw.BiLinear.Transform(dst, aff, scratch, scratch.Bounds(), xdraw.Over, nil)
}
