// Package annotation defines the value types for text annotations: geometry,
// style and the TextBox entity. These are plain values; history, layout and
// export only ever touch this form, never a rendering representation.
package annotation

import (
	"image/color"

	"github.com/google/uuid"
)

// Minimum box dimensions, enforced during resize gestures as well as at
// creation time.
const (
	MinBoxWidth  = 60.0
	MinBoxHeight = 30.0
)

// Geometry describes the placement of a box on a page. Rotation is a
// rendering transform about the box's own center; it never alters the stored
// Left/Top/Width/Height.
type Geometry struct {
	Left            float64
	Top             float64
	Width           float64
	Height          float64
	RotationDegrees float64
}

// CenterX returns the horizontal center of the box in page coordinates.
func (g Geometry) CenterX() float64 { return g.Left + g.Width/2 }

// CenterY returns the vertical center of the box in page coordinates.
func (g Geometry) CenterY() float64 { return g.Top + g.Height/2 }

// ClampMin grows the box to the minimum dimensions if needed, keeping
// Left/Top fixed.
func (g Geometry) ClampMin() Geometry {
	if g.Width < MinBoxWidth {
		g.Width = MinBoxWidth
	}
	if g.Height < MinBoxHeight {
		g.Height = MinBoxHeight
	}
	return g
}

// Color is an 8-bit RGBA color value.
type Color struct {
	R, G, B, A uint8
}

// NRGBA converts to the image/color representation used for drawing.
func (c Color) NRGBA() color.NRGBA { return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A} }

// Style configures how a box's text is rendered.
type Style struct {
	FontSize    float64
	FontFamily  string
	LineHeight  float64 // multiplier, e.g. 1.2
	Bold        bool
	Italic      bool
	TextColor   Color
	StrokeColor Color
	StrokeWidth float64 // >= 0; 0 disables the outline
}

// DefaultStyle returns the style applied to newly created boxes.
func DefaultStyle() Style {
	return Style{
		FontSize:    24,
		FontFamily:  "Go",
		LineHeight:  1.2,
		TextColor:   Color{R: 255, G: 255, B: 255, A: 255},
		StrokeColor: Color{A: 255},
		StrokeWidth: 2,
	}
}

// TextBox is a single text annotation. The ID is unique within a page and
// immutable after creation.
type TextBox struct {
	ID       string
	Geometry Geometry
	Text     string
	Style    Style
}

// NewTextBox creates a box at the given position with default size and style.
func NewTextBox(left, top float64) TextBox {
	return TextBox{
		ID: uuid.NewString(),
		Geometry: Geometry{
			Left:   left,
			Top:    top,
			Width:  140,
			Height: 60,
		},
		Style: DefaultStyle(),
	}
}

// Duplicate returns a value copy of the box with a fresh ID, offset slightly
// so the copy is visible next to the original.
func (b TextBox) Duplicate() TextBox {
	b.ID = uuid.NewString()
	b.Geometry.Left += 16
	b.Geometry.Top += 16
	return b
}

// CloneBoxes deep-copies a box list. TextBox contains no reference types, so
// copying the slice elements is a full value copy.
func CloneBoxes(boxes []TextBox) []TextBox {
	if boxes == nil {
		return nil
	}
	out := make([]TextBox, len(boxes))
	copy(out, boxes)
	return out
}
