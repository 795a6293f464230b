// Package gesture implements the press-move-release interaction state machine
// for text boxes: moving, resizing via eight directional handles, and
// rotating. A gesture is one atomic user action; the history snapshot is
// taken at release, and only when the geometry actually changed.
package gesture

import (
	"math"

	"annotlib/annotation"
	"annotlib/document"
	"annotlib/history"
)

// Mode is the mutually exclusive gesture state of the controller.
type Mode int

const (
	ModeIdle Mode = iota
	ModeDragging
	ModeResizing
	ModeRotating
)

// Handle identifies what the press targeted.
type Handle int

const (
	HandleNone Handle = iota
	HandleBody
	HandleN
	HandleNE
	HandleE
	HandleSE
	HandleS
	HandleSW
	HandleW
	HandleNW
	HandleRotate
)

// Handle hit radius and the rotate handle's offset above the top edge, in
// page pixels.
const (
	hitRadius     = 8.0
	rotateHandleY = 24.0
)

// Controller runs gestures against the store's active page. Only one gesture
// may be active at a time; Press while active is ignored.
type Controller struct {
	store *document.Store

	mode   Mode
	handle Handle
	boxID  string

	pressX, pressY float64
	start          annotation.Geometry
}

// NewController returns an idle controller bound to the store.
func NewController(store *document.Store) *Controller {
	return &Controller{store: store}
}

// Mode returns the current gesture mode.
func (c *Controller) Mode() Mode { return c.mode }

// Press starts a gesture on the box if the pointer hits it or one of its
// handles. It reports whether a gesture began.
func (c *Controller) Press(boxID string, x, y float64) bool {
	if c.mode != ModeIdle {
		return false
	}
	box, ok := c.store.TextBox(boxID)
	if !ok {
		return false
	}
	h := HitTest(box.Geometry, x, y)
	if h == HandleNone {
		return false
	}
	switch h {
	case HandleRotate:
		c.mode = ModeRotating
	case HandleBody, HandleNW:
		// The NW handle moves the whole box rather than resizing it.
		c.mode = ModeDragging
	default:
		c.mode = ModeResizing
	}
	c.handle = h
	c.boxID = boxID
	c.pressX, c.pressY = x, y
	c.start = box.Geometry
	return true
}

// Move updates the box geometry for the active gesture. Minimum dimensions
// are clamped during the drag, not only at commit.
func (c *Controller) Move(x, y float64) {
	if c.mode == ModeIdle {
		return
	}
	g := c.start
	dx := x - c.pressX
	dy := y - c.pressY

	switch c.mode {
	case ModeDragging:
		g.Left += dx
		g.Top += dy
	case ModeResizing:
		g = resize(c.start, c.handle, dx, dy)
	case ModeRotating:
		g.RotationDegrees = rotationFor(c.start, x, y)
	}
	if err := c.store.SetTextBoxGeometry(c.boxID, g); err != nil {
		// Box deleted mid-gesture; abandon it.
		c.reset()
	}
}

// Release ends the gesture, snapshotting once if the geometry differs from
// where the gesture started. A drag that returns to its origin commits
// nothing, so it cannot clear the redo stack.
func (c *Controller) Release() {
	if c.mode == ModeIdle {
		return
	}
	if box, ok := c.store.TextBox(c.boxID); ok && box.Geometry != c.start {
		c.store.Snapshot(history.KindTextModify)
	}
	c.reset()
}

func (c *Controller) reset() {
	c.mode = ModeIdle
	c.handle = HandleNone
	c.boxID = ""
}

// resize applies a handle drag, anchoring the edge opposite the handle and
// clamping to the minimum dimensions. The NW corner never reaches here; it is
// the move handle.
func resize(start annotation.Geometry, h Handle, dx, dy float64) annotation.Geometry {
	g := start
	switch h {
	case HandleE, HandleNE, HandleSE:
		g.Width = start.Width + dx
	case HandleW, HandleSW:
		g.Left = start.Left + dx
		g.Width = start.Width - dx
	}
	switch h {
	case HandleS, HandleSE, HandleSW:
		g.Height = start.Height + dy
	case HandleN, HandleNE:
		g.Top = start.Top + dy
		g.Height = start.Height - dy
	}
	if g.Width < annotation.MinBoxWidth {
		if h == HandleW || h == HandleSW {
			g.Left = start.Left + start.Width - annotation.MinBoxWidth
		}
		g.Width = annotation.MinBoxWidth
	}
	if g.Height < annotation.MinBoxHeight {
		if h == HandleN || h == HandleNE {
			g.Top = start.Top + start.Height - annotation.MinBoxHeight
		}
		g.Height = annotation.MinBoxHeight
	}
	return g
}

// rotationFor computes the rotation from the pointer angle about the box
// center, with a 90 degree offset so the handle's rest orientation points
// away from the top edge.
func rotationFor(g annotation.Geometry, x, y float64) float64 {
	return math.Atan2(y-g.CenterY(), x-g.CenterX())*180/math.Pi + 90
}

// HitTest reports which handle, if any, the pointer targets. The pointer is
// transformed into the box's unrotated local frame first, so handles track
// the rotated box.
func HitTest(g annotation.Geometry, x, y float64) Handle {
	lx, ly := toLocal(g, x, y)

	midX := g.Width / 2
	midY := g.Height / 2
	handles := []struct {
		h    Handle
		x, y float64
	}{
		{HandleRotate, midX, -rotateHandleY},
		{HandleNW, 0, 0},
		{HandleN, midX, 0},
		{HandleNE, g.Width, 0},
		{HandleE, g.Width, midY},
		{HandleSE, g.Width, g.Height},
		{HandleS, midX, g.Height},
		{HandleSW, 0, g.Height},
		{HandleW, 0, midY},
	}
	for _, cand := range handles {
		if math.Hypot(lx-cand.x, ly-cand.y) <= hitRadius {
			return cand.h
		}
	}
	if lx >= 0 && lx <= g.Width && ly >= 0 && ly <= g.Height {
		return HandleBody
	}
	return HandleNone
}

// toLocal maps page coordinates into the box's unrotated frame, with the
// origin at the box's top-left corner.
func toLocal(g annotation.Geometry, x, y float64) (float64, float64) {
	rad := -g.RotationDegrees * math.Pi / 180
	dx := x - g.CenterX()
	dy := y - g.CenterY()
	rx := dx*math.Cos(rad) - dy*math.Sin(rad)
	ry := dx*math.Sin(rad) + dy*math.Cos(rad)
	return rx + g.Width/2, ry + g.Height/2
}
