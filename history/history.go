// Package history implements the bounded per-page snapshot stacks that back
// undo/redo. The Manager is pure state machinery: capturing the right moments
// (one snapshot per logically complete action, debounced text edits) is the
// responsibility of the owning controller.
package history

import (
	"image"
	"image/draw"
	"time"

	"annotlib/annotation"
)

// Kind tags the user action that produced a snapshot.
type Kind string

const (
	KindInitial    Kind = "initial"
	KindPaint      Kind = "paint"
	KindErase      Kind = "erase"
	KindTextAdd    Kind = "text-add"
	KindTextModify Kind = "text-modify"
	KindTextEdit   Kind = "text-edit"
	KindTextDelete Kind = "text-delete"
	KindImport     Kind = "import"
	KindOCR        Kind = "ocr"
)

// DefaultLimit is the undo-stack cap. Pushing past it evicts the oldest
// entry first.
const DefaultLimit = 20

// Snapshot is an immutable captured page state: the edit-layer raster plus a
// value copy of the text box list. It must never be mutated after capture.
type Snapshot struct {
	Kind      Kind
	At        time.Time
	EditLayer *image.RGBA
	Boxes     []annotation.TextBox
}

// Capture deep-copies the given live state into a snapshot.
func Capture(kind Kind, editLayer *image.RGBA, boxes []annotation.TextBox) Snapshot {
	return Snapshot{
		Kind:      kind,
		At:        time.Now(),
		EditLayer: CloneRGBA(editLayer),
		Boxes:     annotation.CloneBoxes(boxes),
	}
}

// Clone returns an independent copy of the snapshot so restored state cannot
// alias the stored entry.
func (s Snapshot) Clone() Snapshot {
	s.EditLayer = CloneRGBA(s.EditLayer)
	s.Boxes = annotation.CloneBoxes(s.Boxes)
	return s
}

// CloneRGBA copies a raster buffer. A nil input yields nil.
func CloneRGBA(img *image.RGBA) *image.RGBA {
	if img == nil {
		return nil
	}
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}

// Manager holds the undo and redo stacks for one page. The undo stack always
// keeps at least one entry (the initial baseline) once seeded.
type Manager struct {
	limit int
	undo  []Snapshot
	redo  []Snapshot
}

// NewManager returns a manager with the default stack limit.
func NewManager() *Manager {
	return &Manager{limit: DefaultLimit}
}

// NewManagerWithLimit returns a manager with a custom cap. Limits below 1 are
// raised to 1 so the baseline entry can never be evicted into nothing.
func NewManagerWithLimit(limit int) *Manager {
	if limit < 1 {
		limit = 1
	}
	return &Manager{limit: limit}
}

// Push appends a snapshot, evicting the oldest entry beyond the limit, and
// prunes the redo branch.
func (m *Manager) Push(s Snapshot) {
	m.undo = append(m.undo, s)
	if len(m.undo) > m.limit {
		over := len(m.undo) - m.limit
		m.undo = append(m.undo[:0:0], m.undo[over:]...)
	}
	m.redo = nil
}

// Undo moves the current top onto the redo stack and returns a copy of the
// new top for the caller to restore. It reports false when only the baseline
// remains.
func (m *Manager) Undo() (Snapshot, bool) {
	if len(m.undo) <= 1 {
		return Snapshot{}, false
	}
	top := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, top)
	return m.undo[len(m.undo)-1].Clone(), true
}

// Redo moves the redo top back onto the undo stack and returns a copy for the
// caller to restore. It reports false when the redo stack is empty.
func (m *Manager) Redo() (Snapshot, bool) {
	if len(m.redo) == 0 {
		return Snapshot{}, false
	}
	top := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, top)
	return top.Clone(), true
}

// Depth returns the undo stack length.
func (m *Manager) Depth() int { return len(m.undo) }

// RedoDepth returns the redo stack length.
func (m *Manager) RedoDepth() int { return len(m.redo) }

// Top returns the current snapshot without altering the stacks. The second
// result is false for an unseeded manager.
func (m *Manager) Top() (Snapshot, bool) {
	if len(m.undo) == 0 {
		return Snapshot{}, false
	}
	return m.undo[len(m.undo)-1], true
}

// Kinds lists the action tags on the undo stack, oldest first. Used by
// history-log UIs.
func (m *Manager) Kinds() []Kind {
	out := make([]Kind, len(m.undo))
	for i, s := range m.undo {
		out[i] = s.Kind
	}
	return out
}
