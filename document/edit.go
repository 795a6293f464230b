package document

import (
	"fmt"
	"image/color"

	"annotlib/annotation"
	"annotlib/history"
	"annotlib/observability"
	"annotlib/raster"
)

// Snapshot captures the live buffers into the active page's history. It must
// be called once per logically complete action; continuous gestures call it
// at gesture end and text edits go through ScheduleTextSnapshot instead.
func (s *Store) Snapshot(kind history.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot(kind)
}

func (s *Store) snapshot(kind history.Kind) {
	if s.active < 0 {
		return
	}
	h := s.pages[s.active].History
	h.Push(history.Capture(kind, s.liveLayer, s.liveBoxes))
	s.logger.Debug("snapshot",
		observability.String("kind", string(kind)),
		observability.Int("depth", h.Depth()))
}

// ScheduleTextSnapshot arms the coalescing timer: each call cancels and
// reschedules the pending snapshot, so a burst of keystrokes yields one
// history entry after the quiet interval. Sync points (flush/load) either
// commit or invalidate the pending snapshot, so a timer that outlives a page
// switch never touches the new page's history.
func (s *Store) ScheduleTextSnapshot() {
	s.mu.Lock()
	s.pendingText = true
	gen := s.textGen
	s.mu.Unlock()
	s.coalesce(func() { s.commitTextSnapshot(gen) })
}

// commitTextSnapshot runs on the debounce timer goroutine. It only commits
// when the store is still in the generation the snapshot was scheduled under.
func (s *Store) commitTextSnapshot(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pendingText || gen != s.textGen {
		return
	}
	s.pendingText = false
	s.snapshot(history.KindTextEdit)
}

// Undo restores the previous snapshot of the active page. It reports false
// when only the initial baseline remains. Restoring replaces the entire live
// edit layer and rebuilds every text box from the snapshot's value copies.
func (s *Store) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active < 0 {
		return false
	}
	snap, ok := s.pages[s.active].History.Undo()
	if !ok {
		return false
	}
	s.restore(snap)
	return true
}

// Redo re-applies the most recently undone snapshot, if any.
func (s *Store) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active < 0 {
		return false
	}
	snap, ok := s.pages[s.active].History.Redo()
	if !ok {
		return false
	}
	s.restore(snap)
	return true
}

// JumpTo steps back through history by calling Undo stepsBack times. The
// replay keeps history-log jumps behaviorally identical to clicking undo
// repeatedly; restore is deterministic, so a direct seek would be equivalent,
// but the replay form is the reference behavior. Returns the number of steps
// actually applied.
func (s *Store) JumpTo(stepsBack int) int {
	applied := 0
	for i := 0; i < stepsBack; i++ {
		if !s.Undo() {
			break
		}
		applied++
	}
	return applied
}

func (s *Store) restore(snap history.Snapshot) {
	if snap.EditLayer == nil {
		p := s.pages[s.active]
		s.logger.Warn("snapshot missing edit layer, repairing",
			observability.String("page", p.ID))
		snap.EditLayer = newLayerLike(p)
	}
	s.liveLayer = snap.EditLayer
	s.liveBoxes = snap.Boxes
}

// AddTextBox creates a box at the given position on the active page and
// snapshots the result. The created box is returned by value.
func (s *Store) AddTextBox(left, top float64) annotation.TextBox {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := annotation.NewTextBox(left, top)
	s.liveBoxes = append(s.liveBoxes, b)
	s.snapshot(history.KindTextAdd)
	return b
}

// InsertTextBoxes appends pre-built boxes as one logical action with a single
// snapshot. Importers (markdown, OCR) use this so a whole import undoes in
// one step.
func (s *Store) InsertTextBoxes(boxes []annotation.TextBox, kind history.Kind) {
	if len(boxes) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liveBoxes = append(s.liveBoxes, boxes...)
	s.snapshot(kind)
}

// DuplicateTextBox clones the box with a fresh id and a small offset.
func (s *Store) DuplicateTextBox(id string) (annotation.TextBox, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findBox(id)
	if i < 0 {
		return annotation.TextBox{}, fmt.Errorf("duplicate %q: %w", id, ErrBoxNotFound)
	}
	d := s.liveBoxes[i].Duplicate()
	s.liveBoxes = append(s.liveBoxes, d)
	s.snapshot(history.KindTextAdd)
	return d, nil
}

// RemoveTextBox deletes the box and snapshots the result.
func (s *Store) RemoveTextBox(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findBox(id)
	if i < 0 {
		return fmt.Errorf("remove %q: %w", id, ErrBoxNotFound)
	}
	s.liveBoxes = append(s.liveBoxes[:i], s.liveBoxes[i+1:]...)
	s.snapshot(history.KindTextDelete)
	return nil
}

// SetTextBoxText replaces the box's text and arms the coalescing timer
// instead of snapshotting immediately.
func (s *Store) SetTextBoxText(id, text string) error {
	s.mu.Lock()
	i := s.findBox(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("set text %q: %w", id, ErrBoxNotFound)
	}
	s.liveBoxes[i].Text = text
	s.mu.Unlock()
	s.ScheduleTextSnapshot()
	return nil
}

// SetTextBoxStyle replaces the box's style. A control-value change is a
// complete action, so it snapshots immediately.
func (s *Store) SetTextBoxStyle(id string, style annotation.Style) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findBox(id)
	if i < 0 {
		return fmt.Errorf("set style %q: %w", id, ErrBoxNotFound)
	}
	s.liveBoxes[i].Style = style
	s.snapshot(history.KindTextModify)
	return nil
}

// SetTextBoxGeometry updates geometry without snapshotting; gestures call it
// on every move event and snapshot once at release via Snapshot.
func (s *Store) SetTextBoxGeometry(id string, g annotation.Geometry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findBox(id)
	if i < 0 {
		return fmt.Errorf("set geometry %q: %w", id, ErrBoxNotFound)
	}
	s.liveBoxes[i].Geometry = g
	return nil
}

// TextBox returns a value copy of the box with the given id.
func (s *Store) TextBox(id string) (annotation.TextBox, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findBox(id)
	if i < 0 {
		return annotation.TextBox{}, false
	}
	return s.liveBoxes[i], true
}

func (s *Store) findBox(id string) int {
	for i := range s.liveBoxes {
		if s.liveBoxes[i].ID == id {
			return i
		}
	}
	return -1
}

// PaintSegment blends one brush segment into the live edit layer. No
// snapshot is taken; EndStroke commits the gesture.
func (s *Store) PaintSegment(x1, y1, x2, y2, width float64, col color.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.liveLayer == nil {
		return
	}
	surf := raster.NewImageSurfaceFor(s.liveLayer, nil)
	surf.DrawLine(x1, y1, x2, y2, width, col, raster.CompositeNormal)
}

// EraseSegment removes alpha under one brush segment of the live edit layer.
func (s *Store) EraseSegment(x1, y1, x2, y2, width float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.liveLayer == nil {
		return
	}
	surf := raster.NewImageSurfaceFor(s.liveLayer, nil)
	surf.DrawLine(x1, y1, x2, y2, width, color.RGBA{}, raster.CompositeErase)
}

// EndStroke commits a finished paint or erase gesture with one snapshot.
func (s *Store) EndStroke(erase bool) {
	kind := history.KindPaint
	if erase {
		kind = history.KindErase
	}
	s.Snapshot(kind)
}

// ApplyStroke paints a whole polyline as one gesture: every segment is
// applied, then a single snapshot commits it.
func (s *Store) ApplyStroke(points []Point, width float64, col color.Color, erase bool) {
	if len(points) < 2 {
		return
	}
	for i := 1; i < len(points); i++ {
		if erase {
			s.EraseSegment(points[i-1].X, points[i-1].Y, points[i].X, points[i].Y, width)
		} else {
			s.PaintSegment(points[i-1].X, points[i-1].Y, points[i].X, points[i].Y, width, col)
		}
	}
	s.EndStroke(erase)
}
