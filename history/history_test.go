package history

import (
	"fmt"
	"image"
	"testing"

	"annotlib/annotation"
)

func seeded() *Manager {
	m := NewManager()
	m.Push(Capture(KindInitial, image.NewRGBA(image.Rect(0, 0, 4, 4)), nil))
	return m
}

func namedSnapshot(name string) Snapshot {
	b := annotation.NewTextBox(0, 0)
	b.Text = name
	return Capture(KindTextEdit, image.NewRGBA(image.Rect(0, 0, 4, 4)), []annotation.TextBox{b})
}

func TestPushCapEvictsOldestFirst(t *testing.T) {
	m := seeded()
	for i := 0; i < 30; i++ {
		m.Push(namedSnapshot(fmt.Sprintf("s%d", i)))
	}
	if m.Depth() != DefaultLimit {
		t.Fatalf("depth = %d, want %d", m.Depth(), DefaultLimit)
	}
	// The initial entry plus s0..s9 were evicted; the oldest survivor is s10.
	if got := m.undo[0].Boxes[0].Text; got != "s10" {
		t.Fatalf("oldest survivor = %q, want s10", got)
	}
	if got := m.undo[len(m.undo)-1].Boxes[0].Text; got != "s29" {
		t.Fatalf("top = %q, want s29", got)
	}
}

func TestDepthIsMinOfPushesAndCap(t *testing.T) {
	for _, n := range []int{1, 5, 20, 21, 40} {
		m := NewManager()
		for i := 0; i < n; i++ {
			m.Push(namedSnapshot(fmt.Sprintf("s%d", i)))
		}
		want := n
		if want > DefaultLimit {
			want = DefaultLimit
		}
		if m.Depth() != want {
			t.Fatalf("after %d pushes depth = %d, want %d", n, m.Depth(), want)
		}
	}
}

func TestUndoFloorAtBaseline(t *testing.T) {
	m := seeded()
	if _, ok := m.Undo(); ok {
		t.Fatal("undo on baseline-only stack must be a no-op")
	}
	if m.Depth() != 1 {
		t.Fatalf("depth = %d, want 1", m.Depth())
	}
}

func TestUndoRedoRoundtrip(t *testing.T) {
	m := seeded()
	m.Push(namedSnapshot("a"))
	m.Push(namedSnapshot("b"))

	s, ok := m.Undo()
	if !ok {
		t.Fatal("undo failed")
	}
	if s.Boxes[0].Text != "a" {
		t.Fatalf("undo restored %q, want a", s.Boxes[0].Text)
	}
	if m.RedoDepth() != 1 {
		t.Fatalf("redo depth = %d, want 1", m.RedoDepth())
	}

	s, ok = m.Redo()
	if !ok {
		t.Fatal("redo failed")
	}
	if s.Boxes[0].Text != "b" {
		t.Fatalf("redo restored %q, want b", s.Boxes[0].Text)
	}
	if m.Depth() != 3 || m.RedoDepth() != 0 {
		t.Fatalf("stacks = %d/%d, want 3/0", m.Depth(), m.RedoDepth())
	}
}

func TestPushClearsRedo(t *testing.T) {
	m := seeded()
	m.Push(namedSnapshot("a"))
	m.Push(namedSnapshot("b"))
	if _, ok := m.Undo(); !ok {
		t.Fatal("undo failed")
	}
	m.Push(namedSnapshot("c"))
	if m.RedoDepth() != 0 {
		t.Fatalf("redo depth = %d after push, want 0", m.RedoDepth())
	}
	if _, ok := m.Redo(); ok {
		t.Fatal("redo after a new push must be a no-op")
	}
}

func TestRestoredSnapshotDoesNotAliasStack(t *testing.T) {
	m := seeded()
	m.Push(namedSnapshot("a"))
	m.Push(namedSnapshot("b"))
	s, _ := m.Undo()
	s.Boxes[0].Text = "mutated"
	s.EditLayer.Pix[0] = 0xFF

	again, _ := m.Redo() // back to b
	_ = again
	back, _ := m.Undo() // restore a once more
	if back.Boxes[0].Text != "a" {
		t.Fatalf("stored snapshot was mutated through the restored copy: %q", back.Boxes[0].Text)
	}
	if back.EditLayer.Pix[0] != 0 {
		t.Fatal("stored raster was mutated through the restored copy")
	}
}

func TestKinds(t *testing.T) {
	m := seeded()
	m.Push(namedSnapshot("a"))
	kinds := m.Kinds()
	if len(kinds) != 2 || kinds[0] != KindInitial || kinds[1] != KindTextEdit {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestCloneRGBA(t *testing.T) {
	if CloneRGBA(nil) != nil {
		t.Fatal("nil clones to nil")
	}
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Pix[0] = 200
	c := CloneRGBA(img)
	c.Pix[0] = 1
	if img.Pix[0] != 200 {
		t.Fatal("clone aliases the source")
	}
}
