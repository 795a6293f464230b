package scripting

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"annotlib/document"
)

func TestGojaEngine_ContextCancellation(t *testing.T) {
	engine := NewEngine()

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	if _, err := engine.Execute(ctx, "while (true) {}"); err == nil || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}

	if _, err := engine.Execute(context.Background(), "1 + 1"); err != nil {
		t.Fatalf("engine should recover after cancellation, got %v", err)
	}
}

func TestGojaEngine_ImmediateCancel(t *testing.T) {
	engine := NewEngine()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := engine.Execute(ctx, "42"); err == nil || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled error, got %v", err)
	}
}

func scriptedStore(t *testing.T, pages int) *document.Store {
	t.Helper()
	s := document.NewStore()
	for i := 0; i < pages; i++ {
		if _, err := s.CreatePage(image.NewRGBA(image.Rect(0, 0, 200, 200))); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestGojaEngine_DocumentDOM(t *testing.T) {
	store := scriptedStore(t, 2)
	engine := NewEngine()
	if err := engine.RegisterDOM(NewStoreDOM(store, nil)); err != nil {
		t.Fatalf("RegisterDOM: %v", err)
	}

	result, err := engine.Execute(context.Background(), `
		var page = getPage(0);
		page.AddTextBox("first", 10, 10);
		page.AddTextBox("second", 10, 80);
		page.BoxCount();
	`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if n, ok := result.(int64); !ok || n != 2 {
		t.Fatalf("BoxCount = %v, want 2", result)
	}

	// The script switched pages; the boxes landed on page 0.
	if store.ActiveIndex() != 0 {
		t.Fatalf("active = %d, want 0", store.ActiveIndex())
	}
	if len(store.LiveBoxes()) != 2 {
		t.Fatalf("boxes = %d, want 2", len(store.LiveBoxes()))
	}
}

func TestGojaEngine_PageCountAndSwitch(t *testing.T) {
	store := scriptedStore(t, 3)
	engine := NewEngine()
	if err := engine.RegisterDOM(NewStoreDOM(store, nil)); err != nil {
		t.Fatal(err)
	}

	result, err := engine.Execute(context.Background(), `switchPage(1) && pageCount() === 3`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if ok, _ := result.(bool); !ok {
		t.Fatalf("result = %v, want true", result)
	}
	if store.ActiveIndex() != 1 {
		t.Fatalf("active = %d, want 1", store.ActiveIndex())
	}
}

func TestGojaEngine_OutOfRangePage(t *testing.T) {
	store := scriptedStore(t, 1)
	engine := NewEngine()
	if err := engine.RegisterDOM(NewStoreDOM(store, nil)); err != nil {
		t.Fatal(err)
	}
	result, err := engine.Execute(context.Background(), `getPage(9) === null`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if ok, _ := result.(bool); !ok {
		t.Fatalf("result = %v, want true", result)
	}
}
