package main

import "testing"

func TestViewHistory(t *testing.T) {
	var h viewHistory
	v := newViewState(ShapeRectangular)

	h.record(v)
	v.Apply(PanBy{10, 0})
	h.record(v)
	v.Apply(PanBy{10, 0})

	prev, ok := h.undo(v)
	if !ok || prev.Offset.X != 10 {
		t.Fatalf("undo = %v, %v", prev, ok)
	}
	v = prev
	prev, ok = h.undo(v)
	if !ok || prev.Offset.X != 0 {
		t.Fatalf("second undo = %v, %v", prev, ok)
	}
	v = prev
	if _, ok := h.undo(v); ok {
		t.Error("undo past the start")
	}

	next, ok := h.redo(v)
	if !ok || next.Offset.X != 10 {
		t.Fatalf("redo = %v, %v", next, ok)
	}
	v = next

	// a new change drops the redo branch
	h.record(v)
	if _, ok := h.redo(v); ok {
		t.Error("redo after a new change")
	}
}

func TestViewHistorySnapshotsAreCopies(t *testing.T) {
	var h viewHistory
	v := newViewState(ShapeRectangular)
	h.record(v)
	v.Apply(ToggleTag{"[0]"})
	prev, _ := h.undo(v)
	if prev.Tagged["[0]"] {
		t.Error("history snapshot changed with the live view")
	}
}

func TestViewHistoryCapped(t *testing.T) {
	var h viewHistory
	v := newViewState(ShapeRectangular)
	for i := 0; i < maxHistory+20; i++ {
		v.Apply(PanBy{1, 0})
		h.record(v)
	}
	if len(h.undoStack) != maxHistory {
		t.Errorf("history holds %d views, want %d", len(h.undoStack), maxHistory)
	}
	if h.undoStack[0].Offset.X != 21 {
		t.Errorf("oldest kept offset = %g, want 21", h.undoStack[0].Offset.X)
	}
}
