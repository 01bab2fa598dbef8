package main

// viewHistory keeps snapshots of earlier views for undo and redo.
type viewHistory struct {
	undoStack []*ViewState
	redoStack []*ViewState
}

// record saves v as the state to return to; it clears the redo stack.
func (h *viewHistory) record(v *ViewState) {
	h.undoStack = append(h.undoStack, v.Clone())
	if len(h.undoStack) > maxHistory {
		h.undoStack = h.undoStack[len(h.undoStack)-maxHistory:]
	}
	h.redoStack = h.redoStack[:0]
}

// undo returns the previous view, saving current for redo.
func (h *viewHistory) undo(current *ViewState) (*ViewState, bool) {
	if len(h.undoStack) == 0 {
		return nil, false
	}
	lastIndex := len(h.undoStack) - 1
	prev := h.undoStack[lastIndex]
	h.undoStack = h.undoStack[:lastIndex]
	h.redoStack = append(h.redoStack, current.Clone())
	return prev, true
}

func (h *viewHistory) redo(current *ViewState) (*ViewState, bool) {
	if len(h.redoStack) == 0 {
		return nil, false
	}
	lastIndex := len(h.redoStack) - 1
	next := h.redoStack[lastIndex]
	h.redoStack = h.redoStack[:lastIndex]
	h.undoStack = append(h.undoStack, current.Clone())
	return next, true
}
