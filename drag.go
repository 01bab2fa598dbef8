package main

// dragState tracks one pointer gesture from press to release.
type dragState struct {
	target DragTarget
	start  point
	last   point
	moved  bool
}

func (d *dragState) active() bool {
	return d.target != DragNone
}

func (d *dragState) begin(target DragTarget, p point) {
	*d = dragState{target: target, start: p, last: p}
}

// move records p and returns the delta since the previous position.
func (d *dragState) move(p point) point {
	delta := p.sub(d.last)
	d.last = p
	if delta.X != 0 || delta.Y != 0 {
		d.moved = true
	}
	return delta
}

// end resets to idle and returns what was being dragged and whether the
// pointer moved at all.
func (d *dragState) end() (DragTarget, bool) {
	target, moved := d.target, d.moved
	*d = dragState{}
	return target, moved
}
