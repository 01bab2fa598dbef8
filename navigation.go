package main

// handleNavigation handles view keys. ok is false for keys it does not own.
func (vw *viewer) handleNavigation(key string) (Effect, bool) {
	speed := getMoveSpeed(key)
	step := vw.cfg.PanStep * speed
	switch key {
	case "h", "left", "H", "shift+left":
		return vw.pan(point{-step, 0}), true
	case "l", "right", "L", "shift+right":
		return vw.pan(point{step, 0}), true
	case "k", "up", "K", "shift+up":
		return vw.pan(point{0, -step}), true
	case "j", "down", "J", "shift+down":
		return vw.pan(point{0, step}), true
	case "+", "=":
		return vw.Dispatch(Wheel{At: vw.size.scale(0.5), Steps: 1}), true
	case "-", "_":
		return vw.Dispatch(Wheel{At: vw.size.scale(0.5), Steps: -1}), true
	case "0":
		vw.history.record(vw.view)
		vw.fit()
		return vw.redraw(), true
	case "C":
		return vw.toggleShape(), true
	case "u":
		return vw.undo(), true
	case "U":
		return vw.redo(), true
	case "p":
		vw.selectParent()
		return Effect{}, true
	case "c":
		vw.selectFirstChild()
		return Effect{}, true
	case "[":
		vw.selectSibling(-1)
		return Effect{}, true
	case "]":
		vw.selectSibling(1)
		return Effect{}, true
	case "g":
		vw.selectRoot()
		return Effect{}, true
	}
	return Effect{}, false
}

// pan moves the view by d pixels. Like the wheel, key repeats are coalesced
// into one fetch.
func (vw *viewer) pan(d point) Effect {
	before := vw.view.Clone()
	if !vw.apply(PanBy{d.X / vw.view.Zoom.X, d.Y / vw.view.Zoom.Y}) {
		return Effect{}
	}
	if !vw.debounce.Pending() {
		vw.history.record(before)
	}
	vw.translateScene(d.scale(-1))
	return Effect{Debounce: vw.debounce.Arm()}
}

func (vw *viewer) toggleShape() Effect {
	shape := ShapeCircular
	if vw.view.Shape == ShapeCircular {
		shape = ShapeRectangular
	}
	if !vw.change(SetShape{shape}) {
		return Effect{}
	}
	vw.scene = nil
	vw.fit()
	e := vw.redraw()
	e.Minimap = true
	return e
}

func getMoveSpeed(key string) float64 {
	switch key {
	case "H", "L", "K", "J", "shift+left", "shift+right", "shift+up", "shift+down":
		return 2
	default:
		return 1
	}
}
