package main

import (
	"log"
	"math"
)

// Event is an input event in pixel coordinates of the main view.
type Event interface {
	event()
}

type PointerDown struct{ At point }
type PointerMove struct{ At point }
type PointerUp struct{ At point }

// Wheel zooms by Steps notches at At. Ctrl locks zoom to the x axis and
// Alt to the y axis.
type Wheel struct {
	At        point
	Steps     float64
	Ctrl, Alt bool
}

type Resize struct{ Size point }

func (PointerDown) event() {}
func (PointerMove) event() {}
func (PointerUp) event()   {}
func (Wheel) event()       {}
func (Resize) event()      {}

// Effect is what the host has to do after an event.
type Effect struct {
	Redraw   bool
	Minimap  bool
	Debounce uint64
}

func (e Effect) merge(o Effect) Effect {
	e.Redraw = e.Redraw || o.Redraw
	e.Minimap = e.Minimap || o.Minimap
	if o.Debounce != 0 {
		e.Debounce = o.Debounce
	}
	return e
}

const minimapMargin = 8.0

// viewer owns the view state and everything derived from it. All changes
// happen on the event loop through Dispatch and the install methods.
type viewer struct {
	view       *ViewState
	size       point
	treeSize   point
	drag       dragState
	dragOrigin *ViewState
	mini       *minimap
	miniPos    point
	scene      *Scene
	pipe       pipeline
	miniPipe   pipeline
	debounce   *debouncer
	history    viewHistory
	cfg        *Config
	opts       sceneOptions
}

func newViewer(cfg *Config, shape Shape, exact measurer) *viewer {
	vw := &viewer{
		view:     newViewState(shape),
		size:     point{defaultViewW, defaultViewH},
		mini:     newMinimap(cfg.Minimap),
		debounce: newDebouncer(cfg.debounce()),
		cfg:      cfg,
		opts:     cfg.sceneOptions(exact),
	}
	vw.view.Layouts = append(vw.view.Layouts, cfg.Layouts...)
	vw.placeMinimap()
	return vw
}

// Dispatch applies one input event.
func (vw *viewer) Dispatch(ev Event) Effect {
	switch ev := ev.(type) {
	case PointerDown:
		return vw.pointerDown(ev.At)
	case PointerMove:
		return vw.pointerMove(ev.At)
	case PointerUp:
		return vw.pointerUp(ev.At)
	case Wheel:
		return vw.wheel(ev)
	case Resize:
		vw.size = ev.Size
		vw.placeMinimap()
		return vw.redraw()
	}
	return Effect{}
}

func (vw *viewer) placeMinimap() {
	vw.miniPos = point{vw.size.X - vw.mini.size.X - minimapMargin, minimapMargin}
	vw.mini.update(vw.view, vw.size)
}

func (vw *viewer) minimapArea() rect {
	return rect{vw.miniPos.X, vw.miniPos.Y, vw.mini.size.X, vw.mini.size.Y}
}

// apply runs cmd, logging rejected commands.
func (vw *viewer) apply(cmd Command) bool {
	if err := vw.view.Apply(cmd); err != nil {
		log.Printf("smartview: %T rejected: %v", cmd, err)
		return false
	}
	vw.mini.update(vw.view, vw.size)
	return true
}

// change records history and applies cmd.
func (vw *viewer) change(cmd Command) bool {
	before := vw.view.Clone()
	if !vw.apply(cmd) {
		return false
	}
	vw.history.record(before)
	return true
}

// redraw asks for an authoritative draw now, dropping any pending
// debounced one.
func (vw *viewer) redraw() Effect {
	vw.debounce.Cancel()
	return Effect{Redraw: true}
}

func (vw *viewer) pointerDown(p point) Effect {
	if vw.mini.show && vw.minimapArea().contains(p) {
		local := p.sub(vw.miniPos)
		if vw.mini.visible.contains(local) {
			vw.beginDrag(DragMinimapRect, p)
			return Effect{}
		}
		if vw.change(vw.mini.recenter(vw.view, local, vw.size)) {
			return vw.redraw()
		}
		return Effect{}
	}
	if vw.view.AlignedX > 0 && math.Abs(p.X-vw.view.AlignedX) <= dividerGrabPx {
		vw.beginDrag(DragDivider, p)
		return Effect{}
	}
	vw.beginDrag(DragTree, p)
	return Effect{}
}

func (vw *viewer) beginDrag(target DragTarget, p point) {
	vw.drag.begin(target, p)
	vw.dragOrigin = vw.view.Clone()
}

// pointerMove only changes local state and the visual transform of the
// current scene; nothing is fetched until release.
func (vw *viewer) pointerMove(p point) Effect {
	if !vw.drag.active() {
		return Effect{}
	}
	d := vw.drag.move(p)
	switch vw.drag.target {
	case DragTree:
		if vw.apply(PanBy{-d.X / vw.view.Zoom.X, -d.Y / vw.view.Zoom.Y}) {
			vw.translateScene(d)
		}
	case DragMinimapRect:
		td := d.div(vw.mini.zoom)
		if vw.apply(PanBy{td.X, td.Y}) {
			vw.translateScene(td.mul(vw.view.Zoom).scale(-1))
		}
	case DragDivider:
		vw.apply(SetDivider{vw.view.AlignedX + d.X})
	}
	return Effect{}
}

func (vw *viewer) pointerUp(p point) Effect {
	if !vw.drag.active() {
		return Effect{}
	}
	vw.drag.move(p)
	target, moved := vw.drag.end()
	origin := vw.dragOrigin
	vw.dragOrigin = nil
	if moved {
		vw.history.record(origin)
		return vw.redraw()
	}
	if target == DragTree {
		vw.selectAt(p)
	}
	return Effect{}
}

// selectAt selects the node under p, or clears the selection.
func (vw *viewer) selectAt(p point) {
	id := ""
	if vw.scene != nil {
		if n, ok := vw.scene.nodeAt(p); ok {
			id = n.NodeID
		}
	}
	vw.apply(Select{id})
	vw.recolor()
}

func (vw *viewer) recolor() {
	if vw.scene != nil {
		vw.scene.recolor(vw.view, vw.cfg.Colors)
	}
}

func (vw *viewer) translateScene(d point) {
	if vw.scene != nil {
		vw.scene.translate(d)
	}
}

// wheel zooms at the pointer right away and defers the fetch so a burst of
// notches costs one request.
func (vw *viewer) wheel(ev Wheel) Effect {
	if ev.Steps == 0 {
		return Effect{}
	}
	f := math.Pow(vw.cfg.ZoomFactor, ev.Steps)
	fx, fy := f, f
	if vw.view.Shape != ShapeCircular {
		if ev.Ctrl {
			fy = 1
		}
		if ev.Alt {
			fx = 1
		}
	}
	before := vw.view.Clone()
	if !vw.apply(ZoomAt{Center: ev.At, FX: fx, FY: fy}) {
		return Effect{}
	}
	if !vw.debounce.Pending() {
		vw.history.record(before)
	}
	if vw.scene != nil {
		vw.scene.zoomAround(ev.At, vw.view.Zoom.div(before.Zoom))
	}
	return Effect{Debounce: vw.debounce.Arm()}
}

// fire handles a debounce token coming back.
func (vw *viewer) fire(token uint64) Effect {
	if vw.debounce.Fire(token) {
		return Effect{Redraw: true}
	}
	return Effect{}
}

// fit shows the whole tree, whose extent is treeSize (radius in X for the
// circular shape).
func (vw *viewer) fit() {
	ts := vw.treeSize
	if ts.X <= 0 {
		return
	}
	if vw.view.Shape == ShapeCircular {
		z := 0.9 * math.Min(vw.size.X, vw.size.Y) / (2 * ts.X)
		vw.apply(SetZoom{point{z, z}})
		vw.apply(SetOffset{vw.size.scale(-0.5).div(vw.view.Zoom)})
	} else {
		if ts.Y <= 0 {
			return
		}
		zoom := vw.size.scale(0.9).div(ts)
		vw.apply(SetZoom{zoom})
		margin := vw.size.sub(ts.mul(zoom)).scale(0.5)
		vw.apply(SetOffset{margin.div(zoom).scale(-1)})
	}
	vw.mini.fit(ts, vw.view.Shape)
	vw.mini.update(vw.view, vw.size)
}

// setTreeSize records the tree extent. With refit the view is reset to
// show all of it; otherwise only the minimap follows.
func (vw *viewer) setTreeSize(size TreeSize, refit bool) {
	vw.treeSize = point{size.Width, size.Height}
	if refit {
		vw.fit()
		return
	}
	vw.mini.fit(vw.treeSize, vw.view.Shape)
	vw.mini.update(vw.view, vw.size)
}

// restore replaces the view with a snapshot from history.
func (vw *viewer) restore(v *ViewState) Effect {
	shapeChanged := v.Shape != vw.view.Shape
	vw.view = v
	if shapeChanged {
		vw.mini.fit(vw.treeSize, v.Shape)
	}
	vw.mini.update(vw.view, vw.size)
	vw.recolor()
	e := vw.redraw()
	e.Minimap = shapeChanged
	return e
}

func (vw *viewer) undo() Effect {
	prev, ok := vw.history.undo(vw.view)
	if !ok {
		return Effect{}
	}
	return vw.restore(prev)
}

func (vw *viewer) redo() Effect {
	next, ok := vw.history.redo(vw.view)
	if !ok {
		return Effect{}
	}
	return vw.restore(next)
}

func (vw *viewer) drawRequest() drawRequest {
	return vw.pipe.request(vw.view, vw.size)
}

func (vw *viewer) minimapRequest() drawRequest {
	req := vw.miniPipe.request(vw.mini.view(vw.view.Shape), vw.mini.size)
	req.view.Layouts = append(req.view.Layouts, vw.view.Layouts...)
	req.minimap = true
	return req
}

// install puts a finished draw in place if it is still wanted.
func (vw *viewer) install(msg drawnMsg) error {
	if msg.req.minimap {
		if err := vw.miniPipe.accept(msg); err != nil {
			return err
		}
		vw.mini.scene = msg.scene
		return nil
	}
	if err := vw.pipe.accept(msg); err != nil {
		return err
	}
	msg.scene.alignTo(vw.view)
	msg.scene.recolor(vw.view, vw.cfg.Colors)
	vw.scene = msg.scene
	return nil
}
