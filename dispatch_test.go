package main

import (
	"context"
	"math"
	"testing"
)

// testHost plays the event loop: it performs the fetches an Effect asks for
// right away, against a counting fake server.
type testHost struct {
	vw *viewer
	d  *fakeDrawer
}

func newTestHost(showMinimap bool) *testHost {
	cfg := defaultConfig()
	cfg.Minimap.Show = showMinimap
	return &testHost{
		vw: newViewer(cfg, ShapeRectangular, approxMeasurer{}),
		d:  &fakeDrawer{},
	}
}

func (h *testHost) run(e Effect) {
	if e.Redraw {
		h.vw.install(fetchScene(context.Background(), h.d, "t", h.vw.drawRequest(), h.vw.opts))
	}
}

func TestDragFetchesOnlyOnRelease(t *testing.T) {
	h := newTestHost(false)
	vw := h.vw
	h.run(Effect{Redraw: true})
	h.d.calls, h.d.queries = 0, nil

	h.run(vw.Dispatch(PointerDown{At: point{100, 100}}))
	for i := 1; i <= 10; i++ {
		e := vw.Dispatch(PointerMove{At: point{100 + 5*float64(i), 100 + 2*float64(i)}})
		if e.Redraw || e.Debounce != 0 {
			t.Fatalf("move %d asked for a fetch: %+v", i, e)
		}
		h.run(e)
	}
	if h.d.calls != 0 {
		t.Fatalf("%d fetches during drag, want 0", h.d.calls)
	}
	if vw.view.Offset != (point{-50, -20}) {
		t.Errorf("offset = %v, want (-50, -20)", vw.view.Offset)
	}
	if vw.scene.Shift != (point{50, 20}) {
		t.Errorf("scene shift = %v, want (50, 20)", vw.scene.Shift)
	}

	h.run(vw.Dispatch(PointerUp{At: point{150, 120}}))
	if h.d.calls != 1 {
		t.Errorf("%d fetches after release, want 1", h.d.calls)
	}
	if vw.scene.Shift != (point{}) {
		t.Errorf("fresh scene shift = %v", vw.scene.Shift)
	}
	if got := h.d.queries[0].Get("x"); got != "-50" {
		t.Errorf("query x = %q, want -50", got)
	}

	// the drag is one undo step
	h.run(vw.undo())
	if vw.view.Offset != (point{}) {
		t.Errorf("offset after undo = %v", vw.view.Offset)
	}
}

func TestClickSelectsNode(t *testing.T) {
	h := newTestHost(false)
	vw := h.vw
	h.run(Effect{Redraw: true})
	h.d.calls, h.d.queries = 0, nil

	h.run(vw.Dispatch(PointerDown{At: point{50, 50}}))
	h.run(vw.Dispatch(PointerUp{At: point{50, 50}}))
	if vw.view.Selected != "[0]" {
		t.Errorf("selected = %q, want [0]", vw.view.Selected)
	}
	if fill := vw.scene.Items[0].(*NodeRect).Fill; fill != vw.cfg.Colors.Select {
		t.Errorf("selected node fill = %q", fill)
	}

	h.run(vw.Dispatch(PointerDown{At: point{500, 500}}))
	h.run(vw.Dispatch(PointerUp{At: point{500, 500}}))
	if vw.view.Selected != "" {
		t.Errorf("click on empty space left %q selected", vw.view.Selected)
	}
	if h.d.calls != 0 {
		t.Errorf("clicks fetched %d times", h.d.calls)
	}
}

func TestWheelBurstRedrawsOnce(t *testing.T) {
	h := newTestHost(false)
	vw := h.vw
	at := point{400, 300}
	before := vw.view.toTree(at)

	var tokens []uint64
	for i := 0; i < 5; i++ {
		e := vw.Dispatch(Wheel{At: at, Steps: 1})
		if e.Redraw || e.Debounce == 0 {
			t.Fatalf("notch %d: %+v", i, e)
		}
		tokens = append(tokens, e.Debounce)
	}
	want := math.Pow(vw.cfg.ZoomFactor, 5)
	if !near(vw.view.Zoom.X, want) || !near(vw.view.Zoom.Y, want) {
		t.Errorf("zoom = %v, want %g", vw.view.Zoom, want)
	}
	if after := vw.view.toTree(at); !nearPoint(before, after) {
		t.Errorf("pointer tree point moved from %v to %v", before, after)
	}

	for _, tok := range tokens[:4] {
		if vw.fire(tok).Redraw {
			t.Errorf("superseded token %d fired", tok)
		}
	}
	e := vw.fire(tokens[4])
	if !e.Redraw {
		t.Fatal("last token did not fire")
	}
	h.run(e)
	if vw.fire(tokens[4]).Redraw {
		t.Error("token fired twice")
	}
	if h.d.calls != 1 {
		t.Fatalf("%d fetches, want 1", h.d.calls)
	}
	if got := h.d.queries[0].Get("zx"); got != formatFloat(vw.view.Zoom.X) {
		t.Errorf("fetched zoom %s, want final %g", got, vw.view.Zoom.X)
	}

	// the burst is one undo step
	vw.undo()
	if vw.view.Zoom != (point{1, 1}) {
		t.Errorf("zoom after undo = %v", vw.view.Zoom)
	}
	vw.redo()
	if !near(vw.view.Zoom.X, want) {
		t.Errorf("zoom after redo = %v", vw.view.Zoom)
	}
}

func TestRedrawCancelsPendingWheel(t *testing.T) {
	h := newTestHost(false)
	vw := h.vw
	tok := vw.Dispatch(Wheel{At: point{1, 1}, Steps: 1}).Debounce
	h.run(vw.Dispatch(Resize{Size: point{400, 300}}))
	if vw.fire(tok).Redraw {
		t.Error("wheel token fired after an immediate redraw")
	}
}

func TestWheelAxisLock(t *testing.T) {
	h := newTestHost(false)
	vw := h.vw
	vw.Dispatch(Wheel{At: point{10, 10}, Steps: 1, Ctrl: true})
	if vw.view.Zoom.Y != 1 || vw.view.Zoom.X == 1 {
		t.Errorf("ctrl zoom = %v, want x only", vw.view.Zoom)
	}
	vw.Dispatch(Wheel{At: point{10, 10}, Steps: -1, Alt: true})
	if vw.view.Zoom.Y == 1 {
		t.Errorf("alt zoom = %v, want y changed", vw.view.Zoom)
	}

	vw.change(SetShape{ShapeCircular})
	vw.Dispatch(Wheel{At: point{10, 10}, Steps: 1, Ctrl: true})
	if vw.view.Zoom.X != vw.view.Zoom.Y {
		t.Errorf("circular zoom = %v, want isotropic", vw.view.Zoom)
	}
	if e := vw.Dispatch(Wheel{At: point{10, 10}}); e != (Effect{}) {
		t.Errorf("zero steps: %+v", e)
	}
}

func TestDividerDrag(t *testing.T) {
	h := newTestHost(false)
	vw := h.vw
	vw.apply(SetDivider{300})

	h.run(vw.Dispatch(PointerDown{At: point{302, 50}}))
	if vw.drag.target != DragDivider {
		t.Fatalf("drag target = %v", vw.drag.target)
	}
	h.run(vw.Dispatch(PointerMove{At: point{352, 50}}))
	if vw.view.AlignedX != 350 || vw.view.Offset != (point{}) {
		t.Errorf("divider %g offset %v", vw.view.AlignedX, vw.view.Offset)
	}
	h.run(vw.Dispatch(PointerUp{At: point{352, 50}}))
	if h.d.calls != 1 {
		t.Errorf("%d fetches, want 1", h.d.calls)
	}
}

func zoomedMinimapHost(t *testing.T) *testHost {
	t.Helper()
	h := newTestHost(true)
	h.vw.setTreeSize(TreeSize{Width: 1000, Height: 1000}, true)
	h.vw.apply(SetZoom{point{5, 5}})
	h.vw.apply(SetOffset{point{}})
	if h.vw.miniPos != (point{632, 8}) {
		t.Fatalf("minimap at %v", h.vw.miniPos)
	}
	return h
}

func TestMinimapClickRecenters(t *testing.T) {
	h := zoomedMinimapHost(t)
	vw := h.vw
	e := vw.Dispatch(PointerDown{At: point{732, 108}})
	if !e.Redraw {
		t.Fatalf("minimap click: %+v", e)
	}
	h.run(e)
	if !nearPoint(vw.view.Offset, point{545, 565}) {
		t.Errorf("offset = %v, want (545, 565)", vw.view.Offset)
	}
	if vw.drag.active() {
		t.Error("minimap click should not start a drag")
	}
	// the clicked point is now the centre of the view
	if c := vw.view.toTree(vw.size.scale(0.5)); !nearPoint(c, point{625, 625}) {
		t.Errorf("view centre = %v", c)
	}
}

func TestMinimapRectDrag(t *testing.T) {
	h := zoomedMinimapHost(t)
	vw := h.vw
	h.run(vw.Dispatch(PointerDown{At: point{640, 12}}))
	if vw.drag.target != DragMinimapRect {
		t.Fatalf("drag target = %v", vw.drag.target)
	}
	h.run(vw.Dispatch(PointerMove{At: point{656, 12}}))
	if h.d.calls != 0 {
		t.Fatal("minimap drag fetched before release")
	}
	if !nearPoint(vw.view.Offset, point{100, 0}) {
		t.Errorf("offset = %v, want (100, 0)", vw.view.Offset)
	}
	h.run(vw.Dispatch(PointerUp{At: point{656, 12}}))
	if h.d.calls != 1 {
		t.Errorf("%d fetches, want 1", h.d.calls)
	}
}

func TestFit(t *testing.T) {
	h := newTestHost(false)
	vw := h.vw
	vw.setTreeSize(TreeSize{Width: 1000, Height: 500}, true)
	if got := vw.view.toScreen(point{0, 0}); !nearPoint(got, point{40, 30}) {
		t.Errorf("tree origin at %v, want (40, 30)", got)
	}
	if got := vw.view.toScreen(point{1000, 500}); !nearPoint(got, point{760, 570}) {
		t.Errorf("tree corner at %v, want (760, 570)", got)
	}

	vw.change(SetShape{ShapeCircular})
	vw.fit()
	if got := vw.view.treeToScreen(point{0, 1}); !nearPoint(got, point{400, 300}) {
		t.Errorf("circular root at %v, want centre", got)
	}
	if !near(vw.view.Zoom.X, 0.27) {
		t.Errorf("circular zoom = %g, want 0.27", vw.view.Zoom.X)
	}
}

func TestResize(t *testing.T) {
	h := newTestHost(true)
	vw := h.vw
	e := vw.Dispatch(Resize{Size: point{400, 300}})
	if !e.Redraw {
		t.Errorf("resize: %+v", e)
	}
	if vw.size != (point{400, 300}) || vw.miniPos != (point{232, 8}) {
		t.Errorf("size %v minimap %v", vw.size, vw.miniPos)
	}
}

func TestInstallIgnoresStaleScene(t *testing.T) {
	h := newTestHost(false)
	vw := h.vw
	old := vw.drawRequest()
	fresh := vw.drawRequest()
	if err := vw.install(fetchScene(context.Background(), h.d, "t", fresh, vw.opts)); err != nil {
		t.Fatal(err)
	}
	shown := vw.scene
	if err := vw.install(fetchScene(context.Background(), h.d, "t", old, vw.opts)); err == nil {
		t.Error("old response installed")
	}
	if vw.scene != shown {
		t.Error("old response replaced the newer scene")
	}
}
