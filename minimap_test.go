package main

import "testing"

func newTestMinimap() *minimap {
	return newMinimap(MinimapConfig{Show: true, Width: 160, Height: 160, MinRect: 5})
}

func TestMinimapVisibleRect(t *testing.T) {
	m := newTestMinimap()
	m.fit(point{1000, 1000}, ShapeRectangular)
	v := newViewState(ShapeRectangular)
	v.Zoom = point{5, 5}
	v.Offset = point{100, 200}
	m.update(v, point{800, 600})
	want := rect{16, 32, 25.6, 19.2}
	if !nearPoint(point{m.visible.X, m.visible.Y}, point{want.X, want.Y}) ||
		!nearPoint(point{m.visible.W, m.visible.H}, point{want.W, want.H}) {
		t.Errorf("visible = %+v, want %+v", m.visible, want)
	}
}

func TestMinimapRectNeverSmallerThanMin(t *testing.T) {
	m := newTestMinimap()
	m.fit(point{1000, 1000}, ShapeRectangular)
	v := newViewState(ShapeRectangular)
	v.Zoom = point{1000, 1000}
	v.Offset = point{500, 500}
	m.update(v, point{800, 600})
	if m.visible.W < 5 || m.visible.H < 5 {
		t.Errorf("visible = %+v, want at least 5x5", m.visible)
	}
}

func TestMinimapRectClipped(t *testing.T) {
	m := newTestMinimap()
	m.fit(point{1000, 1000}, ShapeRectangular)
	v := newViewState(ShapeRectangular)
	v.Zoom = point{1000, 1000}
	v.Offset = point{5000, -5000}
	m.update(v, point{800, 600})
	if m.visible.X != 155 || m.visible.Y != 0 {
		t.Errorf("visible = %+v, want clipped to the minimap", m.visible)
	}
	if m.visible.X+m.visible.W > m.size.X {
		t.Errorf("visible = %+v runs off the minimap", m.visible)
	}

	// a view showing more than the tree is clipped to the whole minimap
	v.Zoom = point{0.01, 0.01}
	v.Offset = point{-100, -100}
	m.update(v, point{800, 600})
	if m.visible != (rect{0, 0, 160, 160}) {
		t.Errorf("visible = %+v, want the whole minimap", m.visible)
	}
}

func TestMinimapCircularFit(t *testing.T) {
	m := newTestMinimap()
	m.fit(point{500, 0}, ShapeCircular)
	if m.zoom != (point{0.16, 0.16}) || m.origin != (point{80, 80}) {
		t.Errorf("zoom %v origin %v", m.zoom, m.origin)
	}
	v := m.view(ShapeCircular)
	if got := v.treeToScreen(point{0, 2}); !nearPoint(got, point{80, 80}) {
		t.Errorf("root drawn at %v, want centre", got)
	}
	if got := v.treeToScreen(point{500, 0}); !nearPoint(got, point{160, 80}) {
		t.Errorf("rim drawn at %v, want (160, 80)", got)
	}
}

func TestMinimapRecenter(t *testing.T) {
	m := newTestMinimap()
	m.fit(point{1000, 1000}, ShapeRectangular)
	v := newViewState(ShapeRectangular)
	v.Zoom = point{2, 2}
	if err := v.Apply(m.recenter(v, point{80, 80}, point{800, 600})); err != nil {
		t.Fatal(err)
	}
	if c := v.toTree(point{400, 300}); !nearPoint(c, point{500, 500}) {
		t.Errorf("view centre = %v, want (500, 500)", c)
	}
}
