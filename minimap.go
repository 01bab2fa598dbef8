package main

import "math"

// minimap is a whole-tree overview with a rectangle marking the main view.
// Minimap pixels are origin + tree*zoom.
type minimap struct {
	size    point
	minRect float64
	zoom    point
	origin  point
	visible rect
	scene   *Scene
	show    bool
}

func newMinimap(cfg MinimapConfig) *minimap {
	return &minimap{
		size:    point{cfg.Width, cfg.Height},
		minRect: cfg.MinRect,
		zoom:    point{1, 1},
		show:    cfg.Show,
	}
}

// fit sets the minimap zoom so the whole tree fits. For the circular shape
// treeSize.X is the tree radius and the tree is centred.
func (m *minimap) fit(treeSize point, shape Shape) {
	if shape == ShapeCircular {
		r := math.Max(treeSize.X, 1e-9)
		z := math.Min(m.size.X, m.size.Y) / (2 * r)
		m.zoom = point{z, z}
		m.origin = m.size.scale(0.5)
		return
	}
	m.zoom = point{m.size.X / math.Max(treeSize.X, 1e-9), m.size.Y / math.Max(treeSize.Y, 1e-9)}
	m.origin = point{}
}

// view is the view state that draws the whole tree into the minimap.
func (m *minimap) view(shape Shape) *ViewState {
	v := newViewState(shape)
	v.Zoom = m.zoom
	v.Offset = m.origin.div(m.zoom).scale(-1)
	return v
}

// update recomputes the visible rectangle for the main view v of the given
// pixel size, clipped to the minimap and never smaller than minRect.
func (m *minimap) update(v *ViewState, viewSize point) {
	ratio := m.zoom.div(v.Zoom)
	raw := rect{
		X: m.origin.X + v.Offset.X*m.zoom.X,
		Y: m.origin.Y + v.Offset.Y*m.zoom.Y,
		W: viewSize.X * ratio.X,
		H: viewSize.Y * ratio.Y,
	}
	x := clamp(raw.X, 0, math.Max(0, m.size.X-m.minRect))
	y := clamp(raw.Y, 0, math.Max(0, m.size.Y-m.minRect))
	m.visible = rect{
		X: x,
		Y: y,
		W: math.Max(m.minRect, math.Min(raw.X+raw.W, m.size.X)-x),
		H: math.Max(m.minRect, math.Min(raw.Y+raw.H, m.size.Y)-y),
	}
}

func (m *minimap) treePointAt(p point) point {
	return p.sub(m.origin).div(m.zoom)
}

// recenter returns the command that centres the main view on the tree point
// under the minimap pixel p.
func (m *minimap) recenter(v *ViewState, p point, viewSize point) Command {
	center := m.treePointAt(p)
	return SetOffset{center.sub(viewSize.scale(0.5).div(v.Zoom))}
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(x, hi))
}
