package main

import (
	"errors"
	"log"
	"math"
	"slices"
)

// Primitive is one screen-space shape of a scene.
type Primitive interface {
	primitive()
}

// node is what the recoloring pass knows about a node's hit area.
type node struct {
	NodeID   string
	Name     string
	ResultOf []string
	Fill     string
}

// NodeRect is a node hit area in the rectangular layout.
type NodeRect struct {
	node
	rect
}

// NodeSector is a node hit area in the circular layout: the annular sector
// between radii R1, R2 and angles A1, A2 (radians) around Center.
type NodeSector struct {
	node
	Center point
	R1, R2 float64
	A1, A2 float64
}

type Segment struct {
	X1, Y1, X2, Y2 float64
	Style          Style
}

// ArcPath is a circular arc from (X1, Y1) to (X2, Y2) with radius R.
type ArcPath struct {
	X1, Y1, X2, Y2 float64
	R              float64
	Large          bool
	Style          Style
}

type Dot struct {
	X, Y, R float64
	Style   Style
}

// Text is a label at its anchor point. Y is the vertical centre line.
type Text struct {
	textPlacement
	Text    string
	Style   Style
	Flipped bool
}

// Cells is a row of heatmap values spread over a box.
type Cells struct {
	rect
	Values []float64
}

func (*NodeRect) primitive()   {}
func (*NodeSector) primitive() {}
func (*Segment) primitive()    {}
func (*ArcPath) primitive()    {}
func (*Dot) primitive()        {}
func (*Text) primitive()       {}
func (*Cells) primitive()      {}

// Scene is the rendered result of one draw response. Scale and Shift are the
// cheap visual transform applied between redraws: a primitive at s is shown
// at s*Scale + Shift.
type Scene struct {
	Seq     uint64
	Items   []Primitive
	Nodes   int
	Flipped int
	Skipped int
	Size    point
	Scale   point
	Shift   point
	view    *ViewState
}

func newScene(seq uint64, v *ViewState, size point) *Scene {
	return &Scene{Seq: seq, view: v, Size: size, Scale: point{1, 1}}
}

func (s *Scene) project(p point) point {
	return p.mul(s.Scale).add(s.Shift)
}

// translate shifts the shown scene by d pixels.
func (s *Scene) translate(d point) {
	s.Shift = s.Shift.add(d)
}

// zoomAround scales the shown scene by f keeping the pixel c fixed.
func (s *Scene) zoomAround(c point, f point) {
	s.Scale = s.Scale.mul(f)
	s.Shift = s.Shift.mul(f).add(c.sub(c.mul(f)))
}

// sceneOptions carries the user settings that shape a scene.
type sceneOptions struct {
	MaxFontSize    float64
	ExactTextLimit int
	Exact          measurer
	Colors         ColorConfig
}

var errBadGeometry = errors.New("draw item produced invalid geometry")

// buildScene converts draw items into screen primitives for view v and runs
// the post-processing passes. Items that are unusable or produce invalid
// geometry are skipped, counted and logged. An error means the whole scene
// should be discarded.
func buildScene(seq uint64, items []DrawItem, v *ViewState, size point, opts sceneOptions) (*Scene, error) {
	if !validZoom(v.Zoom) {
		return nil, ErrInvalidZoom
	}
	s := newScene(seq, v, size)
	var texts []*Text
	for i, it := range items {
		p, err := convertItem(it, v, opts)
		if err != nil {
			log.Printf("smartview: skipped item %d (%s): %v", i, it.itemKind(), err)
			s.Skipped++
			continue
		}
		if p == nil {
			s.Skipped++
			continue
		}
		switch p := p.(type) {
		case *NodeRect, *NodeSector:
			s.Nodes++
		case *Text:
			texts = append(texts, p)
		}
		s.Items = append(s.Items, p)
	}
	if v.Shape == ShapeCircular {
		s.Flipped = flipLabels(texts, opts.Exact, approxMeasurer{}, opts.ExactTextLimit)
	}
	s.recolor(v, opts.Colors)
	return s, nil
}

func convertItem(it DrawItem, v *ViewState, opts sceneOptions) (Primitive, error) {
	switch it := it.(type) {
	case BoxItem:
		n := node{NodeID: it.NodeID, Name: it.Name, ResultOf: it.ResultOf}
		if v.Shape == ShapeCircular {
			c := v.toScreen(point{})
			z := v.Zoom.X
			sec := &NodeSector{node: n, Center: c,
				R1: it.Box[0] * z, R2: (it.Box[0] + it.Box[2]) * z,
				A1: it.Box[1], A2: it.Box[1] + it.Box[3]}
			if !c.finite() || !validSector(sec) {
				return nil, errBadGeometry
			}
			return sec, nil
		}
		corner := v.toScreen(point{it.Box[0], it.Box[1]})
		r := &NodeRect{node: n, rect: rect{corner.X, corner.Y, it.Box[2] * v.Zoom.X, it.Box[3] * v.Zoom.Y}}
		if !corner.finite() {
			return nil, errBadGeometry
		}
		return r, nil
	case LineItem:
		p1, p2 := v.treeToScreen(it.P1), v.treeToScreen(it.P2)
		if !p1.finite() || !p2.finite() {
			return nil, errBadGeometry
		}
		return &Segment{p1.X, p1.Y, p2.X, p2.Y, it.Style}, nil
	case ArcItem:
		p1, p2 := v.treeToScreen(it.P1), v.treeToScreen(it.P2)
		if !p1.finite() || !p2.finite() {
			return nil, errBadGeometry
		}
		if v.Shape != ShapeCircular {
			return &Segment{p1.X, p1.Y, p2.X, p2.Y, it.Style}, nil
		}
		return &ArcPath{p1.X, p1.Y, p2.X, p2.Y, it.P1.X * v.Zoom.X, it.Large, it.Style}, nil
	case CircleItem:
		c := v.treeToScreen(it.Center)
		if !c.finite() {
			return nil, errBadGeometry
		}
		return &Dot{c.X, c.Y, it.Radius, it.Style}, nil
	case TextItem:
		userMax := opts.MaxFontSize
		pl, ok := v.placeText(it.Box, it.Anchor, it.Text, it.FsMax, userMax)
		if !ok {
			return nil, nil
		}
		if !(point{pl.X, pl.Y}).finite() {
			return nil, errBadGeometry
		}
		return &Text{textPlacement: pl, Text: it.Text, Style: it.Style}, nil
	case ArrayItem:
		if v.Shape == ShapeCircular {
			log.Printf("smartview: array item skipped in circular shape")
			return nil, nil
		}
		corner := v.toScreen(point{it.Box[0], it.Box[1]})
		return &Cells{rect: rect{corner.X, corner.Y, it.Box[2] * v.Zoom.X, it.Box[3] * v.Zoom.Y}, Values: it.Values}, nil
	}
	log.Printf("smartview: unhandled draw item %T", it)
	return nil, nil
}

// recolor fills node areas that are tagged, selected or search results.
// Selection wins over tags, tags over searches.
func (s *Scene) recolor(v *ViewState, colors ColorConfig) {
	for _, p := range s.Items {
		var n *node
		switch p := p.(type) {
		case *NodeRect:
			n = &p.node
		case *NodeSector:
			n = &p.node
		default:
			continue
		}
		n.Fill = ""
		for _, text := range n.ResultOf {
			if c := v.searchColor(text); c != "" {
				n.Fill = c
			}
		}
		if v.Tagged[n.NodeID] {
			n.Fill = colors.Tag
		}
		if v.Selected != "" && n.NodeID == v.Selected {
			n.Fill = colors.Select
		}
	}
}

// nodeAt returns the deepest node whose area contains the pixel p.
func (s *Scene) nodeAt(p point) (node, bool) {
	// undo the visual transform so hits line up with what is shown
	q := p.sub(s.Shift).div(s.Scale)
	var best node
	found := false
	for _, it := range s.Items {
		var n node
		hit := false
		switch it := it.(type) {
		case *NodeRect:
			n, hit = it.node, it.rect.contains(q)
		case *NodeSector:
			r, a := cartesianToPolar(q.sub(it.Center))
			n, hit = it.node, r >= it.R1 && r <= it.R2 && angleBetween(a, it.A1, it.A2)
		}
		if hit && (!found || nodeDepth(n.NodeID) > nodeDepth(best.NodeID)) {
			best, found = n, true
		}
	}
	return best, found
}

// angleBetween reports whether a lies in [a1, a2] modulo a full turn.
func angleBetween(a, a1, a2 float64) bool {
	d := math.Mod(a-a1, 2*math.Pi)
	if d < 0 {
		d += 2 * math.Pi
	}
	return d <= a2-a1
}

// validSector rejects sectors with non-finite radii or angles outside a few
// turns.
func validSector(sec *NodeSector) bool {
	for _, f := range []float64{sec.R1, sec.R2, sec.A1, sec.A2} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return math.Abs(sec.A1) <= maxSectorAngle && math.Abs(sec.A2) <= maxSectorAngle
}

// nodeIDs lists the ids of every node area in the scene.
func (s *Scene) nodeIDs() []string {
	var ids []string
	for _, it := range s.Items {
		switch it := it.(type) {
		case *NodeRect:
			ids = append(ids, it.NodeID)
		case *NodeSector:
			ids = append(ids, it.NodeID)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}
