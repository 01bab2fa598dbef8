package main

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
)

var ErrInvalidZoom = errors.New("zoom factors must be finite and positive")

// Label asks the server to draw a node property next to matching nodes.
type Label struct {
	Expression string  `json:"expression"`
	NodeType   string  `json:"nodetype"`
	Position   string  `json:"position"`
	Column     int     `json:"column"`
	Color      string  `json:"color,omitempty"`
	MaxSize    float64 `json:"max_size,omitempty"`
}

// Search is a server-side search whose results are recolored on each draw.
type Search struct {
	Text     string
	Color    string
	NResults int
	NParents int
}

// ViewState is everything the client knows about how the tree is viewed.
// Mutations go through Apply so the zoom invariants hold after every change.
type ViewState struct {
	Offset    point
	Zoom      point
	Shape     Shape
	AngleMin  float64
	AngleMax  float64
	RadiusMin float64
	AlignedX  float64
	Layouts   []string
	Labels    []Label
	Collapsed map[string]bool
	Tagged    map[string]bool
	Selected  string
	Searches  []Search
}

func newViewState(shape Shape) *ViewState {
	return &ViewState{
		Zoom:      point{1, 1},
		Shape:     shape,
		AngleMin:  -180,
		AngleMax:  180,
		Collapsed: map[string]bool{},
		Tagged:    map[string]bool{},
	}
}

// Clone returns a deep copy, safe to hand to a background fetch.
func (v *ViewState) Clone() *ViewState {
	c := *v
	c.Layouts = slices.Clone(v.Layouts)
	c.Labels = slices.Clone(v.Labels)
	c.Searches = slices.Clone(v.Searches)
	c.Collapsed = make(map[string]bool, len(v.Collapsed))
	for k, b := range v.Collapsed {
		c.Collapsed[k] = b
	}
	c.Tagged = make(map[string]bool, len(v.Tagged))
	for k, b := range v.Tagged {
		c.Tagged[k] = b
	}
	return &c
}

// Command is a single change to the view state.
type Command interface {
	apply(v *ViewState) error
}

// Apply runs cmd and restores the zoom invariants. A failed command leaves
// the state untouched.
func (v *ViewState) Apply(cmd Command) error {
	backup := v.Clone()
	if err := cmd.apply(v); err != nil {
		*v = *backup
		return err
	}
	v.syncZoom()
	if !v.Offset.finite() {
		*v = *backup
		return fmt.Errorf("offset became %v", v.Offset)
	}
	return nil
}

func (v *ViewState) syncZoom() {
	if v.Shape == ShapeCircular && v.Zoom.X != v.Zoom.Y {
		z := math.Min(v.Zoom.X, v.Zoom.Y)
		v.Zoom = point{z, z}
	}
}

func validZoom(z point) bool {
	return z.finite() && z.X > 0 && z.Y > 0
}

// PanBy moves the offset by a delta in tree units.
type PanBy struct {
	DX, DY float64
}

func (c PanBy) apply(v *ViewState) error {
	v.Offset = v.Offset.add(point{c.DX, c.DY})
	return nil
}

type SetOffset struct {
	Offset point
}

func (c SetOffset) apply(v *ViewState) error {
	if !c.Offset.finite() {
		return fmt.Errorf("invalid offset %v", c.Offset)
	}
	v.Offset = c.Offset
	return nil
}

// ZoomAt scales the zoom by FX, FY keeping the tree point under the screen
// point Center fixed. The circular shape always zooms both axes together.
type ZoomAt struct {
	Center point
	FX, FY float64
}

func (c ZoomAt) apply(v *ViewState) error {
	fx, fy := c.FX, c.FY
	if v.Shape == ShapeCircular {
		f := fx
		if f == 1 {
			f = fy
		}
		fx, fy = f, f
	}
	next := v.Zoom.mul(point{fx, fy})
	if !validZoom(next) {
		return ErrInvalidZoom
	}
	anchor := c.Center.div(v.Zoom).add(v.Offset)
	v.Zoom = next
	v.Offset = anchor.sub(c.Center.div(v.Zoom))
	return nil
}

type SetZoom struct {
	Zoom point
}

func (c SetZoom) apply(v *ViewState) error {
	if !validZoom(c.Zoom) {
		return ErrInvalidZoom
	}
	v.Zoom = c.Zoom
	return nil
}

type SetShape struct {
	Shape Shape
}

func (c SetShape) apply(v *ViewState) error {
	v.Shape = c.Shape
	return nil
}

// SetAngles limits the circular layout to [Min, Max] degrees.
type SetAngles struct {
	Min, Max float64
}

func (c SetAngles) apply(v *ViewState) error {
	if c.Min >= c.Max || c.Max-c.Min > fullCircleDeg {
		return fmt.Errorf("invalid angle range [%g, %g]", c.Min, c.Max)
	}
	v.AngleMin, v.AngleMax = c.Min, c.Max
	return nil
}

type SetRadiusMin struct {
	R float64
}

func (c SetRadiusMin) apply(v *ViewState) error {
	if c.R < 0 {
		return fmt.Errorf("negative minimum radius %g", c.R)
	}
	v.RadiusMin = c.R
	return nil
}

// SetDivider places the aligned-panel divider at X pixels.
type SetDivider struct {
	X float64
}

func (c SetDivider) apply(v *ViewState) error {
	v.AlignedX = math.Max(0, c.X)
	return nil
}

type ToggleLayout struct {
	Name string
}

func (c ToggleLayout) apply(v *ViewState) error {
	if i := slices.Index(v.Layouts, c.Name); i >= 0 {
		v.Layouts = slices.Delete(v.Layouts, i, i+1)
		return nil
	}
	v.Layouts = append(v.Layouts, c.Name)
	return nil
}

type AddLabel struct {
	Label Label
}

func (c AddLabel) apply(v *ViewState) error {
	if c.Label.Expression == "" {
		return errors.New("empty label expression")
	}
	v.Labels = append(v.Labels, c.Label)
	return nil
}

type RemoveLabel struct {
	Expression string
}

func (c RemoveLabel) apply(v *ViewState) error {
	v.Labels = slices.DeleteFunc(v.Labels, func(l Label) bool { return l.Expression == c.Expression })
	return nil
}

type ToggleCollapse struct {
	NodeID string
}

func (c ToggleCollapse) apply(v *ViewState) error {
	if v.Collapsed[c.NodeID] {
		delete(v.Collapsed, c.NodeID)
	} else {
		v.Collapsed[c.NodeID] = true
	}
	return nil
}

type ToggleTag struct {
	NodeID string
}

func (c ToggleTag) apply(v *ViewState) error {
	if v.Tagged[c.NodeID] {
		delete(v.Tagged, c.NodeID)
	} else {
		v.Tagged[c.NodeID] = true
	}
	return nil
}

// Select marks NodeID as the active node; an empty id clears the selection.
type Select struct {
	NodeID string
}

func (c Select) apply(v *ViewState) error {
	v.Selected = c.NodeID
	return nil
}

type AddSearch struct {
	Search Search
}

func (c AddSearch) apply(v *ViewState) error {
	if c.Search.Text == "" {
		return ErrEmptySearch
	}
	v.Searches = slices.DeleteFunc(v.Searches, func(s Search) bool { return s.Text == c.Search.Text })
	s := c.Search
	if s.Color == "" {
		s.Color = searchColors[len(v.Searches)%len(searchColors)]
	}
	v.Searches = append(v.Searches, s)
	return nil
}

// RemoveSearch drops the search with Text, or every search when Text is empty.
type RemoveSearch struct {
	Text string
}

func (c RemoveSearch) apply(v *ViewState) error {
	if c.Text == "" {
		v.Searches = nil
		return nil
	}
	v.Searches = slices.DeleteFunc(v.Searches, func(s Search) bool { return s.Text == c.Text })
	return nil
}

func (v *ViewState) searchColor(text string) string {
	for _, s := range v.Searches {
		if s.Text == text {
			return s.Color
		}
	}
	return ""
}

func (v *ViewState) collapsedIDs() []string {
	ids := make([]string, 0, len(v.Collapsed))
	for id := range v.Collapsed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
