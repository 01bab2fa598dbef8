package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// drawQuery describes the visible window of v for a w x h pixel view.
func drawQuery(v *ViewState, size point) url.Values {
	tree := size.div(v.Zoom)
	q := url.Values{}
	q.Set("x", formatFloat(v.Offset.X))
	q.Set("y", formatFloat(v.Offset.Y))
	q.Set("w", formatFloat(tree.X))
	q.Set("h", formatFloat(tree.Y))
	q.Set("zx", formatFloat(v.Zoom.X))
	q.Set("zy", formatFloat(v.Zoom.Y))
	q.Set("shape", v.Shape.String())
	if v.Shape == ShapeCircular {
		q.Set("rmin", formatFloat(v.RadiusMin))
		q.Set("amin", formatFloat(v.AngleMin))
		q.Set("amax", formatFloat(v.AngleMax))
	}
	if len(v.Layouts) > 0 {
		q.Set("layouts", strings.Join(v.Layouts, ","))
	}
	if len(v.Labels) > 0 {
		if data, err := json.Marshal(v.Labels); err == nil {
			q.Set("labels", string(data))
		}
	}
	if ids := v.collapsedIDs(); len(ids) > 0 {
		q.Set("collapsed", strings.Join(ids, ";"))
	}
	if v.AlignedX > 0 {
		q.Set("panel_x", formatFloat(v.AlignedX))
	}
	return q
}

// shareURL encodes the view so it can be reopened elsewhere.
func shareURL(server, treeID string, v *ViewState, size point) string {
	q := url.Values{}
	q.Set("tree", treeID)
	q.Set("x", formatFloat(v.Offset.X))
	q.Set("y", formatFloat(v.Offset.Y))
	q.Set("w", formatFloat(size.X/v.Zoom.X))
	q.Set("h", formatFloat(size.Y/v.Zoom.Y))
	q.Set("shape", v.Shape.String())
	return strings.TrimRight(server, "/") + "/?" + q.Encode()
}

// sharedView is a decoded share URL. The window w x h in tree units is
// turned into a zoom once the real view size is known.
type sharedView struct {
	Server string
	TreeID string
	Offset point
	Window point
	Shape  Shape
}

func parseShareURL(raw string) (sharedView, error) {
	var sv sharedView
	u, err := url.Parse(raw)
	if err != nil {
		return sv, fmt.Errorf("share url: %w", err)
	}
	q := u.Query()
	sv.TreeID = q.Get("tree")
	if sv.TreeID == "" {
		return sv, fmt.Errorf("share url has no tree")
	}
	sv.Server = u.Scheme + "://" + u.Host
	if sv.Shape, err = parseShape(q.Get("shape")); err != nil {
		return sv, err
	}
	vals := map[string]*float64{"x": &sv.Offset.X, "y": &sv.Offset.Y, "w": &sv.Window.X, "h": &sv.Window.Y}
	for key, dst := range vals {
		s := q.Get(key)
		if s == "" {
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return sv, fmt.Errorf("share url %s: %w", key, err)
		}
		*dst = f
	}
	return sv, nil
}

// apply sets v to show the shared window in a view of the given pixel size.
func (sv sharedView) apply(v *ViewState, size point) error {
	if err := v.Apply(SetShape{sv.Shape}); err != nil {
		return err
	}
	if sv.Window.X > 0 && sv.Window.Y > 0 {
		if err := v.Apply(SetZoom{size.div(sv.Window)}); err != nil {
			return err
		}
	}
	return v.Apply(SetOffset{sv.Offset})
}
