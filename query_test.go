package main

import (
	"encoding/json"
	"testing"
)

func TestDrawQueryRectangular(t *testing.T) {
	v := newViewState(ShapeRectangular)
	v.Apply(SetZoom{point{2, 4}})
	v.Apply(SetOffset{point{10, -5}})
	q := drawQuery(v, point{200, 100})

	want := map[string]string{"x": "10", "y": "-5", "w": "100", "h": "25", "zx": "2", "zy": "4", "shape": "rectangular"}
	for k, val := range want {
		if got := q.Get(k); got != val {
			t.Errorf("%s = %q, want %q", k, got, val)
		}
	}
	for _, k := range []string{"rmin", "amin", "amax", "collapsed", "layouts", "labels", "panel_x"} {
		if q.Has(k) {
			t.Errorf("unexpected %s = %q", k, q.Get(k))
		}
	}
}

func TestDrawQueryCircular(t *testing.T) {
	v := newViewState(ShapeCircular)
	v.Apply(SetZoom{point{2, 2}})
	v.Apply(ToggleCollapse{"[1,2]"})
	v.Apply(ToggleCollapse{"[0]"})
	v.Apply(ToggleLayout{"basic"})
	v.Apply(AddLabel{Label{Expression: "name", NodeType: "leaf", Position: "aligned"}})
	q := drawQuery(v, point{200, 100})

	if q.Get("rmin") != "0" || q.Get("amin") != "-180" || q.Get("amax") != "180" {
		t.Errorf("circular window = %v", q)
	}
	if got := q.Get("collapsed"); got != "[0];[1,2]" {
		t.Errorf("collapsed = %q", got)
	}
	if got := q.Get("layouts"); got != "basic" {
		t.Errorf("layouts = %q", got)
	}
	var labels []Label
	if err := json.Unmarshal([]byte(q.Get("labels")), &labels); err != nil || len(labels) != 1 || labels[0].Expression != "name" {
		t.Errorf("labels = %q (%v)", q.Get("labels"), err)
	}
}

func TestShareURLRoundTrip(t *testing.T) {
	size := point{800, 600}
	v := newViewState(ShapeRectangular)
	v.Apply(SetZoom{point{2, 3}})
	v.Apply(SetOffset{point{-12.5, 40}})

	raw := shareURL("http://example.org:5000/", "t1", v, size)
	sv, err := parseShareURL(raw)
	if err != nil {
		t.Fatal(err)
	}
	if sv.Server != "http://example.org:5000" || sv.TreeID != "t1" {
		t.Errorf("server %q tree %q", sv.Server, sv.TreeID)
	}

	got := newViewState(ShapeCircular)
	if err := sv.apply(got, size); err != nil {
		t.Fatal(err)
	}
	if got.Shape != ShapeRectangular || !nearPoint(got.Zoom, v.Zoom) || !nearPoint(got.Offset, v.Offset) {
		t.Errorf("restored shape %v zoom %v offset %v", got.Shape, got.Zoom, got.Offset)
	}
}

func TestShareURLResizedView(t *testing.T) {
	v := newViewState(ShapeRectangular)
	v.Apply(SetZoom{point{2, 2}})
	sv, err := parseShareURL(shareURL("http://h", "t1", v, point{400, 400}))
	if err != nil {
		t.Fatal(err)
	}
	got := newViewState(ShapeRectangular)
	sv.apply(got, point{800, 200})
	// the same 200x200 tree window fills the new size
	if !nearPoint(got.Zoom, point{4, 1}) {
		t.Errorf("zoom = %v", got.Zoom)
	}
}

func TestParseShareURLErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no tree", "http://h/?x=1"},
		{"bad shape", "http://h/?tree=t&shape=hexagonal"},
		{"bad number", "http://h/?tree=t&x=left"},
		{"bad url", "http://h/%zz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseShareURL(tt.raw); err == nil {
				t.Errorf("parseShareURL(%q) succeeded", tt.raw)
			}
		})
	}
}
