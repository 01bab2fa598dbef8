package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnknownItem = errors.New("unknown draw item")

// Style is either a CSS class name or a set of SVG properties.
type Style struct {
	Class string
	Props map[string]string
}

func (s *Style) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &s.Class)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("style: %w", err)
	}
	s.Props = make(map[string]string, len(raw))
	for k, v := range raw {
		s.Props[k] = fmt.Sprint(v)
	}
	return nil
}

// DrawItem is one drawing instruction from the server. The concrete types
// below are the only implementations.
type DrawItem interface {
	itemKind() string
}

// BoxItem is the invisible hit area of a node.
type BoxItem struct {
	Box      [4]float64
	Name     string
	Props    map[string]any
	NodeID   string
	ResultOf []string
}

type LineItem struct {
	P1, P2   point
	ParentOf []string
	Style    Style
}

// ArcItem joins two points at the same radius of a circular layout.
type ArcItem struct {
	P1, P2   point
	Large    bool
	ParentOf []string
	Style    Style
}

type CircleItem struct {
	Center   point
	Radius   float64
	ParentOf []string
	Style    Style
}

type TextItem struct {
	Box    [4]float64
	Anchor Anchor
	Text   string
	FsMax  float64
	Style  Style
}

type ArrayItem struct {
	Box    [4]float64
	Values []float64
}

func (BoxItem) itemKind() string    { return "box" }
func (LineItem) itemKind() string   { return "line" }
func (ArcItem) itemKind() string    { return "arc" }
func (CircleItem) itemKind() string { return "circle" }
func (TextItem) itemKind() string   { return "text" }
func (ArrayItem) itemKind() string  { return "array" }

// decodeDrawItems parses the server's tuple list. Tuples that cannot be
// understood are reported in skipped and left out; only a payload that is
// not a JSON list at all is an error.
func decodeDrawItems(data []byte) (items []DrawItem, skipped []error, err error) {
	var tuples []json.RawMessage
	if err := json.Unmarshal(data, &tuples); err != nil {
		return nil, nil, fmt.Errorf("draw response: %w", err)
	}
	items = make([]DrawItem, 0, len(tuples))
	for i, raw := range tuples {
		item, err := decodeDrawItem(raw)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		items = append(items, item)
	}
	return items, skipped, nil
}

func decodeDrawItem(raw json.RawMessage) (DrawItem, error) {
	var fields []json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errors.New("empty tuple")
	}
	var kind string
	if err := json.Unmarshal(fields[0], &kind); err != nil {
		return nil, fmt.Errorf("kind: %w", err)
	}
	d := tupleDecoder{kind: kind, fields: fields[1:]}
	switch kind {
	case "box":
		var it BoxItem
		var id []int
		d.need(4)
		d.at(0, &it.Box)
		d.at(1, &it.Name)
		d.at(2, &it.Props)
		d.at(3, &id)
		d.opt(4, &it.ResultOf)
		it.NodeID = formatNodeID(id)
		return it, d.err
	case "line":
		var it LineItem
		d.need(2)
		it.P1 = d.point(0)
		it.P2 = d.point(1)
		d.opt(2, &it.ParentOf)
		d.opt(3, &it.Style)
		return it, d.err
	case "arc":
		var it ArcItem
		d.need(3)
		it.P1 = d.point(0)
		it.P2 = d.point(1)
		d.at(2, &it.Large)
		d.opt(3, &it.ParentOf)
		d.opt(4, &it.Style)
		return it, d.err
	case "circle":
		var it CircleItem
		d.need(2)
		it.Center = d.point(0)
		d.at(1, &it.Radius)
		d.opt(2, &it.ParentOf)
		d.opt(3, &it.Style)
		return it, d.err
	case "text":
		var it TextItem
		var anchor json.RawMessage
		d.need(3)
		d.at(0, &it.Box)
		d.at(1, &anchor)
		d.at(2, &it.Text)
		d.opt(3, &it.FsMax)
		d.opt(4, &it.Style)
		if d.err == nil {
			it.Anchor, d.err = parseAnchor(anchor)
		}
		return it, d.err
	case "array":
		var it ArrayItem
		d.need(2)
		d.at(0, &it.Box)
		d.at(1, &it.Values)
		return it, d.err
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownItem, kind)
}

// tupleDecoder keeps the first error so each case reads as a flat list of
// fields.
type tupleDecoder struct {
	kind   string
	fields []json.RawMessage
	err    error
}

func (d *tupleDecoder) need(n int) {
	if d.err == nil && len(d.fields) < n {
		d.err = fmt.Errorf("%s: want at least %d fields, got %d", d.kind, n, len(d.fields))
	}
}

func (d *tupleDecoder) at(i int, dst any) {
	if d.err != nil {
		return
	}
	if i >= len(d.fields) {
		d.err = fmt.Errorf("%s: missing field %d", d.kind, i)
		return
	}
	if err := json.Unmarshal(d.fields[i], dst); err != nil {
		d.err = fmt.Errorf("%s field %d: %w", d.kind, i, err)
	}
}

func (d *tupleDecoder) opt(i int, dst any) {
	if i < len(d.fields) {
		d.at(i, dst)
	}
}

func (d *tupleDecoder) point(i int) point {
	var xy [2]float64
	d.at(i, &xy)
	return point{xy[0], xy[1]}
}

// parseAnchor accepts a name ("start", "middle", "end") or the numeric form
// [ax, ay] with ax in [-1, 1].
func parseAnchor(raw json.RawMessage) (Anchor, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		switch name {
		case "start", "left", "":
			return AnchorStart, nil
		case "middle", "center":
			return AnchorMiddle, nil
		case "end", "right":
			return AnchorEnd, nil
		}
		return AnchorStart, fmt.Errorf("unknown anchor %q", name)
	}
	var xy []float64
	if err := json.Unmarshal(raw, &xy); err != nil || len(xy) == 0 {
		return AnchorStart, fmt.Errorf("anchor: %s", raw)
	}
	switch {
	case xy[0] < -0.5:
		return AnchorStart, nil
	case xy[0] > 0.5:
		return AnchorEnd, nil
	}
	return AnchorMiddle, nil
}

// Node ids are paths of child indices from the root, written "[0,1,2]".
// The root is "[]".
func formatNodeID(path []int) string {
	parts := make([]string, len(path))
	for i, n := range path {
		parts[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func parseNodeID(id string) ([]int, error) {
	if !strings.HasPrefix(id, "[") || !strings.HasSuffix(id, "]") {
		return nil, fmt.Errorf("malformed node id %q", id)
	}
	inner := strings.TrimSpace(id[1 : len(id)-1])
	if inner == "" {
		return []int{}, nil
	}
	parts := strings.Split(inner, ",")
	path := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("malformed node id %q: %w", id, err)
		}
		path[i] = n
	}
	return path, nil
}
