package main

import (
	"fmt"
	"math"
	"strings"
)

type Mode int

const (
	ModeLoading Mode = iota
	ModeNormal
	ModeSearch
	ModeConfirm
)

type Shape int

const (
	ShapeRectangular Shape = iota
	ShapeCircular
)

func (s Shape) String() string {
	if s == ShapeCircular {
		return "circular"
	}
	return "rectangular"
}

func parseShape(s string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rect", "rectangular":
		return ShapeRectangular, nil
	case "circ", "circular":
		return ShapeCircular, nil
	}
	return ShapeRectangular, fmt.Errorf("unknown shape %q", s)
}

type Anchor int

const (
	AnchorStart Anchor = iota
	AnchorMiddle
	AnchorEnd
)

func (a Anchor) String() string {
	switch a {
	case AnchorMiddle:
		return "middle"
	case AnchorEnd:
		return "end"
	}
	return "start"
}

type DragTarget int

const (
	DragNone DragTarget = iota
	DragTree
	DragMinimapRect
	DragDivider
)

type ConfirmAction int

const (
	ConfirmRemoveNode ConfirmAction = iota
	ConfirmQuit
)

// Tree commands understood by PUT /trees/{id}/{command}.
const (
	CommandSort   = "sort"
	CommandRootAt = "root_at"
	CommandRemove = "remove"
)

const (
	minFontSize     = 2.0
	maxHistory      = 100
	maxUploadBytes  = 20 << 20
	dividerGrabPx   = 4.0
	defaultViewW    = 800.0
	defaultViewH    = 600.0
	fullCircleDeg   = 360.0
	approxCharWidth = 0.6 // em, exact for gomono
	maxSectorAngle  = 4 * math.Pi
)

// Colors cycled through for successive searches.
var searchColors = []string{"#FF8000", "#00C0FF", "#C000FF", "#00B050", "#FF0060", "#808000"}
