package main

import "math"

// point is a 2D vector, in tree units or pixels depending on context.
type point struct {
	X, Y float64
}

func (p point) add(q point) point     { return point{p.X + q.X, p.Y + q.Y} }
func (p point) sub(q point) point     { return point{p.X - q.X, p.Y - q.Y} }
func (p point) mul(q point) point     { return point{p.X * q.X, p.Y * q.Y} }
func (p point) div(q point) point     { return point{p.X / q.X, p.Y / q.Y} }
func (p point) scale(f float64) point { return point{p.X * f, p.Y * f} }

func (p point) finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// rect is an axis-aligned rectangle in pixels.
type rect struct {
	X, Y, W, H float64
}

func (r rect) contains(p point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

func (r rect) center() point {
	return point{r.X + r.W/2, r.Y + r.H/2}
}

type model struct {
	width         int
	height        int
	treeID        string
	client        *Client
	config        *Config
	viewer        *viewer
	mode          Mode
	help          bool
	helpScroll    int
	searchText    string
	confirmAction ConfirmAction
	errorMessage  string
	statusMessage string
	totalNodes    int
	totalLeaves   int
	shared        *sharedView
}
