package main

import "math"

// toScreen maps a Cartesian tree point to pixels.
func (v *ViewState) toScreen(p point) point {
	return p.sub(v.Offset).mul(v.Zoom)
}

// toTree maps pixels back to a Cartesian tree point.
func (v *ViewState) toTree(s point) point {
	return s.div(v.Zoom).add(v.Offset)
}

func polarToCartesian(r, a float64) point {
	return point{r * math.Cos(a), r * math.Sin(a)}
}

func cartesianToPolar(p point) (r, a float64) {
	return math.Hypot(p.X, p.Y), math.Atan2(p.Y, p.X)
}

// treeToScreen maps a tree point in the coordinates of the current shape:
// (x, y) for rectangular, (radius, angle in radians) for circular.
func (v *ViewState) treeToScreen(p point) point {
	if v.Shape == ShapeCircular {
		return v.toScreen(polarToCartesian(p.X, p.Y))
	}
	return v.toScreen(p)
}

// screenToTree is the inverse of treeToScreen.
func (v *ViewState) screenToTree(s point) point {
	c := v.toTree(s)
	if v.Shape == ShapeCircular {
		r, a := cartesianToPolar(c)
		return point{r, a}
	}
	return c
}

// textPlacement is where and how big a label is drawn, in pixels.
type textPlacement struct {
	X, Y     float64
	FontSize float64
	Rotation float64 // degrees, clockwise in screen space
	Anchor   Anchor
}

// fontSize fits n characters in a w x h pixel box. itemMax and userMax bound
// the result when positive.
func fontSize(w, h float64, n int, itemMax, userMax float64) float64 {
	if n == 0 {
		return 0
	}
	fs := math.Min(h, 1.5*w/float64(n))
	if itemMax > 0 {
		fs = math.Min(fs, itemMax)
	}
	if userMax > 0 {
		fs = math.Min(fs, userMax)
	}
	return math.Max(fs, 0)
}

func anchorOffset(a Anchor, w float64) float64 {
	switch a {
	case AnchorMiddle:
		return w / 2
	case AnchorEnd:
		return w
	}
	return 0
}

// placeText positions text inside a tree-space box. Rectangular boxes are
// (x, y, dx, dy); circular ones are (r, a, dr, da). ok is false when the
// text would be too small to read.
func (v *ViewState) placeText(box [4]float64, anchor Anchor, text string, itemMax, userMax float64) (textPlacement, bool) {
	n := len([]rune(text))
	if v.Shape == ShapeCircular {
		r, a, dr, da := box[0], box[1], box[2], box[3]
		z := v.Zoom.X
		w, h := dr*z, r*da*z
		fs := fontSize(w, h, n, itemMax, userMax)
		if fs < minFontSize {
			return textPlacement{}, false
		}
		angle := a + da/2
		p := v.treeToScreen(point{r + anchorOffset(anchor, w)/z, angle})
		return textPlacement{X: p.X, Y: p.Y, FontSize: fs, Rotation: angle * 180 / math.Pi, Anchor: anchor}, true
	}
	corner := v.toScreen(point{box[0], box[1]})
	w, h := box[2]*v.Zoom.X, box[3]*v.Zoom.Y
	fs := fontSize(w, h, n, itemMax, userMax)
	if fs < minFontSize {
		return textPlacement{}, false
	}
	return textPlacement{
		X:        corner.X + anchorOffset(anchor, w),
		Y:        corner.Y + h/2,
		FontSize: fs,
		Anchor:   anchor,
	}, true
}
