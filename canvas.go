package main

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type cell struct {
	ch rune
	fg string
	bg string
}

// termCanvas rasterizes screen-space primitives onto terminal cells. One
// cell covers cellW x cellH pixels.
type termCanvas struct {
	cols, rows   int
	cellW, cellH float64
	cells        [][]cell
	styles       map[[2]string]lipgloss.Style
}

func newTermCanvas(cols, rows int, size CellConfig) *termCanvas {
	c := &termCanvas{
		cols:   max(cols, 1),
		rows:   max(rows, 1),
		cellW:  size.Width,
		cellH:  size.Height,
		styles: map[[2]string]lipgloss.Style{},
	}
	c.cells = make([][]cell, c.rows)
	for i := range c.cells {
		c.cells[i] = make([]cell, c.cols)
		for j := range c.cells[i] {
			c.cells[i][j].ch = ' '
		}
	}
	return c
}

func (c *termCanvas) isValidPos(col, row int) bool {
	return row >= 0 && row < c.rows && col >= 0 && col < c.cols
}

func (c *termCanvas) toCell(p point) (int, int) {
	return int(math.Floor(p.X / c.cellW)), int(math.Floor(p.Y / c.cellH))
}

// clampCell is toCell for a point first pulled to within one cell of the
// canvas, so loops over far off-screen extents stay bounded.
func (c *termCanvas) clampCell(p point) (int, int) {
	b := c.bounds()
	return c.toCell(point{
		math.Max(b.X, math.Min(p.X, b.X+b.W)),
		math.Max(b.Y, math.Min(p.Y, b.Y+b.H)),
	})
}

// bounds is the canvas area in pixels grown by one cell on every side.
func (c *termCanvas) bounds() rect {
	return rect{-c.cellW, -c.cellH, float64(c.cols+2) * c.cellW, float64(c.rows+2) * c.cellH}
}

func (c *termCanvas) set(col, row int, ch rune, fg string) {
	if c.isValidPos(col, row) {
		c.cells[row][col].ch = ch
		c.cells[row][col].fg = fg
	}
}

func (c *termCanvas) setBg(col, row int, bg string) {
	if c.isValidPos(col, row) {
		c.cells[row][col].bg = bg
	}
}

// drawScene draws s with its visual transform, offset by origin pixels.
func (c *termCanvas) drawScene(s *Scene, colors ColorConfig, origin point) {
	if s == nil {
		return
	}
	at := func(x, y float64) point { return s.project(point{x, y}).add(origin) }
	scale := math.Min(s.Scale.X, s.Scale.Y)
	// node fills go first so lines and text stay readable on top
	for _, it := range s.Items {
		switch it := it.(type) {
		case *NodeRect:
			if it.Fill != "" {
				p := at(it.X, it.Y)
				c.fillRect(rect{p.X, p.Y, it.W * s.Scale.X, it.H * s.Scale.Y}, it.Fill)
			}
		case *NodeSector:
			if it.Fill != "" {
				c.fillSector(at(it.Center.X, it.Center.Y), it.R1*scale, it.R2*scale, it.A1, it.A2, it.Fill)
			}
		}
	}
	for _, it := range s.Items {
		switch it := it.(type) {
		case *Segment:
			c.drawSegment(at(it.X1, it.Y1), at(it.X2, it.Y2), styleColor(it.Style, colors.Line))
		case *ArcPath:
			c.drawArc(at(it.X1, it.Y1), at(it.X2, it.Y2), it.R*scale, it.Large, styleColor(it.Style, colors.Line))
		case *Dot:
			col, row := c.toCell(at(it.X, it.Y))
			c.set(col, row, '●', styleColor(it.Style, colors.Line))
		case *Cells:
			p := at(it.X, it.Y)
			c.drawCells(rect{p.X, p.Y, it.W * s.Scale.X, it.H * s.Scale.Y}, it.Values)
		}
	}
	for _, it := range s.Items {
		if t, ok := it.(*Text); ok {
			c.drawText(t, at(t.X, t.Y), t.FontSize*scale, styleColor(t.Style, colors.Text))
		}
	}
}

// styleColor picks a color from the item style, falling back to def.
func styleColor(s Style, def string) string {
	for _, k := range []string{"stroke", "fill", "color"} {
		if v, ok := s.Props[k]; ok && strings.HasPrefix(v, "#") {
			return v
		}
	}
	return def
}

func (c *termCanvas) fillRect(r rect, bg string) {
	c0, r0 := c.clampCell(point{r.X, r.Y})
	c1, r1 := c.clampCell(point{r.X + r.W, r.Y + r.H})
	for row := max(r0, 0); row <= min(r1, c.rows-1); row++ {
		for col := max(c0, 0); col <= min(c1, c.cols-1); col++ {
			c.setBg(col, row, bg)
		}
	}
}

func (c *termCanvas) cellCenter(col, row int) point {
	return point{(float64(col) + 0.5) * c.cellW, (float64(row) + 0.5) * c.cellH}
}

func (c *termCanvas) fillSector(center point, r1, r2, a1, a2 float64, bg string) {
	c0, r0 := c.clampCell(center.sub(point{r2, r2}))
	cEnd, rEnd := c.clampCell(center.add(point{r2, r2}))
	for row := max(r0, 0); row <= min(rEnd, c.rows-1); row++ {
		for col := max(c0, 0); col <= min(cEnd, c.cols-1); col++ {
			r, a := cartesianToPolar(c.cellCenter(col, row).sub(center))
			if r >= r1 && r <= r2 && angleBetween(a, a1, a2) {
				c.setBg(col, row, bg)
			}
		}
	}
}

func (c *termCanvas) drawSegment(p1, p2 point, fg string) {
	p1, p2, ok := clipSegment(p1, p2, c.bounds())
	if !ok {
		return
	}
	c1, r1 := c.toCell(p1)
	c2, r2 := c.toCell(p2)
	switch {
	case r1 == r2:
		for col := min(c1, c2); col <= max(c1, c2); col++ {
			c.joinLine(col, r1, '─', fg)
		}
	case c1 == c2:
		for row := min(r1, r2); row <= max(r1, r2); row++ {
			c.joinLine(c1, row, '│', fg)
		}
	default:
		ch := '╲'
		if (c2-c1)*(r2-r1) < 0 {
			ch = '╱'
		}
		steps := max(abs(c2-c1), abs(r2-r1))
		for i := 0; i <= steps; i++ {
			t := float64(i) / float64(steps)
			col := c1 + int(math.Round(t*float64(c2-c1)))
			row := r1 + int(math.Round(t*float64(r2-r1)))
			c.set(col, row, ch, fg)
		}
	}
}

// clipSegment cuts p1->p2 down to the part inside r (Liang-Barsky). It
// reports false when nothing of the segment is inside.
func clipSegment(p1, p2 point, r rect) (point, point, bool) {
	d := p2.sub(p1)
	if !p1.finite() || !p2.finite() || !d.finite() {
		return p1, p2, false
	}
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-d.X, p1.X - r.X},
		{d.X, r.X + r.W - p1.X},
		{-d.Y, p1.Y - r.Y},
		{d.Y, r.Y + r.H - p1.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return p1, p2, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return p1, p2, false
			}
			t0 = math.Max(t0, t)
		} else {
			if t < t0 {
				return p1, p2, false
			}
			t1 = math.Min(t1, t)
		}
	}
	return p1.add(d.scale(t0)), p1.add(d.scale(t1)), true
}

// joinLine draws a line rune, turning crossings of horizontal and vertical
// lines into junctions.
func (c *termCanvas) joinLine(col, row int, ch rune, fg string) {
	if !c.isValidPos(col, row) {
		return
	}
	existing := c.cells[row][col].ch
	if (existing == '─' && ch == '│') || (existing == '│' && ch == '─') || existing == '┼' {
		ch = '┼'
	}
	c.set(col, row, ch, fg)
}

// drawArc samples the arc from p1 to p2 of radius r, sweeping clockwise.
func (c *termCanvas) drawArc(p1, p2 point, r float64, large bool, fg string) {
	if r <= 0 {
		c.drawSegment(p1, p2, fg)
		return
	}
	center, ok := arcCenter(p1, p2, r, large)
	if !ok || !center.finite() {
		c.drawSegment(p1, p2, fg)
		return
	}
	_, a1 := cartesianToPolar(p1.sub(center))
	_, a2 := cartesianToPolar(p2.sub(center))
	if a2 < a1 {
		a2 += 2 * math.Pi
	}
	lo, hi, ok := c.visibleAngles(center, r)
	if !ok {
		return
	}
	maxSteps := 16 * (c.cols + c.rows)
	for k := -1.0; k <= 2; k++ {
		from := math.Max(a1, lo+2*math.Pi*k)
		to := math.Min(a2, hi+2*math.Pi*k)
		if from > to {
			continue
		}
		steps := min(int(math.Ceil((to-from)*r/math.Min(c.cellW, c.cellH)))+1, maxSteps)
		for i := 0; i <= steps; i++ {
			a := from + (to-from)*float64(i)/float64(steps)
			col, row := c.toCell(center.add(polarToCartesian(r, a)))
			if c.isValidPos(col, row) && c.cells[row][col].ch == ' ' {
				c.set(col, row, '·', fg)
			}
		}
	}
}

// visibleAngles returns the range of angles under which the canvas is seen
// from center, or false when the circle of radius r misses the canvas.
func (c *termCanvas) visibleAngles(center point, r float64) (lo, hi float64, ok bool) {
	b := c.bounds()
	corners := []point{{b.X, b.Y}, {b.X + b.W, b.Y}, {b.X, b.Y + b.H}, {b.X + b.W, b.Y + b.H}}
	dx := math.Max(0, math.Max(b.X-center.X, center.X-b.X-b.W))
	dy := math.Max(0, math.Max(b.Y-center.Y, center.Y-b.Y-b.H))
	dmax := 0.0
	for _, p := range corners {
		d := p.sub(center)
		dmax = math.Max(dmax, math.Hypot(d.X, d.Y))
	}
	if r < math.Hypot(dx, dy) || r > dmax {
		return 0, 0, false
	}
	if dx == 0 && dy == 0 {
		return -math.Pi, math.Pi, true
	}
	_, base := cartesianToPolar(point{b.X + b.W/2, b.Y + b.H/2}.sub(center))
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range corners {
		_, a := cartesianToPolar(p.sub(center))
		d := math.Remainder(a-base, 2*math.Pi)
		lo, hi = math.Min(lo, d), math.Max(hi, d)
	}
	return base + lo, base + hi, true
}

// arcCenter finds the centre of the clockwise arc of radius r from p1 to p2.
func arcCenter(p1, p2 point, r float64, large bool) (point, bool) {
	mid := p1.add(p2).scale(0.5)
	d := p2.sub(p1)
	half := math.Hypot(d.X, d.Y) / 2
	if half == 0 || half > r {
		return point{}, false
	}
	h := math.Sqrt(r*r - half*half)
	// unit normal pointing to the right of p1->p2 in screen coordinates
	n := point{-d.Y, d.X}.scale(1 / (2 * half))
	if large {
		h = -h
	}
	return mid.add(n.scale(h)), true
}

func (c *termCanvas) drawText(t *Text, p point, fs float64, fg string) {
	// text smaller than half a row would only smear over its neighbours
	if fs < c.cellH/2 {
		return
	}
	rad := t.Rotation * math.Pi / 180
	dir := point{math.Cos(rad), math.Sin(rad)}
	runes := []rune(t.Text)
	width := float64(len(runes)) * c.cellW
	start := p.sub(dir.scale(anchorOffset(t.Anchor, width)))
	for i, r := range runes {
		col, row := c.toCell(start.add(dir.scale((float64(i) + 0.5) * c.cellW)))
		c.set(col, row, r, fg)
	}
}

var heatRunes = []rune(" ░▒▓█")

func (c *termCanvas) drawCells(r rect, values []float64) {
	if len(values) == 0 {
		return
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	w := r.W / float64(len(values))
	for i, v := range values {
		level := 0.0
		if hi > lo {
			level = (v - lo) / (hi - lo)
		}
		ch := heatRunes[int(math.Round(level*float64(len(heatRunes)-1)))]
		c0, r0 := c.clampCell(point{r.X + float64(i)*w, r.Y})
		c1, r1 := c.clampCell(point{r.X + float64(i+1)*w, r.Y + r.H})
		for row := max(r0, 0); row <= min(r1, c.rows-1); row++ {
			for col := max(c0, 0); col <= min(max(c0, c1-1), c.cols-1); col++ {
				c.set(col, row, ch, "")
			}
		}
	}
}

// clearRect blanks the cells under r, used under overlays.
func (c *termCanvas) clearRect(r rect) {
	c0, r0 := c.clampCell(point{r.X, r.Y})
	c1, r1 := c.clampCell(point{r.X + r.W, r.Y + r.H})
	for row := max(r0, 0); row <= min(r1, c.rows-1); row++ {
		for col := max(c0, 0); col <= min(c1, c.cols-1); col++ {
			c.cells[row][col] = cell{ch: ' '}
		}
	}
}

func (c *termCanvas) drawFrame(r rect, fg string) {
	c0, r0 := c.clampCell(point{r.X, r.Y})
	c1, r1 := c.clampCell(point{r.X + r.W, r.Y + r.H})
	if c1 <= c0 {
		c1 = c0 + 1
	}
	if r1 <= r0 {
		r1 = r0 + 1
	}
	for col := c0 + 1; col < c1; col++ {
		c.set(col, r0, '─', fg)
		c.set(col, r1, '─', fg)
	}
	for row := r0 + 1; row < r1; row++ {
		c.set(c0, row, '│', fg)
		c.set(c1, row, '│', fg)
	}
	c.set(c0, r0, '┌', fg)
	c.set(c1, r0, '┐', fg)
	c.set(c0, r1, '└', fg)
	c.set(c1, r1, '┘', fg)
}

// drawMinimap draws the overview at pos with the visible-area rectangle.
func (c *termCanvas) drawMinimap(m *minimap, pos point, colors ColorConfig) {
	area := rect{pos.X, pos.Y, m.size.X, m.size.Y}
	c.clearRect(area)
	c.drawScene(m.scene, colors, pos)
	c.drawFrame(area, colors.Line)
	v := m.visible
	c.drawFrame(rect{pos.X + v.X, pos.Y + v.Y, v.W, v.H}, colors.Select)
}

func (c *termCanvas) style(fg, bg string) lipgloss.Style {
	key := [2]string{fg, bg}
	if s, ok := c.styles[key]; ok {
		return s
	}
	s := lipgloss.NewStyle()
	if fg != "" {
		s = s.Foreground(lipgloss.Color(fg))
	}
	if bg != "" {
		s = s.Background(lipgloss.Color(bg))
	}
	c.styles[key] = s
	return s
}

// Render returns one styled string per row. Runs of cells with the same
// colors share one style.
func (c *termCanvas) Render() []string {
	out := make([]string, c.rows)
	for row, cells := range c.cells {
		var b strings.Builder
		var run strings.Builder
		var fg, bg string
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if fg == "" && bg == "" {
				b.WriteString(run.String())
			} else {
				b.WriteString(c.style(fg, bg).Render(run.String()))
			}
			run.Reset()
		}
		for _, cl := range cells {
			if cl.fg != fg || cl.bg != bg {
				flush()
				fg, bg = cl.fg, cl.bg
			}
			run.WriteRune(cl.ch)
		}
		flush()
		out[row] = b.String()
	}
	return out
}

// plain returns the rows without styling, for tests and text export.
func (c *termCanvas) plain() []string {
	out := make([]string, c.rows)
	for row, cells := range c.cells {
		runes := make([]rune, len(cells))
		for i, cl := range cells {
			runes[i] = cl.ch
		}
		out[row] = string(runes)
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
