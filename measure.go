package main

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

// measurer returns the advance width in pixels of text at a font size.
type measurer interface {
	textWidth(text string, fs float64) float64
}

// approxMeasurer assumes every rune is the same fraction of an em wide.
type approxMeasurer struct{}

func (approxMeasurer) textWidth(text string, fs float64) float64 {
	return approxCharWidth * fs * float64(len([]rune(text)))
}

// fontMeasurer measures glyph advances with a TrueType face. Faces are cached
// per rounded size.
type fontMeasurer struct {
	mu    sync.Mutex
	font  *truetype.Font
	faces map[int]font.Face
}

var (
	monoFont     *truetype.Font
	monoFontErr  error
	monoFontOnce sync.Once
)

func loadMonoFont() (*truetype.Font, error) {
	monoFontOnce.Do(func() {
		monoFont, monoFontErr = truetype.Parse(gomono.TTF)
		if monoFontErr != nil {
			monoFontErr = fmt.Errorf("failed to parse font: %w", monoFontErr)
		}
	})
	return monoFont, monoFontErr
}

func newFontMeasurer() (*fontMeasurer, error) {
	f, err := loadMonoFont()
	if err != nil {
		return nil, err
	}
	return &fontMeasurer{font: f, faces: map[int]font.Face{}}, nil
}

func (m *fontMeasurer) face(fs float64) font.Face {
	size := int(math.Round(fs * 4))
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.faces[size]; ok {
		return f
	}
	f := truetype.NewFace(m.font, &truetype.Options{
		Size:    float64(size) / 4,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	m.faces[size] = f
	return f
}

func (m *fontMeasurer) textWidth(text string, fs float64) float64 {
	if fs <= 0 {
		return 0
	}
	adv := font.MeasureString(m.face(fs), text)
	return float64(adv) / 64
}

func normalizeDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// upsideDown reports whether a label rotated by deg would read upside down.
func upsideDown(deg float64) bool {
	a := normalizeDegrees(deg)
	return a > 90 && a < 270
}

// labelCenter is the centre of the label's bounding box for a text width w.
func labelCenter(l *Text, w float64) point {
	lx := w/2 - anchorOffset(l.Anchor, w)
	rad := l.Rotation * math.Pi / 180
	return point{l.X + lx*math.Cos(rad), l.Y + lx*math.Sin(rad)}
}

// flipLabel turns l by 180 degrees about the centre of its bounding box.
func flipLabel(l *Text, w float64) {
	c := labelCenter(l, w)
	l.X, l.Y = 2*c.X-l.X, 2*c.Y-l.Y
	l.Rotation = normalizeDegrees(l.Rotation + 180)
	if l.Rotation > 180 {
		l.Rotation -= 360
	}
	l.Flipped = true
}

// flipLabels rights every upside-down label. Labels ranked among the
// exactLimit biggest of all labels are measured with exact; the rest use
// approx.
func flipLabels(labels []*Text, exact, approx measurer, exactLimit int) int {
	order := slices.Clone(labels)
	sort.SliceStable(order, func(i, j int) bool { return order[i].FontSize > order[j].FontSize })
	flipped := 0
	for i, l := range order {
		if !upsideDown(l.Rotation) {
			continue
		}
		m := approx
		if i < exactLimit && exact != nil {
			m = exact
		}
		flipLabel(l, m.textWidth(l.Text, l.FontSize))
		flipped++
	}
	return flipped
}
