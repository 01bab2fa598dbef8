package main

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

func rnd(f float64) int {
	return int(math.Round(f))
}

// svgStyle turns an item style into an inline SVG style, with def used when
// the item brings no properties.
func svgStyle(s Style, def string) string {
	if len(s.Props) == 0 {
		return def
	}
	keys := make([]string, 0, len(s.Props))
	for k := range s.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ":" + s.Props[k]
	}
	return strings.Join(parts, ";")
}

// sectorPath is the SVG path of an annular sector.
func sectorPath(c point, r1, r2, a1, a2 float64) string {
	large := 0
	if a2-a1 > math.Pi {
		large = 1
	}
	p := func(r, a float64) point { return c.add(polarToCartesian(r, a)) }
	o1, o2 := p(r2, a1), p(r2, a2)
	i1, i2 := p(r1, a2), p(r1, a1)
	return fmt.Sprintf("M %g %g A %g %g 0 %d 1 %g %g L %g %g A %g %g 0 %d 0 %g %g Z",
		o1.X, o1.Y, r2, r2, large, o2.X, o2.Y, i1.X, i1.Y, r1, r1, large, i2.X, i2.Y)
}

// exportSVG writes the scene as shown to w.
func exportSVG(w io.Writer, s *Scene, colors ColorConfig) error {
	if s == nil {
		return fmt.Errorf("nothing to export")
	}
	canvas := svg.New(w)
	canvas.Start(rnd(s.Size.X), rnd(s.Size.Y))
	canvas.Rect(0, 0, rnd(s.Size.X), rnd(s.Size.Y), "fill:white")
	lineStyle := "fill:none;stroke:" + colors.Line + ";stroke-width:1"
	scale := math.Min(s.Scale.X, s.Scale.Y)
	for _, it := range s.Items {
		switch it := it.(type) {
		case *NodeRect:
			if it.Fill == "" {
				continue
			}
			p := s.project(point{it.X, it.Y})
			canvas.Rect(rnd(p.X), rnd(p.Y), rnd(it.W*s.Scale.X), rnd(it.H*s.Scale.Y), "fill:"+it.Fill+";fill-opacity:0.4")
		case *NodeSector:
			if it.Fill == "" {
				continue
			}
			canvas.Path(sectorPath(s.project(it.Center), it.R1*scale, it.R2*scale, it.A1, it.A2), "fill:"+it.Fill+";fill-opacity:0.4")
		case *Segment:
			p1, p2 := s.project(point{it.X1, it.Y1}), s.project(point{it.X2, it.Y2})
			canvas.Line(rnd(p1.X), rnd(p1.Y), rnd(p2.X), rnd(p2.Y), svgStyle(it.Style, lineStyle))
		case *ArcPath:
			p1, p2 := s.project(point{it.X1, it.Y1}), s.project(point{it.X2, it.Y2})
			r := rnd(it.R * scale)
			canvas.Arc(rnd(p1.X), rnd(p1.Y), r, r, 0, it.Large, true, rnd(p2.X), rnd(p2.Y), svgStyle(it.Style, lineStyle))
		case *Dot:
			p := s.project(point{it.X, it.Y})
			canvas.Circle(rnd(p.X), rnd(p.Y), rnd(it.R), svgStyle(it.Style, "fill:"+colors.Line))
		case *Cells:
			p := s.project(point{it.X, it.Y})
			w := it.W * s.Scale.X / float64(max(len(it.Values), 1))
			for i, v := range it.Values {
				canvas.Rect(rnd(p.X+float64(i)*w), rnd(p.Y), rnd(w), rnd(it.H*s.Scale.Y),
					fmt.Sprintf("fill:black;fill-opacity:%.3f", heatLevel(it.Values, v)))
			}
		case *Text:
			p := s.project(point{it.X, it.Y})
			style := fmt.Sprintf("font-family:monospace;font-size:%.2fpx;text-anchor:%s;dominant-baseline:central;%s",
				it.FontSize*scale, it.Anchor, svgStyle(it.Style, "fill:black"))
			if it.Rotation != 0 {
				canvas.Gtransform(fmt.Sprintf("rotate(%.3f %.3f %.3f)", it.Rotation, p.X, p.Y))
				canvas.Text(rnd(p.X), rnd(p.Y), it.Text, style)
				canvas.Gend()
			} else {
				canvas.Text(rnd(p.X), rnd(p.Y), it.Text, style)
			}
		}
	}
	canvas.End()
	return nil
}

func heatLevel(values []float64, v float64) float64 {
	lo, hi := values[0], values[0]
	for _, x := range values {
		lo, hi = math.Min(lo, x), math.Max(hi, x)
	}
	if hi == lo {
		return 0
	}
	return (v - lo) / (hi - lo)
}

func writeSVGFile(filename string, s *Scene, colors ColorConfig) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := exportSVG(file, s, colors); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (m *model) exportSVG(filename string) error {
	return writeSVGFile(filename, m.viewer.scene, m.config.Colors)
}

// exportPNG rasterizes the scene as shown with gg.
func exportPNG(filename string, s *Scene, colors ColorConfig) error {
	if s == nil {
		return fmt.Errorf("nothing to export")
	}
	ttfFont, err := loadMonoFont()
	if err != nil {
		return err
	}
	dc := gg.NewContext(rnd(s.Size.X), rnd(s.Size.Y))
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetLineWidth(1.0)

	scale := math.Min(s.Scale.X, s.Scale.Y)
	faces := map[int]font.Face{}
	faceFor := func(fs float64) font.Face {
		size := max(rnd(fs), 1)
		if f, ok := faces[size]; ok {
			return f
		}
		f := truetype.NewFace(ttfFont, &truetype.Options{Size: float64(size), DPI: 72, Hinting: font.HintingFull})
		faces[size] = f
		return f
	}

	for _, it := range s.Items {
		switch it := it.(type) {
		case *NodeRect:
			if it.Fill != "" {
				p := s.project(point{it.X, it.Y})
				dc.SetHexColor(it.Fill + "66")
				dc.DrawRectangle(p.X, p.Y, it.W*s.Scale.X, it.H*s.Scale.Y)
				dc.Fill()
			}
		case *NodeSector:
			if it.Fill != "" {
				c := s.project(it.Center)
				dc.SetHexColor(it.Fill + "66")
				dc.NewSubPath()
				dc.DrawArc(c.X, c.Y, it.R2*scale, it.A1, it.A2)
				dc.LineTo(c.X+it.R1*scale*math.Cos(it.A2), c.Y+it.R1*scale*math.Sin(it.A2))
				dc.DrawArc(c.X, c.Y, it.R1*scale, it.A2, it.A1)
				dc.ClosePath()
				dc.Fill()
			}
		}
	}
	for _, it := range s.Items {
		switch it := it.(type) {
		case *Segment:
			p1, p2 := s.project(point{it.X1, it.Y1}), s.project(point{it.X2, it.Y2})
			dc.SetHexColor(styleColor(it.Style, "#000000"))
			dc.DrawLine(p1.X, p1.Y, p2.X, p2.Y)
			dc.Stroke()
		case *ArcPath:
			p1, p2 := s.project(point{it.X1, it.Y1}), s.project(point{it.X2, it.Y2})
			r := it.R * scale
			dc.SetHexColor(styleColor(it.Style, "#000000"))
			if c, ok := arcCenter(p1, p2, r, it.Large); ok {
				_, a1 := cartesianToPolar(p1.sub(c))
				_, a2 := cartesianToPolar(p2.sub(c))
				for a2 < a1 {
					a2 += 2 * math.Pi
				}
				dc.NewSubPath()
				dc.DrawArc(c.X, c.Y, r, a1, a2)
			} else {
				dc.DrawLine(p1.X, p1.Y, p2.X, p2.Y)
			}
			dc.Stroke()
		case *Dot:
			p := s.project(point{it.X, it.Y})
			dc.SetHexColor(styleColor(it.Style, "#000000"))
			dc.DrawCircle(p.X, p.Y, it.R)
			dc.Fill()
		case *Cells:
			p := s.project(point{it.X, it.Y})
			w := it.W * s.Scale.X / float64(max(len(it.Values), 1))
			for i, v := range it.Values {
				dc.SetRGBA(0, 0, 0, heatLevel(it.Values, v))
				dc.DrawRectangle(p.X+float64(i)*w, p.Y, w, it.H*s.Scale.Y)
				dc.Fill()
			}
		case *Text:
			p := s.project(point{it.X, it.Y})
			dc.SetHexColor(styleColor(it.Style, "#000000"))
			dc.SetFontFace(faceFor(it.FontSize * scale))
			dc.Push()
			dc.RotateAbout(gg.Radians(it.Rotation), p.X, p.Y)
			dc.DrawStringAnchored(it.Text, p.X, p.Y, float64(it.Anchor)/2, 0.5)
			dc.Pop()
		}
	}
	return dc.SavePNG(filename)
}

func (m *model) exportPNG(filename string) error {
	return exportPNG(filename, m.viewer.scene, m.config.Colors)
}
