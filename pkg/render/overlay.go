package render

import (
	"errors"
	"image"
	"image/color"
	"slices"
	"strings"

	"github.com/gogpu/gg"
	"golang.org/x/image/colornames"

	"github.com/menta2k/zone-cropper/pkg/types"
)

// Overlay colors
const (
	SelectedColor        = "#60a5fa"
	SelectedPolygonColor = "#34d399"
	IdleColor            = "#94a3b8"
)

const (
	fillAlpha     = 0.15
	idleLineWidth = 1.5
	selLineWidth  = 2.5
)

// ParseColor accepts "#rgb", "#rrggbb", "#rrggbbaa" or an SVG color name
func ParseColor(s string) (color.Color, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		switch len(hex) {
		case 3, 4, 6, 8:
		default:
			return nil, false
		}
		for _, r := range hex {
			if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
				return nil, false
			}
		}
		return gg.Hex(s).Color(), true
	}
	c, ok := colornames.Map[strings.ToLower(s)]
	return c, ok
}

// Overlay draws zones and the in-progress drawing on top of the last
// rendered surface and returns the composite. The surface itself is left
// untouched.
func (e *Engine) Overlay(zones []types.Zone, selected []string, drawing *types.Drawing) (image.Image, error) {
	if e.surface == nil || e.metrics == nil {
		return nil, errors.New("nothing rendered yet")
	}

	dc := gg.NewContextForImage(e.surface)
	defer dc.Close()

	p := &zonePainter{dc: dc, scale: e.metrics.Scale}
	for _, z := range zones {
		p.selected = slices.Contains(selected, z.ID)
		if err := z.Accept(p); err != nil {
			return nil, err
		}
	}
	if drawing != nil {
		if err := p.drawing(drawing); err != nil {
			return nil, err
		}
	}
	return dc.Image(), nil
}

// zonePainter strokes zones in surface coordinates
type zonePainter struct {
	dc       *gg.Context
	scale    float64
	selected bool
}

func (p *zonePainter) stroke(z types.Zone) color.Color {
	if c, ok := ParseColor(z.Color); ok {
		return c
	}
	if !p.selected {
		return gg.Hex(IdleColor).Color()
	}
	if z.Kind == types.KindPolygon {
		return gg.Hex(SelectedPolygonColor).Color()
	}
	return gg.Hex(SelectedColor).Color()
}

func (p *zonePainter) paint(z types.Zone) error {
	c := gg.FromColor(p.stroke(z))
	width := idleLineWidth
	if p.selected {
		width = selLineWidth
	}

	p.dc.SetRGBA(c.R, c.G, c.B, fillAlpha)
	if err := p.dc.FillPreserve(); err != nil {
		return err
	}
	p.dc.SetRGBA(c.R, c.G, c.B, 1)
	p.dc.SetLineWidth(width)
	p.dc.ClearDash()
	return p.dc.Stroke()
}

func (p *zonePainter) VisitRect(z types.Zone) error {
	s := p.scale
	p.dc.DrawRectangle(z.X*s, z.Y*s, z.Width*s, z.Height*s)
	return p.paint(z)
}

func (p *zonePainter) VisitEllipse(z types.Zone) error {
	s := p.scale
	rx, ry := z.Width*s/2, z.Height*s/2
	p.dc.DrawEllipse(z.X*s+rx, z.Y*s+ry, rx, ry)
	return p.paint(z)
}

func (p *zonePainter) VisitPolygon(z types.Zone) error {
	p.path(z.Points, nil, true)
	return p.paint(z)
}

func (p *zonePainter) path(points []types.Point, extra *types.Point, closed bool) {
	s := p.scale
	for i, pt := range points {
		if i == 0 {
			p.dc.MoveTo(pt.X*s, pt.Y*s)
			continue
		}
		p.dc.LineTo(pt.X*s, pt.Y*s)
	}
	if extra != nil {
		p.dc.LineTo(extra.X*s, extra.Y*s)
	}
	if closed {
		p.dc.ClosePath()
	}
}

// drawing outlines the shape being authored with a dashed stroke
func (p *zonePainter) drawing(d *types.Drawing) error {
	s := p.scale
	switch d.Kind {
	case types.KindRect, types.KindEllipse:
		if d.Current == nil {
			return nil
		}
		x0, y0 := min(d.Start.X, d.Current.X), min(d.Start.Y, d.Current.Y)
		w, h := abs(d.Start.X-d.Current.X), abs(d.Start.Y-d.Current.Y)
		if d.Kind == types.KindRect {
			p.dc.DrawRectangle(x0*s, y0*s, w*s, h*s)
		} else {
			p.dc.DrawEllipse((x0+w/2)*s, (y0+h/2)*s, w*s/2, h*s/2)
		}
	case types.KindPolygon:
		if len(d.Points) == 0 {
			return nil
		}
		p.path(d.Points, d.Current, false)
		for _, pt := range d.Points {
			p.dc.DrawCircle(pt.X*s, pt.Y*s, 3)
		}
	default:
		return nil
	}
	c := gg.Hex(SelectedColor)
	p.dc.SetRGBA(c.R, c.G, c.B, 1)
	p.dc.SetLineWidth(selLineWidth)
	p.dc.SetDash(6, 4)
	err := p.dc.Stroke()
	p.dc.ClearDash()
	return err
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
