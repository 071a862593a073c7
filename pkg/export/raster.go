package export

import (
	"fmt"
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"

	"github.com/menta2k/zone-cropper/pkg/filter"
	"github.com/menta2k/zone-cropper/pkg/types"
)

// MaxSurfaceSide bounds either side of a per-zone output surface
const MaxSurfaceSide = 16384

// kappa places cubic control points for a quarter ellipse
const kappa = 0.5522847498

// SurfaceSize returns the output size of z: ceil(width) x ceil(height)
func SurfaceSize(z types.Zone) (int, int) {
	return int(math.Ceil(z.Width)), int(math.Ceil(z.Height))
}

// Rasterize draws the filtered source region of z onto a new surface. Pixels
// outside polygon and ellipse shapes are left transparent.
func Rasterize(src image.Image, z types.Zone, adj types.Adjustments) (*image.NRGBA, error) {
	w, h := SurfaceSize(z)
	if w < 1 || h < 1 || w > MaxSurfaceSide || h > MaxSurfaceSide {
		return nil, fmt.Errorf("%w: zone %s needs a %dx%d surface", ErrSurface, z.ID, w, h)
	}

	region := image.NewNRGBA(image.Rect(0, 0, w, h))
	sx, sy := float64(w)/z.Width, float64(h)/z.Height
	drawRegion(region, src, z, sx, sy)

	filtered := filter.Apply(region, adj)

	c := &clipper{width: w, height: h, sx: sx, sy: sy}
	if err := z.Accept(c); err != nil {
		return nil, err
	}
	if c.mask == nil {
		return filtered, nil
	}

	out := image.NewNRGBA(filtered.Bounds())
	xdraw.DrawMask(out, out.Bounds(), filtered, image.Point{}, c.mask, image.Point{}, xdraw.Src)
	return out, nil
}

// drawRegion copies the source box of z into dst, scaled by (sx, sy). Whole
// pixel boxes are copied directly; everything else is resampled.
func drawRegion(dst *image.NRGBA, src image.Image, z types.Zone, sx, sy float64) {
	b := src.Bounds()
	if sx == 1 && sy == 1 && z.X == math.Trunc(z.X) && z.Y == math.Trunc(z.Y) {
		sp := image.Pt(b.Min.X+int(z.X), b.Min.Y+int(z.Y))
		xdraw.Draw(dst, dst.Bounds(), src, sp, xdraw.Src)
		return
	}
	s2d := f64.Aff3{
		sx, 0, -(z.X + float64(b.Min.X)) * sx,
		0, sy, -(z.Y + float64(b.Min.Y)) * sy,
	}
	xdraw.BiLinear.Transform(dst, s2d, src, b, xdraw.Src, nil)
}

// clipper builds the coverage mask for a zone in surface coordinates. Rect
// zones need no mask.
type clipper struct {
	width, height int
	sx, sy        float64
	mask          *image.Alpha
}

func (c *clipper) VisitRect(types.Zone) error { return nil }

func (c *clipper) VisitEllipse(z types.Zone) error {
	r := vector.NewRasterizer(c.width, c.height)
	rx, ry := float32(z.Width*c.sx/2), float32(z.Height*c.sy/2)
	ox, oy := rx*kappa, ry*kappa

	r.MoveTo(2*rx, ry)
	r.CubeTo(2*rx, ry+oy, rx+ox, 2*ry, rx, 2*ry)
	r.CubeTo(rx-ox, 2*ry, 0, ry+oy, 0, ry)
	r.CubeTo(0, ry-oy, rx-ox, 0, rx, 0)
	r.CubeTo(rx+ox, 0, 2*rx, ry-oy, 2*rx, ry)
	r.ClosePath()
	c.fill(r)
	return nil
}

func (c *clipper) VisitPolygon(z types.Zone) error {
	r := vector.NewRasterizer(c.width, c.height)
	for i, p := range z.Points {
		x := float32((p.X - z.X) * c.sx)
		y := float32((p.Y - z.Y) * c.sy)
		if i == 0 {
			r.MoveTo(x, y)
			continue
		}
		r.LineTo(x, y)
	}
	r.ClosePath()
	c.fill(r)
	return nil
}

func (c *clipper) fill(r *vector.Rasterizer) {
	c.mask = image.NewAlpha(image.Rect(0, 0, c.width, c.height))
	r.Draw(c.mask, c.mask.Bounds(), image.Opaque, image.Point{})
}
