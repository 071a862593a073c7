package geometry

import "github.com/menta2k/zone-cropper/pkg/types"

// ZoneContains reports whether p falls inside z's shape
func ZoneContains(z types.Zone, p types.Point) bool {
	switch z.Kind {
	case types.KindRect:
		return z.Box().Contains(p)
	case types.KindEllipse:
		return EllipseContains(z.Box(), p)
	case types.KindPolygon:
		return z.Box().Contains(p) && PolygonContains(z.Points, p)
	}
	return false
}

// EllipseContains reports whether p lies inside the ellipse inscribed in box
func EllipseContains(box types.Rect, p types.Point) bool {
	rx, ry := box.Width/2, box.Height/2
	if rx <= 0 || ry <= 0 {
		return false
	}
	dx := (p.X - (box.X + rx)) / rx
	dy := (p.Y - (box.Y + ry)) / ry
	return dx*dx+dy*dy <= 1
}

// PolygonContains is an even-odd ray casting test
func PolygonContains(points []types.Point, p types.Point) bool {
	inside := false
	n := len(points)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := points[i], points[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// TopmostAt returns the index of the last zone (drawn on top) containing p,
// or -1.
func TopmostAt(zones []types.Zone, p types.Point) int {
	for i := len(zones) - 1; i >= 0; i-- {
		if ZoneContains(zones[i], p) {
			return i
		}
	}
	return -1
}
