package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ZoneKind tags the shape variant of a Zone
type ZoneKind string

const (
	KindRect    ZoneKind = "rect"
	KindEllipse ZoneKind = "ellipse"
	KindPolygon ZoneKind = "polygon"
)

// Valid reports whether k is a known zone kind
func (k ZoneKind) Valid() bool {
	switch k {
	case KindRect, KindEllipse, KindPolygon:
		return true
	}
	return false
}

// MinPolygonPoints is the smallest vertex count of a committed polygon
const MinPolygonPoints = 3

// boundsEpsilon tolerates float noise when comparing cached polygon bounds
const boundsEpsilon = 1e-6

// Zone is a region of interest over the source image.
//
// X, Y, Width and Height always describe the axis-aligned box of the zone. For
// ellipses the box is the ellipse's bounding box; for polygons it is the cached
// bounds of Points, which are absolute image-pixel coordinates.
type Zone struct {
	ID     string   `json:"id"`
	Kind   ZoneKind `json:"type"`
	Label  string   `json:"label,omitempty"`
	Color  string   `json:"color,omitempty"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
	Points []Point  `json:"points,omitempty"`
}

// NewRectZone builds a rectangle or ellipse zone from its box
func NewRectZone(id string, kind ZoneKind, r Rect) Zone {
	return Zone{ID: id, Kind: kind, X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// NewPolygonZone builds a polygon zone and caches its bounds
func NewPolygonZone(id string, points []Point) Zone {
	z := Zone{ID: id, Kind: KindPolygon, Points: append([]Point(nil), points...)}
	z.SyncBounds()
	return z
}

// Box returns the zone's bounding box
func (z Zone) Box() Rect {
	return Rect{X: z.X, Y: z.Y, Width: z.Width, Height: z.Height}
}

// Clone returns a deep copy of z
func (z Zone) Clone() Zone {
	if z.Points != nil {
		z.Points = append([]Point(nil), z.Points...)
	}
	return z
}

// SyncBounds recomputes the cached box from Points. It is a no-op for
// non-polygon zones.
func (z *Zone) SyncBounds() {
	if z.Kind != KindPolygon || len(z.Points) == 0 {
		return
	}
	b := PointsBounds(z.Points)
	z.X, z.Y, z.Width, z.Height = b.X, b.Y, b.Width, b.Height
}

// Validate checks the committed-zone invariants
func (z Zone) Validate() error {
	if z.ID == "" {
		return errors.New("zone id is empty")
	}
	if !z.Kind.Valid() {
		return fmt.Errorf("zone %s: unknown kind %q", z.ID, z.Kind)
	}
	for _, v := range []float64{z.X, z.Y, z.Width, z.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("zone %s: non-finite geometry", z.ID)
		}
	}
	if z.Width < 0 || z.Height < 0 {
		return fmt.Errorf("zone %s: negative size %gx%g", z.ID, z.Width, z.Height)
	}
	if z.Kind != KindPolygon {
		if len(z.Points) > 0 {
			return fmt.Errorf("zone %s: %s zones carry no points", z.ID, z.Kind)
		}
		return nil
	}
	if len(z.Points) < MinPolygonPoints {
		return fmt.Errorf("zone %s: polygon needs at least %d points, got %d", z.ID, MinPolygonPoints, len(z.Points))
	}
	b := PointsBounds(z.Points)
	if !nearlyEqual(b.X, z.X) || !nearlyEqual(b.Y, z.Y) || !nearlyEqual(b.Width, z.Width) || !nearlyEqual(b.Height, z.Height) {
		return fmt.Errorf("zone %s: cached bounds do not match points", z.ID)
	}
	return nil
}

// UnmarshalJSON accepts both "type" and "kind" as the variant tag
func (z *Zone) UnmarshalJSON(data []byte) error {
	type plain Zone
	aux := struct {
		*plain
		AltKind ZoneKind `json:"kind"`
	}{plain: (*plain)(z)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if z.Kind == "" {
		z.Kind = aux.AltKind
	}
	return nil
}

// ZoneVisitor receives a zone dispatched on its kind. Adding a kind adds a
// method here, so every renderer and exporter must handle it to compile.
type ZoneVisitor interface {
	VisitRect(z Zone) error
	VisitEllipse(z Zone) error
	VisitPolygon(z Zone) error
}

// Accept dispatches z to the visitor method for its kind
func (z Zone) Accept(v ZoneVisitor) error {
	switch z.Kind {
	case KindRect:
		return v.VisitRect(z)
	case KindEllipse:
		return v.VisitEllipse(z)
	case KindPolygon:
		return v.VisitPolygon(z)
	default:
		return fmt.Errorf("zone %s: unknown kind %q", z.ID, z.Kind)
	}
}

// CloneZones deep-copies a zone list
func CloneZones(zones []Zone) []Zone {
	if zones == nil {
		return nil
	}
	out := make([]Zone, len(zones))
	for i, z := range zones {
		out[i] = z.Clone()
	}
	return out
}

// PointsBounds returns the axis-aligned bounds of points
func PointsBounds(points []Point) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= boundsEpsilon
}

// Drawing is the shape currently being authored. A nil *Drawing means no
// drawing is active.
type Drawing struct {
	Kind ZoneKind `json:"type"`
	// Start is the anchor of a rect or ellipse drag
	Start Point `json:"start"`
	// Current is the live pointer position; nil for a polygon between moves
	Current *Point `json:"current,omitempty"`
	// Points are the committed polygon vertices so far
	Points []Point `json:"points,omitempty"`
}

// Clone returns a deep copy of d
func (d *Drawing) Clone() *Drawing {
	if d == nil {
		return nil
	}
	c := *d
	if d.Current != nil {
		p := *d.Current
		c.Current = &p
	}
	if d.Points != nil {
		c.Points = append([]Point(nil), d.Points...)
	}
	return &c
}
