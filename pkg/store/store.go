// Package store holds the authoritative zone collection of a document
// together with selection, the in-progress drawing and the adjustments.
//
// Every mutation is all-or-nothing: a call either applies completely or
// returns an error and leaves the store untouched.
package store

import (
	"errors"
	"fmt"
	"slices"

	"github.com/menta2k/zone-cropper/pkg/history"
	"github.com/menta2k/zone-cropper/pkg/types"
)

var (
	ErrZoneLimit    = errors.New("zone limit reached")
	ErrZoneNotFound = errors.New("zone not found")
	ErrInvalidZone  = errors.New("invalid zone")
	ErrDuplicateID  = errors.New("duplicate zone id")
)

// Policy is a capacity rule owned by the surrounding application
type Policy interface {
	// Allow reports whether a collection may hold total zones
	Allow(total int) error
}

// ZoneLimit caps the number of zones. Zero or less means unlimited.
type ZoneLimit int

func (l ZoneLimit) Allow(total int) error {
	if l > 0 && total > int(l) {
		return fmt.Errorf("%w: %d zones allowed", ErrZoneLimit, int(l))
	}
	return nil
}

// Store is single-writer: callers serialize access
type Store struct {
	zones       []types.Zone
	selection   []string
	drawing     *types.Drawing
	adjustments types.Adjustments
	policy      Policy
}

// New creates an empty store. A nil policy allows any number of zones.
func New(policy Policy) *Store {
	if policy == nil {
		policy = ZoneLimit(0)
	}
	return &Store{policy: policy}
}

// SetPolicy replaces the capacity policy; existing zones are kept
func (s *Store) SetPolicy(p Policy) {
	if p == nil {
		p = ZoneLimit(0)
	}
	s.policy = p
}

// Zones returns a deep copy of the zone list in draw order
func (s *Store) Zones() []types.Zone {
	return types.CloneZones(s.zones)
}

// Len returns the number of committed zones
func (s *Store) Len() int { return len(s.zones) }

// Zone looks up a zone by id
func (s *Store) Zone(id string) (types.Zone, bool) {
	i := s.index(id)
	if i < 0 {
		return types.Zone{}, false
	}
	return s.zones[i].Clone(), true
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.zones, func(z types.Zone) bool { return z.ID == id })
}

// Add appends z, selects it and clears the drawing
func (s *Store) Add(z types.Zone) error {
	if err := z.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidZone, err)
	}
	if s.index(z.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, z.ID)
	}
	if err := s.policy.Allow(len(s.zones) + 1); err != nil {
		return err
	}
	s.zones = append(s.zones, z.Clone())
	s.selection = []string{z.ID}
	s.drawing = nil
	return nil
}

// SetZones replaces the whole collection. The list is validated as a unit.
func (s *Store) SetZones(zones []types.Zone) error {
	if err := ValidateZones(zones); err != nil {
		return err
	}
	if err := s.policy.Allow(len(zones)); err != nil {
		return err
	}
	s.zones = types.CloneZones(zones)
	return nil
}

// ValidateZones checks every zone invariant and id uniqueness
func ValidateZones(zones []types.Zone) error {
	seen := make(map[string]struct{}, len(zones))
	for _, z := range zones {
		if err := z.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidZone, err)
		}
		if _, dup := seen[z.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, z.ID)
		}
		seen[z.ID] = struct{}{}
	}
	return nil
}

// Patch is a partial zone update; nil fields are left unchanged. A patch
// that changes polygon points must carry the recomputed box as well.
type Patch struct {
	Label  *string
	Color  *string
	X      *float64
	Y      *float64
	Width  *float64
	Height *float64
	Points []types.Point
}

// Update merges p into the zone with the given id
func (s *Store) Update(id string, p Patch) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrZoneNotFound, id)
	}
	z := s.zones[i].Clone()
	if p.Label != nil {
		z.Label = *p.Label
	}
	if p.Color != nil {
		z.Color = *p.Color
	}
	if p.X != nil {
		z.X = *p.X
	}
	if p.Y != nil {
		z.Y = *p.Y
	}
	if p.Width != nil {
		z.Width = *p.Width
	}
	if p.Height != nil {
		z.Height = *p.Height
	}
	if p.Points != nil {
		z.Points = append([]types.Point(nil), p.Points...)
	}
	if err := z.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidZone, err)
	}
	s.zones[i] = z
	return nil
}

// Translate moves a zone by (dx, dy). Polygon points move with the box.
func (s *Store) Translate(id string, dx, dy float64) error {
	z, ok := s.Zone(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrZoneNotFound, id)
	}
	p := Patch{X: ptr(z.X + dx), Y: ptr(z.Y + dy)}
	if z.Kind == types.KindPolygon {
		p.Points = make([]types.Point, len(z.Points))
		for i, pt := range z.Points {
			p.Points[i] = types.Point{X: pt.X + dx, Y: pt.Y + dy}
		}
		b := types.PointsBounds(p.Points)
		p.X, p.Y, p.Width, p.Height = &b.X, &b.Y, &b.Width, &b.Height
	}
	return s.Update(id, p)
}

// Resize fits a zone into r. Polygon points are scaled from the old box
// into the new one.
func (s *Store) Resize(id string, r types.Rect) error {
	z, ok := s.Zone(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrZoneNotFound, id)
	}
	if z.Kind != types.KindPolygon {
		return s.Update(id, Patch{X: &r.X, Y: &r.Y, Width: &r.Width, Height: &r.Height})
	}

	old := z.Box()
	points := make([]types.Point, len(z.Points))
	for i, pt := range z.Points {
		points[i] = types.Point{
			X: rescale(pt.X, old.X, old.Width, r.X, r.Width),
			Y: rescale(pt.Y, old.Y, old.Height, r.Y, r.Height),
		}
	}
	b := types.PointsBounds(points)
	return s.Update(id, Patch{Points: points, X: &b.X, Y: &b.Y, Width: &b.Width, Height: &b.Height})
}

func rescale(v, from, fromSize, to, toSize float64) float64 {
	if fromSize == 0 {
		return to
	}
	return to + (v-from)*toSize/fromSize
}

func ptr(v float64) *float64 { return &v }

// Delete removes a zone and drops it from the selection
func (s *Store) Delete(id string) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrZoneNotFound, id)
	}
	s.zones = slices.Delete(slices.Clone(s.zones), i, i+1)
	s.selection = slices.DeleteFunc(slices.Clone(s.selection), func(sel string) bool { return sel == id })
	return nil
}

// Clear removes every zone, the selection and the drawing
func (s *Store) Clear() {
	s.zones = nil
	s.selection = nil
	s.drawing = nil
}

// Selection returns the selected ids. Ids are not checked for existence.
func (s *Store) Selection() []string {
	return slices.Clone(s.selection)
}

func (s *Store) SetSelection(ids []string) {
	s.selection = slices.Clone(ids)
}

// Selected returns the selected zones that still exist, in draw order
func (s *Store) Selected() []types.Zone {
	var out []types.Zone
	for _, z := range s.zones {
		if slices.Contains(s.selection, z.ID) {
			out = append(out, z.Clone())
		}
	}
	return out
}

func (s *Store) Drawing() *types.Drawing { return s.drawing.Clone() }

func (s *Store) SetDrawing(d *types.Drawing) { s.drawing = d.Clone() }

func (s *Store) Adjustments() types.Adjustments { return s.adjustments }

func (s *Store) SetAdjustments(a types.Adjustments) { s.adjustments = a }

// Capture implements history.State
func (s *Store) Capture() history.Snapshot {
	return history.Snapshot{
		Zones:       types.CloneZones(s.zones),
		Adjustments: s.adjustments,
		Selection:   slices.Clone(s.selection),
	}
}

// Restore implements history.State. It replaces zones, adjustments and
// selection wholesale and drops any drawing in progress.
func (s *Store) Restore(snap history.Snapshot) {
	s.zones = types.CloneZones(snap.Zones)
	s.adjustments = snap.Adjustments
	s.selection = slices.Clone(snap.Selection)
	s.drawing = nil
}
