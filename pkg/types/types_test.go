package types

import (
	"encoding/json"
	"testing"
)

func TestAdjustmentsWithClamps(t *testing.T) {
	var a Adjustments

	a, err := a.With(Brightness, 80)
	if err != nil {
		t.Fatalf("With failed: %v", err)
	}
	if a.Brightness != MaxTone {
		t.Errorf("Expected brightness clamped to %v, got %v", MaxTone, a.Brightness)
	}

	a, _ = a.With(Blur, -3)
	if a.Blur != MinBlur {
		t.Errorf("Expected blur clamped to %v, got %v", MinBlur, a.Blur)
	}

	if _, err := a.With("gamma", 1); err == nil {
		t.Error("Expected error for unknown adjustment")
	}
}

func TestAdjustmentsValidate(t *testing.T) {
	if err := (Adjustments{Brightness: 10, Blur: 12}).Validate(); err != nil {
		t.Errorf("Valid adjustments rejected: %v", err)
	}
	if err := (Adjustments{Contrast: -51}).Validate(); err == nil {
		t.Error("Expected contrast out of range to fail")
	}
	if err := (Adjustments{Blur: 13}).Validate(); err == nil {
		t.Error("Expected blur out of range to fail")
	}
}

func TestPolygonBounds(t *testing.T) {
	z := NewPolygonZone("p1", []Point{{X: 10, Y: 40}, {X: 50, Y: 5}, {X: 30, Y: 90}})
	if z.X != 10 || z.Y != 5 || z.Width != 40 || z.Height != 85 {
		t.Errorf("Unexpected bounds %+v", z.Box())
	}
	if err := z.Validate(); err != nil {
		t.Errorf("Polygon should be valid: %v", err)
	}

	z.Points[0].X = 0
	if err := z.Validate(); err == nil {
		t.Error("Expected stale bounds to fail validation")
	}
}

func TestZoneValidate(t *testing.T) {
	tests := []struct {
		name string
		zone Zone
		ok   bool
	}{
		{"rect", Zone{ID: "a", Kind: KindRect, Width: 10, Height: 10}, true},
		{"empty id", Zone{Kind: KindRect}, false},
		{"unknown kind", Zone{ID: "a", Kind: "star"}, false},
		{"negative width", Zone{ID: "a", Kind: KindEllipse, Width: -1}, false},
		{"short polygon", NewPolygonZone("a", []Point{{X: 0, Y: 0}, {X: 1, Y: 1}}), false},
	}

	for _, tt := range tests {
		err := tt.zone.Validate()
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestZoneCloneIsDeep(t *testing.T) {
	z := NewPolygonZone("p", []Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}})
	c := z.Clone()
	c.Points[0].X = 99
	if z.Points[0].X != 0 {
		t.Error("Clone shares the points slice")
	}
}

func TestZoneJSON(t *testing.T) {
	z := Zone{ID: "z1", Kind: KindEllipse, Label: "face", X: 1, Y: 2, Width: 3, Height: 4}
	data, err := json.Marshal(z)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded Zone
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Kind != KindEllipse || decoded.Label != "face" {
		t.Errorf("Unexpected decoded zone %+v", decoded)
	}

	// "kind" is accepted as an alias for "type"
	var alias Zone
	if err := json.Unmarshal([]byte(`{"id":"z2","kind":"rect","x":0,"y":0,"width":5,"height":5}`), &alias); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if alias.Kind != KindRect {
		t.Errorf("Expected kind rect, got %q", alias.Kind)
	}
}

type kindRecorder struct{ seen []ZoneKind }

func (r *kindRecorder) VisitRect(z Zone) error    { r.seen = append(r.seen, z.Kind); return nil }
func (r *kindRecorder) VisitEllipse(z Zone) error { r.seen = append(r.seen, z.Kind); return nil }
func (r *kindRecorder) VisitPolygon(z Zone) error { r.seen = append(r.seen, z.Kind); return nil }

func TestZoneAccept(t *testing.T) {
	rec := &kindRecorder{}
	zones := []Zone{
		{ID: "a", Kind: KindRect},
		{ID: "b", Kind: KindEllipse},
		NewPolygonZone("c", []Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}),
	}
	for _, z := range zones {
		if err := z.Accept(rec); err != nil {
			t.Fatalf("Accept failed: %v", err)
		}
	}
	if len(rec.seen) != 3 || rec.seen[2] != KindPolygon {
		t.Errorf("Unexpected dispatch order %v", rec.seen)
	}

	if err := (Zone{ID: "x", Kind: "star"}).Accept(rec); err == nil {
		t.Error("Expected error for unknown kind")
	}
}

func TestDrawingClone(t *testing.T) {
	cur := Point{X: 1, Y: 1}
	d := &Drawing{Kind: KindPolygon, Current: &cur, Points: []Point{{X: 0, Y: 0}}}
	c := d.Clone()
	c.Current.X = 5
	c.Points[0].X = 5
	if d.Current.X != 1 || d.Points[0].X != 0 {
		t.Error("Drawing clone is shallow")
	}

	var none *Drawing
	if none.Clone() != nil {
		t.Error("Clone of nil drawing should be nil")
	}
}
