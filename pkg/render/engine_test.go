package render

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/menta2k/zone-cropper/pkg/types"
)

func createTestImage(width, height int, c color.Color) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

var gray = color.NRGBA{R: 128, G: 128, B: 128, A: 255}

func TestRenderWithoutImage(t *testing.T) {
	e := NewEngine(-1)
	if _, ok := e.Render(800, 600); ok {
		t.Error("Render without an image should be a no-op")
	}
	if _, ok := e.ToImage(types.Point{X: 1, Y: 1}); ok {
		t.Error("Pointer mapping without metrics should fail")
	}
}

func TestRenderDegenerateViewport(t *testing.T) {
	e := NewEngine(-1)
	e.SetImage(createTestImage(100, 100, gray))
	for _, vp := range [][2]float64{{0, 100}, {100, -1}, {30, 30}} {
		if _, ok := e.Render(vp[0], vp[1]); ok {
			t.Errorf("Expected no render for viewport %v", vp)
		}
	}
}

func TestRenderScale(t *testing.T) {
	e := NewEngine(DefaultPadding)
	e.SetImage(createTestImage(1000, 500, gray))

	m, ok := e.Render(400, 300)
	if !ok {
		t.Fatal("Render failed")
	}
	if math.Abs(m.Scale-0.36) > 1e-12 {
		t.Errorf("Expected scale 0.36, got %v", m.Scale)
	}
	if m.DisplayWidth != 360 || m.DisplayHeight != 180 {
		t.Errorf("Expected 360x180, got %dx%d", m.DisplayWidth, m.DisplayHeight)
	}
	if b := e.Surface().Bounds(); b.Dx() != 360 || b.Dy() != 180 {
		t.Errorf("Surface not resized: %v", b)
	}

	// Never upscale
	m, _ = e.Render(5000, 5000)
	if m.Scale != 1 || m.DisplayWidth != 1000 {
		t.Errorf("Expected 1:1 render, got %+v", m)
	}
}

func TestRenderAppliesAdjustments(t *testing.T) {
	e := NewEngine(0)
	e.SetImage(createTestImage(10, 10, gray))
	e.SetAdjustments(types.Adjustments{Brightness: 50})
	e.Render(10, 10)

	if c := e.Surface().NRGBAAt(5, 5); c.R != 192 {
		t.Errorf("Expected brightened pixel 192, got %v", c)
	}
	if e.FilterString() != "brightness(150%) contrast(100%) saturate(100%) blur(0px)" {
		t.Errorf("Unexpected filter %q", e.FilterString())
	}
}

func TestClientToImageClamps(t *testing.T) {
	e := NewEngine(DefaultPadding)
	e.SetImage(createTestImage(1000, 500, gray))
	e.Render(400, 300)

	p, ok := e.ClientToImage(types.Point{X: 400, Y: -10})
	if !ok {
		t.Fatal("Mapping failed")
	}
	if p.X != 1000 || p.Y != 0 {
		t.Errorf("Expected clamped (1000,0), got %+v", p)
	}

	raw, _ := e.ToImage(types.Point{X: 36, Y: 18})
	if math.Abs(raw.X-100) > 1e-9 || math.Abs(raw.Y-50) > 1e-9 {
		t.Errorf("Expected (100,50), got %+v", raw)
	}
}

func TestOverlayDrawsZones(t *testing.T) {
	e := NewEngine(0)
	e.SetImage(createTestImage(200, 100, gray))
	e.Render(200, 100)

	zones := []types.Zone{
		types.NewRectZone("r", types.KindRect, types.Rect{X: 20, Y: 20, Width: 100, Height: 50}),
		types.NewPolygonZone("p", []types.Point{{X: 150, Y: 10}, {X: 190, Y: 10}, {X: 170, Y: 90}}),
	}
	drawing := &types.Drawing{Kind: types.KindRect, Start: types.Point{X: 5, Y: 5}, Current: &types.Point{X: 15, Y: 15}}

	out, err := e.Overlay(zones, []string{"r"}, drawing)
	if err != nil {
		t.Fatalf("Overlay failed: %v", err)
	}
	if b := out.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Fatalf("Unexpected overlay size %v", b)
	}

	r, g, b, _ := out.At(20, 45).RGBA()
	if r>>8 == 128 && g>>8 == 128 && b>>8 == 128 {
		t.Error("Expected the selected rect outline at its left edge")
	}
	if c := e.Surface().NRGBAAt(20, 45); c != gray {
		t.Errorf("Overlay modified the render surface: %v", c)
	}
}

func TestOverlayStrokesDrawing(t *testing.T) {
	e := NewEngine(0)
	e.SetImage(createTestImage(200, 100, gray))
	e.Render(200, 100)

	current := types.Point{X: 120, Y: 80}
	drawings := map[string]*types.Drawing{
		"rect":    {Kind: types.KindRect, Start: types.Point{X: 20, Y: 20}, Current: &current},
		"ellipse": {Kind: types.KindEllipse, Start: types.Point{X: 20, Y: 20}, Current: &current},
		"polygon": {Kind: types.KindPolygon, Points: []types.Point{{X: 20, Y: 20}, {X: 120, Y: 20}}, Current: &current},
	}
	for name, d := range drawings {
		t.Run(name, func(t *testing.T) {
			out, err := e.Overlay(nil, nil, d)
			if err != nil {
				t.Fatalf("Overlay failed: %v", err)
			}
			changed := 0
			for y := 0; y < 100; y++ {
				for x := 0; x < 200; x++ {
					r, g, b, _ := out.At(x, y).RGBA()
					if r>>8 != 128 || g>>8 != 128 || b>>8 != 128 {
						changed++
					}
				}
			}
			if changed == 0 {
				t.Error("Expected the in-progress shape to be stroked")
			}
		})
	}
}

func TestOverlayBeforeRender(t *testing.T) {
	e := NewEngine(0)
	if _, err := e.Overlay(nil, nil, nil); err == nil {
		t.Error("Expected error before first render")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"#60a5fa", true},
		{"#fff", true},
		{"tomato", true},
		{"Tomato", true},
		{"#12345", false},
		{"#zzzzzz", false},
		{"", false},
	}
	for _, tt := range tests {
		if _, ok := ParseColor(tt.in); ok != tt.ok {
			t.Errorf("ParseColor(%q) ok=%v, want %v", tt.in, ok, tt.ok)
		}
	}
}
