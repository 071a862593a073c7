package types

import (
	"fmt"
	"math"
	"strconv"
)

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Point is a position in image-pixel space
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle in image-pixel space
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether p lies inside r (edges included)
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.Width && p.Y <= r.Y+r.Height
}

// Scale converts a normalized box into a pixel rectangle for an image of the given size
func (b Box) Scale(width, height float64) Rect {
	return Rect{X: b.X * width, Y: b.Y * height, Width: b.W * width, Height: b.H * height}
}

// ImageInfo holds the dimensions of the loaded source image
type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CanvasMetrics maps image-pixel space to on-screen pixel space
type CanvasMetrics struct {
	DisplayWidth  int     `json:"displayWidth"`
	DisplayHeight int     `json:"displayHeight"`
	Scale         float64 `json:"scale"`
}

// Adjustment ranges
const (
	MinTone = -50.0
	MaxTone = 50.0
	MinBlur = 0.0
	MaxBlur = 12.0
)

// Adjustments are the filter values applied to the preview and every export
type Adjustments struct {
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Saturation float64 `json:"saturation"`
	Blur       float64 `json:"blur"`
}

// AdjustmentKey names a single adjustment slider
type AdjustmentKey string

const (
	Brightness AdjustmentKey = "brightness"
	Contrast   AdjustmentKey = "contrast"
	Saturation AdjustmentKey = "saturation"
	Blur       AdjustmentKey = "blur"
)

// With returns a copy of a with key set to value, clamped to the slider range
func (a Adjustments) With(key AdjustmentKey, value float64) (Adjustments, error) {
	switch key {
	case Brightness:
		a.Brightness = clamp(value, MinTone, MaxTone)
	case Contrast:
		a.Contrast = clamp(value, MinTone, MaxTone)
	case Saturation:
		a.Saturation = clamp(value, MinTone, MaxTone)
	case Blur:
		a.Blur = clamp(value, MinBlur, MaxBlur)
	default:
		return a, fmt.Errorf("unknown adjustment %q", key)
	}
	return a, nil
}

// IsNeutral reports whether the adjustments leave pixels unchanged
func (a Adjustments) IsNeutral() bool {
	return a == Adjustments{}
}

// Validate checks that every value lies within its slider range
func (a Adjustments) Validate() error {
	check := func(name string, v, lo, hi float64) error {
		if math.IsNaN(v) || v < lo || v > hi {
			return fmt.Errorf("%s must be between %s and %s, got %s", name, ftoa(lo), ftoa(hi), ftoa(v))
		}
		return nil
	}
	if err := check("brightness", a.Brightness, MinTone, MaxTone); err != nil {
		return err
	}
	if err := check("contrast", a.Contrast, MinTone, MaxTone); err != nil {
		return err
	}
	if err := check("saturation", a.Saturation, MinTone, MaxTone); err != nil {
		return err
	}
	return check("blur", a.Blur, MinBlur, MaxBlur)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
