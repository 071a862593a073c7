// Package suggest proposes zones from image content, either with a local
// saliency search or with a vision model served by Ollama.
package suggest

import (
	"context"
	"image"
	"math"
	"strings"

	"github.com/menta2k/zone-cropper/pkg/types"
)

// Subject is a proposed region in normalized image coordinates
type Subject struct {
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Box        types.Box `json:"box"`
}

// Detector finds subjects in an image
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]Subject, error)
}

// MinZoneSize is the smallest side, in image pixels, of a suggested zone
const MinZoneSize = 8.0

// Zones turns subjects into rectangle zones for a width x height image.
// Subjects smaller than MinZoneSize after scaling are dropped.
func Zones(subjects []Subject, width, height float64, newID func() string) []types.Zone {
	zones := make([]types.Zone, 0, len(subjects))
	for _, s := range subjects {
		r := normalizeBox(s.Box).Scale(width, height)
		if r.Width < MinZoneSize || r.Height < MinZoneSize {
			continue
		}
		z := types.NewRectZone(newID(), types.KindRect, r)
		z.Label = strings.TrimSpace(s.Label)
		zones = append(zones, z)
	}
	return zones
}

// normalizeBox clamps a box into the unit square
func normalizeBox(b types.Box) types.Box {
	x, y := clamp(b.X, 0, 1), clamp(b.Y, 0, 1)
	return types.Box{
		X: x,
		Y: y,
		W: clamp(b.W, 0, 1-x),
		H: clamp(b.H, 0, 1-y),
	}
}

// clamp ensures a value is within the given bounds
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// iou is the intersection-over-union of two normalized boxes
func iou(a, b types.Box) float64 {
	x0, y0 := math.Max(a.X, b.X), math.Max(a.Y, b.Y)
	x1, y1 := math.Min(a.X+a.W, b.X+b.W), math.Min(a.Y+a.H, b.Y+b.H)
	if x1 <= x0 || y1 <= y0 {
		return 0
	}
	inter := (x1 - x0) * (y1 - y0)
	return inter / (a.W*a.H + b.W*b.H - inter)
}
