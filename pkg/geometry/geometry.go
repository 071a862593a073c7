// Package geometry maps between viewport and image-pixel space and provides
// the small amount of planar math the editor needs.
package geometry

import (
	"math"

	"github.com/menta2k/zone-cropper/pkg/types"
)

// ToImageSpace converts a pointer position relative to the canvas origin into
// image-pixel space. It reports false when no metrics are available yet.
// No clamping is applied so live drawing keeps full precision.
func ToImageSpace(pointer types.Point, metrics *types.CanvasMetrics) (types.Point, bool) {
	if metrics == nil || metrics.Scale <= 0 {
		return types.Point{}, false
	}
	return types.Point{
		X: pointer.X / metrics.Scale,
		Y: pointer.Y / metrics.Scale,
	}, true
}

// ToViewport converts an image-pixel point into canvas space
func ToViewport(p types.Point, metrics types.CanvasMetrics) types.Point {
	return types.Point{X: p.X * metrics.Scale, Y: p.Y * metrics.Scale}
}

// ClampToImage clamps p into [0,width]x[0,height]
func ClampToImage(p types.Point, width, height float64) types.Point {
	return types.Point{
		X: Clamp(p.X, 0, width),
		Y: Clamp(p.Y, 0, height),
	}
}

// FitScale returns the largest scale, capped at 1, that fits an image of
// imageW x imageH inside availW x availH while preserving aspect ratio.
func FitScale(imageW, imageH, availW, availH float64) float64 {
	if imageW <= 0 || imageH <= 0 {
		return 0
	}
	return math.Min(math.Min(availW/imageW, availH/imageH), 1)
}

// RectFromCorners returns the normalized rectangle spanned by two corners
func RectFromCorners(a, b types.Point) types.Rect {
	return types.Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(a.X - b.X),
		Height: math.Abs(a.Y - b.Y),
	}
}

// Distance returns the Euclidean distance between a and b
func Distance(a, b types.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Clamp ensures a value is within the given bounds
func Clamp(v, lo, hi float64) float64 {
	if hi < lo {
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

// ClampOffset limits a (dx, dy) move of box so the moved box stays inside a
// width x height image. Boxes larger than the image are pinned to the origin.
func ClampOffset(box types.Rect, dx, dy, width, height float64) (float64, float64) {
	x := Clamp(box.X+dx, 0, width-box.Width)
	y := Clamp(box.Y+dy, 0, height-box.Height)
	return x - box.X, y - box.Y
}
