// Package render draws the adjusted source image fitted into a viewport and
// maps pointer positions on that surface back into image space.
package render

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/zone-cropper/internal/logging"
	"github.com/menta2k/zone-cropper/pkg/filter"
	"github.com/menta2k/zone-cropper/pkg/geometry"
	"github.com/menta2k/zone-cropper/pkg/types"
)

// DefaultPadding is the space reserved around the image inside the viewport
const DefaultPadding = 40.0

// Engine owns the preview surface of one document
type Engine struct {
	source      image.Image
	adjustments types.Adjustments
	padding     float64

	metrics *types.CanvasMetrics
	surface *image.NRGBA
}

// NewEngine creates an engine. A negative padding uses DefaultPadding.
func NewEngine(padding float64) *Engine {
	if padding < 0 {
		padding = DefaultPadding
	}
	return &Engine{padding: padding}
}

// SetImage replaces the source image and drops the current surface
func (e *Engine) SetImage(img image.Image) {
	e.source = img
	e.metrics = nil
	e.surface = nil
}

// Image returns the source image, or nil when none is loaded
func (e *Engine) Image() image.Image { return e.source }

// ImageInfo returns the source dimensions
func (e *Engine) ImageInfo() (types.ImageInfo, bool) {
	if e.source == nil {
		return types.ImageInfo{}, false
	}
	b := e.source.Bounds()
	return types.ImageInfo{Width: b.Dx(), Height: b.Dy()}, true
}

func (e *Engine) SetAdjustments(a types.Adjustments) { e.adjustments = a }

func (e *Engine) Adjustments() types.Adjustments { return e.adjustments }

// FilterString returns the filter expression used by both preview and export
func (e *Engine) FilterString() string { return filter.String(e.adjustments) }

// Render fits the image into a viewport of vw x vh and redraws the surface.
// It reports false without an image or with a degenerate viewport.
func (e *Engine) Render(vw, vh float64) (types.CanvasMetrics, bool) {
	if e.source == nil || vw <= 0 || vh <= 0 {
		return types.CanvasMetrics{}, false
	}
	info, _ := e.ImageInfo()
	iw, ih := float64(info.Width), float64(info.Height)

	scale := geometry.FitScale(iw, ih, vw-e.padding, vh-e.padding)
	if scale <= 0 {
		return types.CanvasMetrics{}, false
	}

	metrics := types.CanvasMetrics{
		DisplayWidth:  max(1, int(math.Round(iw*scale))),
		DisplayHeight: max(1, int(math.Round(ih*scale))),
		Scale:         scale,
	}

	scaled := e.source
	if metrics.DisplayWidth != info.Width || metrics.DisplayHeight != info.Height {
		scaled = imaging.Resize(e.source, metrics.DisplayWidth, metrics.DisplayHeight, imaging.Linear)
	}
	e.surface = filter.Apply(scaled, e.adjustments)
	e.metrics = &metrics

	logging.Logger().Debug("render",
		"viewport_w", vw, "viewport_h", vh,
		"display_w", metrics.DisplayWidth, "display_h", metrics.DisplayHeight,
		"scale", scale, "filter", filter.String(e.adjustments))
	return metrics, true
}

// Metrics returns the metrics of the last successful Render
func (e *Engine) Metrics() (types.CanvasMetrics, bool) {
	if e.metrics == nil {
		return types.CanvasMetrics{}, false
	}
	return *e.metrics, true
}

// Surface returns the last rendered surface, or nil
func (e *Engine) Surface() *image.NRGBA { return e.surface }

// ToImage maps a surface-relative pointer into unclamped image space
func (e *Engine) ToImage(p types.Point) (types.Point, bool) {
	return geometry.ToImageSpace(p, e.metrics)
}

// ClientToImage maps a surface-relative pointer into image space and clamps
// it to the image bounds. Used for hit testing.
func (e *Engine) ClientToImage(p types.Point) (types.Point, bool) {
	ip, ok := e.ToImage(p)
	if !ok {
		return types.Point{}, false
	}
	info, _ := e.ImageInfo()
	return geometry.ClampToImage(ip, float64(info.Width), float64(info.Height)), true
}
