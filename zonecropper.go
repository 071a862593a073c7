// Package zonecropper provides zone-based image cropping.
//
// An editing session holds one image and an ordered list of crop zones
// (rectangles, ellipses and polygons in image pixel space). Zones are drawn
// with pointer tools on a viewport, laid out from templates, or suggested by
// a subject detector. Every zone is then exported as its own image file with
// the session's color adjustments applied.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		zonecropper "github.com/menta2k/zone-cropper"
//	)
//
//	func main() {
//		paths, err := zonecropper.ExportImageFile(context.Background(), "photo.jpg", "./output", "rule-thirds")
//		if err != nil {
//			log.Fatal(err)
//		}
//		log.Printf("wrote %d files", len(paths))
//	}
//
// The package consists of these main components:
//
// 1. Editor (pkg/editor): the document session with tools, history and export
// 2. Store (pkg/store) and History (pkg/history): zone state and undo/redo
// 3. Render (pkg/render): viewport mapping and overlay drawing
// 4. Export (pkg/export): per-zone rasterization, encoding and archiving
// 5. Suggest (pkg/suggest): saliency and Ollama vision subject detection
//
// Features:
//
//   - Rectangle, ellipse and polygon zones with select, move and nudge
//   - Rule-of-thirds, golden-ratio, grid and aspect-ratio layouts
//   - Brightness, contrast, saturation and blur adjustments
//   - PNG, JPEG and WebP output, optionally bundled in a zip archive
//   - Cancelable export with progress reporting
//   - Project files with the source image embedded
package zonecropper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gg"

	"github.com/menta2k/zone-cropper/internal/logging"
	"github.com/menta2k/zone-cropper/pkg/editor"
	"github.com/menta2k/zone-cropper/pkg/templates"
)

// Version of the zone cropper library
const Version = "1.0.0"

// New creates an editing session
func New(opts ...editor.Option) *editor.Editor {
	return editor.New(opts...)
}

// SetLogger configures the logger for the library and the gg renderer it
// draws overlays with. Pass nil to disable logging.
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
	gg.SetLogger(l)
}

// ExportImageFile is a convenience function that loads an image, lays out
// zones and writes one file per zone into outputDir. layout is a template
// name (rule-thirds, golden-ratio, grid-CxR) or an aspect ratio (16:9,
// square, ...).
func ExportImageFile(ctx context.Context, inputPath, outputDir, layout string, opts ...editor.Option) ([]string, error) {
	ed := New(opts...)

	if err := ed.LoadSource(ctx, inputPath); err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	err := ed.ApplyTemplate(layout)
	if errors.Is(err, templates.ErrUnknownTemplate) {
		err = ed.ApplyRatio(layout)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply layout %q: %w", layout, err)
	}

	results, err := ed.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("export failed: %w", err)
	}

	return ed.SaveExport(outputDir, results)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
