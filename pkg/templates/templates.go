// Package templates synthesizes zone layouts from named presets. Every preset
// is deterministic given the image size; only the zone ids vary.
package templates

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/menta2k/zone-cropper/pkg/types"
)

var (
	ErrUnknownTemplate = errors.New("unknown template")
	ErrUnknownRatio    = errors.New("unknown aspect ratio")
)

// Template names
const (
	RuleOfThirds = "rule-thirds"
	GoldenRatio  = "golden-ratio"
)

// Phi is the golden ratio as used for the golden-ratio split
const Phi = 1.618

// MaxGridSide bounds the rows and columns of a grid template
const MaxGridSide = 64

var gridPattern = regexp.MustCompile(`^grid-(\d+)x(\d+)$`)

// IDFunc produces fresh zone ids
type IDFunc func() string

// Names lists the built-in templates; grid-CxR accepts any size up to MaxGridSide
func Names() []string {
	return []string{RuleOfThirds, GoldenRatio, "grid-2x2", "grid-3x3", "grid-4x4"}
}

// Apply builds the zones of the named template for a width x height image
func Apply(name string, width, height float64, newID IDFunc) ([]types.Zone, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %gx%g", width, height)
	}
	switch name {
	case RuleOfThirds:
		return Grid(3, 3, width, height, newID), nil
	case GoldenRatio:
		return Golden(width, height, newID), nil
	}

	m := gridPattern.FindStringSubmatch(name)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	cols, _ := strconv.Atoi(m[1])
	rows, _ := strconv.Atoi(m[2])
	if cols < 1 || rows < 1 || cols > MaxGridSide || rows > MaxGridSide {
		return nil, fmt.Errorf("%w: grid must be between 1x1 and %dx%d, got %q", ErrUnknownTemplate, MaxGridSide, MaxGridSide, name)
	}
	return Grid(cols, rows, width, height, newID), nil
}

// Grid tiles the image with cols x rows equal rectangles, row by row
func Grid(cols, rows int, width, height float64, newID IDFunc) []types.Zone {
	tileW, tileH := width/float64(cols), height/float64(rows)
	zones := make([]types.Zone, 0, cols*rows)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			zones = append(zones, types.NewRectZone(newID(), types.KindRect, types.Rect{
				X:      float64(col) * tileW,
				Y:      float64(row) * tileH,
				Width:  tileW,
				Height: tileH,
			}))
		}
	}
	return zones
}

// Golden splits the image at width/Phi and height/Phi into three rectangles:
// the top-left square-ish block, the full-height right strip and the block
// below the first one.
func Golden(width, height float64, newID IDFunc) []types.Zone {
	shortW, shortH := width/Phi, height/Phi
	return []types.Zone{
		types.NewRectZone(newID(), types.KindRect, types.Rect{X: 0, Y: 0, Width: shortW, Height: shortH}),
		types.NewRectZone(newID(), types.KindRect, types.Rect{X: shortW, Y: 0, Width: width - shortW, Height: height}),
		types.NewRectZone(newID(), types.KindRect, types.Rect{X: 0, Y: shortH, Width: shortW, Height: height - shortH}),
	}
}
