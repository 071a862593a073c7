package templates

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/menta2k/zone-cropper/pkg/types"
)

// AspectRatio represents common aspect ratios
type AspectRatio struct {
	Width  int
	Height int
	Name   string
}

// Value returns width/height
func (a AspectRatio) Value() float64 {
	return float64(a.Width) / float64(a.Height)
}

func (a AspectRatio) String() string {
	return fmt.Sprintf("%d:%d", a.Width, a.Height)
}

// Common aspect ratios
var (
	Square     = AspectRatio{1, 1, "square"}
	Portrait   = AspectRatio{3, 4, "portrait"}
	Landscape  = AspectRatio{4, 3, "landscape"}
	Photo      = AspectRatio{3, 2, "photo"}
	Widescreen = AspectRatio{16, 9, "widescreen"}
	Instagram  = AspectRatio{4, 5, "instagram"}
	Story      = AspectRatio{9, 16, "story"}
)

// CommonAspectRatios returns a list of commonly used aspect ratios
func CommonAspectRatios() []AspectRatio {
	return []AspectRatio{Square, Portrait, Landscape, Photo, Widescreen, Instagram, Story}
}

// ParseRatio accepts a preset name ("square", "story", ...) or "W:H" with
// positive integers.
func ParseRatio(s string) (AspectRatio, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, r := range CommonAspectRatios() {
		if s == r.Name {
			return r, nil
		}
	}

	w, h, ok := strings.Cut(s, ":")
	if ok {
		wi, errW := strconv.Atoi(w)
		hi, errH := strconv.Atoi(h)
		if errW == nil && errH == nil && wi > 0 && hi > 0 {
			return AspectRatio{Width: wi, Height: hi, Name: s}, nil
		}
	}
	return AspectRatio{}, fmt.Errorf("%w: %q", ErrUnknownRatio, s)
}

// FitRatio returns the largest rectangle of the given ratio centered in a
// width x height image
func FitRatio(ratio, width, height float64) types.Rect {
	w := width
	h := w / ratio
	if h > height {
		h = height
		w = h * ratio
	}
	return types.Rect{X: (width - w) / 2, Y: (height - h) / 2, Width: w, Height: h}
}

// ApplyRatio builds the single centered zone for the named ratio
func ApplyRatio(name string, width, height float64, newID IDFunc) ([]types.Zone, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %gx%g", width, height)
	}
	r, err := ParseRatio(name)
	if err != nil {
		return nil, err
	}
	return []types.Zone{types.NewRectZone(newID(), types.KindRect, FitRatio(r.Value(), width, height))}, nil
}
