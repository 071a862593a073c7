// Package tools implements the pointer-driven state machines that author
// zones. Every point a tool receives is already in image-pixel space.
package tools

import (
	"fmt"

	"github.com/menta2k/zone-cropper/pkg/types"
)

// ToolType identifies an editor tool
type ToolType string

const (
	Select  ToolType = "select"
	Rect    ToolType = "rect"
	Ellipse ToolType = "ellipse"
	Polygon ToolType = "polygon"
)

const (
	// MinShapeSize is the smallest width and height, in image pixels, a
	// rectangle or ellipse drag must cover to be committed.
	MinShapeSize = 8.0
	// CloseRadius is the distance to the first vertex under which a click
	// closes the polygon.
	CloseRadius = 12.0
)

// Context is the slice of editor state a tool reads and writes
type Context interface {
	Zones() []types.Zone
	// AddZone appends z, selects it and clears the drawing. It fails
	// without side effects when a capacity policy rejects the zone.
	AddZone(z types.Zone) error
	SetSelection(ids []string)
	Drawing() *types.Drawing
	SetDrawing(d *types.Drawing)
	// ImageSize reports the loaded image's size, ok is false without an image
	ImageSize() (width, height float64, ok bool)
	NewID() string
	PushHistory(label string)
}

// Tool consumes pointer events
type Tool interface {
	PointerDown(ctx Context, p types.Point) error
	PointerMove(ctx Context, p types.Point) error
	PointerUp(ctx Context, p types.Point) error
}

// DoubleClicker is implemented by tools that react to double clicks
type DoubleClicker interface {
	DoubleClick(ctx Context, p types.Point) error
}

// New returns the tool for t
func New(t ToolType) (Tool, error) {
	switch t {
	case Select:
		return &SelectTool{}, nil
	case Rect:
		return &ShapeTool{Kind: types.KindRect}, nil
	case Ellipse:
		return &ShapeTool{Kind: types.KindEllipse}, nil
	case Polygon:
		return &PolygonTool{}, nil
	default:
		return nil, fmt.Errorf("unknown tool %q", t)
	}
}

// Valid reports whether t names a known tool
func (t ToolType) Valid() bool {
	_, err := New(t)
	return err == nil
}
