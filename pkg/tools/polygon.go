package tools

import (
	"github.com/menta2k/zone-cropper/internal/logging"
	"github.com/menta2k/zone-cropper/pkg/geometry"
	"github.com/menta2k/zone-cropper/pkg/types"
)

// PolygonTool places vertices one click at a time. A click within
// CloseRadius of the first vertex, or a double click, finishes the shape.
type PolygonTool struct{}

func (t *PolygonTool) active(ctx Context) *types.Drawing {
	d := ctx.Drawing()
	if d == nil || d.Kind != types.KindPolygon {
		return nil
	}
	return d
}

func (t *PolygonTool) PointerDown(ctx Context, p types.Point) error {
	d := t.active(ctx)
	if d == nil {
		ctx.SetDrawing(&types.Drawing{Kind: types.KindPolygon, Points: []types.Point{p}})
		return nil
	}

	if len(d.Points) >= types.MinPolygonPoints && geometry.Distance(d.Points[0], p) < CloseRadius {
		return t.Finalize(ctx)
	}

	next := d.Clone()
	next.Points = append(next.Points, p)
	ctx.SetDrawing(next)
	return nil
}

// PointerMove tracks the rubber-band point
func (t *PolygonTool) PointerMove(ctx Context, p types.Point) error {
	d := t.active(ctx)
	if d == nil {
		return nil
	}
	next := d.Clone()
	next.Current = &p
	ctx.SetDrawing(next)
	return nil
}

func (t *PolygonTool) PointerUp(ctx Context, _ types.Point) error {
	d := t.active(ctx)
	if d == nil {
		return nil
	}
	next := d.Clone()
	next.Current = nil
	ctx.SetDrawing(next)
	return nil
}

func (t *PolygonTool) DoubleClick(ctx Context, _ types.Point) error {
	return t.Finalize(ctx)
}

// Finalize commits the polygon drawn so far. Fewer than three vertices
// discard the drawing.
func (t *PolygonTool) Finalize(ctx Context) error {
	d := t.active(ctx)
	if d == nil {
		return nil
	}
	defer ctx.SetDrawing(nil)

	if len(d.Points) < types.MinPolygonPoints {
		logging.Logger().Debug("polygon discarded", "points", len(d.Points))
		return nil
	}

	if err := ctx.AddZone(types.NewPolygonZone(ctx.NewID(), d.Points)); err != nil {
		return err
	}
	ctx.PushHistory(addLabel(types.KindPolygon))
	return nil
}
