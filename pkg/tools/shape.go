package tools

import (
	"github.com/menta2k/zone-cropper/internal/logging"
	"github.com/menta2k/zone-cropper/pkg/geometry"
	"github.com/menta2k/zone-cropper/pkg/types"
)

// ShapeTool drags out a rectangle or an ellipse bounding box
type ShapeTool struct {
	Kind types.ZoneKind
}

func (t *ShapeTool) active(ctx Context) *types.Drawing {
	d := ctx.Drawing()
	if d == nil || d.Kind != t.Kind {
		return nil
	}
	return d
}

func (t *ShapeTool) PointerDown(ctx Context, p types.Point) error {
	cur := p
	ctx.SetDrawing(&types.Drawing{Kind: t.Kind, Start: p, Current: &cur})
	return nil
}

func (t *ShapeTool) PointerMove(ctx Context, p types.Point) error {
	d := t.active(ctx)
	if d == nil {
		return nil
	}
	next := d.Clone()
	next.Current = &p
	ctx.SetDrawing(next)
	return nil
}

// PointerUp commits the shape spanned by the drag start and p. Drags
// smaller than MinShapeSize in either direction are discarded.
func (t *ShapeTool) PointerUp(ctx Context, p types.Point) error {
	d := t.active(ctx)
	if d == nil {
		return nil
	}
	defer ctx.SetDrawing(nil)

	r := geometry.RectFromCorners(d.Start, p)
	if r.Width < MinShapeSize || r.Height < MinShapeSize {
		logging.Logger().Debug("shape discarded", "kind", t.Kind, "width", r.Width, "height", r.Height)
		return nil
	}

	if err := ctx.AddZone(types.NewRectZone(ctx.NewID(), t.Kind, r)); err != nil {
		return err
	}
	ctx.PushHistory(addLabel(t.Kind))
	return nil
}

func addLabel(kind types.ZoneKind) string {
	switch kind {
	case types.KindRect:
		return "Add rectangle"
	case types.KindEllipse:
		return "Add ellipse"
	case types.KindPolygon:
		return "Add polygon"
	}
	return "Add zone"
}
