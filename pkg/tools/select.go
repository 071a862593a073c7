package tools

import (
	"github.com/menta2k/zone-cropper/pkg/geometry"
	"github.com/menta2k/zone-cropper/pkg/types"
)

// SelectTool selects the topmost zone under the pointer, or clears the
// selection when the pointer hits empty space.
type SelectTool struct{}

func (t *SelectTool) PointerDown(ctx Context, p types.Point) error {
	if w, h, ok := ctx.ImageSize(); ok {
		p = geometry.ClampToImage(p, w, h)
	}

	zones := ctx.Zones()
	if i := geometry.TopmostAt(zones, p); i >= 0 {
		ctx.SetSelection([]string{zones[i].ID})
		return nil
	}
	ctx.SetSelection(nil)
	return nil
}

func (t *SelectTool) PointerMove(Context, types.Point) error { return nil }

func (t *SelectTool) PointerUp(Context, types.Point) error { return nil }
