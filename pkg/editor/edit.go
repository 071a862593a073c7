package editor

import (
	"context"
	"fmt"

	"github.com/menta2k/zone-cropper/internal/logging"
	"github.com/menta2k/zone-cropper/pkg/geometry"
	"github.com/menta2k/zone-cropper/pkg/store"
	"github.com/menta2k/zone-cropper/pkg/suggest"
	"github.com/menta2k/zone-cropper/pkg/templates"
	"github.com/menta2k/zone-cropper/pkg/tools"
	"github.com/menta2k/zone-cropper/pkg/types"
)

// Adjustments returns the current filter values
func (e *Editor) Adjustments() types.Adjustments { return e.store.Adjustments() }

// SetAdjustment sets one slider, clamped to its range. It updates the live
// preview only; CommitAdjustments records the change.
func (e *Editor) SetAdjustment(key types.AdjustmentKey, value float64) error {
	adj, err := e.store.Adjustments().With(key, value)
	if err != nil {
		return err
	}
	e.store.SetAdjustments(adj)
	return nil
}

// CommitAdjustments records the slider state at the end of an interaction
func (e *Editor) CommitAdjustments() {
	e.history.Push("Adjustments updated")
}

// ResetAdjustments returns every slider to neutral
func (e *Editor) ResetAdjustments() {
	e.store.SetAdjustments(types.Adjustments{})
	e.history.Push("Reset adjustments")
}

// SetZones replaces every zone, as when importing a zone list
func (e *Editor) SetZones(zones []types.Zone) error {
	if err := e.store.SetZones(zones); err != nil {
		return err
	}
	e.store.SetSelection(nil)
	e.history.Push("Set zones")
	return nil
}

// MoveZone moves a zone by (dx, dy) at the end of a drag. The offset is
// clamped so the zone stays inside the image.
func (e *Editor) MoveZone(id string, dx, dy float64) error {
	z, ok := e.store.Zone(id)
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrZoneNotFound, id)
	}
	if info, ok := e.engine.ImageInfo(); ok {
		dx, dy = geometry.ClampOffset(z.Box(), dx, dy, float64(info.Width), float64(info.Height))
	}
	if err := e.store.Translate(id, dx, dy); err != nil {
		return err
	}
	e.history.Push("Move zone")
	return nil
}

// ResizeZone fits a zone into r at the end of a resize handle drag
func (e *Editor) ResizeZone(id string, r types.Rect) error {
	if err := e.store.Resize(id, r); err != nil {
		return err
	}
	e.history.Push("Resize zone")
	return nil
}

// Nudge moves every selected zone by (dx, dy), each clamped inside the
// image. It is a no-op without a selection.
func (e *Editor) Nudge(dx, dy float64) error {
	info, ok := e.engine.ImageInfo()
	if !ok {
		return ErrNoImage
	}
	selected := e.store.Selected()
	if len(selected) == 0 {
		return nil
	}

	before := e.store.Zones()
	for _, z := range selected {
		mx, my := geometry.ClampOffset(z.Box(), dx, dy, float64(info.Width), float64(info.Height))
		if err := e.store.Translate(z.ID, mx, my); err != nil {
			// restore the untouched list so a nudge is all-or-nothing
			_ = e.store.SetZones(before)
			return err
		}
	}
	e.history.Push("Nudge zone")
	return nil
}

// UpdateZone applies a label, color or geometry patch
func (e *Editor) UpdateZone(id string, p store.Patch) error {
	if err := e.store.Update(id, p); err != nil {
		return err
	}
	e.history.Push("Update zone")
	return nil
}

// DeleteZone removes a zone and drops it from the selection
func (e *Editor) DeleteZone(id string) error {
	if err := e.store.Delete(id); err != nil {
		return err
	}
	e.history.Push("Delete zone")
	return nil
}

// ClearZones removes every zone
func (e *Editor) ClearZones() {
	e.store.Clear()
	e.history.Push("Clear zones")
}

// ApplyTemplate replaces the zones with a named layout and switches to the
// select tool
func (e *Editor) ApplyTemplate(name string) error {
	w, h, err := e.imageSize()
	if err != nil {
		return err
	}
	zones, err := templates.Apply(name, w, h, e.newID)
	if err != nil {
		return err
	}
	if err := e.replaceZones(zones, nil); err != nil {
		return err
	}
	e.history.Push("Apply template")
	return nil
}

// ApplyRatio replaces the zones with one centered zone of the given aspect
// ratio and selects it
func (e *Editor) ApplyRatio(ratio string) error {
	w, h, err := e.imageSize()
	if err != nil {
		return err
	}
	zones, err := templates.ApplyRatio(ratio, w, h, e.newID)
	if err != nil {
		return err
	}
	if err := e.replaceZones(zones, []string{zones[0].ID}); err != nil {
		return err
	}
	e.history.Push("Apply ratio")
	return nil
}

// Suggest replaces the zones with the subjects found by detector and returns
// how many were created. When nothing is found the document is unchanged.
func (e *Editor) Suggest(ctx context.Context, detector suggest.Detector) (int, error) {
	w, h, err := e.imageSize()
	if err != nil {
		return 0, err
	}
	subjects, err := detector.Detect(ctx, e.engine.Image())
	if err != nil {
		return 0, fmt.Errorf("subject detection failed: %w", err)
	}
	zones := suggest.Zones(subjects, w, h, e.newID)
	if len(zones) == 0 {
		logging.Logger().Info("no subjects suggested")
		return 0, nil
	}
	if err := e.replaceZones(zones, nil); err != nil {
		return 0, err
	}
	e.history.Push("Apply suggestion")
	return len(zones), nil
}

func (e *Editor) replaceZones(zones []types.Zone, selection []string) error {
	if err := e.store.SetZones(zones); err != nil {
		return err
	}
	e.store.SetSelection(selection)
	e.store.SetDrawing(nil)
	e.toolType, e.tool = tools.Select, &tools.SelectTool{}
	return nil
}

func (e *Editor) imageSize() (float64, float64, error) {
	info, ok := e.engine.ImageInfo()
	if !ok {
		return 0, 0, ErrNoImage
	}
	return float64(info.Width), float64(info.Height), nil
}

// Undo restores the previous snapshot; false when at the baseline
func (e *Editor) Undo() bool { return e.history.Undo() }

// Redo reapplies the most recently undone snapshot
func (e *Editor) Redo() bool { return e.history.Redo() }

func (e *Editor) CanUndo() bool { return e.history.CanUndo() }

func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// History lists the labels of the undo stack, oldest first
func (e *Editor) History() []string { return e.history.Labels() }
