package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"reflect"
	"runtime"
	"slices"
	"testing"
	"time"

	"github.com/menta2k/zone-cropper/pkg/export"
	"github.com/menta2k/zone-cropper/pkg/project"
	"github.com/menta2k/zone-cropper/pkg/store"
	"github.com/menta2k/zone-cropper/pkg/suggest"
	"github.com/menta2k/zone-cropper/pkg/tools"
	"github.com/menta2k/zone-cropper/pkg/types"
)

// createTestImage creates a simple gradient test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			img.Set(x, y, color.RGBA{r, g, 128, 255})
		}
	}
	return img
}

func counter() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("z%d", n)
	}
}

// newTestEditor loads a 200x100 image rendered at scale 1, so viewport and
// image coordinates coincide
func newTestEditor(t *testing.T, opts ...Option) *Editor {
	t.Helper()
	opts = append([]Option{WithPadding(0), WithIDGenerator(counter())}, opts...)
	e := New(opts...)
	if err := e.LoadImage(createTestImage(200, 100), "photo"); err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if m, ok := e.Render(200, 100); !ok || m.Scale != 1 {
		t.Fatalf("Expected scale 1 render, got %+v (%v)", m, ok)
	}
	return e
}

func drag(t *testing.T, e *Editor, from, to types.Point) error {
	t.Helper()
	if err := e.PointerDown(from); err != nil {
		return err
	}
	if err := e.PointerMove(to); err != nil {
		return err
	}
	return e.PointerUp(to)
}

func click(t *testing.T, e *Editor, p types.Point) {
	t.Helper()
	if err := e.PointerDown(p); err != nil {
		t.Fatalf("PointerDown(%v): %v", p, err)
	}
	if err := e.PointerUp(p); err != nil {
		t.Fatalf("PointerUp(%v): %v", p, err)
	}
}

func TestLoadImageBaseline(t *testing.T) {
	e := newTestEditor(t)
	if got := e.History(); !reflect.DeepEqual(got, []string{"Load image"}) {
		t.Errorf("Expected baseline history, got %v", got)
	}
	if e.CanUndo() || e.CanRedo() {
		t.Error("Fresh document must not be undoable")
	}
	if e.Tool() != tools.Select {
		t.Errorf("Expected select tool, got %s", e.Tool())
	}
}

func TestDrawRectangleUndoRedo(t *testing.T) {
	e := newTestEditor(t)
	if err := e.SetTool(tools.Rect); err != nil {
		t.Fatal(err)
	}
	if err := drag(t, e, types.Point{X: 50, Y: 40}, types.Point{X: 10, Y: 10}); err != nil {
		t.Fatalf("drag failed: %v", err)
	}

	zones := e.Zones()
	if len(zones) != 1 {
		t.Fatalf("Expected 1 zone, got %d", len(zones))
	}
	want := types.Rect{X: 10, Y: 10, Width: 40, Height: 30}
	if zones[0].Box() != want || zones[0].Kind != types.KindRect {
		t.Errorf("Expected rect %+v, got %+v", want, zones[0])
	}
	if !reflect.DeepEqual(e.Selection(), []string{zones[0].ID}) {
		t.Errorf("Expected new zone selected, got %v", e.Selection())
	}
	if e.Drawing() != nil {
		t.Error("Drawing should be cleared after commit")
	}
	if got := e.History(); !reflect.DeepEqual(got, []string{"Load image", "Add rectangle"}) {
		t.Errorf("Unexpected history %v", got)
	}

	if !e.Undo() || len(e.Zones()) != 0 {
		t.Fatal("Undo should remove the rectangle")
	}
	if !e.Redo() || len(e.Zones()) != 1 {
		t.Fatal("Redo should restore the rectangle")
	}
}

func TestSmallDragDiscarded(t *testing.T) {
	e := newTestEditor(t)
	_ = e.SetTool(tools.Ellipse)
	if err := drag(t, e, types.Point{X: 10, Y: 10}, types.Point{X: 17, Y: 60}); err != nil {
		t.Fatal(err)
	}
	if len(e.Zones()) != 0 || e.CanUndo() {
		t.Error("A 7px wide drag must not create a zone or history entry")
	}
}

func TestPointerIgnoredBeforeRender(t *testing.T) {
	e := New(WithIDGenerator(counter()))
	if err := e.LoadImage(createTestImage(50, 50), "x"); err != nil {
		t.Fatal(err)
	}
	_ = e.SetTool(tools.Rect)
	if err := drag(t, e, types.Point{X: 1, Y: 1}, types.Point{X: 40, Y: 40}); err != nil {
		t.Fatal(err)
	}
	if len(e.Zones()) != 0 || e.Drawing() != nil {
		t.Error("Pointer events without metrics must be ignored")
	}
}

func TestPolygonClosingClick(t *testing.T) {
	e := newTestEditor(t)
	_ = e.SetTool(tools.Polygon)
	for _, p := range []types.Point{{X: 10, Y: 10}, {X: 60, Y: 10}, {X: 60, Y: 60}} {
		click(t, e, p)
	}
	if d := e.Drawing(); d == nil || len(d.Points) != 3 {
		t.Fatalf("Expected 3 pending points, got %+v", d)
	}

	click(t, e, types.Point{X: 15, Y: 12})
	zones := e.Zones()
	if len(zones) != 1 || zones[0].Kind != types.KindPolygon || len(zones[0].Points) != 3 {
		t.Fatalf("Expected closed triangle, got %+v", zones)
	}
	if zones[0].Box() != (types.Rect{X: 10, Y: 10, Width: 50, Height: 50}) {
		t.Errorf("Unexpected bounds %+v", zones[0].Box())
	}
	if h := e.History(); h[len(h)-1] != "Add polygon" {
		t.Errorf("Expected polygon history entry, got %v", h)
	}
}

func TestPolygonDoubleClickAndEscape(t *testing.T) {
	e := newTestEditor(t)
	_ = e.SetTool(tools.Polygon)
	click(t, e, types.Point{X: 10, Y: 10})
	click(t, e, types.Point{X: 90, Y: 10})
	e.Escape()
	if e.Drawing() != nil {
		t.Fatal("Escape should discard the drawing")
	}

	for _, p := range []types.Point{{X: 10, Y: 10}, {X: 90, Y: 10}, {X: 50, Y: 80}} {
		click(t, e, p)
	}
	if err := e.DoubleClick(types.Point{X: 50, Y: 80}); err != nil {
		t.Fatal(err)
	}
	if len(e.Zones()) != 1 {
		t.Errorf("Expected double click to finalize, got %d zones", len(e.Zones()))
	}
}

func TestSetToolDiscardsDrawing(t *testing.T) {
	e := newTestEditor(t)
	_ = e.SetTool(tools.Rect)
	_ = e.PointerDown(types.Point{X: 5, Y: 5})
	if e.Drawing() == nil {
		t.Fatal("Expected drawing after pointer down")
	}
	_ = e.SetTool(tools.Polygon)
	if e.Drawing() != nil {
		t.Error("Switching tools should discard the drawing")
	}
	if err := e.SetTool("lasso"); err == nil {
		t.Error("Expected error for unknown tool")
	}
}

func TestZoneLimit(t *testing.T) {
	e := newTestEditor(t, WithZoneLimit(1))
	_ = e.SetTool(tools.Rect)
	if err := drag(t, e, types.Point{X: 0, Y: 0}, types.Point{X: 20, Y: 20}); err != nil {
		t.Fatal(err)
	}
	err := drag(t, e, types.Point{X: 30, Y: 30}, types.Point{X: 60, Y: 60})
	if !errors.Is(err, store.ErrZoneLimit) {
		t.Fatalf("Expected ErrZoneLimit, got %v", err)
	}
	if len(e.Zones()) != 1 || e.Drawing() != nil {
		t.Error("Rejected commit must leave one zone and no drawing")
	}
	if len(e.History()) != 2 {
		t.Errorf("Rejected commit must not push history, got %v", e.History())
	}
}

func TestSelectTool(t *testing.T) {
	e := newTestEditor(t)
	if err := e.ApplyTemplate("grid-2x1"); err != nil {
		t.Fatal(err)
	}
	click(t, e, types.Point{X: 150, Y: 50})
	if got := e.Selection(); !reflect.DeepEqual(got, []string{e.Zones()[1].ID}) {
		t.Errorf("Expected right tile selected, got %v", got)
	}
}

func TestApplyTemplateAndRatio(t *testing.T) {
	e := newTestEditor(t)
	_ = e.SetTool(tools.Rect)
	if err := e.ApplyTemplate("rule-thirds"); err != nil {
		t.Fatal(err)
	}
	if len(e.Zones()) != 9 || len(e.Selection()) != 0 || e.Tool() != tools.Select {
		t.Errorf("Unexpected template state: %d zones, selection %v, tool %s", len(e.Zones()), e.Selection(), e.Tool())
	}

	if err := e.ApplyRatio("1:1"); err != nil {
		t.Fatal(err)
	}
	zones := e.Zones()
	if len(zones) != 1 || zones[0].Box() != (types.Rect{X: 50, Y: 0, Width: 100, Height: 100}) {
		t.Fatalf("Unexpected ratio zone %+v", zones)
	}
	if !reflect.DeepEqual(e.Selection(), []string{zones[0].ID}) {
		t.Error("Ratio zone should be selected")
	}
	want := []string{"Load image", "Apply template", "Apply ratio"}
	if !reflect.DeepEqual(e.History(), want) {
		t.Errorf("Expected %v, got %v", want, e.History())
	}

	if err := e.ApplyTemplate("spiral"); err == nil {
		t.Error("Expected error for unknown template")
	}
	if len(e.Zones()) != 1 {
		t.Error("Failed template must not touch zones")
	}
}

func TestNudgeClampsInsideImage(t *testing.T) {
	e := newTestEditor(t)
	if err := e.ApplyRatio("1:1"); err != nil {
		t.Fatal(err)
	}
	if err := e.Nudge(-80, 5); err != nil {
		t.Fatal(err)
	}
	if got := e.Zones()[0].Box(); got != (types.Rect{X: 0, Y: 0, Width: 100, Height: 100}) {
		t.Errorf("Expected zone pinned at the left edge, got %+v", got)
	}
	if h := e.History(); h[len(h)-1] != "Nudge zone" {
		t.Errorf("Expected nudge history, got %v", h)
	}

	e.Select()
	before := len(e.History())
	if err := e.Nudge(10, 0); err != nil || len(e.History()) != before {
		t.Error("Nudge without selection should be a no-op")
	}
}

func TestMoveResizeUpdateDelete(t *testing.T) {
	e := newTestEditor(t)
	poly := types.NewPolygonZone("p", []types.Point{{X: 10, Y: 10}, {X: 30, Y: 10}, {X: 20, Y: 30}})
	if err := e.SetZones([]types.Zone{poly}); err != nil {
		t.Fatal(err)
	}

	if err := e.MoveZone("p", 5, 500); err != nil {
		t.Fatal(err)
	}
	z := e.Zones()[0]
	if z.X != 15 || z.Y+z.Height != 100 || z.Points[0] != (types.Point{X: 15, Y: 80}) {
		t.Errorf("Unexpected moved polygon %+v", z)
	}

	if err := e.ResizeZone("p", types.Rect{X: 0, Y: 0, Width: 40, Height: 40}); err != nil {
		t.Fatal(err)
	}
	if got := e.Zones()[0].Box(); got != (types.Rect{X: 0, Y: 0, Width: 40, Height: 40}) {
		t.Errorf("Unexpected resized bounds %+v", got)
	}

	label := "door"
	if err := e.UpdateZone("p", store.Patch{Label: &label}); err != nil {
		t.Fatal(err)
	}
	if e.Zones()[0].Label != "door" {
		t.Error("Label not updated")
	}

	e.Select("p")
	if err := e.DeleteZone("p"); err != nil {
		t.Fatal(err)
	}
	if len(e.Zones()) != 0 || len(e.Selection()) != 0 {
		t.Error("Delete should remove the zone and prune selection")
	}
	if err := e.DeleteZone("p"); !errors.Is(err, store.ErrZoneNotFound) {
		t.Errorf("Expected ErrZoneNotFound, got %v", err)
	}

	want := []string{"Load image", "Set zones", "Move zone", "Resize zone", "Update zone", "Delete zone"}
	if !reflect.DeepEqual(e.History(), want) {
		t.Errorf("Expected %v, got %v", want, e.History())
	}
}

func TestAdjustments(t *testing.T) {
	e := newTestEditor(t)
	if err := e.SetAdjustment(types.Brightness, 80); err != nil {
		t.Fatal(err)
	}
	if e.Adjustments().Brightness != 50 {
		t.Errorf("Expected clamp to 50, got %v", e.Adjustments().Brightness)
	}
	if e.CanUndo() {
		t.Error("Slider moves must not push history")
	}
	if e.FilterString() != "brightness(150%) contrast(100%) saturate(100%) blur(0px)" {
		t.Errorf("Unexpected filter %q", e.FilterString())
	}

	e.CommitAdjustments()
	if !e.Undo() || e.Adjustments().Brightness != 0 {
		t.Error("Undo should restore neutral brightness")
	}
	e.Redo()
	e.ResetAdjustments()
	if !e.Adjustments().IsNeutral() {
		t.Error("Reset should neutralize adjustments")
	}
}

func TestLoadImageResetsDocument(t *testing.T) {
	e := newTestEditor(t)
	_ = e.ApplyTemplate("grid-2x2")
	_ = e.SetAdjustment(types.Blur, 3)
	if err := e.LoadImage(createTestImage(30, 30), "next"); err != nil {
		t.Fatal(err)
	}
	if len(e.Zones()) != 0 || !e.Adjustments().IsNeutral() || e.CanUndo() {
		t.Error("Loading an image must reset zones, adjustments and history")
	}

	if err := e.LoadSource(context.Background(), filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Expected error for missing file")
	}
	if e.ImageName() != "next" {
		t.Error("Failed load must leave the document untouched")
	}
}

type fakeDetector struct{ subjects []suggest.Subject }

func (d fakeDetector) Detect(context.Context, image.Image) ([]suggest.Subject, error) {
	return d.subjects, nil
}

func TestSuggest(t *testing.T) {
	e := newTestEditor(t)
	n, err := e.Suggest(context.Background(), fakeDetector{subjects: []suggest.Subject{
		{Label: "cat", Box: types.Box{X: 0.1, Y: 0.1, W: 0.4, H: 0.5}},
		{Label: "dog", Box: types.Box{X: 0.5, Y: 0.2, W: 0.4, H: 0.6}},
	}})
	if err != nil || n != 2 {
		t.Fatalf("Expected 2 suggestions, got %d (%v)", n, err)
	}
	zones := e.Zones()
	if zones[0].Label != "cat" || zones[0].Box() != (types.Rect{X: 20, Y: 10, Width: 80, Height: 50}) {
		t.Errorf("Unexpected suggested zone %+v", zones[0])
	}
	if h := e.History(); h[len(h)-1] != "Apply suggestion" {
		t.Errorf("Expected suggestion history, got %v", h)
	}

	if n, _ := e.Suggest(context.Background(), fakeDetector{}); n != 0 || len(e.Zones()) != 2 {
		t.Error("Empty suggestion must leave zones unchanged")
	}
}

func TestExport(t *testing.T) {
	e := newTestEditor(t)
	if _, err := e.Export(context.Background()); !errors.Is(err, ErrNoZones) {
		t.Errorf("Expected ErrNoZones, got %v", err)
	}
	if _, err := New().Export(context.Background()); !errors.Is(err, ErrNoImage) {
		t.Errorf("Expected ErrNoImage, got %v", err)
	}

	_ = e.ApplyTemplate("grid-2x1")
	results, err := e.Export(context.Background())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(results) != 2 || results[0].Name != "photo_01.png" || results[1].Width != 100 {
		t.Errorf("Unexpected results %+v", results)
	}
	if s := e.ExportStatus(); s != (ExportStatus{}) {
		t.Errorf("Status should reset after export, got %+v", s)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if results, err := e.Export(ctx); !errors.Is(err, export.ErrCanceled) || len(results) != 0 {
		t.Errorf("Expected cancellation, got %d results (%v)", len(results), err)
	}

	e.exporting.Store(true)
	if _, err := e.Export(context.Background()); !errors.Is(err, ErrExportInProgress) {
		t.Errorf("Expected ErrExportInProgress, got %v", err)
	}
	e.exporting.Store(false)
}

func TestCancelExportFromAnotherGoroutine(t *testing.T) {
	e := New(WithPadding(0), WithIDGenerator(counter()))
	if err := e.LoadImage(createTestImage(1600, 1600), "big"); err != nil {
		t.Fatal(err)
	}
	if err := e.ApplyTemplate("grid-8x8"); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		deadline := time.Now().Add(10 * time.Second)
		for time.Now().Before(deadline) {
			if e.ExportStatus().Completed >= 1 {
				e.CancelExport()
				return
			}
			runtime.Gosched()
		}
	}()

	results, err := e.Export(context.Background())
	<-done
	if !errors.Is(err, export.ErrCanceled) {
		t.Fatalf("Expected export.ErrCanceled, got %v", err)
	}
	if len(results) < 1 || len(results) >= 64 {
		t.Errorf("Expected partial results, got %d", len(results))
	}

	// The cancel request must not leak into the next run
	_ = e.ApplyTemplate("grid-2x1")
	results, err = e.Export(context.Background())
	if err != nil || len(results) != 2 {
		t.Errorf("Expected a full second export, got %d results (%v)", len(results), err)
	}
}

func TestExportSettingsAndSave(t *testing.T) {
	e := newTestEditor(t)
	_ = e.ApplyTemplate("grid-3x1")
	if err := e.SetExportSettings(ExportSettings{Format: "webp", Quality: 500}); err == nil {
		t.Error("Expected quality validation error")
	}
	if err := e.SetExportSettings(ExportSettings{BaseName: "shot", Format: "jpg", AsZip: true}); err != nil {
		t.Fatal(err)
	}
	if s := e.ExportSettings(); s.Format != export.JPEG || s.Quality != export.DefaultQuality {
		t.Errorf("Unexpected normalized settings %+v", s)
	}

	results, err := e.Export(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	paths, err := e.SaveExport(t.TempDir(), results)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || filepath.Base(paths[0]) != "shot_zones.zip" {
		t.Errorf("Expected one archive, got %v", paths)
	}
}

func TestProjectRoundTrip(t *testing.T) {
	e := newTestEditor(t)
	_ = e.ApplyTemplate("golden-ratio")
	label := "hero"
	_ = e.UpdateZone(e.Zones()[0].ID, store.Patch{Label: &label})
	_ = e.SetAdjustment(types.Contrast, -20)
	_ = e.SetAdjustment(types.Blur, 1.5)
	e.CommitAdjustments()
	_ = e.SetExportSettings(ExportSettings{BaseName: "cover", Format: export.WebP, Quality: 70})

	var buf bytes.Buffer
	if err := e.WriteProject(&buf); err != nil {
		t.Fatalf("WriteProject failed: %v", err)
	}

	loaded := New()
	if err := loaded.ReadProject(&buf); err != nil {
		t.Fatalf("ReadProject failed: %v", err)
	}
	if !reflect.DeepEqual(loaded.Zones(), e.Zones()) {
		t.Errorf("Zones differ:\nwant %+v\ngot  %+v", e.Zones(), loaded.Zones())
	}
	if loaded.Adjustments() != e.Adjustments() {
		t.Errorf("Adjustments differ: %+v vs %+v", loaded.Adjustments(), e.Adjustments())
	}
	if s := loaded.ExportSettings(); s.BaseName != "cover" || s.Format != export.WebP || s.Quality != 70 {
		t.Errorf("Unexpected export settings %+v", s)
	}
	if info, _ := loaded.ImageInfo(); info.Width != 200 || info.Height != 100 {
		t.Errorf("Unexpected image size %+v", info)
	}
	if !slices.Equal(loaded.History(), []string{"Load project"}) {
		t.Errorf("Expected project baseline, got %v", loaded.History())
	}
}

func TestLoadProjectReplacesImageName(t *testing.T) {
	src := newTestEditor(t)
	_ = src.ApplyTemplate("grid-2x1")
	var buf bytes.Buffer
	if err := src.WriteProject(&buf); err != nil {
		t.Fatal(err)
	}

	e := New(WithPadding(0))
	if err := e.LoadImage(createTestImage(50, 50), "holiday"); err != nil {
		t.Fatal(err)
	}
	if err := e.ReadProject(&buf); err != nil {
		t.Fatalf("ReadProject failed: %v", err)
	}
	if got := e.ImageName(); got != "" {
		t.Errorf("Expected the project to clear the image name, got %q", got)
	}

	results, err := e.Export(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Name != "custom_01.png" {
		t.Errorf("Expected custom_01.png, got %s", results[0].Name)
	}
}

func TestLoadProjectInvalidLeavesState(t *testing.T) {
	e := newTestEditor(t)
	_ = e.ApplyTemplate("grid-2x2")
	before := e.Zones()

	bad := &project.File{Version: project.Version, Image: "data:image/png;base64,AAAA"}
	if err := e.LoadProject(bad); !errors.Is(err, project.ErrInvalidProject) {
		t.Errorf("Expected ErrInvalidProject, got %v", err)
	}
	if err := e.LoadProject(&project.File{Version: 7}); !errors.Is(err, project.ErrUnsupportedVersion) {
		t.Errorf("Expected ErrUnsupportedVersion, got %v", err)
	}
	if !reflect.DeepEqual(e.Zones(), before) || len(e.History()) != 2 {
		t.Error("Failed project load must leave the document untouched")
	}
}
