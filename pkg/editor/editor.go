// Package editor is the document session: it owns one image with its zones,
// adjustments, history and active tool, and exposes every user action as a
// method.
//
// An Editor is single-writer. Apart from CancelExport and ExportStatus, which
// may be called from any goroutine, callers serialize access.
package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/menta2k/zone-cropper/internal/logging"
	"github.com/menta2k/zone-cropper/pkg/history"
	"github.com/menta2k/zone-cropper/pkg/imageio"
	"github.com/menta2k/zone-cropper/pkg/render"
	"github.com/menta2k/zone-cropper/pkg/store"
	"github.com/menta2k/zone-cropper/pkg/tools"
	"github.com/menta2k/zone-cropper/pkg/types"
)

var (
	ErrNoImage          = errors.New("no image loaded")
	ErrNoZones          = errors.New("no zones to export")
	ErrExportInProgress = errors.New("export already in progress")
)

// Editor is one editable document
type Editor struct {
	store   *store.Store
	history *history.Manager
	engine  *render.Engine
	loader  *imageio.Loader
	newID   func() string

	toolType tools.ToolType
	tool     tools.Tool

	imageName string
	settings  ExportSettings

	exporting atomic.Bool
	cancel    atomic.Bool
	statusMu  sync.Mutex
	status    ExportStatus
}

type options struct {
	historyLimit int
	zoneLimit    int
	padding      float64
	newID        func() string
	settings     ExportSettings
	loader       *imageio.Loader
}

// Option modifies an Editor during creation.
type Option func(*options)

// WithHistoryLimit sets how many snapshots are kept before the oldest is evicted.
func WithHistoryLimit(n int) Option { return func(o *options) { o.historyLimit = n } }

// WithZoneLimit caps the number of zones; zero means unlimited.
func WithZoneLimit(n int) Option { return func(o *options) { o.zoneLimit = n } }

// WithPadding sets the viewport padding used when fitting the preview.
func WithPadding(p float64) Option { return func(o *options) { o.padding = p } }

// WithIDGenerator replaces the random zone id generator.
func WithIDGenerator(fn func() string) Option { return func(o *options) { o.newID = fn } }

// WithExportSettings sets the initial export settings.
func WithExportSettings(s ExportSettings) Option { return func(o *options) { o.settings = s } }

// WithLoader sets the image loader used by LoadSource and LoadProject.
func WithLoader(l *imageio.Loader) Option { return func(o *options) { o.loader = l } }

// New creates an empty editor with the select tool active
func New(opts ...Option) *Editor {
	o := options{
		historyLimit: history.DefaultLimit,
		padding:      render.DefaultPadding,
		newID:        uuid.NewString,
		settings:     DefaultExportSettings(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.loader == nil {
		o.loader = imageio.NewLoader()
	}
	if o.newID == nil {
		o.newID = uuid.NewString
	}

	s := store.New(store.ZoneLimit(o.zoneLimit))
	e := &Editor{
		store:    s,
		history:  history.NewManager(s, o.historyLimit),
		engine:   render.NewEngine(o.padding),
		loader:   o.loader,
		newID:    o.newID,
		settings: o.settings.normalized(),
	}
	e.toolType, e.tool = tools.Select, &tools.SelectTool{}
	return e
}

// LoadImage replaces the document image. Zones, adjustments and history are
// reset and a "Load image" baseline is recorded.
func (e *Editor) LoadImage(img image.Image, name string) error {
	if img == nil || img.Bounds().Empty() {
		return fmt.Errorf("%w: empty image", imageio.ErrDecode)
	}
	e.engine.SetImage(img)
	e.imageName = name
	e.store.Clear()
	e.store.SetAdjustments(types.Adjustments{})
	e.history.Reset()
	e.history.Push("Load image")

	b := img.Bounds()
	logging.Logger().Info("image loaded", "name", name, "width", b.Dx(), "height", b.Dy())
	return nil
}

// LoadSource loads an image from a file path, http(s) URL or data URL. On
// failure the document is left untouched.
func (e *Editor) LoadSource(ctx context.Context, source string) error {
	src, err := e.loader.Load(ctx, source)
	if err != nil {
		return err
	}
	return e.LoadImage(src.Image, src.Name)
}

// Image returns the document image, or nil
func (e *Editor) Image() image.Image { return e.engine.Image() }

// ImageName is the source file name without extension
func (e *Editor) ImageName() string { return e.imageName }

func (e *Editor) ImageInfo() (types.ImageInfo, bool) { return e.engine.ImageInfo() }

// Tool returns the active tool type
func (e *Editor) Tool() tools.ToolType { return e.toolType }

// SetTool switches the active tool and discards any drawing in progress
func (e *Editor) SetTool(t tools.ToolType) error {
	tool, err := tools.New(t)
	if err != nil {
		return err
	}
	e.toolType, e.tool = t, tool
	e.store.SetDrawing(nil)
	return nil
}

// PointerDown forwards a surface-relative pointer press to the active tool.
// Events before the first Render are ignored.
func (e *Editor) PointerDown(p types.Point) error {
	return e.pointer(p, e.tool.PointerDown)
}

// PointerMove forwards a pointer move to the active tool
func (e *Editor) PointerMove(p types.Point) error {
	return e.pointer(p, e.tool.PointerMove)
}

// PointerUp forwards a pointer release to the active tool
func (e *Editor) PointerUp(p types.Point) error {
	return e.pointer(p, e.tool.PointerUp)
}

// DoubleClick forwards a double click to tools that handle it
func (e *Editor) DoubleClick(p types.Point) error {
	dc, ok := e.tool.(tools.DoubleClicker)
	if !ok {
		return nil
	}
	return e.pointer(p, dc.DoubleClick)
}

// Escape discards the drawing in progress
func (e *Editor) Escape() {
	e.store.SetDrawing(nil)
}

func (e *Editor) pointer(p types.Point, fn func(tools.Context, types.Point) error) error {
	ip, ok := e.engine.ToImage(p)
	if !ok {
		return nil
	}
	return fn(toolContext{e}, ip)
}

// Zones returns a copy of the zone list in draw order
func (e *Editor) Zones() []types.Zone { return e.store.Zones() }

func (e *Editor) Selection() []string { return e.store.Selection() }

// Select replaces the selection
func (e *Editor) Select(ids ...string) { e.store.SetSelection(ids) }

// Drawing returns the zone being authored, or nil
func (e *Editor) Drawing() *types.Drawing { return e.store.Drawing() }

// Render fits the adjusted image into a vw x vh viewport
func (e *Editor) Render(vw, vh float64) (types.CanvasMetrics, bool) {
	e.engine.SetAdjustments(e.store.Adjustments())
	return e.engine.Render(vw, vh)
}

// Overlay draws zones, selection and the drawing over the last rendered surface
func (e *Editor) Overlay() (image.Image, error) {
	return e.engine.Overlay(e.store.Zones(), e.store.Selection(), e.store.Drawing())
}

// Metrics returns the metrics of the last Render
func (e *Editor) Metrics() (types.CanvasMetrics, bool) { return e.engine.Metrics() }

// FilterString is the CSS-style filter of the current adjustments
func (e *Editor) FilterString() string {
	e.engine.SetAdjustments(e.store.Adjustments())
	return e.engine.FilterString()
}

// toolContext exposes the editor to tools
type toolContext struct{ e *Editor }

func (c toolContext) Zones() []types.Zone         { return c.e.store.Zones() }
func (c toolContext) AddZone(z types.Zone) error  { return c.e.store.Add(z) }
func (c toolContext) SetSelection(ids []string)   { c.e.store.SetSelection(ids) }
func (c toolContext) Drawing() *types.Drawing     { return c.e.store.Drawing() }
func (c toolContext) SetDrawing(d *types.Drawing) { c.e.store.SetDrawing(d) }
func (c toolContext) NewID() string               { return c.e.newID() }
func (c toolContext) PushHistory(label string)    { c.e.history.Push(label) }

func (c toolContext) ImageSize() (float64, float64, bool) {
	info, ok := c.e.engine.ImageInfo()
	return float64(info.Width), float64(info.Height), ok
}
