package editor

import (
	"fmt"
	"io"

	"github.com/menta2k/zone-cropper/internal/logging"
	"github.com/menta2k/zone-cropper/pkg/export"
	"github.com/menta2k/zone-cropper/pkg/imageio"
	"github.com/menta2k/zone-cropper/pkg/project"
	"github.com/menta2k/zone-cropper/pkg/tools"
)

// Project captures the document as a project file with the image embedded
func (e *Editor) Project() (*project.File, error) {
	img := e.engine.Image()
	if img == nil {
		return nil, ErrNoImage
	}
	dataURL, err := imageio.EncodeDataURL(img)
	if err != nil {
		return nil, err
	}
	return &project.File{
		Version:        project.Version,
		Image:          dataURL,
		Zones:          e.store.Zones(),
		Adjustments:    e.store.Adjustments(),
		ExportBaseName: e.settings.BaseName,
		ExportFormat:   string(e.settings.Format),
		ExportQuality:  e.settings.Quality,
	}, nil
}

// WriteProject encodes the document to w
func (e *Editor) WriteProject(w io.Writer) error {
	f, err := e.Project()
	if err != nil {
		return err
	}
	return project.Encode(w, f)
}

// SaveProject writes the document to path
func (e *Editor) SaveProject(path string) error {
	f, err := e.Project()
	if err != nil {
		return err
	}
	return project.Save(path, f)
}

// LoadProject replaces the document with f. Everything is decoded and
// validated first; on error the document is unchanged.
func (e *Editor) LoadProject(f *project.File) error {
	if err := f.Validate(); err != nil {
		return err
	}
	src, err := e.loader.DecodeDataURL(f.Image)
	if err != nil {
		return fmt.Errorf("%w: %w", project.ErrInvalidProject, err)
	}
	format, err := export.ParseFormat(f.ExportFormat)
	if err != nil {
		return fmt.Errorf("%w: %w", project.ErrInvalidProject, err)
	}
	// SetZones is the last step that can fail and leaves the store intact on error
	if err := e.store.SetZones(f.Zones); err != nil {
		return err
	}

	e.engine.SetImage(src.Image)
	e.store.SetSelection(nil)
	e.store.SetDrawing(nil)
	e.store.SetAdjustments(f.Adjustments)
	e.toolType, e.tool = tools.Select, &tools.SelectTool{}
	e.settings = ExportSettings{
		BaseName:    f.ExportBaseName,
		Format:      format,
		Quality:     f.ExportQuality,
		Lossless:    e.settings.Lossless,
		NamePattern: e.settings.NamePattern,
		AsZip:       e.settings.AsZip,
	}.normalized()
	e.imageName = f.ExportBaseName
	e.history.Reset()
	e.history.Push("Load project")

	info := imageio.Info(src.Image)
	logging.Logger().Info("project loaded", "zones", len(f.Zones), "width", info.Width, "height", info.Height)
	return nil
}

// ReadProject decodes and loads a project document from r
func (e *Editor) ReadProject(r io.Reader) error {
	f, err := project.Decode(r)
	if err != nil {
		return err
	}
	return e.LoadProject(f)
}

// LoadProjectFile loads a project document from path
func (e *Editor) LoadProjectFile(path string) error {
	f, err := project.Load(path)
	if err != nil {
		return err
	}
	return e.LoadProject(f)
}
