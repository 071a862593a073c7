package editor

import (
	"context"
	"fmt"

	"github.com/menta2k/zone-cropper/internal/logging"
	"github.com/menta2k/zone-cropper/pkg/export"
)

// ExportSettings is the user's export configuration
type ExportSettings struct {
	BaseName    string        `json:"baseName"`
	Format      export.Format `json:"format"`
	Quality     int           `json:"quality"`
	Lossless    bool          `json:"lossless"`
	NamePattern string        `json:"namePattern,omitempty"`
	AsZip       bool          `json:"asZip"`
}

// DefaultExportSettings exports PNG files named after the image
func DefaultExportSettings() ExportSettings {
	return ExportSettings{Format: export.PNG, Quality: export.DefaultQuality}
}

// Validate checks format and quality
func (s ExportSettings) Validate() error {
	if _, err := export.ParseFormat(string(s.Format)); err != nil {
		return err
	}
	if s.Quality < 0 || s.Quality > 100 {
		return fmt.Errorf("export quality must be between 1 and 100, got %d", s.Quality)
	}
	return nil
}

func (s ExportSettings) normalized() ExportSettings {
	if f, err := export.ParseFormat(string(s.Format)); err == nil {
		s.Format = f
	} else {
		s.Format = export.PNG
	}
	if s.Quality <= 0 || s.Quality > 100 {
		s.Quality = export.DefaultQuality
	}
	return s
}

// ExportStatus is the progress of the running export. The zero value means
// no export is running.
type ExportStatus struct {
	Exporting bool    `json:"exporting"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Progress  float64 `json:"progress"`
	Text      string  `json:"text"`
}

// ExportSettings returns the current export settings
func (e *Editor) ExportSettings() ExportSettings { return e.settings }

// SetExportSettings validates and stores new export settings
func (e *Editor) SetExportSettings(s ExportSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	e.settings = s.normalized()
	return nil
}

// BaseName is the configured base name, else the image name
func (e *Editor) BaseName() string {
	if e.settings.BaseName != "" {
		return e.settings.BaseName
	}
	return e.imageName
}

// ExportStatus returns a copy of the current status. Safe for concurrent use.
func (e *Editor) ExportStatus() ExportStatus {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	return e.status
}

func (e *Editor) setStatus(fn func(*ExportStatus)) {
	e.statusMu.Lock()
	fn(&e.status)
	e.statusMu.Unlock()
}

// CancelExport asks the running export to stop at its next check point.
// Safe for concurrent use.
func (e *Editor) CancelExport() {
	if e.exporting.Load() {
		e.cancel.Store(true)
	}
}

// Export encodes every zone with the current settings. The zones,
// adjustments and image are captured when the call starts. On cancellation
// the completed results are returned with export.ErrCanceled.
func (e *Editor) Export(ctx context.Context) ([]export.Result, error) {
	img := e.engine.Image()
	if img == nil {
		return nil, ErrNoImage
	}
	zones := e.store.Zones()
	if len(zones) == 0 {
		return nil, ErrNoZones
	}
	if !e.exporting.CompareAndSwap(false, true) {
		return nil, ErrExportInProgress
	}
	// CancelExport only raises the flag while exporting is set, so it is
	// lowered before exporting is released
	defer func() {
		e.cancel.Store(false)
		e.exporting.Store(false)
	}()

	total := len(zones)
	e.setStatus(func(s *ExportStatus) {
		*s = ExportStatus{Exporting: true, Total: total, Text: "Preparing"}
	})
	defer e.setStatus(func(s *ExportStatus) { *s = ExportStatus{} })

	settings, base := e.settings, e.BaseName()
	results, err := export.Export(ctx, img, zones, e.store.Adjustments(), export.Options{
		Format:   settings.Format,
		Quality:  settings.Quality,
		Lossless: settings.Lossless,
		BaseName: base,
		NameFunc: export.PatternNameFunc(settings.NamePattern, base),
		OnItem: func(index, total int) {
			e.setStatus(func(s *ExportStatus) {
				s.Text = fmt.Sprintf("Exporting %d/%d", index+1, total)
			})
		},
		OnProgress: func(completed, total int) {
			e.setStatus(func(s *ExportStatus) {
				s.Completed = completed
				s.Progress = float64(completed) / float64(total)
			})
		},
		ShouldCancel: e.cancel.Load,
	})
	if err != nil {
		logging.Logger().Warn("export stopped", "completed", len(results), "total", total, "error", err)
	}
	return results, err
}

// SaveExport writes results into dir, as one archive when the settings ask
// for a zip, and returns the written paths
func (e *Editor) SaveExport(dir string, results []export.Result) ([]string, error) {
	if e.settings.AsZip {
		path, err := export.SaveArchive(dir, e.BaseName(), results)
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	}
	return export.SaveFiles(dir, results)
}
