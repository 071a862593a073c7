// Package project reads and writes the versioned JSON project document that
// stores an embedded image, its zones, adjustments and export settings.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/menta2k/zone-cropper/pkg/store"
	"github.com/menta2k/zone-cropper/pkg/types"
)

var (
	ErrInvalidProject     = errors.New("invalid project file")
	ErrUnsupportedVersion = errors.New("unsupported project version")
)

// Version is the only document version this package writes and reads
const Version = 1

// File is the on-disk project document
type File struct {
	Version        int               `json:"version"`
	Image          string            `json:"image"`
	Zones          []types.Zone      `json:"zones"`
	Adjustments    types.Adjustments `json:"adjustments"`
	ExportBaseName string            `json:"exportBaseName"`
	ExportFormat   string            `json:"exportFormat"`
	ExportQuality  int               `json:"exportQuality"`
}

// Validate checks version, image payload, zones and adjustments. Polygon
// bounds are recomputed from their points.
func (f *File) Validate() error {
	if f.Version != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, f.Version)
	}
	if !strings.HasPrefix(f.Image, "data:image/") {
		return fmt.Errorf("%w: missing embedded image", ErrInvalidProject)
	}
	if f.Zones == nil {
		f.Zones = []types.Zone{}
	}
	for i := range f.Zones {
		f.Zones[i].SyncBounds()
	}
	if err := store.ValidateZones(f.Zones); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProject, err)
	}
	if err := f.Adjustments.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProject, err)
	}
	if f.ExportQuality < 0 || f.ExportQuality > 100 {
		return fmt.Errorf("%w: export quality %d out of range", ErrInvalidProject, f.ExportQuality)
	}
	return nil
}

// Encode writes f as indented JSON
func Encode(w io.Writer, f *File) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	return nil
}

// Decode reads and validates a project document
func Decode(r io.Reader) (*File, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads a project document from disk
func Load(path string) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open project file: %w", err)
	}
	defer file.Close()
	return Decode(file)
}

// Save writes a project document to disk
func Save(path string, f *File) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create project file: %w", err)
	}
	if err := Encode(file, f); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
