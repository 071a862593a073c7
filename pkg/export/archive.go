package export

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/menta2k/zone-cropper/internal/utils"
)

// WriteArchive bundles results into a zip written to w
func WriteArchive(w io.Writer, results []Result) error {
	zw := zip.NewWriter(w)
	now := time.Now()
	for _, r := range results {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: r.Name, Method: zip.Deflate, Modified: now})
		if err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", r.Name, err)
		}
		if _, err := fw.Write(r.Data); err != nil {
			return fmt.Errorf("failed to write %s to archive: %w", r.Name, err)
		}
	}
	return zw.Close()
}

// SaveArchive writes results as {base}_zones.zip inside dir and returns the path
func SaveArchive(dir, base string, results []Result) (string, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}
	path := filepath.Join(dir, ArchiveName(base))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := WriteArchive(f, results); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

// SaveFiles writes each result as its own file inside dir
func SaveFiles(dir string, results []Result) ([]string, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(results))
	for _, r := range results {
		path := filepath.Join(dir, r.Name)
		if err := os.WriteFile(path, r.Data, 0644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
