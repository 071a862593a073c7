package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/menta2k/zone-cropper/pkg/editor"
	"github.com/menta2k/zone-cropper/pkg/export"
	"github.com/menta2k/zone-cropper/pkg/history"
	"github.com/menta2k/zone-cropper/pkg/imageio"
	"github.com/menta2k/zone-cropper/pkg/render"
	"github.com/menta2k/zone-cropper/pkg/suggest"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "ZONE_CROPPER_"

// Config holds the application configuration
type Config struct {
	Editor  EditorConfig  `json:"editor"`
	Loader  LoaderConfig  `json:"loader"`
	Export  ExportConfig  `json:"export"`
	Suggest SuggestConfig `json:"suggest"`
}

// EditorConfig holds configuration for the document session
type EditorConfig struct {
	HistoryLimit    int     `json:"history_limit"`
	MaxZones        int     `json:"max_zones"`
	ViewportPadding float64 `json:"viewport_padding"`
}

// LoaderConfig holds configuration for image loading
type LoaderConfig struct {
	SupportedFormats       []string `json:"supported_formats"`
	MinImageSize           int      `json:"min_image_size"`
	DownloadTimeoutSeconds int      `json:"download_timeout_seconds"`
}

// ExportConfig holds configuration for output generation
type ExportConfig struct {
	Format      string `json:"format"`
	Quality     int    `json:"quality"`
	Lossless    bool   `json:"lossless"`
	BaseName    string `json:"base_name"`
	NamePattern string `json:"name_pattern"`
	AsZip       bool   `json:"as_zip"`
	OutputDir   string `json:"output_dir"`
}

// SuggestConfig holds configuration for zone suggestions
type SuggestConfig struct {
	// Backend is "saliency" or "ollama"
	Backend         string  `json:"backend"`
	URL             string  `json:"url"`
	Model           string  `json:"model"`
	MaxSubjects     int     `json:"max_subjects"`
	EdgeThreshold   float64 `json:"edge_threshold"`
	MinSubjectRatio float64 `json:"min_subject_ratio"`
}

// Default returns a configuration with default values
func Default() *Config {
	loader := imageio.DefaultConfig()
	ollama := suggest.DefaultOllamaConfig()
	saliency := suggest.DefaultSaliencyConfig()
	return &Config{
		Editor: EditorConfig{
			HistoryLimit:    history.DefaultLimit,
			MaxZones:        0,
			ViewportPadding: render.DefaultPadding,
		},
		Loader: LoaderConfig{
			SupportedFormats:       loader.SupportedFormats,
			MinImageSize:           loader.MinImageSize,
			DownloadTimeoutSeconds: int(loader.DownloadTimeout / time.Second),
		},
		Export: ExportConfig{
			Format:    string(export.PNG),
			Quality:   export.DefaultQuality,
			OutputDir: "./output",
		},
		Suggest: SuggestConfig{
			Backend:         "saliency",
			URL:             ollama.URL,
			Model:           ollama.Model,
			MaxSubjects:     ollama.MaxSubjects,
			EdgeThreshold:   saliency.EdgeThreshold,
			MinSubjectRatio: saliency.MinSubjectRatio,
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Missing fields keep
// their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides fields from ZONE_CROPPER_* environment variables
func (c *Config) ApplyEnv() error {
	c.Suggest.Backend = getEnv("SUGGEST_BACKEND", c.Suggest.Backend)
	c.Suggest.URL = getEnv("OLLAMA_URL", c.Suggest.URL)
	c.Suggest.Model = getEnv("OLLAMA_MODEL", c.Suggest.Model)
	c.Export.Format = getEnv("FORMAT", c.Export.Format)
	c.Export.OutputDir = getEnv("OUTPUT_DIR", c.Export.OutputDir)
	c.Export.BaseName = getEnv("BASE_NAME", c.Export.BaseName)

	var err error
	if c.Export.Quality, err = getEnvInt("QUALITY", c.Export.Quality); err != nil {
		return err
	}
	if c.Editor.MaxZones, err = getEnvInt("MAX_ZONES", c.Editor.MaxZones); err != nil {
		return err
	}
	if c.Editor.HistoryLimit, err = getEnvInt("HISTORY_LIMIT", c.Editor.HistoryLimit); err != nil {
		return err
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := getEnv(key, "")
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal, fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	return n, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Editor.HistoryLimit < 2 {
		return fmt.Errorf("editor.history_limit must be at least 2")
	}

	if c.Editor.MaxZones < 0 {
		return fmt.Errorf("editor.max_zones cannot be negative")
	}

	if c.Editor.ViewportPadding < 0 {
		return fmt.Errorf("editor.viewport_padding cannot be negative")
	}

	if len(c.Loader.SupportedFormats) == 0 {
		return fmt.Errorf("loader.supported_formats cannot be empty")
	}

	if c.Loader.MinImageSize < 1 {
		return fmt.Errorf("loader.min_image_size must be positive")
	}

	if _, err := export.ParseFormat(c.Export.Format); err != nil {
		return fmt.Errorf("export.format: %w", err)
	}

	if c.Export.Quality < 1 || c.Export.Quality > 100 {
		return fmt.Errorf("export.quality must be between 1 and 100")
	}

	switch c.Suggest.Backend {
	case "saliency", "ollama":
	default:
		return fmt.Errorf("suggest.backend must be saliency or ollama, got %q", c.Suggest.Backend)
	}

	if c.Suggest.EdgeThreshold < 0 || c.Suggest.EdgeThreshold > 1 {
		return fmt.Errorf("suggest.edge_threshold must be between 0 and 1")
	}

	if c.Suggest.MinSubjectRatio < 0 || c.Suggest.MinSubjectRatio > 1 {
		return fmt.Errorf("suggest.min_subject_ratio must be between 0 and 1")
	}

	return nil
}

// LoaderSettings converts the loader section for imageio
func (c *Config) LoaderSettings() imageio.Config {
	return imageio.Config{
		SupportedFormats: c.Loader.SupportedFormats,
		MinImageSize:     c.Loader.MinImageSize,
		DownloadTimeout:  time.Duration(c.Loader.DownloadTimeoutSeconds) * time.Second,
	}
}

// ExportSettings converts the export section for the editor
func (c *Config) ExportSettings() editor.ExportSettings {
	return editor.ExportSettings{
		BaseName:    c.Export.BaseName,
		Format:      export.Format(c.Export.Format),
		Quality:     c.Export.Quality,
		Lossless:    c.Export.Lossless,
		NamePattern: c.Export.NamePattern,
		AsZip:       c.Export.AsZip,
	}
}

// EditorOptions builds editor options from the editor, loader and export sections
func (c *Config) EditorOptions() []editor.Option {
	return []editor.Option{
		editor.WithHistoryLimit(c.Editor.HistoryLimit),
		editor.WithZoneLimit(c.Editor.MaxZones),
		editor.WithPadding(c.Editor.ViewportPadding),
		editor.WithLoader(imageio.NewLoaderWithConfig(c.LoaderSettings())),
		editor.WithExportSettings(c.ExportSettings()),
	}
}

// Detector builds the configured suggestion backend
func (c *Config) Detector() (suggest.Detector, error) {
	switch c.Suggest.Backend {
	case "ollama":
		oc := suggest.DefaultOllamaConfig()
		oc.URL, oc.Model, oc.MaxSubjects = c.Suggest.URL, c.Suggest.Model, c.Suggest.MaxSubjects
		return suggest.NewOllamaDetector(oc)
	case "saliency", "":
		sc := suggest.DefaultSaliencyConfig()
		sc.EdgeThreshold, sc.MinSubjectRatio, sc.MaxSubjects = c.Suggest.EdgeThreshold, c.Suggest.MinSubjectRatio, c.Suggest.MaxSubjects
		return suggest.NewSaliencyDetectorWithConfig(sc), nil
	default:
		return nil, fmt.Errorf("unknown suggest backend %q", c.Suggest.Backend)
	}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "zone-cropper", "config.json")
}
