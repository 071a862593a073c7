package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	zonecropper "github.com/menta2k/zone-cropper"
	"github.com/menta2k/zone-cropper/internal/config"
	"github.com/menta2k/zone-cropper/internal/utils"
	"github.com/menta2k/zone-cropper/pkg/editor"
	"github.com/menta2k/zone-cropper/pkg/export"
	"github.com/menta2k/zone-cropper/pkg/types"
)

func main() {
	var in, outDir, configPath, ext, base, pattern string
	var template, ratio, zonesFile, suggestBackend, model, url string
	var preview, viewport, saveProject string
	var quality int
	var lossless, asZip, verbose, writeConfig bool
	var brightness, contrast, saturation, blur float64

	flag.StringVar(&in, "in", "", "input image path, URL or .json project")
	flag.StringVar(&outDir, "out", "", "output directory (default from config)")
	flag.StringVar(&configPath, "config", "", "config file (default "+config.GetConfigPath()+" when present)")
	flag.BoolVar(&writeConfig, "write-config", false, "write the effective config to -config or the default path and exit")

	flag.StringVar(&template, "template", "", "zone template: rule-thirds|golden-ratio|grid-CxR")
	flag.StringVar(&ratio, "ratio", "", "single centered zone: W:H or square|portrait|landscape|photo|widescreen|instagram|story")
	flag.StringVar(&zonesFile, "zones", "", "JSON file with a zone list")
	flag.StringVar(&suggestBackend, "suggest", "", "suggest zones with saliency|ollama")
	flag.StringVar(&model, "model", "", "ollama vision model")
	flag.StringVar(&url, "url", "", "ollama server URL")

	flag.Float64Var(&brightness, "brightness", 0, "brightness adjustment (-50..50)")
	flag.Float64Var(&contrast, "contrast", 0, "contrast adjustment (-50..50)")
	flag.Float64Var(&saturation, "saturation", 0, "saturation adjustment (-50..50)")
	flag.Float64Var(&blur, "blur", 0, "blur radius in px (0..12)")

	flag.StringVar(&preview, "preview", "", "write a PNG preview with zone overlay to this path")
	flag.StringVar(&viewport, "viewport", "1280x800", "preview viewport WxH")
	flag.StringVar(&saveProject, "save-project", "", "write the project file to this path")

	flag.StringVar(&ext, "ext", "", "output format: png|jpg|webp")
	flag.IntVar(&quality, "quality", 0, "JPEG/WebP output quality (1-100)")
	flag.BoolVar(&lossless, "lossless", false, "WebP output lossless mode")
	flag.BoolVar(&asZip, "zip", false, "bundle outputs into {base}_zones.zip")
	flag.StringVar(&base, "base", "", "output base name (default: input file name)")
	flag.StringVar(&pattern, "pattern", "", "output name pattern using {base} {index} {label} {w} {h}")
	flag.BoolVar(&verbose, "v", false, "verbose logging")

	flag.Parse()

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if verbose {
		zonecropper.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatal(err)
	}

	// Flags given on the command line win over file and environment
	if set["out"] {
		cfg.Export.OutputDir = outDir
	}
	if set["ext"] {
		cfg.Export.Format = ext
	}
	if set["quality"] {
		cfg.Export.Quality = quality
	}
	if set["lossless"] {
		cfg.Export.Lossless = lossless
	}
	if set["zip"] {
		cfg.Export.AsZip = asZip
	}
	if set["base"] {
		cfg.Export.BaseName = base
	}
	if set["pattern"] {
		cfg.Export.NamePattern = pattern
	}
	if set["suggest"] {
		cfg.Suggest.Backend = suggestBackend
	}
	if set["model"] {
		cfg.Suggest.Model = model
	}
	if set["url"] {
		cfg.Suggest.URL = url
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if writeConfig {
		path := configPath
		if path == "" {
			path = config.GetConfigPath()
		}
		if err := cfg.SaveToFile(path); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote %s", path)
		return
	}

	if in == "" {
		log.Fatalf("usage: %s -in input.jpg|URL|project.json [-template rule-thirds] [-ratio 16:9] [-zones zones.json] [-suggest saliency|ollama] [-out outdir] [-ext png|jpg|webp] [-zip]", filepath.Base(os.Args[0]))
	}

	ctx := context.Background()
	ed := editor.New(cfg.EditorOptions()...)

	local := !utils.IsURL(in) && !strings.HasPrefix(in, "data:")
	switch {
	case local && utils.IsProjectFile(in):
		err = ed.LoadProjectFile(in)
	case local && !utils.IsImageFile(in, cfg.Loader.SupportedFormats):
		log.Printf("%s does not have a supported image extension, trying to decode anyway", in)
		fallthrough
	default:
		err = ed.LoadSource(ctx, in)
	}
	if err != nil {
		log.Fatalf("load %s: %v", in, err)
	}
	info, _ := ed.ImageInfo()
	log.Printf("loaded %s (%dx%d, %d zones)", in, info.Width, info.Height, len(ed.Zones()))

	switch {
	case zonesFile != "":
		zones, err := readZones(zonesFile)
		if err != nil {
			log.Fatal(err)
		}
		if err := ed.SetZones(zones); err != nil {
			log.Fatalf("zones %s: %v", zonesFile, err)
		}
	case template != "":
		if err := ed.ApplyTemplate(template); err != nil {
			log.Fatal(err)
		}
	case ratio != "":
		if err := ed.ApplyRatio(ratio); err != nil {
			log.Fatal(err)
		}
	case set["suggest"]:
		detector, err := cfg.Detector()
		if err != nil {
			log.Fatal(err)
		}
		n, err := ed.Suggest(ctx, detector)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("suggested %d zones with %s", n, cfg.Suggest.Backend)
	}

	adjusted := false
	for key, value := range map[types.AdjustmentKey]float64{
		types.Brightness: brightness,
		types.Contrast:   contrast,
		types.Saturation: saturation,
		types.Blur:       blur,
	} {
		if !set[string(key)] {
			continue
		}
		if err := ed.SetAdjustment(key, value); err != nil {
			log.Fatal(err)
		}
		adjusted = true
	}
	if adjusted {
		ed.CommitAdjustments()
		log.Printf("filter: %s", ed.FilterString())
	}

	if preview != "" {
		if err := writePreview(ed, preview, viewport); err != nil {
			log.Printf("preview failed: %v", err)
		} else {
			log.Printf("wrote %s", preview)
		}
	}

	if saveProject != "" {
		if err := ed.SaveProject(saveProject); err != nil {
			log.Fatalf("save project: %v", err)
		}
		log.Printf("wrote %s", saveProject)
	}

	if len(ed.Zones()) == 0 {
		log.Printf("no zones; nothing to export")
		return
	}

	// Ctrl-C stops the export at its next check point
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		log.Printf("interrupt: canceling export")
		ed.CancelExport()
	}()

	results, err := ed.Export(ctx)
	signal.Stop(sigCh)
	if errors.Is(err, export.ErrCanceled) {
		log.Printf("export canceled after %d of %d zones", len(results), len(ed.Zones()))
		os.Exit(130)
	}
	if err != nil {
		log.Fatalf("export failed: %v", err)
	}

	paths, err := ed.SaveExport(cfg.Export.OutputDir, results)
	if err != nil {
		log.Fatal(err)
	}
	for _, p := range paths {
		if st, err := os.Stat(p); err == nil {
			log.Printf("wrote %s (%s)", p, utils.FormatFileSize(st.Size()))
		} else {
			log.Printf("wrote %s", p)
		}
	}
}

// loadConfig reads path, or the default config file when it exists
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if !utils.FileExists(config.GetConfigPath()) {
			return config.Default(), nil
		}
		path = config.GetConfigPath()
	}
	return config.LoadFromFile(path)
}

func readZones(path string) ([]types.Zone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read zones file: %w", err)
	}
	var zones []types.Zone
	if err := json.Unmarshal(data, &zones); err != nil {
		return nil, fmt.Errorf("failed to parse zones file: %w", err)
	}
	for i := range zones {
		zones[i].SyncBounds()
	}
	return zones, nil
}

func writePreview(ed *editor.Editor, path, viewport string) error {
	w, h, ok := parseSize(viewport)
	if !ok {
		return fmt.Errorf("invalid viewport %q, want WxH", viewport)
	}
	if _, ok := ed.Render(w, h); !ok {
		return errors.New("nothing to render")
	}
	img, err := ed.Overlay()
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return imaging.Save(img, path)
}

func parseSize(s string) (float64, float64, bool) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, false
	}
	w, errW := strconv.Atoi(ws)
	h, errH := strconv.Atoi(hs)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return float64(w), float64(h), true
}
