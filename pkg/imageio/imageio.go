// Package imageio loads source images from files, readers, URLs and data URLs
// and encodes them back for embedding in project files.
package imageio

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/zone-cropper/internal/logging"
	"github.com/menta2k/zone-cropper/internal/utils"
	"github.com/menta2k/zone-cropper/pkg/types"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrDecode            = errors.New("failed to decode image")
	ErrImageTooSmall     = errors.New("image too small")
)

// UserAgent is sent with URL downloads
const UserAgent = "Zone-Cropper/1.0"

// MaxDownloadSize bounds the body read from a URL
const MaxDownloadSize = 64 << 20

// Config holds configuration for image loading
type Config struct {
	// SupportedFormats are decoder names as reported by image.DecodeConfig
	SupportedFormats []string
	MinImageSize     int
	DownloadTimeout  time.Duration
}

// DefaultConfig accepts every raster format the registered decoders know
func DefaultConfig() Config {
	return Config{
		SupportedFormats: []string{"jpeg", "png", "webp", "gif", "bmp", "tiff"},
		MinImageSize:     1,
		DownloadTimeout:  30 * time.Second,
	}
}

// Source is a decoded image plus where it came from
type Source struct {
	Image  image.Image
	Format string
	// Name is the file name without extension, used as the default export base
	Name string
}

// Info returns the dimensions of the source image
func (s Source) Info() types.ImageInfo {
	return Info(s.Image)
}

// Info returns the dimensions of img
func Info(img image.Image) types.ImageInfo {
	b := img.Bounds()
	return types.ImageInfo{Width: b.Dx(), Height: b.Dy()}
}

// Loader decodes images under a format and size policy
type Loader struct {
	config Config
	client *http.Client
}

// NewLoader creates a loader with the default configuration
func NewLoader() *Loader {
	return NewLoaderWithConfig(DefaultConfig())
}

// NewLoaderWithConfig creates a loader with a custom configuration
func NewLoaderWithConfig(config Config) *Loader {
	if config.DownloadTimeout <= 0 {
		config.DownloadTimeout = DefaultConfig().DownloadTimeout
	}
	if len(config.SupportedFormats) == 0 {
		config.SupportedFormats = DefaultConfig().SupportedFormats
	}
	return &Loader{
		config: config,
		client: &http.Client{Timeout: config.DownloadTimeout},
	}
}

// Config returns the loader configuration
func (l *Loader) Config() Config {
	return l.config
}

// Load dispatches on the source: data URL, http(s) URL or file path
func (l *Loader) Load(ctx context.Context, source string) (Source, error) {
	switch {
	case strings.HasPrefix(source, "data:"):
		return l.DecodeDataURL(source)
	case utils.IsURL(source):
		return l.LoadURL(ctx, source)
	default:
		return l.LoadFile(source)
	}
}

// LoadFile loads an image from a file path
func (l *Loader) LoadFile(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("failed to open image file: %w", err)
	}
	src, err := l.Decode(data)
	if err != nil {
		return Source{}, fmt.Errorf("%s: %w", path, err)
	}
	src.Name = utils.BaseNameWithoutExt(path)
	return src, nil
}

// LoadReader loads an image from an io.Reader
func (l *Loader) LoadReader(r io.Reader) (Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Source{}, fmt.Errorf("failed to read image data: %w", err)
	}
	return l.Decode(data)
}

// LoadURL downloads and decodes an image from an http or https URL
func (l *Loader) LoadURL(ctx context.Context, imageURL string) (Source, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return Source{}, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return Source{}, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return Source{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return Source{}, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Source{}, fmt.Errorf("failed to download image: HTTP %s", resp.Status)
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return Source{}, fmt.Errorf("%w: URL does not point to an image (Content-Type: %s)", ErrUnsupportedFormat, contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadSize))
	if err != nil {
		return Source{}, fmt.Errorf("failed to read image data: %w", err)
	}
	src, err := l.Decode(data)
	if err != nil {
		return Source{}, err
	}
	src.Name = utils.BaseNameWithoutExt(parsedURL.Path)
	logging.Logger().Info("image downloaded", "url", imageURL, "bytes", len(data))
	return src, nil
}

// Decode checks the format against the policy and decodes data, applying
// EXIF orientation
func (l *Loader) Decode(data []byte) (Source, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		// DecodeConfig only knows registered formats; try the WebP fallback
		img, werr := webp.Decode(bytes.NewReader(data))
		if werr != nil {
			return Source{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		return l.validate(Source{Image: img, Format: "webp"})
	}
	if !l.isFormatSupported(format) {
		return Source{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil && format == "webp" {
		img, err = webp.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return Source{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return l.validate(Source{Image: img, Format: format})
}

// validate checks if an image meets minimum requirements
func (l *Loader) validate(src Source) (Source, error) {
	if !l.isFormatSupported(src.Format) {
		return Source{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, src.Format)
	}
	b := src.Image.Bounds()
	if b.Empty() {
		return Source{}, fmt.Errorf("%w: empty image", ErrDecode)
	}
	if b.Dx() < l.config.MinImageSize || b.Dy() < l.config.MinImageSize {
		return Source{}, fmt.Errorf("%w: %dx%d (minimum: %d)",
			ErrImageTooSmall, b.Dx(), b.Dy(), l.config.MinImageSize)
	}
	return src, nil
}

func (l *Loader) isFormatSupported(format string) bool {
	return slices.ContainsFunc(l.config.SupportedFormats, func(s string) bool {
		return strings.EqualFold(s, format) || (strings.EqualFold(s, "jpg") && format == "jpeg")
	})
}

// EncodeDataURL embeds img as a PNG data URL
func EncodeDataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeDataURL decodes a base64 data URL such as "data:image/png;base64,..."
func (l *Loader) DecodeDataURL(dataURL string) (Source, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return Source{}, fmt.Errorf("%w: not a data URL", ErrDecode)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return Source{}, fmt.Errorf("%w: data URL is not base64 encoded", ErrDecode)
	}
	if mime := strings.TrimSuffix(meta, ";base64"); mime != "" && !strings.HasPrefix(mime, "image/") {
		return Source{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mime)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return l.Decode(data)
}
