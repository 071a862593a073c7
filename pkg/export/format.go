package export

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// Format is an output raster format
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	WebP Format = "webp"
)

// DefaultQuality is used when Options.Quality is outside 1..100
const DefaultQuality = 92

// ParseFormat accepts png, jpeg, jpg and webp in any case. An empty string
// selects PNG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	case "webp":
		return WebP, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Extension returns the file extension for f, without the dot
func (f Format) Extension() string {
	if f == "" {
		return string(PNG)
	}
	return string(f)
}

// MIMEType returns the media type written for f
func (f Format) MIMEType() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case WebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

// Encode writes img to w. Quality applies to JPEG and lossy WebP.
func Encode(w io.Writer, img image.Image, f Format, quality int, lossless bool) error {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	switch f {
	case "", PNG:
		enc := png.Encoder{CompressionLevel: png.DefaultCompression}
		return enc.Encode(w, img)
	case JPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case WebP:
		return webp.Encode(w, img, &webp.Options{Lossless: lossless, Quality: float32(quality)})
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}
