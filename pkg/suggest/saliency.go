package suggest

import (
	"context"
	"fmt"
	"image"
	"math"
	"slices"

	"github.com/disintegration/imaging"

	"github.com/menta2k/zone-cropper/internal/logging"
	"github.com/menta2k/zone-cropper/pkg/types"
)

// SaliencyConfig holds configuration for saliency detection
type SaliencyConfig struct {
	EdgeThreshold   float64
	ContrastWeight  float64
	ColorWeight     float64
	MinSubjectRatio float64
	// MaxOverlap is the IoU above which a weaker window is suppressed
	MaxOverlap  float64
	MaxSubjects int
	// MaxDimension bounds the working copy; the search runs on a downscaled image
	MaxDimension int
}

// DefaultSaliencyConfig returns the tuned defaults
func DefaultSaliencyConfig() SaliencyConfig {
	return SaliencyConfig{
		EdgeThreshold:   0.01,
		ContrastWeight:  0.3,
		ColorWeight:     0.2,
		MinSubjectRatio: 0.02,
		MaxOverlap:      0.3,
		MaxSubjects:     5,
		MaxDimension:    256,
	}
}

// SaliencyDetector finds high-contrast regions with a sliding window over an
// edge and brightness map
type SaliencyDetector struct {
	config SaliencyConfig
}

// NewSaliencyDetector creates a detector with the default configuration
func NewSaliencyDetector() *SaliencyDetector {
	return &SaliencyDetector{config: DefaultSaliencyConfig()}
}

// NewSaliencyDetectorWithConfig creates a detector with a custom configuration
func NewSaliencyDetectorWithConfig(config SaliencyConfig) *SaliencyDetector {
	return &SaliencyDetector{config: config}
}

type window struct {
	x, y, size int
	score      float64
}

// Detect implements Detector
func (d *SaliencyDetector) Detect(ctx context.Context, img image.Image) ([]Subject, error) {
	b := img.Bounds()
	if b.Dx() < 3 || b.Dy() < 3 {
		return nil, fmt.Errorf("image too small for saliency detection: %dx%d", b.Dx(), b.Dy())
	}

	work := imaging.Clone(img)
	if d.config.MaxDimension > 0 && (b.Dx() > d.config.MaxDimension || b.Dy() > d.config.MaxDimension) {
		work = imaging.Fit(img, d.config.MaxDimension, d.config.MaxDimension, imaging.Box)
	}
	width, height := work.Bounds().Dx(), work.Bounds().Dy()

	saliency := d.saliencyMap(work)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	windows := d.findWindows(saliency, width, height)
	windows = d.suppress(windows, width, height)

	subjects := make([]Subject, 0, len(windows))
	for _, w := range windows {
		subjects = append(subjects, Subject{
			Label:      "salient",
			Confidence: math.Min(1, w.score),
			Box: types.Box{
				X: float64(w.x) / float64(width),
				Y: float64(w.y) / float64(height),
				W: float64(w.size) / float64(width),
				H: float64(w.size) / float64(height),
			},
		})
	}
	logging.Logger().Debug("saliency detection", "work_w", width, "work_h", height, "subjects", len(subjects))
	return subjects, nil
}

// saliencyMap combines neighbor color difference with brightness per pixel
func (d *SaliencyDetector) saliencyMap(img *image.NRGBA) [][]float64 {
	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	m := make([][]float64, height)
	for i := range m {
		m[i] = make([]float64, width)
	}

	px := func(x, y int) (float64, float64, float64) {
		i := y*img.Stride + x*4
		return float64(img.Pix[i]), float64(img.Pix[i+1]), float64(img.Pix[i+2])
	}

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			r1, g1, b1 := px(x, y)
			var edge float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					r2, g2, b2 := px(x+dx, y+dy)
					edge += math.Sqrt((r1-r2)*(r1-r2) + (g1-g2)*(g1-g2) + (b1-b2)*(b1-b2))
				}
			}
			edge /= 8 * 255
			brightness := (r1 + g1 + b1) / (3 * 255)
			m[y][x] = d.config.ContrastWeight*edge + d.config.ColorWeight*brightness
		}
	}
	return m
}

func (d *SaliencyDetector) findWindows(m [][]float64, width, height int) []window {
	short := min(width, height)
	minArea := float64(width*height) * d.config.MinSubjectRatio

	var windows []window
	for _, size := range []int{short / 8, short / 6, short / 4, short / 3, short / 2} {
		if size < 4 || float64(size*size) < minArea {
			continue
		}
		step := max(1, size/8)
		for y := 0; y <= height-size; y += step {
			for x := 0; x <= width-size; x += step {
				score := regionScore(m, x, y, size)
				if score > d.config.EdgeThreshold {
					windows = append(windows, window{x: x, y: y, size: size, score: score})
				}
			}
		}
	}

	slices.SortStableFunc(windows, func(a, b window) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return 0
	})
	return windows
}

func regionScore(m [][]float64, x, y, size int) float64 {
	var total float64
	for ry := y; ry < y+size; ry++ {
		for rx := x; rx < x+size; rx++ {
			total += m[ry][rx]
		}
	}
	return total / float64(size*size)
}

// suppress keeps the strongest windows that do not overlap a kept one
func (d *SaliencyDetector) suppress(windows []window, width, height int) []window {
	box := func(w window) types.Box {
		return types.Box{
			X: float64(w.x) / float64(width),
			Y: float64(w.y) / float64(height),
			W: float64(w.size) / float64(width),
			H: float64(w.size) / float64(height),
		}
	}

	var kept []window
	for _, w := range windows {
		if d.config.MaxSubjects > 0 && len(kept) >= d.config.MaxSubjects {
			break
		}
		overlaps := slices.ContainsFunc(kept, func(k window) bool {
			return iou(box(k), box(w)) > d.config.MaxOverlap
		})
		if !overlaps {
			kept = append(kept, w)
		}
	}
	return kept
}
