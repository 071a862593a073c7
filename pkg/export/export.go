// Package export turns zones into encoded image files.
//
// Zones are processed one at a time in list order. Cancellation is
// cooperative and observed at exactly two points per zone: before the zone
// is rasterized and after it is encoded.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/menta2k/zone-cropper/internal/logging"
	"github.com/menta2k/zone-cropper/pkg/types"
)

var (
	// ErrCanceled reports a user-requested abort. It is never combined with
	// another failure.
	ErrCanceled = errors.New("export canceled")
	ErrSurface  = errors.New("cannot allocate export surface")
	ErrEncode   = errors.New("encode failed")
)

// NameFunc names the output file of the zone at index
type NameFunc func(z types.Zone, index int, ext string) string

// Options configures an export run
type Options struct {
	Format   Format
	Quality  int
	Lossless bool
	BaseName string
	// NameFunc overrides the default {base}_{NN}.{ext} naming
	NameFunc NameFunc
	// OnItem is called before zone index (0-based) is rasterized
	OnItem func(index, total int)
	// OnProgress is called after each completed zone
	OnProgress func(completed, total int)
	// ShouldCancel is polled before each zone and after each encode
	ShouldCancel func() bool
}

// Result is one encoded zone
type Result struct {
	Name   string
	ZoneID string
	Width  int
	Height int
	Data   []byte
}

// Export rasterizes, filters, clips and encodes every zone against src.
// The zone list and adjustments are copied at the start, so later edits do
// not affect a run in progress.
//
// On cancellation the results completed so far are returned together with
// ErrCanceled. Any other failure aborts the whole run.
func Export(ctx context.Context, src image.Image, zones []types.Zone, adj types.Adjustments, opts Options) ([]Result, error) {
	if src == nil {
		return nil, errors.New("no source image")
	}
	format, err := ParseFormat(string(opts.Format))
	if err != nil {
		return nil, err
	}
	zones = types.CloneZones(zones)
	nameFn := opts.NameFunc
	if nameFn == nil {
		nameFn = DefaultNameFunc(opts.BaseName)
	}

	canceled := func() bool {
		if ctx.Err() != nil {
			return true
		}
		return opts.ShouldCancel != nil && opts.ShouldCancel()
	}

	start := time.Now()
	names := newNameSet()
	results := make([]Result, 0, len(zones))
	total := len(zones)

	for i, z := range zones {
		if canceled() {
			return results, ErrCanceled
		}
		if opts.OnItem != nil {
			opts.OnItem(i, total)
		}

		img, err := Rasterize(src, z, adj)
		if err != nil {
			return nil, err
		}

		var buf bytes.Buffer
		if err := Encode(&buf, img, format, opts.Quality, opts.Lossless); err != nil {
			return nil, fmt.Errorf("%w: zone %s: %v", ErrEncode, z.ID, err)
		}

		if canceled() {
			return results, ErrCanceled
		}

		results = append(results, Result{
			Name:   names.unique(nameFn(z, i, format.Extension())),
			ZoneID: z.ID,
			Width:  img.Bounds().Dx(),
			Height: img.Bounds().Dy(),
			Data:   buf.Bytes(),
		})
		if opts.OnProgress != nil {
			opts.OnProgress(i+1, total)
		}
	}

	logging.Logger().Info("export finished", "zones", total, "format", format.Extension(), "elapsed", time.Since(start))
	return results, nil
}
