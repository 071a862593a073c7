// Package filter applies the brightness/contrast/saturation/blur adjustment
// shared by the preview and every exported zone.
package filter

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/disintegration/imaging"

	"github.com/menta2k/zone-cropper/pkg/types"
)

// String returns the CSS filter expression for adj, e.g.
// "brightness(110%) contrast(100%) saturate(95%) blur(0px)"
func String(adj types.Adjustments) string {
	return fmt.Sprintf("brightness(%s%%) contrast(%s%%) saturate(%s%%) blur(%spx)",
		num(100+adj.Brightness), num(100+adj.Contrast), num(100+adj.Saturation), num(adj.Blur))
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Apply returns a filtered copy of img. The stages run in the order of
// String: brightness, contrast, saturation, then blur. Neutral adjustments
// return an unmodified copy.
func Apply(img image.Image, adj types.Adjustments) *image.NRGBA {
	if adj.IsNeutral() {
		return imaging.Clone(img)
	}

	var out *image.NRGBA
	if adj.Brightness != 0 {
		out = brightness(img, adj.Brightness)
	} else {
		out = imaging.Clone(img)
	}
	if adj.Contrast != 0 {
		out = imaging.AdjustContrast(out, adj.Contrast)
	}
	if adj.Saturation != 0 {
		out = imaging.AdjustSaturation(out, adj.Saturation)
	}
	if adj.Blur > 0 {
		out = imaging.Blur(out, adj.Blur)
	}
	return out
}

// brightness scales every channel by (100+percent)/100, matching the CSS
// brightness() function rather than imaging's additive AdjustBrightness.
func brightness(img image.Image, percent float64) *image.NRGBA {
	k := (100 + percent) / 100
	var lut [256]uint8
	for i := range lut {
		lut[i] = clampByte(float64(i) * k)
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: lut[c.R], G: lut[c.G], B: lut[c.B], A: c.A}
	})
}

func clampByte(v float64) uint8 {
	v += 0.5
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
