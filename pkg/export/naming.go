package export

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/menta2k/zone-cropper/internal/utils"
	"github.com/menta2k/zone-cropper/pkg/types"
)

// DefaultBaseName is used when no base name is configured
const DefaultBaseName = "custom"

// DefaultNameFunc names files {base}_{NN}.{ext} with a 1-based, two digit index
func DefaultNameFunc(base string) NameFunc {
	base = baseOrDefault(base)
	return func(_ types.Zone, index int, ext string) string {
		return fmt.Sprintf("%s_%02d.%s", base, index+1, ext)
	}
}

// PatternNameFunc expands a pattern with {base}, {index}, {label}, {w} and
// {h}. {index} is 1-based and zero padded to two digits; {label} falls back
// to the zone kind. The extension is appended unless the pattern has it.
func PatternNameFunc(pattern, base string) NameFunc {
	if strings.TrimSpace(pattern) == "" {
		return DefaultNameFunc(base)
	}
	base = baseOrDefault(base)
	return func(z types.Zone, index int, ext string) string {
		w, h := SurfaceSize(z)
		label := z.Label
		if label == "" {
			label = string(z.Kind)
		}
		name := strings.NewReplacer(
			"{base}", base,
			"{index}", fmt.Sprintf("%02d", index+1),
			"{label}", label,
			"{w}", strconv.Itoa(w),
			"{h}", strconv.Itoa(h),
		).Replace(pattern)

		name = utils.SanitizeFilename(name)
		if name == "" {
			name = fmt.Sprintf("%s_%02d", base, index+1)
		}
		if !strings.EqualFold(utils.GetFileExtension(name), ext) {
			name += "." + ext
		}
		return name
	}
}

// ArchiveName returns the zip file name for a run: {base}_zones.zip
func ArchiveName(base string) string {
	return baseOrDefault(base) + "_zones.zip"
}

func baseOrDefault(base string) string {
	base = utils.SanitizeFilename(base)
	if base == "" {
		return DefaultBaseName
	}
	return base
}

// nameSet suffixes repeated names with _2, _3, ...
type nameSet map[string]int

func newNameSet() nameSet { return nameSet{} }

func (s nameSet) unique(name string) string {
	key := strings.ToLower(name)
	n := s[key]
	s[key] = n + 1
	if n == 0 {
		return name
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for {
		n++
		candidate := fmt.Sprintf("%s_%d%s", stem, n, ext)
		ck := strings.ToLower(candidate)
		if _, taken := s[ck]; !taken {
			s[ck] = 1
			return candidate
		}
	}
}
