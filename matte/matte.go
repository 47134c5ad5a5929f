// Package matte removes near-white backgrounds from RGBA rasters.
//
// A pixel whose three color channels are all above the threshold becomes
// fully transparent white. With feathering enabled, a pixel that misses the
// background test but has at least one channel within FeatherBand of the
// threshold keeps its color and gets an alpha that falls as its brightest
// channel approaches 255. Every other pixel is copied unchanged.
package matte

import (
	"fmt"
	"image"
)

const (
	DefaultThreshold = 240
	MinThreshold     = 200
	MaxThreshold     = 250

	// FeatherBand is how far below the threshold a channel may sit and still
	// put its pixel in the feather zone.
	FeatherBand = 20
)

// Config holds the per-call transform parameters.
type Config struct {
	Threshold int
	Feather   bool
}

// DefaultConfig returns threshold 240 with feathering disabled.
func DefaultConfig() Config {
	return Config{Threshold: DefaultThreshold}
}

// ClampThreshold limits t to [MinThreshold, MaxThreshold].
func ClampThreshold(t int) int {
	return max(MinThreshold, min(MaxThreshold, t))
}

// Clamped returns a copy of c with its threshold clamped. Transform does not
// clamp on its own.
func (c Config) Clamped() Config {
	c.Threshold = ClampThreshold(c.Threshold)
	return c
}

func (c Config) String() string {
	return fmt.Sprintf("threshold=%d feather=%t", c.Threshold, c.Feather)
}

// featherAlpha[m] = int(255 * (1 - m/255)), truncated toward zero.
var featherAlpha [256]uint8

func init() {
	for m := 0; m < 256; m++ {
		v := 255 * (1 - float64(m)/255)
		featherAlpha[m] = uint8(int(v))
	}
}

// Pixel applies the matte rule to a single non-premultiplied pixel.
// The input alpha is only ever passed through.
func Pixel(r, g, b, a uint8, cfg Config) (uint8, uint8, uint8, uint8) {
	t := cfg.Threshold
	ri, gi, bi := int(r), int(g), int(b)

	if ri > t && gi > t && bi > t {
		return 255, 255, 255, 0
	}

	if cfg.Feather {
		ft := t - FeatherBand
		if ri > ft || gi > ft || bi > ft {
			return r, g, b, featherAlpha[max(r, g, b)]
		}
	}

	return r, g, b, a
}

// Transform returns a new raster with the background removed. src is left
// untouched. A malformed raster yields an error wrapping ErrMalformedRaster.
func Transform(src *Raster, cfg Config) (*Raster, error) {
	return TransformParallel(src, cfg, 1)
}

// TransformParallel is Transform with the rows split across workers
// goroutines. workers <= 0 uses GOMAXPROCS. The output is identical to
// Transform.
func TransformParallel(src *Raster, cfg Config, workers int) (*Raster, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}

	dst := NewRaster(src.Width, src.Height)
	rowLen := src.Width * 4
	parallelRows(src.Height, workers, func(y0, y1 int) {
		matteSpan(dst.Pix[y0*rowLen:y1*rowLen], src.Pix[y0*rowLen:y1*rowLen], cfg)
	})
	return dst, nil
}

// TransformImage normalizes img to non-premultiplied RGBA and removes its
// background.
func TransformImage(img image.Image, cfg Config) *image.NRGBA {
	return transformNRGBA(toNRGBA(img), cfg, 1)
}

func transformNRGBA(src *image.NRGBA, cfg Config, workers int) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	rowLen := b.Dx() * 4
	parallelRows(b.Dy(), workers, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			si := src.PixOffset(b.Min.X, b.Min.Y+y)
			di := y * dst.Stride
			matteSpan(dst.Pix[di:di+rowLen], src.Pix[si:si+rowLen], cfg)
		}
	})
	return dst
}

// matteSpan maps src into dst four bytes at a time. Both slices hold whole
// pixels and have the same length.
func matteSpan(dst, src []uint8, cfg Config) {
	for i := 0; i+3 < len(src); i += 4 {
		s := src[i : i+4 : i+4]
		d := dst[i : i+4 : i+4]
		d[0], d[1], d[2], d[3] = Pixel(s[0], s[1], s[2], s[3], cfg)
	}
}
