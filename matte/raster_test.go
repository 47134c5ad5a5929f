package matte

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRGB(t *testing.T) {
	t.Parallel()

	r, err := FromRGB(2, 1, []uint8{1, 2, 3, 250, 251, 252})
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 2, 3, 255, 250, 251, 252, 255}, r.Pix)
	require.NoError(t, r.Validate())

	_, err = FromRGB(2, 2, []uint8{1, 2, 3})
	assert.ErrorIs(t, err, ErrMalformedRaster)
}

func TestFromImageNormalizesToNRGBA(t *testing.T) {
	t.Parallel()

	// non-zero origin and a gray source exercise the conversion path
	src := image.NewGray(image.Rect(5, 5, 8, 7))
	src.SetGray(5, 5, color.Gray{Y: 245})
	src.SetGray(7, 6, color.Gray{Y: 12})

	r := FromImage(src)
	require.NoError(t, r.Validate())
	assert.Equal(t, 3, r.Width)
	assert.Equal(t, 2, r.Height)

	red, green, blue, alpha := r.At(0, 0)
	assert.Equal(t, [4]uint8{245, 245, 245, 255}, [4]uint8{red, green, blue, alpha})
	red, green, blue, alpha = r.At(2, 1)
	assert.Equal(t, [4]uint8{12, 12, 12, 255}, [4]uint8{red, green, blue, alpha})
}

func TestRasterImageSharesBuffer(t *testing.T) {
	t.Parallel()

	r := NewRaster(2, 2)
	r.Set(1, 1, 9, 8, 7, 6)
	img := r.Image()
	assert.Equal(t, color.NRGBA{R: 9, G: 8, B: 7, A: 6}, img.NRGBAAt(1, 1))

	img.SetNRGBA(0, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 4})
	red, green, blue, alpha := r.At(0, 1)
	assert.Equal(t, [4]uint8{1, 2, 3, 4}, [4]uint8{red, green, blue, alpha})
}

func TestTransformImage(t *testing.T) {
	t.Parallel()

	src := image.NewRGBA(image.Rect(10, 10, 12, 11))
	src.Set(10, 10, color.RGBA{R: 250, G: 250, B: 250, A: 255})
	src.Set(11, 10, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	got := TransformImage(src, DefaultConfig())
	assert.Equal(t, image.Rect(0, 0, 2, 1), got.Bounds())
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 0}, got.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, got.NRGBAAt(1, 0))
}
