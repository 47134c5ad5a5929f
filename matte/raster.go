package matte

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// ErrMalformedRaster reports a raster whose buffer does not match its shape.
var ErrMalformedRaster = errors.New("malformed raster")

// Raster is a row-major, non-premultiplied RGBA pixel buffer with four bytes
// per pixel and no row padding.
type Raster struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewRaster allocates a zeroed width x height raster.
func NewRaster(width, height int) *Raster {
	return &Raster{Width: width, Height: height, Pix: make([]uint8, width*height*4)}
}

// Validate checks that the buffer length equals Width*Height*4.
func (r *Raster) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil raster", ErrMalformedRaster)
	}
	if r.Width < 0 || r.Height < 0 {
		return fmt.Errorf("%w: negative size %dx%d", ErrMalformedRaster, r.Width, r.Height)
	}
	if want := r.Width * r.Height * 4; len(r.Pix) != want {
		return fmt.Errorf("%w: have %d bytes, want %d for %dx%d", ErrMalformedRaster, len(r.Pix), want, r.Width, r.Height)
	}
	return nil
}

// At returns the channels of pixel (x, y).
func (r *Raster) At(x, y int) (uint8, uint8, uint8, uint8) {
	i := (y*r.Width + x) * 4
	return r.Pix[i], r.Pix[i+1], r.Pix[i+2], r.Pix[i+3]
}

// Set writes the channels of pixel (x, y).
func (r *Raster) Set(x, y int, red, green, blue, alpha uint8) {
	i := (y*r.Width + x) * 4
	r.Pix[i], r.Pix[i+1], r.Pix[i+2], r.Pix[i+3] = red, green, blue, alpha
}

// FromRGB normalizes a packed three-channel buffer to RGBA with opaque alpha.
func FromRGB(width, height int, rgb []uint8) (*Raster, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: negative size %dx%d", ErrMalformedRaster, width, height)
	}
	if want := width * height * 3; len(rgb) != want {
		return nil, fmt.Errorf("%w: have %d RGB bytes, want %d for %dx%d", ErrMalformedRaster, len(rgb), want, width, height)
	}

	r := NewRaster(width, height)
	for i, j := 0, 0; i < len(rgb); i, j = i+3, j+4 {
		r.Pix[j] = rgb[i]
		r.Pix[j+1] = rgb[i+1]
		r.Pix[j+2] = rgb[i+2]
		r.Pix[j+3] = 255
	}
	return r, nil
}

// FromImage copies any decoded image into a Raster.
func FromImage(img image.Image) *Raster {
	n := toNRGBA(img)
	b := n.Bounds()
	r := NewRaster(b.Dx(), b.Dy())
	rowLen := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		si := n.PixOffset(b.Min.X, b.Min.Y+y)
		copy(r.Pix[y*rowLen:(y+1)*rowLen], n.Pix[si:si+rowLen])
	}
	return r
}

// Image wraps the raster as an *image.NRGBA sharing the same buffer.
func (r *Raster) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    r.Pix,
		Stride: r.Width * 4,
		Rect:   image.Rect(0, 0, r.Width, r.Height),
	}
}

// toNRGBA 转为 NRGBA，方便统一处理
func toNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba
	}
	b := img.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}
