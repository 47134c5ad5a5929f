package matte

import (
	"context"
	"image"
)

type BackgroundRemover interface {
	Remove(ctx context.Context, img image.Image) (*image.NRGBA, error)
}

// WhiteRemover removes near-white backgrounds. Workers controls row
// parallelism, see TransformParallel.
type WhiteRemover struct {
	Config  Config
	Workers int
}

func NewWhiteRemover(cfg Config) *WhiteRemover {
	return &WhiteRemover{Config: cfg}
}

func (w *WhiteRemover) Remove(ctx context.Context, img image.Image) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return transformNRGBA(toNRGBA(img), w.Config, w.Workers), nil
}
