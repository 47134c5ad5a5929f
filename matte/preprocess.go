package matte

import (
	"context"
	"image"
)

// Preprocessor wraps a BackgroundRemover with the optional steps around it:
//
//	MaxSize          longest side is scaled down to MaxSize before matting
//	SkipTransparent  images that already carry transparency are returned as is
//	Trim             output is cropped to the bounding box of visible pixels
type Preprocessor struct {
	RemBG           BackgroundRemover
	MaxSize         int
	SkipTransparent bool
	Trim            bool
}

func NewPreprocessor(cfg Config) *Preprocessor {
	return &Preprocessor{
		RemBG: NewWhiteRemover(cfg),
	}
}

// Outcome is the result of one Process call.
type Outcome struct {
	Image   *image.NRGBA
	Skipped bool // SkipTransparent left the input untouched
}

func (p *Preprocessor) Process(ctx context.Context, input image.Image) (Outcome, error) {
	src := toNRGBA(input)

	if p.SkipTransparent && hasUsefulAlpha(src) {
		return Outcome{Image: src, Skipped: true}, nil
	}

	if p.MaxSize > 0 {
		src = resizeWithinMax(src, p.MaxSize)
	}

	output, err := p.RemBG.Remove(ctx, src)
	if err != nil {
		return Outcome{}, err
	}

	if p.Trim {
		if bbox, ok := alphaBBox(output, 0); ok {
			output = crop(output, bbox)
		}
	}

	return Outcome{Image: output}, nil
}
