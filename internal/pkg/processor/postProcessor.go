package processor

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/yeti-set-go/asset-pipeline/internal/entity"
)

// Small sprites get a sharpening pass to counteract resize blur.
const pixelArtThreshold = 64

type PostProcessor interface {
	Process(raw []byte, width, height int) ([]byte, error)
	MakeTransparent(raw []byte) ([]byte, error)
}

type postProcessor struct{}

func NewPostProcessor() PostProcessor {
	return &postProcessor{}
}

// Process decodes a generated image, resizes it to the exact target
// dimensions with a Lanczos filter and re-encodes it as an optimized PNG.
// The output always carries an alpha channel so transparency survives
// downstream.
func (p *postProcessor) Process(raw []byte, width, height int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", entity.ErrPostProcess, err)
	}

	// Resize returns NRGBA regardless of the source color mode.
	resized := imaging.Resize(img, width, height, imaging.Lanczos)

	if width <= pixelArtThreshold && height <= pixelArtThreshold {
		resized = imaging.Sharpen(resized, 1.0)
	}

	var buf bytes.Buffer
	err = imaging.Encode(&buf, resized, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %v", entity.ErrPostProcess, err)
	}

	return buf.Bytes(), nil
}
