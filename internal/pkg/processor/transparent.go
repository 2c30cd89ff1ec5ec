package processor

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/yeti-set-go/asset-pipeline/internal/entity"
)

// Pixels with every channel above this value count as white background.
const whiteThreshold = 240

// MakeTransparent turns white and near-white pixels fully transparent.
// Generated sprites often come back on a white background even when the
// prompt asks for transparency; this strips it after the fact.
func (p *postProcessor) MakeTransparent(raw []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", entity.ErrPostProcess, err)
	}

	nrgba := imaging.Clone(img)
	for i := 0; i < len(nrgba.Pix); i += 4 {
		r, g, b := nrgba.Pix[i], nrgba.Pix[i+1], nrgba.Pix[i+2]
		if r > whiteThreshold && g > whiteThreshold && b > whiteThreshold {
			nrgba.Pix[i] = 255
			nrgba.Pix[i+1] = 255
			nrgba.Pix[i+2] = 255
			nrgba.Pix[i+3] = 0
		}
	}

	var buf bytes.Buffer
	err = imaging.Encode(&buf, nrgba, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %v", entity.ErrPostProcess, err)
	}

	return buf.Bytes(), nil
}
