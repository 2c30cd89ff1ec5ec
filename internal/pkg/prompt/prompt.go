// Prompt templating for the catalog asset types. The wording follows the
// BFL guidance of short prompts for kontext generations that carry a
// reference image and detailed style prompts for plain text-to-image.
package prompt

import (
	"fmt"

	"github.com/yeti-set-go/asset-pipeline/internal/entity"
)

// Fluree brand palette used across style prompts.
var BrandColors = map[string]string{
	"ice_blue":         "#CEF1FF",
	"vibrant_blue":     "#13C6FF",
	"deep":             "#091133",
	"fluree_safe_blue": "#00A0D1",
	"peak":             "#C6D4FF",
	"violet":           "#B775D6",
	"purple":           "#4B56A5",
	"plum":             "#171F69",
	"grey":             "#979797",
	"metal":            "#5D6970",
	"teal":             "#18CFDB",
	"ember":            "#FF4C13",
}

const iconStyle = "simple flat design, solid colors, transparent background, clean minimal icon, no gradients, no shadows"

// BackgroundRemoval is the fixed prompt for the AI background-removal pass.
const BackgroundRemoval = "Remove the background completely, make it transparent, keep only the main subject, PNG format with alpha channel, isolated subject on transparent background"

// Build assembles the generation prompt for a spec and optional variation.
// hasReference switches yeti sprites to a minimal prompt, since the kontext
// reference image already carries the style.
func Build(spec *entity.AssetSpec, variation string, hasReference bool) string {
	var prompt string

	switch spec.Type {
	case entity.AssetItemSprite:
		prompt = spec.Description

	case entity.AssetYetiSprite:
		if hasReference {
			prompt = spec.Description
		} else {
			prompt = fmt.Sprintf("%s, white (%s) and blue (%s) fur, friendly cartoon style, clean pixel art",
				spec.Description, BrandColors["ice_blue"], BrandColors["vibrant_blue"])
		}

	case entity.AssetStyleGuide:
		prompt = spec.Description

	default:
		prompt = fmt.Sprintf("%s, pixel art style, clean minimal design, %s and %s color accents",
			spec.Description, BrandColors["vibrant_blue"], BrandColors["peak"])
	}

	if variation != "" {
		prompt += ", " + variation
	}
	return prompt
}

// BuildIcon makes an ultra-simple icon prompt with a pixel-size hint.
func BuildIcon(spec *entity.AssetSpec, variation string) string {
	prompt := fmt.Sprintf("%s, %s", spec.Description, iconStyle)
	if variation != "" {
		prompt += ", " + variation
	}
	prompt += fmt.Sprintf(", optimized for %dx%d pixel display", spec.Width, spec.Height)
	return prompt
}

// BuildEdit wraps a free-form edit instruction for image-to-image edits.
func BuildEdit(instruction string) string {
	return instruction + ", keep the same character and art style, transparent background, PNG with alpha channel"
}
