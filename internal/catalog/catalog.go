// Static asset catalog: the full set of assets the game needs, kept as
// data so the orchestrator has no per-asset code branches.
package catalog

import (
	"sort"
	"sync"

	"github.com/yeti-set-go/asset-pipeline/internal/entity"
)

// Names of the two running animation frames, generated as a fixed
// two-step sequence against the style guide.
const (
	StyleGuideName = "style_reference"
	RunFrame1Name  = "yeti_run_frame1_left_foot_forward_no_bg"
	RunFrame2Name  = "yeti_run_frame3_both_feet_contact_no_bg"
)

// Catalog hands out detached spec copies: a caller may tune its copy for
// one generation while SetStyleReference rewires the canonical entries,
// possibly from another goroutine.
type Catalog struct {
	mu    sync.RWMutex
	specs []*entity.AssetSpec
}

func New() *Catalog {
	return &Catalog{specs: defaultSpecs()}
}

func defaultSpecs() []*entity.AssetSpec {
	specs := []*entity.AssetSpec{
		{
			Name:        StyleGuideName,
			Type:        entity.AssetStyleGuide,
			Width:       512,
			Height:      512,
			Description: "Cute yeti character for 2D endless runner game, white and blue fur, friendly cartoon face, simple clean art style, facing right, standing neutral pose",
			Model:       entity.ModelPro11,
			AspectRatio: "1:1",
		},
		{
			Name:        RunFrame1Name,
			Type:        entity.AssetYetiSprite,
			Width:       60,
			Height:      60,
			Description: "A single cute yeti character running, left foot forward, right arm extended back, left arm forward, animated sprite style, transparent colorless png background, matching the exact art style of the reference image, 2D cartoon illustration, simple shading, friendly expression, running pose frame 1",
			BatchGroup:  "yeti",
			Model:       entity.ModelKontextPro,
			AspectRatio: "1:1",
		},
		{
			Name:        RunFrame2Name,
			Type:        entity.AssetYetiSprite,
			Width:       60,
			Height:      60,
			Description: "A single cute yeti character running, right foot forward, left arm extended back, right arm forward, animated sprite style, transparent colorless png background, matching the exact art style of the reference image, 2D cartoon illustration, simple shading, friendly expression, running pose frame 2",
			BatchGroup:  "yeti",
			Model:       entity.ModelKontextPro,
			AspectRatio: "1:1",
		},
		{
			Name:        "yeti_jump_no_bg",
			Type:        entity.AssetYetiSprite,
			Width:       60,
			Height:      60,
			Description: "Same yeti character, jumping pose, both legs tucked up",
			BatchGroup:  "yeti",
			Model:       entity.ModelKontextPro,
			AspectRatio: "1:1",
		},
		{
			Name:        "yeti_cheer_no_bg",
			Type:        entity.AssetYetiSprite,
			Width:       60,
			Height:      60,
			Description: "Same yeti character, celebration pose, both arms raised high",
			BatchGroup:  "yeti",
			Model:       entity.ModelKontextPro,
			AspectRatio: "1:1",
		},
		{
			Name:        "yeti_stumble_no_bg",
			Type:        entity.AssetYetiSprite,
			Width:       60,
			Height:      60,
			Description: "Same yeti character, single yeti, transform from happy facial expression to sad, a little dazed, wobbly pose, stars circling head",
			BatchGroup:  "yeti",
			Model:       entity.ModelKontextPro,
			AspectRatio: "1:1",
		},
		{
			Name:        "pipeline_track",
			Type:        entity.AssetEnvironment,
			Width:       128,
			Height:      32,
			Description: "horizontal CI/CD pipeline conveyor belt track, pixel art style, industrial metal texture with subtle repeating pattern",
			Model:       entity.ModelKontextPro,
			AspectRatio: "4:1",
		},
		{
			Name:        "background",
			Type:        entity.AssetEnvironment,
			Width:       480,
			Height:      320,
			Description: "minimal cloud infrastructure background, soft gradient, simple design",
			Model:       entity.ModelKontextPro,
			AspectRatio: "3:2",
		},
		{
			Name:        "ui_frame",
			Type:        entity.AssetEnvironment,
			Width:       160,
			Height:      32,
			Description: "clean UI frame for progress counter, rounded corners, minimal design",
			Model:       entity.ModelKontextPro,
			AspectRatio: "4:1",
		},
	}
	return specs
}

func copyOf(spec *entity.AssetSpec) *entity.AssetSpec {
	cp := *spec
	return &cp
}

func (c *Catalog) All() []*entity.AssetSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()

	specs := make([]*entity.AssetSpec, 0, len(c.specs))
	for _, spec := range c.specs {
		specs = append(specs, copyOf(spec))
	}
	return specs
}

func (c *Catalog) ByName(name string) (*entity.AssetSpec, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, spec := range c.specs {
		if spec.Name == name {
			return copyOf(spec), true
		}
	}
	return nil, false
}

func (c *Catalog) ByBatchGroup(group string) []*entity.AssetSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var specs []*entity.AssetSpec
	for _, spec := range c.specs {
		if spec.BatchGroup == group {
			specs = append(specs, copyOf(spec))
		}
	}
	return specs
}

func (c *Catalog) ByType(assetType entity.AssetType) []*entity.AssetSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var specs []*entity.AssetSpec
	for _, spec := range c.specs {
		if spec.Type == assetType {
			specs = append(specs, copyOf(spec))
		}
	}
	return specs
}

func (c *Catalog) BatchGroups() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := map[string]bool{}
	var groups []string
	for _, spec := range c.specs {
		if spec.BatchGroup != "" && !seen[spec.BatchGroup] {
			seen[spec.BatchGroup] = true
			groups = append(groups, spec.BatchGroup)
		}
	}
	sort.Strings(groups)
	return groups
}

// SetStyleReference marks the style guide image as the reference for every
// yeti sprite, switching them to the kontext model. Item sprites stay on
// plain text-to-image so icons come out clean and simple.
func (c *Catalog) SetStyleReference(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, spec := range c.specs {
		switch spec.Type {
		case entity.AssetYetiSprite:
			spec.ReferenceImagePath = path
			spec.Model = entity.ModelKontextPro
		case entity.AssetItemSprite:
			spec.ReferenceImagePath = ""
			spec.Model = entity.ModelPro11
		}
	}
}
