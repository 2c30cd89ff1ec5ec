package entity

import "time"

type FluxModel string

const (
	ModelKontextPro FluxModel = "flux-kontext-pro"
	ModelKontextMax FluxModel = "flux-kontext-max"
	ModelPro11      FluxModel = "flux-pro-1.1"
	ModelPro        FluxModel = "flux-pro"
	ModelDev        FluxModel = "flux-dev"
)

// IsKontext reports whether the model accepts a reference input image.
func (m FluxModel) IsKontext() bool {
	return m == ModelKontextPro || m == ModelKontextMax
}

type AssetType string

const (
	AssetYetiSprite  AssetType = "yeti_sprite"
	AssetItemSprite  AssetType = "item_sprite"
	AssetEnvironment AssetType = "environment"
	AssetStyleGuide  AssetType = "style_guide"
)

type AssetSpec struct {
	Name               string    `json:"name"`
	Type               AssetType `json:"type"`
	Width              int       `json:"width"`
	Height             int       `json:"height"`
	Description        string    `json:"description"`
	Variations         []string  `json:"variations,omitempty"`
	BatchGroup         string    `json:"batch_group,omitempty"`
	Model              FluxModel `json:"model"`
	AspectRatio        string    `json:"aspect_ratio"`
	ReferenceImagePath string    `json:"reference_image_path,omitempty"`
}

// Filename returns the output file name for a spec and optional variation.
func (s *AssetSpec) Filename(variation string) string {
	if variation != "" {
		return s.Name + "_" + variation + ".png"
	}
	return s.Name + ".png"
}

// JobHandle identifies one in-flight generation request on the remote API.
type JobHandle struct {
	ID         string `json:"id"`
	PollingURL string `json:"polling_url"`
}

// Remote job statuses as reported by the generation API.
const (
	JobStatusReady     = "Ready"
	JobStatusPending   = "Pending"
	JobStatusError     = "Error"
	JobStatusModerated = "Content Moderated"
)

// Local asset record statuses.
const (
	RecordGenerating = "generating"
	RecordCompleted  = "completed"
	RecordFailed     = "failed"
)

type AssetRecord struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Path      string    `json:"path,omitempty"`
	Model     FluxModel `json:"model,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AssetEvent struct {
	ID        string    `json:"id"`
	Asset     string    `json:"asset"`
	Status    string    `json:"status"`
	Path      string    `json:"path,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type AssetResponse struct {
	Name   string    `json:"name"`
	Type   AssetType `json:"type"`
	Status string    `json:"status"`
	Path   string    `json:"path,omitempty"`
}

type GenerateResponse struct {
	Asset  string `json:"asset,omitempty"`
	Group  string `json:"group,omitempty"`
	Status string `json:"status"`
}
