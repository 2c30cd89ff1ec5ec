package transport

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yeti-set-go/asset-pipeline/internal/entity"
)

// ListAssets returns the catalog merged with the generation records.
func (h *AssetHandler) ListAssets(c *gin.Context) {
	records, err := h.repo.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	statusByName := make(map[string]*entity.AssetRecord, len(records))
	for _, record := range records {
		statusByName[record.Name] = record
	}

	assets := make([]entity.AssetResponse, 0, len(h.catalog.All()))
	for _, spec := range h.catalog.All() {
		response := entity.AssetResponse{
			Name:   spec.Name,
			Type:   spec.Type,
			Status: "not generated",
		}
		if record, ok := statusByName[spec.Name]; ok {
			response.Status = record.Status
			response.Path = record.Path
		}
		assets = append(assets, response)
	}

	c.JSON(http.StatusOK, assets)
}

// GetAsset returns the generation record for one asset.
func (h *AssetHandler) GetAsset(c *gin.Context) {
	name := c.Param("name")

	if _, ok := h.catalog.ByName(name); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": entity.ErrAssetNotFound.Error()})
		return
	}

	record, err := h.repo.FindByName(name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if record == nil {
		c.JSON(http.StatusOK, entity.AssetRecord{Name: name, Status: "not generated"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// GenerateAsset triggers generation of a single catalog asset. Generation
// takes minutes, so the request is accepted and runs in the background.
func (h *AssetHandler) GenerateAsset(c *gin.Context) {
	name := c.Param("name")

	// Wire style references first so the spec copy handed to the worker
	// already carries them.
	h.generator.SetupStyleReferences()

	spec, ok := h.catalog.ByName(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": entity.ErrAssetNotFound.Error()})
		return
	}

	variation := c.Query("variation")

	go func() {
		if !h.generator.GenerateAsset(context.Background(), spec, variation) {
			logrus.Errorf("Generation failed for asset: %s", name)
		}
	}()

	c.JSON(http.StatusAccepted, entity.GenerateResponse{Asset: name, Status: entity.RecordGenerating})
}

// GenerateBatch triggers generation of a batch group in the background.
func (h *AssetHandler) GenerateBatch(c *gin.Context) {
	group := c.Param("group")

	if group != "yeti_run" && len(h.catalog.ByBatchGroup(group)) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": entity.ErrBatchNotFound.Error()})
		return
	}

	h.generator.SetupStyleReferences()

	go func() {
		if !h.generator.GenerateBatch(context.Background(), group) {
			logrus.Errorf("Batch generation failed for group: %s", group)
		}
	}()

	c.JSON(http.StatusAccepted, entity.GenerateResponse{Group: group, Status: entity.RecordGenerating})
}
