package transport

import (
	"github.com/yeti-set-go/asset-pipeline/internal/catalog"
	"github.com/yeti-set-go/asset-pipeline/internal/database"
	"github.com/yeti-set-go/asset-pipeline/internal/service"
)

type AssetHandler struct {
	generator service.GeneratorService
	catalog   *catalog.Catalog
	repo      database.AssetRepository
}

func NewAssetHandler(generator service.GeneratorService, cat *catalog.Catalog, repo database.AssetRepository) *AssetHandler {
	return &AssetHandler{generator: generator, catalog: cat, repo: repo}
}
