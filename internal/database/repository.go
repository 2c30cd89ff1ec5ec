package database

import (
	"github.com/yeti-set-go/asset-pipeline/internal/entity"
	"github.com/yeti-set-go/asset-pipeline/internal/pkg/storage"
)

// AssetRepository keeps per-asset generation records next to the artifacts,
// one JSON manifest per asset. There is no long-lived store beyond this.
type AssetRepository interface {
	Save(record *entity.AssetRecord) error
	FindByName(name string) (*entity.AssetRecord, error)
	List() ([]*entity.AssetRecord, error)
	Delete(name string) error
}

type fileAssetRepository struct {
	storage storage.FileStorage
}
