package database

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/yeti-set-go/asset-pipeline/internal/entity"
	"github.com/yeti-set-go/asset-pipeline/internal/pkg/storage"
)

func NewAssetRepository(storage storage.FileStorage) AssetRepository {
	return &fileAssetRepository{storage: storage}
}

func (r *fileAssetRepository) Save(record *entity.AssetRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	return r.storage.Save(r.manifestPath(record.Name), bytes.NewReader(data))
}

func (r *fileAssetRepository) FindByName(name string) (*entity.AssetRecord, error) {
	reader, err := r.storage.Get(r.manifestPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer reader.Close()

	var record entity.AssetRecord
	if err := json.NewDecoder(reader).Decode(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *fileAssetRepository) List() ([]*entity.AssetRecord, error) {
	names, err := r.storage.Glob(filepath.Join("metadata", "*.json"))
	if err != nil {
		return nil, err
	}

	records := make([]*entity.AssetRecord, 0, len(names))
	for _, name := range names {
		base := strings.TrimSuffix(filepath.Base(name), ".json")
		record, err := r.FindByName(base)
		if err != nil || record == nil {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (r *fileAssetRepository) Delete(name string) error {
	if err := r.storage.Delete(r.manifestPath(name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (r *fileAssetRepository) manifestPath(name string) string {
	return filepath.Join("metadata", name+".json")
}
