package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeti-set-go/asset-pipeline/internal/entity"
	"github.com/yeti-set-go/asset-pipeline/internal/pkg/storage"
)

func newTestRepo(t *testing.T) AssetRepository {
	t.Helper()
	return NewAssetRepository(storage.NewFileStorage(t.TempDir()))
}

func TestSaveAndFindRecord(t *testing.T) {
	repo := newTestRepo(t)

	record := &entity.AssetRecord{
		Name:      "yeti_jump_no_bg",
		Status:    entity.RecordCompleted,
		Path:      "yeti_jump_no_bg.png",
		Model:     entity.ModelKontextPro,
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Save(record))

	found, err := repo.FindByName("yeti_jump_no_bg")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, record.Status, found.Status)
	assert.Equal(t, record.Path, found.Path)
	assert.Equal(t, record.Model, found.Model)
}

func TestFindMissingRecordReturnsNil(t *testing.T) {
	repo := newTestRepo(t)

	found, err := repo.FindByName("nothing_here")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestListReturnsAllRecords(t *testing.T) {
	repo := newTestRepo(t)

	for _, name := range []string{"background", "ui_frame", "pipeline_track"} {
		require.NoError(t, repo.Save(&entity.AssetRecord{
			Name:      name,
			Status:    entity.RecordCompleted,
			UpdatedAt: time.Now().UTC(),
		}))
	}

	records, err := repo.List()
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestDeleteRecord(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Save(&entity.AssetRecord{Name: "background", Status: entity.RecordFailed}))
	require.NoError(t, repo.Delete("background"))

	found, err := repo.FindByName("background")
	require.NoError(t, err)
	assert.Nil(t, found)

	// deleting twice is fine
	require.NoError(t, repo.Delete("background"))
}
