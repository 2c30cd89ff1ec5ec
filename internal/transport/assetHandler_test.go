package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeti-set-go/asset-pipeline/internal/catalog"
	"github.com/yeti-set-go/asset-pipeline/internal/database"
	"github.com/yeti-set-go/asset-pipeline/internal/entity"
	"github.com/yeti-set-go/asset-pipeline/internal/pkg/storage"
)

// stubGeneratorService records the specs the handlers hand to the
// background worker; everything else is a no-op.
type stubGeneratorService struct {
	styleWired bool
	generated  chan *entity.AssetSpec
	batches    chan string
}

func (s *stubGeneratorService) GenerateAsset(_ context.Context, spec *entity.AssetSpec, _ string) bool {
	if s.generated != nil {
		s.generated <- spec
	}
	return true
}

func (s *stubGeneratorService) GenerateBatch(_ context.Context, group string) bool {
	if s.batches != nil {
		s.batches <- group
	}
	return true
}

func (s *stubGeneratorService) GenerateAll(context.Context)                        {}
func (s *stubGeneratorService) GenerateStyleGuideFirst(context.Context, string) bool { return true }
func (s *stubGeneratorService) GenerateAnimationSequence(context.Context) bool       { return true }
func (s *stubGeneratorService) SetupStyleReferences() bool                           { s.styleWired = true; return true }
func (s *stubGeneratorService) EditImage(context.Context, string, string, string) bool {
	return true
}
func (s *stubGeneratorService) RemoveBackground(context.Context, string, string) bool { return true }
func (s *stubGeneratorService) BatchRemoveBackgrounds(context.Context) int            { return 0 }
func (s *stubGeneratorService) MakeTransparent(string) int                            { return 0 }

func newTestRouter(t *testing.T, generator *stubGeneratorService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := database.NewAssetRepository(storage.NewFileStorage(t.TempDir()))
	handler := NewAssetHandler(generator, catalog.New(), repo)
	return InitRoutes(handler)
}

func TestListAssetsDefaultsToNotGenerated(t *testing.T) {
	router := newTestRouter(t, &stubGeneratorService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/assets", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var assets []entity.AssetResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &assets))
	require.Len(t, assets, len(catalog.New().All()))
	for _, asset := range assets {
		assert.Equal(t, "not generated", asset.Status)
	}
}

func TestGetAssetUnknownName(t *testing.T) {
	router := newTestRouter(t, &stubGeneratorService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/assets/no_such_asset", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), entity.ErrAssetNotFound.Error())
}

func TestGenerateAssetRunsInBackground(t *testing.T) {
	generator := &stubGeneratorService{generated: make(chan *entity.AssetSpec, 1)}
	router := newTestRouter(t, generator)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/generate/yeti_jump_no_bg", nil))

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, generator.styleWired, "style references resolve before the worker starts")

	select {
	case spec := <-generator.generated:
		assert.Equal(t, "yeti_jump_no_bg", spec.Name)
	case <-time.After(time.Second):
		t.Fatal("background generation never started")
	}
}

func TestGenerateAssetUnknownName(t *testing.T) {
	generator := &stubGeneratorService{generated: make(chan *entity.AssetSpec, 1)}
	router := newTestRouter(t, generator)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/generate/no_such_asset", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), entity.ErrAssetNotFound.Error())
	assert.Empty(t, generator.generated)
}

func TestGenerateBatchUnknownGroup(t *testing.T) {
	router := newTestRouter(t, &stubGeneratorService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/batch/no_such_group", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), entity.ErrBatchNotFound.Error())
}

func TestGenerateBatchAcceptsAnimationGroup(t *testing.T) {
	generator := &stubGeneratorService{batches: make(chan string, 1)}
	router := newTestRouter(t, generator)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/batch/yeti_run", nil))

	require.Equal(t, http.StatusAccepted, w.Code)

	select {
	case group := <-generator.batches:
		assert.Equal(t, "yeti_run", group)
	case <-time.After(time.Second):
		t.Fatal("background batch never started")
	}
}
