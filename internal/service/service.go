package service

import (
	"context"
	"net/http"
	"time"

	"github.com/yeti-set-go/asset-pipeline/config"
	"github.com/yeti-set-go/asset-pipeline/internal/catalog"
	"github.com/yeti-set-go/asset-pipeline/internal/database"
	"github.com/yeti-set-go/asset-pipeline/internal/entity"
	"github.com/yeti-set-go/asset-pipeline/internal/pkg/kafka"
	"github.com/yeti-set-go/asset-pipeline/internal/pkg/processor"
	"github.com/yeti-set-go/asset-pipeline/internal/pkg/storage"
)

// ImageGenerator is the submit-and-poll workflow of the generation API.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, model entity.FluxModel, aspectRatio string, referenceImage string) ([]byte, error)
}

// GeneratorService orchestrates asset generation: prompt building,
// generation, post-processing and persistence. Failures never escape an
// asset boundary; every operation reports success as a boolean and logs
// the cause.
type GeneratorService interface {
	GenerateAsset(ctx context.Context, spec *entity.AssetSpec, variation string) bool
	GenerateBatch(ctx context.Context, group string) bool
	GenerateAll(ctx context.Context)
	GenerateStyleGuideFirst(ctx context.Context, referenceImagePath string) bool
	GenerateAnimationSequence(ctx context.Context) bool
	SetupStyleReferences() bool
	EditImage(ctx context.Context, inputPath, editPrompt, outputName string) bool
	RemoveBackground(ctx context.Context, imagePath, outputPath string) bool
	BatchRemoveBackgrounds(ctx context.Context) int
	MakeTransparent(pattern string) int
}

type generatorService struct {
	generator ImageGenerator
	processor processor.PostProcessor
	storage   storage.FileStorage
	repo      database.AssetRepository
	producer  kafka.Producer
	catalog   *catalog.Catalog

	courtesyDelay time.Duration
	sleep         func(time.Duration)
}

func NewGeneratorService(
	generator ImageGenerator,
	proc processor.PostProcessor,
	store storage.FileStorage,
	repo database.AssetRepository,
	producer kafka.Producer,
	cat *catalog.Catalog,
	cfg config.GeneratorConfig,
) GeneratorService {
	return &generatorService{
		generator:     generator,
		processor:     proc,
		storage:       store,
		repo:          repo,
		producer:      producer,
		catalog:       cat,
		courtesyDelay: cfg.CourtesyDelay,
		sleep:         time.Sleep,
	}
}

// IconService builds the fixed item icon set from heroicons: download,
// recolor and rasterize.
type IconService interface {
	Run(ctx context.Context) error
	DownloadIcons(ctx context.Context) error
	RecolorIcons() error
	RasterizeIcons() error
}

type iconService struct {
	httpClient *http.Client
	baseURL    string
	assetsDir  string
	output     storage.FileStorage
	size       int

	lookPath func(string) (string, error)
	runCmd   func(name string, args ...string) error
}
