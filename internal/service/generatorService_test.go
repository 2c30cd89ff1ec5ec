package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeti-set-go/asset-pipeline/internal/catalog"
	"github.com/yeti-set-go/asset-pipeline/internal/database"
	"github.com/yeti-set-go/asset-pipeline/internal/entity"
	"github.com/yeti-set-go/asset-pipeline/internal/pkg/processor"
	"github.com/yeti-set-go/asset-pipeline/internal/pkg/storage"
)

type generatorCall struct {
	prompt      string
	model       entity.FluxModel
	aspectRatio string
	reference   string
}

type stubGenerator struct {
	result []byte
	err    error
	calls  []generatorCall
}

func (s *stubGenerator) GenerateImage(ctx context.Context, prompt string, model entity.FluxModel, aspectRatio string, referenceImage string) ([]byte, error) {
	s.calls = append(s.calls, generatorCall{prompt: prompt, model: model, aspectRatio: aspectRatio, reference: referenceImage})
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func newTestService(t *testing.T, generator ImageGenerator) (*generatorService, storage.FileStorage) {
	t.Helper()

	store := storage.NewFileStorage(t.TempDir())
	svc := &generatorService{
		generator:     generator,
		processor:     processor.NewPostProcessor(),
		storage:       store,
		repo:          database.NewAssetRepository(store),
		catalog:       catalog.New(),
		courtesyDelay: 3 * time.Second,
		sleep:         func(time.Duration) {},
	}
	return svc, store
}

// generatedPNG is a stand-in for what the backend returns: a large opaque
// RGB render that still needs resizing and alpha conversion.
func generatedPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 206, G: 241, B: 255, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestGenerateAssetProducesFileAtExpectedPath(t *testing.T) {
	generator := &stubGenerator{result: generatedPNG(t, 512, 512)}
	svc, store := newTestService(t, generator)

	spec := &entity.AssetSpec{
		Name:        "yeti_jump_no_bg",
		Type:        entity.AssetYetiSprite,
		Width:       60,
		Height:      60,
		Description: "Same yeti character, jumping pose, both legs tucked up",
		Model:       entity.ModelKontextPro,
		AspectRatio: "1:1",
	}

	ok := svc.GenerateAsset(context.Background(), spec, "")
	require.True(t, ok)

	data, err := store.ReadBytes("yeti_jump_no_bg.png")
	require.NoError(t, err)

	result, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 60, result.Bounds().Dx())
	assert.Equal(t, 60, result.Bounds().Dy())
}

func TestGenerateAssetFailureWritesNoFile(t *testing.T) {
	generator := &stubGenerator{err: entity.ErrGenerationRejected}
	svc, store := newTestService(t, generator)

	spec, found := svc.catalog.ByName("yeti_jump_no_bg")
	require.True(t, found)

	ok := svc.GenerateAsset(context.Background(), spec, "")

	assert.False(t, ok)
	assert.False(t, store.Exists("yeti_jump_no_bg.png"))
}

func TestGenerateAssetRecordsOutcome(t *testing.T) {
	generator := &stubGenerator{result: generatedPNG(t, 512, 512)}
	svc, _ := newTestService(t, generator)

	spec, found := svc.catalog.ByName("yeti_cheer_no_bg")
	require.True(t, found)

	require.True(t, svc.GenerateAsset(context.Background(), spec, ""))

	record, err := svc.repo.FindByName("yeti_cheer_no_bg")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, entity.RecordCompleted, record.Status)
	assert.Equal(t, "yeti_cheer_no_bg.png", record.Path)

	// now a failure overwrites the record
	generator.err = errors.New("backend unavailable")
	assert.False(t, svc.GenerateAsset(context.Background(), spec, ""))

	record, err = svc.repo.FindByName("yeti_cheer_no_bg")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, entity.RecordFailed, record.Status)
}

func TestGenerateAssetVariationNaming(t *testing.T) {
	generator := &stubGenerator{result: generatedPNG(t, 512, 512)}
	svc, store := newTestService(t, generator)

	spec := &entity.AssetSpec{
		Name:        "pipeline_track",
		Type:        entity.AssetEnvironment,
		Width:       128,
		Height:      32,
		Description: "conveyor belt track",
		Model:       entity.ModelKontextPro,
		AspectRatio: "4:1",
	}

	require.True(t, svc.GenerateAsset(context.Background(), spec, "snowy"))
	assert.True(t, store.Exists("pipeline_track_snowy.png"))
}

func TestGenerateBatchContinuesAfterFailures(t *testing.T) {
	generator := &stubGenerator{result: generatedPNG(t, 512, 512)}
	svc, store := newTestService(t, generator)

	// fail the first generation only
	firstCall := true
	svc.generator = generatorFunc(func(ctx context.Context, prompt string, model entity.FluxModel, aspectRatio, ref string) ([]byte, error) {
		if firstCall {
			firstCall = false
			return nil, entity.ErrTimeout
		}
		return generator.result, nil
	})

	ok := svc.GenerateBatch(context.Background(), "yeti")

	assert.True(t, ok, "batch succeeds when at least one asset succeeds")
	assert.False(t, store.Exists("yeti_run_frame1_left_foot_forward_no_bg.png"))
	assert.True(t, store.Exists("yeti_jump_no_bg.png"))
}

func TestGenerateBatchUnknownGroup(t *testing.T) {
	svc, _ := newTestService(t, &stubGenerator{})

	assert.False(t, svc.GenerateBatch(context.Background(), "no_such_group"))
}

type generatorFunc func(ctx context.Context, prompt string, model entity.FluxModel, aspectRatio, referenceImage string) ([]byte, error)

func (f generatorFunc) GenerateImage(ctx context.Context, prompt string, model entity.FluxModel, aspectRatio, referenceImage string) ([]byte, error) {
	return f(ctx, prompt, model, aspectRatio, referenceImage)
}

func TestAnimationSequenceUsesStyleGuideForBothFrames(t *testing.T) {
	generator := &stubGenerator{result: generatedPNG(t, 512, 512)}
	svc, store := newTestService(t, generator)

	styleBytes := generatedPNG(t, 512, 512)
	require.NoError(t, store.SaveBytes("style_reference.png", styleBytes))

	ok := svc.GenerateAnimationSequence(context.Background())
	require.True(t, ok)

	assert.True(t, store.Exists("yeti_run_frame1_left_foot_forward_no_bg.png"))
	assert.True(t, store.Exists("yeti_run_frame3_both_feet_contact_no_bg.png"))

	// both frames must reference the style guide, not each other
	require.Len(t, generator.calls, 2)
	wantRef := base64.StdEncoding.EncodeToString(styleBytes)
	assert.Equal(t, wantRef, generator.calls[0].reference)
	assert.Equal(t, wantRef, generator.calls[1].reference)
}

func TestAnimationSequenceRequiresStyleGuide(t *testing.T) {
	generator := &stubGenerator{result: generatedPNG(t, 512, 512)}
	svc, _ := newTestService(t, generator)

	assert.False(t, svc.GenerateAnimationSequence(context.Background()))
	assert.Empty(t, generator.calls)
}

func TestGenerateStyleGuideFirstMarksReferences(t *testing.T) {
	generator := &stubGenerator{result: generatedPNG(t, 512, 512)}
	svc, store := newTestService(t, generator)

	require.True(t, svc.GenerateStyleGuideFirst(context.Background(), ""))
	assert.True(t, store.Exists("style_reference.png"))

	spec, found := svc.catalog.ByName("yeti_jump_no_bg")
	require.True(t, found)
	assert.Equal(t, store.FullPath("style_reference.png"), spec.ReferenceImagePath)
	assert.Equal(t, entity.ModelKontextPro, spec.Model)
}

// The HTTP handlers wire style references on the request goroutine and run
// the generation itself on a background one, so both must be safe to
// interleave against the shared catalog.
func TestGenerateAssetConcurrentWithStyleReferenceSetup(t *testing.T) {
	generator := &stubGenerator{result: generatedPNG(t, 512, 512)}
	svc, store := newTestService(t, generator)

	require.NoError(t, store.SaveBytes("style_reference.png", generatedPNG(t, 512, 512)))

	spec, found := svc.catalog.ByName("yeti_jump_no_bg")
	require.True(t, found)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			svc.SetupStyleReferences()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			svc.GenerateAsset(context.Background(), spec, "")
		}
	}()
	wg.Wait()

	assert.True(t, store.Exists("yeti_jump_no_bg.png"))
}

func TestMakeTransparentSkipsAlreadyConverted(t *testing.T) {
	svc, store := newTestService(t, &stubGenerator{})

	white := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			white.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, white))

	require.NoError(t, store.SaveBytes("yeti_jump_no_bg.png", buf.Bytes()))
	require.NoError(t, store.SaveBytes("yeti_jump_no_bg_transparent.png", buf.Bytes()))

	count := svc.MakeTransparent("")

	assert.Equal(t, 1, count)
	assert.True(t, store.Exists("yeti_jump_no_bg_transparent.png"))
}

func TestRemoveBackgroundKeepsOriginalSize(t *testing.T) {
	generator := &stubGenerator{result: generatedPNG(t, 512, 512)}
	svc, _ := newTestService(t, generator)

	dir := t.TempDir()
	input := filepath.Join(dir, "hero.png")
	require.NoError(t, os.WriteFile(input, generatedPNG(t, 120, 80), 0644))

	require.True(t, svc.RemoveBackground(context.Background(), input, ""))

	output := filepath.Join(dir, "hero_no_bg.png")
	data, err := os.ReadFile(output)
	require.NoError(t, err)

	result, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 120, result.Bounds().Dx())
	assert.Equal(t, 80, result.Bounds().Dy())
}
