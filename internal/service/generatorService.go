package service

import (
	"context"
	"encoding/base64"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yeti-set-go/asset-pipeline/internal/catalog"
	"github.com/yeti-set-go/asset-pipeline/internal/entity"
	"github.com/yeti-set-go/asset-pipeline/internal/pkg/prompt"
)

func (s *generatorService) styleGuideFile() string {
	return catalog.StyleGuideName + ".png"
}

// GenerateAsset runs one asset through the full pipeline: prompt, generate,
// post-process, persist. Returns false on any stage failure so batch
// callers can skip the asset and continue.
func (s *generatorService) GenerateAsset(ctx context.Context, spec *entity.AssetSpec, variation string) bool {
	hasReference := false
	referenceImage := ""
	if spec.ReferenceImagePath != "" {
		encoded, err := encodeImageToBase64(spec.ReferenceImagePath)
		if err != nil {
			logrus.Warnf("Reference image unreadable, generating without it: %v", err)
		} else {
			hasReference = true
			referenceImage = encoded
		}
	}

	promptText := prompt.Build(spec, variation, hasReference)
	filename := spec.Filename(variation)

	logrus.Infof("Generating: %s", filename)
	logrus.Infof("Model: %s", spec.Model)
	logrus.Infof("Prompt: %s", promptText)

	raw, err := s.generator.GenerateImage(ctx, promptText, spec.Model, spec.AspectRatio, referenceImage)
	if err != nil {
		logrus.Errorf("Failed to generate image: %v", err)
		s.recordFailure(spec, err)
		return false
	}

	processed, err := s.processor.Process(raw, spec.Width, spec.Height)
	if err != nil {
		logrus.Errorf("Failed to post-process image: %v", err)
		s.recordFailure(spec, err)
		return false
	}

	if err := s.storage.SaveBytes(filename, processed); err != nil {
		logrus.Errorf("Failed to save image: %v", err)
		s.recordFailure(spec, err)
		return false
	}

	logrus.Infof("Saved: %s", s.storage.FullPath(filename))
	s.recordSuccess(spec, filename)
	return true
}

// GenerateBatch processes each spec of a batch group (and its declared
// variations) sequentially with a courtesy delay between external calls.
// The yeti_run group is the fixed two-frame animation sequence.
func (s *generatorService) GenerateBatch(ctx context.Context, group string) bool {
	if group == "yeti_run" {
		return s.GenerateAnimationSequence(ctx)
	}

	specs := s.catalog.ByBatchGroup(group)
	if len(specs) == 0 {
		logrus.Errorf("No assets found for batch group: %s", group)
		return false
	}

	logrus.Infof("Generating batch: %s", group)
	successCount := 0

	for _, spec := range specs {
		if len(spec.Variations) > 0 {
			for _, variation := range spec.Variations {
				if s.GenerateAsset(ctx, spec, variation) {
					successCount++
				}
				s.courtesyWait()
			}
		} else {
			if s.GenerateAsset(ctx, spec, "") {
				successCount++
			}
			s.courtesyWait()
		}
	}

	logrus.Infof("Batch complete: %d assets generated", successCount)
	return successCount > 0
}

// GenerateAnimationSequence produces the two running frames. Both frames
// reference the style guide, not each other, so they stay anchored to the
// same character design.
func (s *generatorService) GenerateAnimationSequence(ctx context.Context) bool {
	if !s.storage.Exists(s.styleGuideFile()) {
		logrus.WithError(entity.ErrStyleGuideMissing).Error("Generate the style guide first")
		return false
	}
	stylePath := s.storage.FullPath(s.styleGuideFile())

	frame1, ok := s.catalog.ByName(catalog.RunFrame1Name)
	if !ok {
		logrus.Errorf("Asset not found: %s", catalog.RunFrame1Name)
		return false
	}
	frame1.ReferenceImagePath = stylePath
	frame1.Model = entity.ModelKontextPro

	logrus.Info("Generating Frame 1 (extended leap)...")
	if !s.GenerateAsset(ctx, frame1, "") {
		logrus.Error("Failed to generate frame 1")
		return false
	}

	s.courtesyWait()

	frame2, ok := s.catalog.ByName(catalog.RunFrame2Name)
	if !ok {
		logrus.Errorf("Asset not found: %s", catalog.RunFrame2Name)
		return false
	}
	frame2.ReferenceImagePath = stylePath
	frame2.Model = entity.ModelKontextPro

	logrus.Info("Generating Frame 2 (compressed crouch)...")
	if !s.GenerateAsset(ctx, frame2, "") {
		logrus.Error("Failed to generate frame 2")
		return false
	}

	logrus.Info("2-frame running animation complete!")
	return true
}

// GenerateStyleGuideFirst generates the style guide, optionally seeded with
// an external reference image, then marks it as the reference for all
// future yeti sprite generations.
func (s *generatorService) GenerateStyleGuideFirst(ctx context.Context, referenceImagePath string) bool {
	spec, ok := s.catalog.ByName(catalog.StyleGuideName)
	if !ok {
		logrus.Errorf("Asset not found: %s", catalog.StyleGuideName)
		return false
	}

	if referenceImagePath != "" {
		if _, err := os.Stat(referenceImagePath); err == nil {
			spec.ReferenceImagePath = referenceImagePath
			spec.Model = entity.ModelKontextPro
			logrus.Infof("Using reference image: %s", referenceImagePath)
		}
	}

	if !s.GenerateAsset(ctx, spec, "") {
		return false
	}

	stylePath := s.storage.FullPath(s.styleGuideFile())
	logrus.Infof("Style guide generated successfully: %s", stylePath)
	s.catalog.SetStyleReference(stylePath)
	return true
}

// SetupStyleReferences wires an already-generated style guide into the
// catalog, if one exists on disk.
func (s *generatorService) SetupStyleReferences() bool {
	if !s.storage.Exists(s.styleGuideFile()) {
		logrus.WithError(entity.ErrStyleGuideMissing).Warn("Generate one first")
		return false
	}

	stylePath := s.storage.FullPath(s.styleGuideFile())
	logrus.Infof("Found existing style guide: %s", stylePath)
	s.catalog.SetStyleReference(stylePath)
	return true
}

// GenerateAll runs the full catalog workflow: style guide, animation
// frames, remaining yeti poses, environment assets. Item icons come from
// the heroicons pipeline, not from generation.
func (s *generatorService) GenerateAll(ctx context.Context) {
	logrus.Info("Starting asset generation workflow...")

	if s.storage.Exists(s.styleGuideFile()) {
		logrus.Infof("Step 1: Using existing style guide: %s", s.storage.FullPath(s.styleGuideFile()))
		s.catalog.SetStyleReference(s.storage.FullPath(s.styleGuideFile()))
	} else {
		logrus.Info("Step 1: Generating style guide...")
		if !s.GenerateStyleGuideFirst(ctx, "") {
			logrus.Error("Style guide generation failed - aborting")
			return
		}
		s.courtesyWait()
	}

	logrus.Info("Step 2: Generating yeti animation frames...")
	if !s.GenerateAnimationSequence(ctx) {
		logrus.Error("Animation generation failed")
	}
	s.courtesyWait()

	logrus.Info("Step 3: Generating other yeti poses...")
	stylePath := s.storage.FullPath(s.styleGuideFile())
	for _, spec := range s.catalog.ByType(entity.AssetYetiSprite) {
		if strings.Contains(spec.Name, "frame") {
			continue
		}
		spec.ReferenceImagePath = stylePath
		s.GenerateAsset(ctx, spec, "")
		s.courtesyWait()
	}

	logrus.Info("Step 4: Skipping item icons (use the icons command instead)")

	logrus.Info("Step 5: Generating environment assets...")
	for _, spec := range s.catalog.ByType(entity.AssetEnvironment) {
		s.GenerateAsset(ctx, spec, "")
		s.courtesyWait()
	}

	logrus.Info("Asset generation complete!")
}

// EditImage performs an image-to-image edit on an existing file. The raw
// result is saved without resizing so edits keep the source resolution.
func (s *generatorService) EditImage(ctx context.Context, inputPath, editPrompt, outputName string) bool {
	encoded, err := encodeImageToBase64(inputPath)
	if err != nil {
		logrus.Errorf("Input image not found: %s", inputPath)
		return false
	}

	fullPrompt := prompt.BuildEdit(editPrompt)
	if outputName == "" {
		base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		outputName = base + "_edited"
	}

	logrus.Infof("Editing image: %s", inputPath)
	logrus.Infof("Edit prompt: %s", fullPrompt)

	raw, err := s.generator.GenerateImage(ctx, fullPrompt, entity.ModelKontextPro, "1:1", encoded)
	if err != nil {
		logrus.Errorf("Failed to edit image: %v", err)
		return false
	}

	filename := outputName + ".png"
	if err := s.storage.SaveBytes(filename, raw); err != nil {
		logrus.Errorf("Failed to save edited image: %v", err)
		return false
	}

	logrus.Infof("Edited image saved: %s", s.storage.FullPath(filename))
	return true
}

// RemoveBackground asks the kontext model to strip the background from an
// existing image, then post-processes the result back to the source size.
func (s *generatorService) RemoveBackground(ctx context.Context, imagePath, outputPath string) bool {
	encoded, err := encodeImageToBase64(imagePath)
	if err != nil {
		logrus.Errorf("Image not found: %s", imagePath)
		return false
	}

	width, height, err := imageDimensions(imagePath)
	if err != nil {
		logrus.Errorf("Failed to read image dimensions: %v", err)
		return false
	}

	if outputPath == "" {
		ext := filepath.Ext(imagePath)
		outputPath = strings.TrimSuffix(imagePath, ext) + "_no_bg" + ext
	}

	logrus.Infof("Removing background: %s", imagePath)

	raw, err := s.generator.GenerateImage(ctx, prompt.BackgroundRemoval, entity.ModelKontextPro, "1:1", encoded)
	if err != nil {
		logrus.Errorf("Failed to remove background: %v", err)
		return false
	}

	final, err := s.processor.Process(raw, width, height)
	if err != nil {
		logrus.Errorf("Failed to post-process background-removed image: %v", err)
		return false
	}

	if err := os.WriteFile(outputPath, final, 0644); err != nil {
		logrus.Errorf("Failed to save background-removed image: %v", err)
		return false
	}

	logrus.Infof("Background removed successfully: %s -> %s", imagePath, outputPath)
	return true
}

// BatchRemoveBackgrounds runs background removal over every PNG in the
// output directory that is not already a _no_bg result.
func (s *generatorService) BatchRemoveBackgrounds(ctx context.Context) int {
	names, err := s.storage.Glob("*.png")
	if err != nil {
		logrus.Errorf("Failed to list output directory: %v", err)
		return 0
	}

	var toProcess []string
	for _, name := range names {
		if !strings.Contains(name, "_no_bg") {
			toProcess = append(toProcess, name)
		}
	}
	if len(toProcess) == 0 {
		logrus.Warn("No files to process")
		return 0
	}

	logrus.Infof("Processing %d images for background removal...", len(toProcess))
	successCount := 0
	for _, name := range toProcess {
		input := s.storage.FullPath(name)
		if s.RemoveBackground(ctx, input, "") {
			successCount++
		}
		s.courtesyWait()
	}

	logrus.Infof("Background removal complete: %d/%d images processed", successCount, len(toProcess))
	return successCount
}

// MakeTransparent applies the white-to-transparent conversion to output
// files matching the pattern, writing _transparent siblings.
func (s *generatorService) MakeTransparent(pattern string) int {
	if pattern == "" {
		pattern = "yeti_*.png"
	}

	names, err := s.storage.Glob(pattern)
	if err != nil {
		logrus.Errorf("Failed to list output directory: %v", err)
		return 0
	}

	count := 0
	for _, name := range names {
		if strings.Contains(name, "_transparent") {
			continue
		}

		data, err := s.storage.ReadBytes(name)
		if err != nil {
			logrus.Errorf("Failed to read %s: %v", name, err)
			continue
		}

		converted, err := s.processor.MakeTransparent(data)
		if err != nil {
			logrus.Errorf("Failed to convert %s: %v", name, err)
			continue
		}

		outName := strings.TrimSuffix(name, ".png") + "_transparent.png"
		if err := s.storage.SaveBytes(outName, converted); err != nil {
			logrus.Errorf("Failed to save %s: %v", outName, err)
			continue
		}

		logrus.Infof("Converted: %s -> %s", name, outName)
		count++
	}
	return count
}

func (s *generatorService) courtesyWait() {
	s.sleep(s.courtesyDelay)
}

func (s *generatorService) recordSuccess(spec *entity.AssetSpec, filename string) {
	now := time.Now()
	record := &entity.AssetRecord{
		Name:      spec.Name,
		Status:    entity.RecordCompleted,
		Path:      filename,
		Model:     spec.Model,
		UpdatedAt: now,
	}
	if err := s.repo.Save(record); err != nil {
		logrus.Warnf("Failed to save asset record: %v", err)
	}

	s.emitEvent(entity.AssetEvent{
		ID:        uuid.New().String(),
		Asset:     spec.Name,
		Status:    entity.RecordCompleted,
		Path:      filename,
		Timestamp: now,
	})
}

func (s *generatorService) recordFailure(spec *entity.AssetSpec, cause error) {
	now := time.Now()
	record := &entity.AssetRecord{
		Name:      spec.Name,
		Status:    entity.RecordFailed,
		Model:     spec.Model,
		Error:     cause.Error(),
		UpdatedAt: now,
	}
	if err := s.repo.Save(record); err != nil {
		logrus.Warnf("Failed to save asset record: %v", err)
	}

	s.emitEvent(entity.AssetEvent{
		ID:        uuid.New().String(),
		Asset:     spec.Name,
		Status:    entity.RecordFailed,
		Detail:    cause.Error(),
		Timestamp: now,
	})
}

func (s *generatorService) emitEvent(event entity.AssetEvent) {
	if s.producer == nil {
		return
	}
	if err := s.producer.SendEvent(event); err != nil {
		logrus.Warnf("Failed to publish asset event: %v", err)
	}
}

func encodeImageToBase64(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func imageDimensions(path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
