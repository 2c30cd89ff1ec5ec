package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/yeti-set-go/asset-pipeline/config"
	"github.com/yeti-set-go/asset-pipeline/internal/catalog"
	"github.com/yeti-set-go/asset-pipeline/internal/database"
	"github.com/yeti-set-go/asset-pipeline/internal/pkg/flux"
	"github.com/yeti-set-go/asset-pipeline/internal/pkg/processor"
	"github.com/yeti-set-go/asset-pipeline/internal/pkg/storage"
	"github.com/yeti-set-go/asset-pipeline/internal/service"
)

func main() {
	apiKey := flag.String("api-key", "", "Black Forest Labs API key (or set BFL_API_KEY env var)")
	region := flag.String("region", "global", "API region: global, eu or us")
	output := flag.String("output", "generated_assets", "output directory for generated assets")
	asset := flag.String("asset", "", "generate a specific asset by name")
	batch := flag.String("batch", "", "generate a batch group")
	all := flag.Bool("all", false, "generate all assets")
	styleGuideFirst := flag.Bool("style-guide-first", false, "generate the style guide first")
	referenceImage := flag.String("reference-image", "", "reference image for style guide generation")
	animationOnly := flag.Bool("animation-only", false, "generate just the yeti animation frames")
	icons := flag.Bool("icons", false, "download, recolor and rasterize the item icons")
	makeTransparent := flag.Bool("make-transparent", false, "convert white backgrounds to transparent in generated sprites")
	edit := flag.String("edit", "", "edit an existing image (provide image path)")
	editPrompt := flag.String("edit-prompt", "", "edit instruction for -edit")
	removeBg := flag.String("remove-bg", "", "remove background from an existing image (provide image path)")
	batchRemoveBg := flag.Bool("batch-remove-bg", false, "remove backgrounds from all generated images")
	flag.Parse()

	cfg := config.Default()
	if *apiKey != "" {
		cfg.Flux.APIKey = *apiKey
	}
	cfg.Flux.Region = *region
	cfg.Generator.OutputDir = *output

	fileStorage := storage.NewFileStorage(cfg.Generator.OutputDir)
	assetCatalog := catalog.New()
	assetRepo := database.NewAssetRepository(fileStorage)
	postProcessor := processor.NewPostProcessor()

	// Kafka eventing is a service-mode concern; the CLI runs without it.
	fluxClient := flux.NewClient(cfg.Flux)
	generator := service.NewGeneratorService(fluxClient, postProcessor, fileStorage, assetRepo, nil, assetCatalog, cfg.Generator)
	iconPipeline := service.NewIconService(cfg.Icons, fileStorage)

	ctx := context.Background()

	// local-only modes need no API key
	switch {
	case *icons:
		if err := iconPipeline.Run(ctx); err != nil {
			logrus.Fatalf("Icon pipeline failed: %v", err)
		}
		return
	case *makeTransparent:
		count := generator.MakeTransparent("")
		logrus.Infof("Done! %d transparent versions created with '_transparent' suffix", count)
		return
	}

	if cfg.Flux.APIKey == "" {
		fmt.Fprintln(os.Stderr, "Error: API key required. Use -api-key or set BFL_API_KEY environment variable")
		os.Exit(1)
	}

	ok := true
	switch {
	case *edit != "":
		if *editPrompt == "" {
			fmt.Fprintln(os.Stderr, "Error: -edit requires -edit-prompt")
			os.Exit(1)
		}
		ok = generator.EditImage(ctx, *edit, *editPrompt, "")

	case *removeBg != "":
		ok = generator.RemoveBackground(ctx, *removeBg, "")

	case *batchRemoveBg:
		ok = generator.BatchRemoveBackgrounds(ctx) > 0

	case *styleGuideFirst:
		ok = generator.GenerateStyleGuideFirst(ctx, *referenceImage)

	case *all:
		generator.GenerateAll(ctx)

	case *animationOnly:
		ok = generator.GenerateAnimationSequence(ctx)

	case *batch != "":
		generator.SetupStyleReferences()
		ok = generator.GenerateBatch(ctx, *batch)

	case *asset != "":
		// wire style references before the lookup so the copy carries them
		generator.SetupStyleReferences()
		spec, found := assetCatalog.ByName(*asset)
		if !found {
			fmt.Fprintf(os.Stderr, "Asset not found: %s\n", *asset)
			os.Exit(1)
		}
		ok = generator.GenerateAsset(ctx, spec, "")

	default:
		printUsage(assetCatalog)
		return
	}

	if !ok {
		os.Exit(1)
	}
}

func printUsage(assetCatalog *catalog.Catalog) {
	fmt.Println("Usage examples:")
	fmt.Println("  Generate style guide first: -style-guide-first")
	fmt.Println("  Generate style guide with reference: -style-guide-first -reference-image fluree_logo.png")
	fmt.Println("  Generate all assets: -all")
	fmt.Println("  Generate the 2-frame animation: -animation-only")
	fmt.Println("  Generate specific asset: -asset yeti_jump_no_bg")
	fmt.Println("  Generate batch: -batch yeti")
	fmt.Println("  Item icons: -icons")
	fmt.Println("  White background to transparent: -make-transparent")
	fmt.Println("  Edit single image: -edit path/to/image.png -edit-prompt 'make it brighter'")
	fmt.Println("  Remove background: -remove-bg path/to/image.png")
	fmt.Println("  Batch background removal: -batch-remove-bg")

	fmt.Println("\nAvailable assets:")
	for _, spec := range assetCatalog.All() {
		fmt.Printf("  %s (%s, %s)\n", spec.Name, spec.Type, spec.Model)
	}

	fmt.Println("\nAvailable batch groups:")
	for _, group := range assetCatalog.BatchGroups() {
		fmt.Printf("  %s\n", group)
	}
}
