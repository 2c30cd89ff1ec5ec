package service

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/yeti-set-go/asset-pipeline/config"
	"github.com/yeti-set-go/asset-pipeline/internal/pkg/storage"
)

// Heroicons used by the game, keyed by upstream icon name.
var heroicons = []string{
	"check-circle",
	"shield-check",
	"rocket-launch",
	"hand-thumb-up",
	"bolt",
	"x-circle",
	"shield-exclamation",
	"bug-ant",
	"exclamation-triangle",
}

// Game item names mapped to their source icon.
var gameItems = map[string]string{
	// success scenarios, colored green
	"item_ci_pass":        "check-circle",
	"item_pr_merged":      "hand-thumb-up",
	"item_deploy_success": "rocket-launch",
	"item_code_review":    "shield-check",
	"item_tests_pass":     "bolt",

	// failure scenarios, colored red
	"item_ci_fail":        "x-circle",
	"item_test_fail":      "bug-ant",
	"item_merge_conflict": "exclamation-triangle",
	"item_security_vuln":  "shield-exclamation",
}

const (
	successColor = "#22C55E"
	failureColor = "#EF4444"
)

var (
	successColorRGBA = color.NRGBA{R: 0x22, G: 0xC5, B: 0x5E, A: 0xFF}
	failureColorRGBA = color.NRGBA{R: 0xEF, G: 0x44, B: 0x44, A: 0xFF}
)

func NewIconService(cfg config.IconsConfig, output storage.FileStorage) IconService {
	return &iconService{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    cfg.BaseURL,
		assetsDir:  cfg.AssetsDir,
		output:     output,
		size:       cfg.Size,
		lookPath:   exec.LookPath,
		runCmd: func(name string, args ...string) error {
			out, err := exec.Command(name, args...).CombinedOutput()
			if err != nil {
				return fmt.Errorf("%s failed: %v: %s", name, err, out)
			}
			return nil
		},
	}
}

// Run executes the full icon pipeline: download, recolor, rasterize.
func (s *iconService) Run(ctx context.Context) error {
	if err := s.DownloadIcons(ctx); err != nil {
		return err
	}
	if err := s.RecolorIcons(); err != nil {
		return err
	}
	return s.RasterizeIcons()
}

// DownloadIcons fetches the source SVGs from the heroicons repository.
func (s *iconService) DownloadIcons(ctx context.Context) error {
	if err := os.MkdirAll(s.assetsDir, 0755); err != nil {
		return err
	}

	logrus.Info("Downloading heroicons SVGs...")
	for _, name := range heroicons {
		url := fmt.Sprintf("%s/%s.svg", s.baseURL, name)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			logrus.Errorf("Error downloading %s: %v", name, err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			logrus.Errorf("Failed to download %s: %d", name, resp.StatusCode)
			continue
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			logrus.Errorf("Error downloading %s: %v", name, err)
			continue
		}

		path := filepath.Join(s.assetsDir, name+".svg")
		if err := os.WriteFile(path, data, 0644); err != nil {
			return err
		}
		logrus.Infof("Downloaded: %s", path)
	}
	return nil
}

// RecolorIcons writes game-specific SVG copies with the fill and stroke
// attributes substituted to the success or failure color.
func (s *iconService) RecolorIcons() error {
	logrus.Info("Creating game-specific SVG files...")

	for item, icon := range gameItems {
		source := filepath.Join(s.assetsDir, icon+".svg")
		data, err := os.ReadFile(source)
		if err != nil {
			logrus.Errorf("Source not found: %s", source)
			continue
		}

		colored := recolorSVG(string(data), itemColor(item))
		if err := s.output.SaveBytes(item+".svg", []byte(colored)); err != nil {
			logrus.Errorf("Error processing %s: %v", item, err)
			continue
		}
		logrus.Infof("Created: %s", s.output.FullPath(item+".svg"))
	}
	return nil
}

// RasterizeIcons converts the recolored SVGs to PNG. It shells out to
// rsvg-convert or inkscape; when neither converter is installed, a solid
// colored square stands in so the game still has a texture to load.
func (s *iconService) RasterizeIcons() error {
	names, err := s.output.Glob("item_*.svg")
	if err != nil {
		return err
	}
	if len(names) == 0 {
		logrus.Warn("No SVG files found to convert")
		return nil
	}

	for _, name := range names {
		pngName := strings.TrimSuffix(name, ".svg") + ".png"
		if s.output.Exists(pngName) {
			logrus.Infof("Skipping %s - PNG already exists", name)
			continue
		}

		svgPath := s.output.FullPath(name)
		pngPath := s.output.FullPath(pngName)

		if err := s.convertSVG(svgPath, pngPath); err != nil {
			logrus.Warnf("No SVG converter available, creating colored square for %s", name)
			if err := s.fallbackSquare(strings.TrimSuffix(name, ".svg"), pngName); err != nil {
				logrus.Errorf("Error converting %s: %v", name, err)
				continue
			}
		}
		logrus.Infof("Converted: %s -> %s", name, pngName)
	}
	return nil
}

func (s *iconService) convertSVG(svgPath, pngPath string) error {
	size := strconv.Itoa(s.size)

	if _, err := s.lookPath("rsvg-convert"); err == nil {
		return s.runCmd("rsvg-convert", "-w", size, "-h", size, svgPath, "-o", pngPath)
	}

	if _, err := s.lookPath("inkscape"); err == nil {
		return s.runCmd("inkscape",
			"--export-type=png",
			"--export-width="+size,
			"--export-height="+size,
			"--export-filename="+pngPath,
			svgPath)
	}

	return fmt.Errorf("no SVG converter found")
}

func (s *iconService) fallbackSquare(item, pngName string) error {
	fill := failureColorRGBA
	if isSuccessItem(item) {
		fill = successColorRGBA
	}

	square := imaging.New(s.size, s.size, fill)
	return imaging.Save(square, s.output.FullPath(pngName))
}

// recolorSVG substitutes the fill and stroke attribute values the solid
// heroicons set is known to use.
func recolorSVG(svg, color string) string {
	replacements := []string{
		`fill="currentColor"`,
		`fill="black"`,
		`fill="none"`,
		`fill="#0F172A"`,
	}
	for _, old := range replacements {
		svg = strings.ReplaceAll(svg, old, fmt.Sprintf(`fill="%s"`, color))
	}
	return strings.ReplaceAll(svg, `stroke="currentColor"`, fmt.Sprintf(`stroke="%s"`, color))
}

func itemColor(item string) string {
	if isSuccessItem(item) {
		return successColor
	}
	return failureColor
}

func isSuccessItem(item string) bool {
	for _, word := range []string{"ci_pass", "pr_merged", "deploy_success", "code_review", "tests_pass"} {
		if strings.Contains(item, word) {
			return true
		}
	}
	return false
}
