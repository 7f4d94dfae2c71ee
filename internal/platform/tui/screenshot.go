package tui

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vovakirdan/luads/internal/engine"
)

// WritePNG writes both screens of fr, top above bottom, as a PNG file.
func WritePNG(path string, fr engine.Frame) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create screenshot: %w", err)
	}
	if err := png.Encode(f, fr.Image()); err != nil {
		f.Close()
		return fmt.Errorf("cannot encode screenshot: %w", err)
	}
	return f.Close()
}

// SaveScreenshot writes fr into dir under a timestamped name derived from
// the script name and returns the path.
func SaveScreenshot(dir string, fr engine.Frame) (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.png", shotName(fr.Stats.Script), timestamp)
	path := filepath.Join(dir, filename)
	return path, WritePNG(path, fr)
}

func shotName(script string) string {
	name := strings.TrimSuffix(filepath.Base(script), filepath.Ext(script))
	name = strings.NewReplacer(":", "_", " ", "_").Replace(name)
	if name == "" || name == "." {
		return "luads"
	}
	return name
}
