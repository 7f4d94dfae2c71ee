package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// localConfigPath is checked in the working directory.
const localConfigPath = "luads.yaml"

// Load reads settings. Values missing from the file keep their defaults.
// Search order: customPath -> ~/.luads/config.yaml -> ~/.luads/config.toml
// -> ./luads.yaml -> embedded default.
// Only an explicit customPath that cannot be read or parsed is an error.
// Search-path files that exist but fail to parse or validate are logged,
// recorded in Settings.Skipped and passed over.
func Load(customPath string) (Settings, error) {
	// Try custom path first
	if customPath != "" {
		cfg, err := loadFile(customPath)
		if err != nil {
			return cfg, err
		}
		return cfg, cfg.Validate()
	}

	// Try user config directory, then the working directory
	candidates := []string{
		userConfigPath("config.yaml"),
		userConfigPath("config.toml"),
		localConfigPath,
	}
	var skipped []error
	for _, path := range candidates {
		if path == "" {
			continue
		}
		cfg, err := loadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err == nil {
			if err = cfg.Validate(); err != nil {
				err = fmt.Errorf("invalid config %s: %w", path, err)
			}
		}
		if err != nil {
			log.Warn("ignoring settings file", "path", path, "err", err)
			skipped = append(skipped, err)
			continue
		}
		cfg.Skipped = skipped
		return cfg, nil
	}

	// Use embedded default YAML
	cfg := Embedded()
	cfg.Skipped = skipped
	return cfg, nil
}

// Embedded returns the settings shipped in the binary.
func Embedded() Settings {
	cfg := DefaultSettings()
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		return DefaultSettings() // Fallback to hardcoded if embed fails
	}
	cfg.Source = "embedded"
	return cfg
}

// Parse decodes data over the embedded defaults. format is "yaml" or "toml".
func Parse(data []byte, format string) (Settings, error) {
	cfg := Embedded()
	switch format {
	case "toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func loadFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return Settings{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Source = path
	return cfg, nil
}

func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "yaml"
}

// userConfigPath returns the path to a file in ~/.luads, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".luads", filename)
}

// DataDir returns ~/.luads, creating it if needed.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot get home directory: %w", err)
	}
	dir := filepath.Join(home, ".luads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create %s: %w", dir, err)
	}
	return dir, nil
}
