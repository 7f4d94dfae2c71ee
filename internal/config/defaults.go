package config

import (
	_ "embed"

	"github.com/vovakirdan/luads/internal/core"
)

//go:embed defaults/luads.yaml
var defaultYAML []byte

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		RenderRate:    core.DefaultRenderRate,
		UpdateRate:    core.DefaultUpdateRate,
		StickyPress:   false,
		PausePolicy:   core.PauseFreeze.String(),
		StarvationCap: core.DefaultStarvationCap,
		LogLevel:      1,
		ConsoleLines:  500,
		KeyHoldMs:     120,
		Keys: map[string][]string{
			"A":      {"x"},
			"B":      {"z"},
			"X":      {"s"},
			"Y":      {"a"},
			"L":      {"q"},
			"R":      {"w"},
			"Start":  {"enter"},
			"Select": {"backspace"},
			"Up":     {"up"},
			"Down":   {"down"},
			"Left":   {"left"},
			"Right":  {"right"},
		},
		Source: "embedded",
	}
}
