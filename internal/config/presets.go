package config

import "fmt"

// Preset is a named timing profile selectable with --preset.
type Preset string

const (
	PresetHandheld Preset = "handheld" // 60 renders, 60 updates: the original target
	PresetLegacy   Preset = "legacy"   // handheld timing with sticky press
	PresetTurbo    Preset = "turbo"    // unlimited render and update
	PresetSlow     Preset = "slow"     // 60 renders, 15 updates, for stepping through logic
)

// Presets lists the known presets in display order.
var Presets = []Preset{PresetHandheld, PresetLegacy, PresetTurbo, PresetSlow}

// ParsePreset returns the preset with the given name.
func ParsePreset(name string) (Preset, error) {
	for _, p := range Presets {
		if string(p) == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown preset %q", name)
}

// ApplyPreset modifies the settings based on a preset.
func ApplyPreset(cfg *Settings, preset Preset) {
	switch preset {
	case PresetHandheld:
		cfg.RenderRate, cfg.UpdateRate = 60, 60
		cfg.StickyPress = false
	case PresetLegacy:
		cfg.RenderRate, cfg.UpdateRate = 60, 60
		cfg.StickyPress = true
	case PresetTurbo:
		cfg.RenderRate, cfg.UpdateRate = 0, 0
	case PresetSlow:
		cfg.RenderRate, cfg.UpdateRate = 60, 15
	}
}
