package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/luads/internal/core"
)

func TestEmbeddedMatchesDefaults(t *testing.T) {
	emb := Embedded()
	def := DefaultSettings()

	if emb.RenderRate != def.RenderRate || emb.UpdateRate != def.UpdateRate {
		t.Errorf("embedded rates %d/%d, defaults %d/%d", emb.RenderRate, emb.UpdateRate, def.RenderRate, def.UpdateRate)
	}
	if emb.StarvationCap != def.StarvationCap || emb.KeyHoldMs != def.KeyHoldMs || emb.ConsoleLines != def.ConsoleLines {
		t.Errorf("embedded %+v differs from defaults %+v", emb, def)
	}
	if len(emb.Keys) != len(core.Buttons) {
		t.Errorf("embedded key map has %d buttons, expected %d", len(emb.Keys), len(core.Buttons))
	}
	if err := emb.Validate(); err != nil {
		t.Fatalf("embedded settings invalid: %v", err)
	}
}

func TestLoadCustomYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	data := "render_rate: 30\nsticky_press: true\npause_policy: blank\nkeys:\n  A: [k, j]\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Source != path {
		t.Errorf("Source = %q", cfg.Source)
	}
	if cfg.RenderRate != 30 || cfg.UpdateRate != 60 {
		t.Errorf("rates = %d/%d, expected 30/60", cfg.RenderRate, cfg.UpdateRate)
	}
	if got := cfg.Keys["A"]; len(got) != 2 || got[0] != "k" {
		t.Errorf("keys[A] = %v", got)
	}
	if got := cfg.Keys["B"]; len(got) != 1 || got[0] != "z" {
		t.Errorf("unset binding lost its default: keys[B] = %v", got)
	}

	rt, err := cfg.Runtime()
	if err != nil {
		t.Fatalf("Runtime() failed: %v", err)
	}
	if rt.PressPolicy != core.PressSticky || rt.PausePolicy != core.PauseBlank {
		t.Errorf("runtime = %+v", rt)
	}
}

func TestLoadCustomTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	data := "update_rate = 0\nstarvation_cap = 3\nkey_hold_ms = 200\n\n[keys]\nStart = [\"p\"]\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.UpdateRate != 0 || cfg.StarvationCap != 3 || cfg.RenderRate != 60 {
		t.Errorf("settings = %+v", cfg)
	}
	if cfg.KeyHold() != 200*time.Millisecond {
		t.Errorf("KeyHold() = %v", cfg.KeyHold())
	}
	if got := cfg.Keys["Start"]; len(got) != 1 || got[0] != "p" {
		t.Errorf("keys[Start] = %v", got)
	}
}

func TestLoadCustomErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"negative rate", "render_rate: -5\n", "render_rate"},
		{"zero cap", "starvation_cap: 0\n", "starvation_cap"},
		{"unknown pause policy", "pause_policy: sepia\n", "pause_policy"},
		{"unknown button", "keys:\n  Turbo: [t]\n", "keys"},
		{"negative hold", "key_hold_ms: -1\n", "key_hold_ms"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.field+".yaml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)

			var cfgErr *core.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Load() error = %v, expected *core.ConfigError", err)
			}
			if cfgErr.Field != tc.field {
				t.Errorf("field = %q, expected %q", cfgErr.Field, tc.field)
			}
		})
	}
}

func TestLoadMissingCustomPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, expected not-exist", err)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("render_rate = = 3"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed TOML accepted")
	}
}

func TestLoadSkipsBrokenUserFiles(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".luads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	write := func(name, data string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("config.yaml", "render_rate: [")
	write("config.toml", "key_hold_ms = -1")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Source != "embedded" {
		t.Errorf("Source = %q, expected embedded", cfg.Source)
	}
	if len(cfg.Skipped) != 2 {
		t.Fatalf("Skipped = %v, expected both user files", cfg.Skipped)
	}
	if !strings.Contains(cfg.Skipped[0].Error(), "config.yaml") {
		t.Errorf("first skipped = %v", cfg.Skipped[0])
	}
	if !strings.Contains(cfg.Skipped[1].Error(), "key_hold_ms") {
		t.Errorf("second skipped = %v", cfg.Skipped[1])
	}

	write("config.toml", "render_rate = 30")
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.RenderRate != 30 || !strings.HasSuffix(cfg.Source, "config.toml") {
		t.Errorf("loaded %q with render rate %d", cfg.Source, cfg.RenderRate)
	}
	if len(cfg.Skipped) != 1 {
		t.Errorf("Skipped = %v, expected the broken YAML only", cfg.Skipped)
	}
}

func TestBindingsOrder(t *testing.T) {
	b, err := DefaultSettings().Bindings()
	if err != nil {
		t.Fatalf("Bindings() failed: %v", err)
	}
	if len(b) != len(core.Buttons) {
		t.Fatalf("got %d bindings", len(b))
	}
	for i, binding := range b {
		if binding.Button != core.Buttons[i] {
			t.Errorf("binding %d is %v, expected %v", i, binding.Button, core.Buttons[i])
		}
	}
}

func TestPresets(t *testing.T) {
	tests := []struct {
		preset         Preset
		render, update int
		sticky         bool
	}{
		{PresetHandheld, 60, 60, false},
		{PresetLegacy, 60, 60, true},
		{PresetTurbo, 0, 0, false},
		{PresetSlow, 60, 15, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.preset), func(t *testing.T) {
			p, err := ParsePreset(string(tc.preset))
			if err != nil {
				t.Fatalf("ParsePreset() failed: %v", err)
			}
			cfg := DefaultSettings()
			ApplyPreset(&cfg, p)
			if cfg.RenderRate != tc.render || cfg.UpdateRate != tc.update || cfg.StickyPress != tc.sticky {
				t.Errorf("after %s: %d/%d sticky=%t", p, cfg.RenderRate, cfg.UpdateRate, cfg.StickyPress)
			}
		})
	}

	if _, err := ParsePreset("warp"); err == nil {
		t.Error("unknown preset accepted")
	}
}
