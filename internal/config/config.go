// Package config provides YAML and TOML settings loading for the luads
// shell and execution core.
package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/vovakirdan/luads/internal/core"
)

// Settings is the on-disk configuration.
type Settings struct {
	RenderRate    int                 `yaml:"render_rate" toml:"render_rate"`
	UpdateRate    int                 `yaml:"update_rate" toml:"update_rate"`
	StickyPress   bool                `yaml:"sticky_press" toml:"sticky_press"`
	PausePolicy   string              `yaml:"pause_policy" toml:"pause_policy"` // "freeze" or "blank"
	StarvationCap int                 `yaml:"starvation_cap" toml:"starvation_cap"`
	LogLevel      int                 `yaml:"log_level" toml:"log_level"` // 0 debug .. 3 error
	ConsoleLines  int                 `yaml:"console_lines" toml:"console_lines"`
	KeyHoldMs     int                 `yaml:"key_hold_ms" toml:"key_hold_ms"`
	Keys          map[string][]string `yaml:"keys" toml:"keys"` // button name -> terminal keys

	// Source is the file the settings were read from, or "embedded".
	Source string `yaml:"-" toml:"-"`

	// Skipped lists the search-path files that exist but could not be used.
	Skipped []error `yaml:"-" toml:"-"`
}

// Runtime validates the settings and converts them for the execution core.
func (s Settings) Runtime() (core.RuntimeConfig, error) {
	pause, err := core.ParsePausePolicy(s.PausePolicy)
	if err != nil {
		return core.RuntimeConfig{}, err
	}

	press := core.PressPulse
	if s.StickyPress {
		press = core.PressSticky
	}

	cfg := core.RuntimeConfig{
		RenderRate:    s.RenderRate,
		UpdateRate:    s.UpdateRate,
		PressPolicy:   press,
		PausePolicy:   pause,
		StarvationCap: s.StarvationCap,
		LogLevel:      s.LogLevel,
		ConsoleLines:  s.ConsoleLines,
	}
	if err := cfg.Validate(); err != nil {
		return core.RuntimeConfig{}, err
	}
	return cfg, nil
}

// Validate checks the settings the execution core does not see.
func (s Settings) Validate() error {
	if _, err := s.Runtime(); err != nil {
		return err
	}
	if s.KeyHoldMs < 0 {
		return &core.ConfigError{Field: "key_hold_ms", Value: fmt.Sprint(s.KeyHoldMs)}
	}
	if _, err := s.Bindings(); err != nil {
		return err
	}
	return nil
}

// KeyHold returns how long a terminal key counts as held after a press.
func (s Settings) KeyHold() time.Duration {
	return time.Duration(s.KeyHoldMs) * time.Millisecond
}

// Binding maps one emulated button to its terminal keys.
type Binding struct {
	Button core.Button
	Keys   []string
}

// Bindings returns the key map in button order. Unknown button names are a
// *core.ConfigError.
func (s Settings) Bindings() ([]Binding, error) {
	names := make([]string, 0, len(s.Keys))
	for name := range s.Keys {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Binding, 0, len(names))
	for _, name := range names {
		b, ok := core.ParseButton(name)
		if !ok {
			return nil, &core.ConfigError{Field: "keys", Value: name}
		}
		out = append(out, Binding{Button: b, Keys: s.Keys[name]})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Button < out[j].Button
	})
	return out, nil
}
