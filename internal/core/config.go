package core

import "fmt"

// PausePolicy selects what a paused script presents.
type PausePolicy int

const (
	// PauseFreeze re-presents the last frame while paused.
	PauseFreeze PausePolicy = iota
	// PauseBlank presents a blank frame while paused ("dumb pause").
	PauseBlank
)

// String returns the config name of the policy.
func (p PausePolicy) String() string {
	if p == PauseBlank {
		return "blank"
	}
	return "freeze"
}

// ParsePausePolicy parses a config name into a PausePolicy.
func ParsePausePolicy(name string) (PausePolicy, error) {
	switch name {
	case "", "freeze", "normal":
		return PauseFreeze, nil
	case "blank", "dumb":
		return PauseBlank, nil
	}
	return PauseFreeze, &ConfigError{Field: "pause_policy", Value: name}
}

// RuntimeConfig holds the validated settings the execution core reads when
// a script is loaded. Every field can be changed later through the engine's
// commands.
type RuntimeConfig struct {
	RenderRate    int         // Presentations per second, 0 = unlimited
	UpdateRate    int         // Logical ticks per second, 0 = unlimited
	PressPolicy   PressPolicy // Edge policy for "new press"
	PausePolicy   PausePolicy // What to show while paused
	StarvationCap int         // Max catch-up updates per host iteration
	LogLevel      int         // Console threshold, see console.LevelFromInt
	ConsoleLines  int         // Console retention, 0 = unlimited
}

// Defaults used when nothing else is configured.
const (
	DefaultRenderRate    = 60
	DefaultUpdateRate    = 60
	DefaultStarvationCap = 5
)

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		RenderRate:    DefaultRenderRate,
		UpdateRate:    DefaultUpdateRate,
		PressPolicy:   PressPulse,
		PausePolicy:   PauseFreeze,
		StarvationCap: DefaultStarvationCap,
		LogLevel:      1,
		ConsoleLines:  0,
	}
}

// Validate rejects values the core cannot honor.
func (c RuntimeConfig) Validate() error {
	if c.RenderRate < 0 {
		return &ConfigError{Field: "render_rate", Value: fmt.Sprint(c.RenderRate)}
	}
	if c.UpdateRate < 0 {
		return &ConfigError{Field: "update_rate", Value: fmt.Sprint(c.UpdateRate)}
	}
	if c.StarvationCap < 1 {
		return &ConfigError{Field: "starvation_cap", Value: fmt.Sprint(c.StarvationCap)}
	}
	if c.ConsoleLines < 0 {
		return &ConfigError{Field: "console_lines", Value: fmt.Sprint(c.ConsoleLines)}
	}
	return nil
}

// ConfigError reports a configuration value the core rejected.
type ConfigError struct {
	Field string
	Value string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}
