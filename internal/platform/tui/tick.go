// Package tui provides the Bubble Tea shell for the execution core.
// It handles the terminal UI loop, input mapping and frame rendering.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/luads/internal/engine"
)

// TickMsg is sent to trigger one host-loop iteration of the engine that
// scheduled it. Ticks for another engine are ignored, so a session that
// switches scripts never runs two tick chains.
type TickMsg struct {
	Time time.Time
	eng  *engine.Engine
}

// tickCmd returns a Bubble Tea command that sends a tick for eng after d.
func tickCmd(eng *engine.Engine, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg{Time: t, eng: eng}
	})
}

// nextTick schedules the following iteration at the next governor boundary,
// bounded to [1ms, engine.DefaultMaxIdle].
func nextTick(eng *engine.Engine) tea.Cmd {
	d := eng.Governor().Until()
	if d < time.Millisecond {
		d = time.Millisecond
	}
	if d > engine.DefaultMaxIdle {
		d = engine.DefaultMaxIdle
	}
	return tickCmd(eng, d)
}
