package engine

import (
	"fmt"

	"github.com/vovakirdan/luads/internal/core"
)

// CommandKind identifies a control request.
type CommandKind int

const (
	CmdLoadScript CommandKind = iota
	CmdPause
	CmdResume
	CmdTogglePause
	CmdRestart
	CmdReload
	CmdQuit
	CmdSetLogLevel
	CmdAdjustRenderRate
	CmdAdjustUpdateRate
	CmdSetStickyPress
	CmdSetPausePolicy
)

// Command is a control request from a shell. Commands are queued with
// Engine.Submit and applied at the top of the next iteration, never while
// guest code is running.
type Command struct {
	Kind   CommandKind
	Ref    string           // CmdLoadScript
	N      int              // CmdSetLogLevel, CmdAdjust*Rate
	On     bool             // CmdSetStickyPress
	Policy core.PausePolicy // CmdSetPausePolicy
}

func (c Command) String() string {
	switch c.Kind {
	case CmdLoadScript:
		return fmt.Sprintf("load %s", c.Ref)
	case CmdPause:
		return "pause"
	case CmdResume:
		return "resume"
	case CmdTogglePause:
		return "toggle-pause"
	case CmdRestart:
		return "restart"
	case CmdReload:
		return "reload"
	case CmdQuit:
		return "quit"
	case CmdSetLogLevel:
		return fmt.Sprintf("log-level %d", c.N)
	case CmdAdjustRenderRate:
		return fmt.Sprintf("render-rate %+d", c.N)
	case CmdAdjustUpdateRate:
		return fmt.Sprintf("update-rate %+d", c.N)
	case CmdSetStickyPress:
		return fmt.Sprintf("sticky-press %t", c.On)
	case CmdSetPausePolicy:
		return fmt.Sprintf("pause-policy %s", c.Policy)
	default:
		return "unknown"
	}
}

// LoadScript replaces the current script with ref.
func LoadScript(ref string) Command { return Command{Kind: CmdLoadScript, Ref: ref} }

// Pause suspends update ticks.
func Pause() Command { return Command{Kind: CmdPause} }

// Resume continues after Pause.
func Resume() Command { return Command{Kind: CmdResume} }

// TogglePause pauses a running script or resumes a paused one.
func TogglePause() Command { return Command{Kind: CmdTogglePause} }

// Restart runs the held source again from a clean device state.
func Restart() Command { return Command{Kind: CmdRestart} }

// Reload re-reads the script from its reference, then restarts.
func Reload() Command { return Command{Kind: CmdReload} }

// Quit ends Run.
func Quit() Command { return Command{Kind: CmdQuit} }

// SetLogLevel sets the console threshold (0 debug .. 3 error).
func SetLogLevel(n int) Command { return Command{Kind: CmdSetLogLevel, N: n} }

// AdjustRenderRate adds delta to the render rate, never going below 0.
func AdjustRenderRate(delta int) Command { return Command{Kind: CmdAdjustRenderRate, N: delta} }

// AdjustUpdateRate adds delta to the update rate, never going below 0.
func AdjustUpdateRate(delta int) Command { return Command{Kind: CmdAdjustUpdateRate, N: delta} }

// SetStickyPress switches between the sticky and pulse press policies.
func SetStickyPress(on bool) Command { return Command{Kind: CmdSetStickyPress, On: on} }

// SetPausePolicy selects what a paused script presents.
func SetPausePolicy(p core.PausePolicy) Command { return Command{Kind: CmdSetPausePolicy, Policy: p} }
