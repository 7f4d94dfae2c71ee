// Package script hosts one guest Lua script and exposes the emulated
// handheld API to it. The guest main chunk runs inside a coroutine that
// yields once per logical iteration, so the caller decides when the guest
// runs and the guest never runs concurrently with anything else.
package script

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/vovakirdan/luads/internal/console"
	"github.com/vovakirdan/luads/internal/core"
	"github.com/vovakirdan/luads/internal/timing"
)

// StepResult describes how a resumed segment of the guest ended.
type StepResult int

const (
	// StepYielded means the guest reached its end-of-iteration yield.
	StepYielded StepResult = iota
	// StepSleeping means the guest is inside delay() and was not resumed,
	// or has just entered it.
	StepSleeping
	// StepFinished means the guest returned from its main chunk or called
	// os.exit. It will not run again.
	StepFinished
)

func (r StepResult) String() string {
	switch r {
	case StepYielded:
		return "yielded"
	case StepSleeping:
		return "sleeping"
	case StepFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Fault is an error raised by guest code, at compile time or while running.
type Fault struct {
	Msg   string
	Trace string
}

func (f *Fault) Error() string {
	return f.Msg
}

// Env is the emulated hardware the guest talks to. The host does not own
// it; the execution core passes the same instances to every host it creates.
type Env struct {
	Input   *core.Input
	Screens *core.Screens
	Console *console.Buffer
	Clock   timing.Clock

	// FPS reports the measured render rate, published to the guest as NB_FPS.
	FPS func() float64

	// Logger receives diagnostics such as fault stack traces. Optional.
	Logger *log.Logger
}

func (e *Env) fillDefaults() {
	if e.Input == nil {
		e.Input = core.NewInput(core.PressPulse)
	}
	if e.Screens == nil {
		e.Screens = core.NewScreens()
	}
	if e.Console == nil {
		e.Console = console.New(0, nil)
	}
	if e.Clock == nil {
		e.Clock = timing.NewSystemClock()
	}
}

// Host runs one guest script. Each host has its own Lua state, so nothing
// a guest defines survives into the next host.
type Host struct {
	src Source
	env Env

	L      *lua.LState
	co     *lua.LState
	cancel context.CancelFunc
	main   *lua.LFunction

	held     *lua.LTable
	pressed  *lua.LTable
	released *lua.LTable
	stylus   *lua.LTable

	steps    int
	sleeping bool
	wake     time.Duration
	exited   bool
	finished bool
	warned   map[string]bool
}

// NewHost compiles src in a fresh Lua state. A syntax error is returned as a
// *Fault.
func NewHost(src Source, env Env) (*Host, error) {
	env.fillDefaults()

	L := lua.NewState()
	main, err := L.Load(strings.NewReader(src.Code), src.Name)
	if err != nil {
		L.Close()
		return nil, toFault(err)
	}

	h := &Host{
		src:    src,
		env:    env,
		L:      L,
		main:   main,
		warned: make(map[string]bool),
	}
	h.installBase(L)
	h.installControls(L)
	h.installScreen(L)
	h.installTimer(L)
	h.installSound(L)

	h.co, h.cancel = L.NewThread()
	return h, nil
}

// Check compiles src without running it.
func Check(src Source) error {
	L := lua.NewState()
	defer L.Close()

	if _, err := L.Load(strings.NewReader(src.Code), src.Name); err != nil {
		return toFault(err)
	}
	return nil
}

// Source returns the script the host was created from.
func (h *Host) Source() Source {
	return h.src
}

// Steps returns how many times the guest has been resumed.
func (h *Host) Steps() int {
	return h.steps
}

// Finished reports whether the guest can no longer run.
func (h *Host) Finished() bool {
	return h.finished
}

// Step resumes the guest once and runs it to its next yield. The input
// snapshot for the current tick must already be in Env.Input. A non-nil
// error is always a *Fault, and the host is finished afterwards.
func (h *Host) Step() (res StepResult, err error) {
	if h.finished {
		return StepFinished, nil
	}
	if h.sleeping {
		if h.env.Clock.Now() < h.wake {
			return StepSleeping, nil
		}
		h.sleeping = false
	}

	defer func() {
		if r := recover(); r != nil {
			h.finished = true
			res, err = StepFinished, &Fault{Msg: fmt.Sprintf("host panic: %v", r)}
		}
	}()

	h.publish()
	h.steps++

	st, rerr, _ := h.L.Resume(h.co, h.main)
	switch st {
	case lua.ResumeError:
		h.finished = true
		fault := toFault(rerr)
		if h.env.Logger != nil && fault.Trace != "" {
			h.env.Logger.Debug("guest fault", "script", h.src.Name, "trace", fault.Trace)
		}
		return StepFinished, fault
	case lua.ResumeOK:
		h.finished = true
		return StepFinished, nil
	}

	switch {
	case h.exited:
		h.finished = true
		return StepFinished, nil
	case h.sleeping:
		return StepSleeping, nil
	default:
		return StepYielded, nil
	}
}

// Close releases the Lua state.
func (h *Host) Close() {
	if h.cancel != nil {
		h.cancel()
	}
	h.L.Close()
	h.finished = true
}

// publish refreshes everything the guest reads at the start of a segment.
func (h *Host) publish() {
	fps := 0.0
	if h.env.FPS != nil {
		fps = h.env.FPS()
	}
	h.L.SetGlobal("NB_FPS", lua.LNumber(int(fps+0.5)))
	h.readControls()
}

// warnOnce logs a debug line the first time key is seen.
func (h *Host) warnOnce(key, text string) {
	if h.warned[key] {
		return
	}
	h.warned[key] = true
	h.env.Console.Append(log.DebugLevel, text)
}

func toFault(err error) *Fault {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return &Fault{Msg: apiErr.Object.String(), Trace: apiErr.StackTrace}
	}
	return &Fault{Msg: err.Error()}
}
