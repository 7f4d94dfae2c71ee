// Package engine is the execution core. It owns the emulated device state,
// drives the timing governor, runs the guest on update ticks and decides
// what is presented on render ticks.
package engine

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/luads/internal/console"
	"github.com/vovakirdan/luads/internal/core"
	"github.com/vovakirdan/luads/internal/script"
	"github.com/vovakirdan/luads/internal/timing"
)

// DefaultMaxIdle bounds how long Run sleeps when nothing is due.
const DefaultMaxIdle = 10 * time.Millisecond

// Options configures a new Engine.
type Options struct {
	Config core.RuntimeConfig
	Clock  timing.Clock // defaults to a system clock
	Input  InputSource  // defaults to no input
	Logger *log.Logger  // defaults to a discarding logger

	// Resolve turns a script reference into source. Defaults to
	// script.Resolve.
	Resolve func(ref string) (script.Source, error)

	MaxIdle time.Duration
}

// Engine runs one script at a time. Iterate and Run must be called from a
// single goroutine; Submit may be called from any goroutine.
type Engine struct {
	cfg     core.RuntimeConfig
	clock   timing.Clock
	gov     *timing.Governor
	fps     *timing.Meter
	ups     *timing.Meter
	source  InputSource
	logger  *log.Logger
	resolve func(string) (script.Source, error)
	maxIdle time.Duration

	input   *core.Input
	screens *core.Screens
	console *console.Buffer

	state    RunState
	src      script.Source
	resolved bool
	host     *script.Host

	frozenTop    core.View
	frozenBottom core.View
	frozen       bool
	lastTop      core.View
	lastBottom   core.View
	presented    bool

	mu    sync.Mutex
	queue []Command
	wake  chan struct{}
	quit  bool

	hooks []func(from, to RunState)
}

// New creates an engine with no script. The config must already be valid.
func New(opts Options) (*Engine, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = timing.NewSystemClock()
	}
	if opts.Input == nil {
		opts.Input = InputFunc(func() core.RawInput { return core.RawInput{} })
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Resolve == nil {
		opts.Resolve = script.Resolve
	}
	if opts.MaxIdle <= 0 {
		opts.MaxIdle = DefaultMaxIdle
	}

	cfg := opts.Config
	gov, err := timing.NewGovernor(opts.Clock, cfg.RenderRate, cfg.UpdateRate, cfg.StarvationCap)
	if err != nil {
		return nil, err
	}

	cons := console.New(cfg.ConsoleLines, opts.Logger.WithPrefix("guest"))
	cons.SetLevel(console.LevelFromInt(cfg.LogLevel))

	return &Engine{
		cfg:     cfg,
		clock:   opts.Clock,
		gov:     gov,
		fps:     timing.NewMeter(opts.Clock),
		ups:     timing.NewMeter(opts.Clock),
		source:  opts.Input,
		logger:  opts.Logger,
		resolve: opts.Resolve,
		maxIdle: opts.MaxIdle,
		input:   core.NewInput(cfg.PressPolicy),
		screens: core.NewScreens(),
		console: cons,
		state:   Stopped,
		wake:    make(chan struct{}, 1),
	}, nil
}

// OnStateChange registers fn to be called after every state transition.
func (e *Engine) OnStateChange(fn func(from, to RunState)) {
	e.hooks = append(e.hooks, fn)
}

// State returns the current run state.
func (e *Engine) State() RunState {
	return e.state
}

// Source returns the script currently held.
func (e *Engine) Source() script.Source {
	return e.src
}

// Console returns the console buffer.
func (e *Engine) Console() *console.Buffer {
	return e.console
}

// Screens returns the live device surfaces.
func (e *Engine) Screens() *core.Screens {
	return e.screens
}

// Input returns the emulated input state.
func (e *Engine) Input() *core.Input {
	return e.input
}

// Governor returns the timing governor.
func (e *Engine) Governor() *timing.Governor {
	return e.gov
}

// Submit queues a command for the next iteration.
func (e *Engine) Submit(cmd Command) {
	e.mu.Lock()
	e.queue = append(e.queue, cmd)
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Load resolves ref and starts it. On failure the engine is left Errored
// with the message in the console, and the error is returned.
func (e *Engine) Load(ref string) error {
	src, err := e.resolve(ref)
	if err != nil {
		e.src = script.Source{Ref: ref, Name: ref}
		e.resolved = false
		e.loadFailed(err)
		return err
	}
	e.src = src
	e.resolved = true
	return e.restart()
}

// Close releases the guest context. A live script ends up stopped.
func (e *Engine) Close() {
	e.closeHost()
	if e.state.Live() {
		e.setState(Stopped)
	}
}

// Iterate runs one host-loop iteration: apply queued commands, poll the
// governor, run due update ticks and build a frame if a render is due.
// Once Quit is applied the iteration ends before the guest runs.
func (e *Engine) Iterate() Report {
	e.applyCommands()
	if e.quit {
		return Report{State: e.state, Quit: true}
	}

	budget := e.gov.Poll()
	r := Report{Budget: budget}

	if e.state == Running && budget.Updates > 0 {
		raw := e.source.Sample()
		for i := 0; i < budget.Updates && e.state == Running; i++ {
			e.input.BeginUpdateTick(raw)
			e.ups.Tick()
			r.Updates++

			res, err := e.host.Step()
			if err != nil {
				e.fault(err)
				break
			}
			if res == script.StepFinished {
				e.freeze()
				e.setState(Stopped)
			}
		}
	}

	if budget.Render {
		r.Rendered = true
		r.Frame = e.render()
		e.fps.Tick()
	}

	r.State = e.state
	r.Quit = e.quit
	return r
}

// Run iterates until Quit is applied or ctx is done, handing every rendered
// frame to p. When nothing was due it sleeps until the next boundary, at
// most MaxIdle, waking early for submitted commands.
func (e *Engine) Run(ctx context.Context, p Presenter) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		r := e.Iterate()
		if r.Rendered && p != nil {
			p.Present(r.Frame)
		}
		if r.Quit {
			return nil
		}
		if r.Updates > 0 || r.Rendered {
			continue
		}

		wait := min(e.gov.Until(), e.maxIdle)
		if wait <= 0 {
			wait = time.Millisecond
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-e.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Frame builds a frame for the current state without waiting for a render
// boundary. Shells use it to draw immediately after a resize.
func (e *Engine) Frame() Frame {
	return e.render()
}

// Stats returns the current status.
func (e *Engine) Stats() Stats {
	return Stats{
		Script:      e.src.Name,
		RenderRate:  e.gov.RenderRate(),
		UpdateRate:  e.gov.UpdateRate(),
		MeasuredFPS: e.fps.Rate(),
		MeasuredUPS: e.ups.Rate(),
		Ticks:       e.input.Tick(),
		PressPolicy: e.input.Policy(),
		PausePolicy: e.cfg.PausePolicy,
	}
}

func (e *Engine) render() Frame {
	fr := Frame{
		Console: e.console.Lines(),
		State:   e.state,
		Stats:   e.Stats(),
	}

	switch {
	case e.state == Paused && e.cfg.PausePolicy == core.PauseBlank:
		fr.Top, fr.Bottom = core.BlankView(), core.BlankView()
	case e.state != Running && e.frozen:
		fr.Top, fr.Bottom = e.frozenTop, e.frozenBottom
	default:
		fr.Top, fr.Bottom = e.screens.Present()
	}

	if e.state == Running {
		e.lastTop, e.lastBottom = fr.Top, fr.Bottom
		e.presented = true
	}
	return fr
}

// freeze snapshots the live surfaces at a tick boundary.
func (e *Engine) freeze() {
	e.frozenTop, e.frozenBottom = e.screens.Present()
	e.frozen = true
}

func (e *Engine) setState(to RunState) {
	from := e.state
	if from == to {
		return
	}
	e.state = to
	e.logger.Debug("state change", "from", from, "to", to, "script", e.src.Name)
	for _, fn := range e.hooks {
		fn(from, to)
	}
}

// fault moves a live script to Errored. The surfaces may hold a partly
// drawn tick, so the last presented frame stays on screen.
func (e *Engine) fault(err error) {
	e.console.Append(log.ErrorLevel, err.Error())
	if e.presented {
		e.frozenTop, e.frozenBottom = e.lastTop, e.lastBottom
		e.frozen = true
	} else {
		e.freeze()
	}
	e.closeHost()
	e.setState(Errored)
}

// loadFailed leaves exactly one line, the failure, in the console.
func (e *Engine) loadFailed(err error) {
	e.closeHost()
	e.console.Clear()
	e.console.Append(log.ErrorLevel, err.Error())
	if !e.frozen {
		e.freeze()
	}
	e.setState(Errored)
}

func (e *Engine) closeHost() {
	if e.host != nil {
		e.host.Close()
		e.host = nil
	}
}

// restart rebuilds the guest context from the held source on a cleared
// device.
func (e *Engine) restart() error {
	if !e.resolved {
		return e.reload()
	}

	e.closeHost()
	e.setState(Loaded)

	e.input.Reset()
	e.screens.Clear()
	e.console.Clear()
	e.gov.Reset()
	e.fps.Reset()
	e.ups.Reset()
	e.frozen = false
	e.presented = false

	host, err := script.NewHost(e.src, script.Env{
		Input:   e.input,
		Screens: e.screens,
		Console: e.console,
		Clock:   e.clock,
		FPS:     e.fps.Rate,
		Logger:  e.logger,
	})
	if err != nil {
		e.fault(err)
		return err
	}
	e.host = host
	e.setState(Running)
	return nil
}

// reload re-resolves the held reference, then restarts.
func (e *Engine) reload() error {
	if e.src.Ref == "" {
		return nil
	}
	return e.Load(e.src.Ref)
}

func (e *Engine) applyCommands() {
	e.mu.Lock()
	queue := e.queue
	e.queue = nil
	e.mu.Unlock()

	for _, cmd := range queue {
		e.apply(cmd)
	}
}

func (e *Engine) apply(cmd Command) {
	e.logger.Debug("command", "cmd", cmd)

	switch cmd.Kind {
	case CmdLoadScript:
		if err := e.Load(cmd.Ref); err != nil {
			e.logger.Warn("load failed", "ref", cmd.Ref, "err", err)
		}
	case CmdPause:
		e.pause()
	case CmdResume:
		e.resume()
	case CmdTogglePause:
		if e.state == Paused {
			e.resume()
		} else {
			e.pause()
		}
	case CmdRestart:
		if e.src.Ref != "" {
			_ = e.restart()
		}
	case CmdReload:
		if err := e.reload(); err != nil {
			e.logger.Warn("reload failed", "ref", e.src.Ref, "err", err)
		}
	case CmdQuit:
		e.quit = true
	case CmdSetLogLevel:
		e.cfg.LogLevel = cmd.N
		e.console.SetLevel(console.LevelFromInt(cmd.N))
	case CmdAdjustRenderRate:
		rate := max(0, e.gov.RenderRate()+cmd.N)
		if err := e.gov.SetRenderRate(rate); err == nil {
			e.cfg.RenderRate = rate
		}
	case CmdAdjustUpdateRate:
		rate := max(0, e.gov.UpdateRate()+cmd.N)
		if err := e.gov.SetUpdateRate(rate); err == nil {
			e.cfg.UpdateRate = rate
		}
	case CmdSetStickyPress:
		policy := core.PressPulse
		if cmd.On {
			policy = core.PressSticky
		}
		e.cfg.PressPolicy = policy
		e.input.SetPolicy(policy)
	case CmdSetPausePolicy:
		e.cfg.PausePolicy = cmd.Policy
	}
}

func (e *Engine) pause() {
	if e.state != Running {
		return
	}
	e.freeze()
	e.setState(Paused)
}

func (e *Engine) resume() {
	if e.state != Paused {
		return
	}
	e.frozen = false
	e.setState(Running)
}
