package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/luads/internal/config"
	"github.com/vovakirdan/luads/internal/core"
	"github.com/vovakirdan/luads/internal/engine"
	"github.com/vovakirdan/luads/internal/platform/tui"
	"github.com/vovakirdan/luads/internal/registry"
	"github.com/vovakirdan/luads/internal/storage"
	"github.com/vovakirdan/luads/internal/timing"
	"github.com/vovakirdan/luads/internal/watch"
)

// errScriptFaulted ends a headless --fail-on-error run whose script
// faulted. main turns it into exit status 2.
var errScriptFaulted = errors.New("script ended in an error")

var (
	flagHeadless   bool
	flagDuration   time.Duration
	flagScreenshot string
	flagSteady     bool
	flagFailOnErr  bool
	flagWatch      bool
)

var runCmd = &cobra.Command{
	Use:   "run <script>",
	Short: "Run a script",
	Long: `Run a Lua script file, or a built-in demo given as demo:<id>.

Controls:
  Buttons      - Configured in the settings file (default x/z/s/a/q/w, arrows)
  Mouse        - Stylus on the bottom screen
  P            - Pause/resume
  Ctrl+R       - Restart
  F5/Ctrl+L    - Reload from disk
  [ ] / { }    - Render / update rate down and up
  F2 / F3      - Sticky press / pause policy
  F4           - Console level
  Ctrl+S       - Screenshot
  Esc/Ctrl+C   - Quit

Headless runs print the console to stdout when the script ends or the
duration passes. --steady drives a manual clock, so the run does not wait
for real time and gives the same result every time.

Examples:
  luads run demo:bounce
  luads run game.lua --watch
  luads run game.lua --preset slow
  luads run game.lua --headless --duration 5s --steady --screenshot out.png
  luads run game.lua --headless --fail-on-error`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&flagHeadless, "headless", false, "Run without a terminal UI")
	runCmd.Flags().DurationVar(&flagDuration, "duration", 0, "Stop a headless run after this long (0 = until the script ends)")
	runCmd.Flags().StringVar(&flagScreenshot, "screenshot", "", "Write the last frame of a headless run as PNG")
	runCmd.Flags().BoolVar(&flagSteady, "steady", false, "Use a manual clock for a deterministic headless run")
	runCmd.Flags().BoolVar(&flagFailOnErr, "fail-on-error", false, "Exit with status 2 if the script faults")
	runCmd.Flags().BoolVar(&flagWatch, "watch", false, "Reload the script when the file changes")
}

func runRun(_ *cobra.Command, args []string) error {
	ref := args[0]

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	rt, err := settings.Runtime()
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(!flagHeadless)
	if err != nil {
		return err
	}
	defer closeLog()
	logger.Debug("settings", "source", settings.Source, "render", rt.RenderRate, "update", rt.UpdateRate)

	store, err := storage.Open(flagDBPath)
	if err != nil {
		logger.Warn("run history disabled", "err", err)
		store = nil
	} else {
		defer store.Close()
	}

	if flagHeadless {
		state, err := runHeadless(ref, rt, store, logger)
		if err != nil {
			return err
		}
		if flagFailOnErr && state == engine.Errored {
			return errScriptFaulted
		}
		return nil
	}
	return runInteractive(ref, settings, rt, store, logger)
}

func runInteractive(ref string, settings config.Settings, rt core.RuntimeConfig, store *storage.Store, logger *log.Logger) error {
	keys, err := tui.KeyMapFromSettings(settings)
	if err != nil {
		return err
	}
	latch := tui.NewLatch(settings.KeyHold())

	eng, err := engine.New(engine.Options{Config: rt, Input: latch, Logger: logger})
	if err != nil {
		return err
	}
	defer eng.Close()

	finish := func() {}
	if store != nil {
		finish = engine.Record(eng, store)
	}
	defer finish()

	if err := eng.Load(ref); err != nil {
		// The engine shows the load error on its console.
		logger.Warn("load failed", "script", ref, "err", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if flagWatch {
		if err := startWatch(ctx, ref, eng, logger); err != nil {
			return err
		}
	}

	shotDir := ""
	if dir, err := config.DataDir(); err == nil {
		shotDir = filepath.Join(dir, "screenshots")
	}

	width, height := terminalSize()
	return tui.Run(eng, tui.Options{
		Keys:          keys,
		Latch:         latch,
		Logger:        logger,
		ScreenshotDir: shotDir,
		Width:         width,
		Height:        height,
	})
}

// runHeadless runs ref without a UI and reports the state it ended in.
func runHeadless(ref string, rt core.RuntimeConfig, store *storage.Store, logger *log.Logger) (engine.RunState, error) {
	var clock timing.Clock
	var manual *timing.ManualClock
	if flagSteady {
		manual = timing.NewManualClock()
		clock = manual
	}

	eng, err := engine.New(engine.Options{Config: rt, Clock: clock, Logger: logger})
	if err != nil {
		return engine.Stopped, err
	}
	defer eng.Close()

	finish := func() {}
	if store != nil {
		finish = engine.Record(eng, store)
	}
	defer finish()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := eng.Load(ref); err != nil {
		logger.Warn("load failed", "script", ref, "err", err)
	}

	if flagWatch {
		if err := startWatch(ctx, ref, eng, logger); err != nil {
			return engine.Stopped, err
		}
	}

	var last engine.Frame
	if manual != nil {
		last = runSteady(ctx, eng, manual, rt, flagDuration)
	} else {
		last = runRealtime(ctx, eng, flagDuration)
	}

	for _, line := range last.Console {
		fmt.Println(line.String())
	}
	if flagScreenshot != "" {
		if err := tui.WritePNG(flagScreenshot, last); err != nil {
			return last.State, err
		}
		logger.Info("screenshot saved", "path", flagScreenshot)
	}
	logger.Info("run finished",
		"script", last.Stats.Script,
		"state", last.State,
		"ticks", last.Stats.Ticks,
	)
	return last.State, nil
}

// runSteady advances a manual clock one step at a time until d has passed
// or the script is no longer live. A step is the period of the faster
// configured rate.
func runSteady(ctx context.Context, eng *engine.Engine, clock *timing.ManualClock, rt core.RuntimeConfig, d time.Duration) engine.Frame {
	step := steadyStep(rt.RenderRate, rt.UpdateRate)

	last := eng.Frame()
	for elapsed := time.Duration(0); d <= 0 || elapsed < d; elapsed += step {
		if ctx.Err() != nil {
			break
		}
		clock.Advance(step)
		r := eng.Iterate()
		if r.Rendered {
			last = r.Frame
		}
		if !r.State.Live() {
			break
		}
	}
	if last.State != eng.State() {
		last = eng.Frame()
	}
	return last
}

func steadyStep(render, update int) time.Duration {
	rate := max(render, update)
	if rate == timing.Unlimited {
		return time.Millisecond
	}
	return time.Second / time.Duration(rate)
}

// runRealtime runs the engine on the system clock until d has passed or the
// script is no longer live.
func runRealtime(ctx context.Context, eng *engine.Engine, d time.Duration) engine.Frame {
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	last := eng.Frame()
	if !last.State.Live() {
		return last
	}
	_ = eng.Run(ctx, engine.PresenterFunc(func(fr engine.Frame) {
		last = fr
		if !fr.State.Live() {
			cancel()
		}
	}))
	return last
}

// startWatch reloads file scripts when they change. Demos have no file.
func startWatch(ctx context.Context, ref string, eng *engine.Engine, logger *log.Logger) error {
	if strings.HasPrefix(ref, registry.Scheme) {
		logger.Warn("--watch ignored for built-in demos", "script", ref)
		return nil
	}
	w, err := watch.New(ref, eng, logger)
	if err != nil {
		return err
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			logger.Warn("watcher stopped", "err", err)
		}
	}()
	return nil
}

// terminalSize returns the size of stdout, or 80x24.
func terminalSize() (int, int) {
	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
		height = h
	}
	return width, height
}
