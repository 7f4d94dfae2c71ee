package engine

import (
	"github.com/charmbracelet/log"
)

// RunLog persists run history. storage.Store implements it.
type RunLog interface {
	BeginRun(script, name string) (string, error)
	FinishRun(id, outcome, message string, ticks uint64) error
}

// Run outcomes written by Record. They match the storage package's values.
const (
	outcomeStopped   = "stopped"
	outcomeErrored   = "errored"
	outcomeRestarted = "restarted"
	outcomeQuit      = "quit"
)

// Record writes one run per guest context to rl: a run begins when a
// fresh context starts running and ends when the script stops, faults or
// is restarted. A script that fails to load has no guest context and
// records nothing. The returned function closes the open run, if any, as quit.
func Record(e *Engine, rl RunLog) (finish func()) {
	var open string

	end := func(outcome, message string) {
		if open == "" {
			return
		}
		if err := rl.FinishRun(open, outcome, message, e.input.Tick()); err != nil {
			e.logger.Warn("cannot record run", "err", err)
		}
		open = ""
	}
	begin := func() {
		id, err := rl.BeginRun(e.src.Ref, e.src.Name)
		if err != nil {
			e.logger.Warn("cannot record run", "err", err)
			return
		}
		open = id
	}

	e.OnStateChange(func(from, to RunState) {
		switch {
		case to == Loaded:
			end(outcomeRestarted, "")
		case from == Loaded && to == Running:
			begin()
		case to == Stopped:
			end(outcomeStopped, "")
		case to == Errored:
			end(outcomeErrored, e.lastError())
		}
	})

	return func() { end(outcomeQuit, "") }
}

// lastError returns the newest error line in the console.
func (e *Engine) lastError() string {
	lines := e.console.Lines()
	for i := len(lines) - 1; i >= 0; i-- {
		if lines[i].Level == log.ErrorLevel {
			return lines[i].Text
		}
	}
	return ""
}
