// Package watch requests a reload when a script file changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/vovakirdan/luads/internal/engine"
)

// DefaultDebounce coalesces the burst of events an editor produces on save.
const DefaultDebounce = 150 * time.Millisecond

// Submitter accepts engine commands. *engine.Engine implements it.
type Submitter interface {
	Submit(cmd engine.Command)
}

// Watcher submits engine.Reload whenever the watched file is written,
// created or renamed into place.
type Watcher struct {
	path     string
	target   Submitter
	debounce time.Duration
	logger   *log.Logger
	fs       *fsnotify.Watcher
}

// New watches path. The parent directory is watched rather than the file,
// so editors that save by rename are still seen.
func New(path string, target Submitter, logger *log.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch: cannot watch %s: %w", filepath.Dir(abs), err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{
		path:     abs,
		target:   target,
		debounce: DefaultDebounce,
		logger:   logger.WithPrefix("watch"),
		fs:       fw,
	}, nil
}

// SetDebounce changes the quiet period before a reload is submitted.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run forwards changes until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("change", "op", ev.Op.String(), "file", ev.Name)
			fire = time.After(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)

		case <-fire:
			fire = nil
			w.logger.Info("reloading", "file", w.path)
			w.target.Submit(engine.Reload())
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
