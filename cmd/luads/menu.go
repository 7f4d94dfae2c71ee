package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/luads/internal/config"
	"github.com/vovakirdan/luads/internal/platform/tui"
	"github.com/vovakirdan/luads/internal/script"
	"github.com/vovakirdan/luads/internal/storage"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Pick a script from a menu",
	Long: `Start in interactive menu mode.

The menu lists the built-in demos and the files you ran recently. Esc in
a running script returns to the menu; Tab opens the run history.

Controls:
  Up/Down/j/k  - Navigate menu
  Enter/Space  - Run script
  Tab          - Run history
  Q            - Quit

Examples:
  luads menu
  luads menu --preset turbo
  luads menu --db ./history.db`,
	RunE: runMenu,
}

func runMenu(_ *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	keys, err := tui.KeyMapFromSettings(settings)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(true)
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := storage.Open(flagDBPath)
	if err != nil {
		logger.Warn("run history disabled", "err", err)
		store = nil
	} else {
		defer store.Close()
	}

	shotDir := ""
	if dir, err := config.DataDir(); err == nil {
		shotDir = filepath.Join(dir, "screenshots")
	}

	width, height := terminalSize()
	if err := tui.RunSession(tui.SessionConfig{
		Store:         store,
		Settings:      settings,
		Keys:          keys,
		Logger:        logger,
		ScreenshotDir: shotDir,
		Width:         width,
		Height:        height,
		Resolve:       script.Resolve,
	}); err != nil {
		return fmt.Errorf("menu: %w", err)
	}
	return nil
}
