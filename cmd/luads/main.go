// luads runs handheld-style Lua scripts on two emulated screens in the
// terminal.
//
// Usage:
//
//	luads run <script>       - Run a script file or demo:<id>
//	luads check <script>     - Compile a script without running it
//	luads list               - List the built-in demos
//	luads menu               - Pick a script interactively
//	luads history            - Show the run history
//	luads serve              - Serve the demos over SSH
//
// Global flags:
//
//	--config <path>  - Settings file (YAML or TOML)
//	--db <path>      - Run history database (default: ~/.luads/history.db)
//	--preset <name>  - Timing preset: handheld, legacy, turbo, slow
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/luads/internal/config"
	_ "github.com/vovakirdan/luads/internal/demos"
)

var (
	// Global flags
	flagConfig string
	flagDBPath string
	flagPreset string
	flagDebug  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errScriptFaulted) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "luads",
	Short: "LuaDS - run dual-screen handheld Lua scripts in your terminal",
	Long: `LuaDS hosts Lua scripts written for a dual-screen handheld. Scripts
draw on two 256x192 screens, read buttons and the stylus, and yield once
per frame with render().

Available commands:
  run      - Run a script file or a built-in demo
  check    - Compile a script without running it
  list     - Show the built-in demos
  menu     - Interactive script picker
  history  - Show past runs
  serve    - Start SSH server for the demos

Examples:
  luads list
  luads run demo:bounce
  luads run game.lua --watch
  luads run game.lua --headless --duration 5s --screenshot out.png
  luads serve --ssh :2222`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a settings file (YAML or TOML)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.luads/history.db", "Path to run history database")
	rootCmd.PersistentFlags().StringVar(&flagPreset, "preset", "", "Timing preset: handheld, legacy, turbo, slow")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Log at debug level")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadSettings reads the settings file and applies --preset.
func loadSettings() (config.Settings, error) {
	settings, err := config.Load(flagConfig)
	if err != nil {
		return settings, fmt.Errorf("load settings: %w", err)
	}
	if flagPreset != "" {
		preset, err := config.ParsePreset(flagPreset)
		if err != nil {
			return settings, err
		}
		config.ApplyPreset(&settings, preset)
		if err := settings.Validate(); err != nil {
			return settings, err
		}
	}
	return settings, nil
}

// newLogger returns a stderr logger. Full-screen commands log to
// ~/.luads/luads.log instead so the alt screen stays clean; the returned
// function closes that file.
func newLogger(toFile bool) (*log.Logger, func(), error) {
	level := log.InfoLevel
	if flagDebug {
		level = log.DebugLevel
	}
	opts := log.Options{ReportTimestamp: true, Level: level}

	if !toFile {
		return log.NewWithOptions(os.Stderr, opts), func() {}, nil
	}

	dir, err := config.DataDir()
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, "luads.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return log.NewWithOptions(f, opts), func() { f.Close() }, nil
}
