package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/luads/internal/platform/tui"
	"github.com/vovakirdan/luads/internal/storage"
)

var (
	flagHistoryScript string
	flagHistoryLimit  int
	flagHistoryStats  bool
	flagHistoryTUI    bool
	flagHistoryClear  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past runs",
	Long: `Display recorded runs, newest first. A run begins when a script
starts and ends when it stops, faults, is restarted or the shell quits.

Examples:
  luads history
  luads history --script demo:bounce
  luads history --stats
  luads history -i
  luads history --clear --script game.lua`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&flagHistoryScript, "script", "", "Only show runs of this script")
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "Maximum number of runs to show")
	historyCmd.Flags().BoolVar(&flagHistoryStats, "stats", false, "Show per-script totals instead of runs")
	historyCmd.Flags().BoolVarP(&flagHistoryTUI, "interactive", "i", false, "Browse the history in a full-screen table")
	historyCmd.Flags().BoolVar(&flagHistoryClear, "clear", false, "Delete the recorded runs (of --script, or all)")
}

func runHistory(_ *cobra.Command, _ []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer store.Close()

	switch {
	case flagHistoryClear:
		if err := store.ClearRuns(flagHistoryScript); err != nil {
			return err
		}
		fmt.Println("Run history cleared.")
		return nil

	case flagHistoryTUI:
		width, height := terminalSize()
		_, err := tui.RunHistory(store, width, height)
		return err

	case flagHistoryStats:
		return printStats(store)
	}

	return printRuns(store)
}

func printRuns(store *storage.Store) error {
	runs, err := store.Runs(flagHistoryScript, flagHistoryLimit)
	if err != nil {
		return fmt.Errorf("read runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Run 'luads run <script>' to record one.")
		return nil
	}

	fmt.Printf("  %-16s  %-24s  %-9s  %8s  %8s  %s\n", "Started", "Script", "Outcome", "Ticks", "Time", "Message")
	fmt.Printf("  %-16s  %-24s  %-9s  %8s  %8s  %s\n", "-------", "------", "-------", "-----", "----", "-------")
	for _, r := range runs {
		fmt.Printf("  %-16s  %-24s  %-9s  %8d  %8s  %s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			truncate(r.Script, 24),
			r.Outcome,
			r.Ticks,
			r.Duration().Round(100*time.Millisecond),
			r.Message,
		)
	}
	return nil
}

func printStats(store *storage.Store) error {
	stats, err := store.ScriptStats()
	if err != nil {
		return fmt.Errorf("read stats: %w", err)
	}
	if len(stats) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("  %-32s  %5s  %6s  %10s  %s\n", "Script", "Runs", "Errors", "Ticks", "Last run")
	fmt.Printf("  %-32s  %5s  %6s  %10s  %s\n", "------", "----", "------", "-----", "--------")
	for _, name := range names {
		s := stats[name]
		fmt.Printf("  %-32s  %5d  %6d  %10d  %s\n",
			truncate(name, 32), s.Runs, s.Errors, s.Ticks,
			s.LastRun.Local().Format("2006-01-02 15:04"),
		)
	}
	return nil
}

// truncate shortens s to n runes, keeping the end, which is the
// distinctive part of a path.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "…" + string(r[len(r)-n+1:])
}
