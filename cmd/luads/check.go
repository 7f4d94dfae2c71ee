package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/luads/internal/script"
)

var checkCmd = &cobra.Command{
	Use:   "check <script>...",
	Short: "Compile scripts without running them",
	Long: `Resolve and compile each script, reporting syntax errors.
Nothing is executed.

Examples:
  luads check game.lua
  luads check demo:bounce levels/*.lua`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func runCheck(_ *cobra.Command, args []string) error {
	failed := 0
	for _, ref := range args {
		src, err := script.Resolve(ref)
		if err == nil {
			err = script.Check(src)
		}

		var fault *script.Fault
		switch {
		case err == nil:
			fmt.Printf("ok    %s\n", ref)
		case errors.As(err, &fault):
			fmt.Printf("FAIL  %s: %s\n", ref, fault.Msg)
			failed++
		default:
			fmt.Printf("FAIL  %s: %v\n", ref, err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scripts failed", failed, len(args))
	}
	return nil
}
