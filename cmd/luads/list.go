package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/luads/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in demos",
	Long:  `Shows every demo script built into the binary.`,
	Run:   runList,
}

func runList(_ *cobra.Command, _ []string) {
	demos := registry.List()

	if len(demos) == 0 {
		fmt.Println("No demos available.")
		return
	}

	fmt.Println("Built-in demos:")
	fmt.Println()

	// Calculate column widths
	maxRefLen := 3 // "Ref" header
	for _, d := range demos {
		if len(d.Ref()) > maxRefLen {
			maxRefLen = len(d.Ref())
		}
	}

	fmt.Printf("  %-*s  %s\n", maxRefLen, "Ref", "Title")
	fmt.Printf("  %-*s  %s\n", maxRefLen, "---", "-----")

	for _, d := range demos {
		fmt.Printf("  %-*s  %s\n", maxRefLen, d.Ref(), d.Title)
	}

	fmt.Println()
	fmt.Println("Run 'luads run <ref>' to start a demo.")
}
