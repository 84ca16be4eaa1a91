package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-puyo/internal/registry"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the available rulesets",
	Long:  `Shows every registered ruleset with its main settings.`,
	Args:  cobra.NoArgs,
	Run:   runRules,
}

func runRules(_ *cobra.Command, _ []string) {
	rulesets := registry.List()

	if len(rulesets) == 0 {
		fmt.Println("No rulesets available.")
		return
	}

	fmt.Println("Available rulesets:")
	fmt.Println()

	// Calculate column widths
	maxIDLen := 2 // "ID" header
	for _, r := range rulesets {
		if len(r.ID) > maxIDLen {
			maxIDLen = len(r.ID)
		}
	}

	fmt.Printf("  %-*s  %-10s  %6s  %6s  %6s\n", maxIDLen, "ID", "Title", "Target", "Margin", "Colors")
	fmt.Printf("  %-*s  %-10s  %6s  %6s  %6s\n", maxIDLen, "--", "-----", "------", "------", "------")

	for _, info := range rulesets {
		r, err := registry.Create(info.ID)
		if err != nil {
			continue
		}
		s := r.Settings()
		fmt.Printf("  %-*s  %-10s  %6d  %5ds  %6d\n", maxIDLen, info.ID, info.Title, s.TargetPoint, s.MarginTime, s.Colors)
	}

	fmt.Println()
	fmt.Println("Run 'puyo play --rules <id>' to play with a ruleset.")
}
