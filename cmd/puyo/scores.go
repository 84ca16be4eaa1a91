package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-puyo/internal/registry"
)

var flagScoresPlayer string

var scoresCmd = &cobra.Command{
	Use:   "scores [ruleset]",
	Short: "Show high scores for a ruleset",
	Long: `Display the top 10 scores for a ruleset (default from --rules or the
settings), and the record of one player with --player.

Examples:
  puyo scores
  puyo scores fever
  puyo scores --player alice`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().StringVar(&flagScoresPlayer, "player", "", "Show the match record of this player")
	rootCmd.AddCommand(scoresCmd)
}

func runScores(_ *cobra.Command, args []string) error {
	id := settings.Ruleset
	if len(args) == 1 {
		id = args[0]
	}

	rules, err := registry.Create(id)
	if err != nil {
		fmt.Println("Run 'puyo rules' to see available rulesets.")
		return err
	}

	store := openStore()
	if store == nil {
		return errors.New("scores need a database")
	}
	defer store.Close()

	scores, err := store.TopScores(id, 10)
	if err != nil {
		return fmt.Errorf("cannot retrieve scores: %w", err)
	}

	fmt.Printf("High Scores - %s\n", rules.Title())
	fmt.Println()

	if len(scores) == 0 {
		fmt.Println("No scores recorded yet.")
	} else {
		fmt.Printf("  %-4s  %-12s  %-10s  %-5s  %s\n", "Rank", "Player", "Score", "Chain", "Date")
		fmt.Printf("  %-4s  %-12s  %-10s  %-5s  %s\n", "----", "------", "-----", "-----", "----")
		for i, entry := range scores {
			dateStr := entry.CreatedAt.Format("2006-01-02 15:04")
			fmt.Printf("  %-4d  %-12s  %-10d  %-5d  %s\n", i+1, entry.Player, entry.Score, entry.MaxChain, dateStr)
		}
		if high, err := store.HighScore(id); err == nil {
			fmt.Println()
			fmt.Printf("Best: %d\n", high)
		}
	}

	if flagScoresPlayer == "" {
		return nil
	}
	stats, err := store.GetPlayerStats(flagScoresPlayer)
	if err != nil {
		return fmt.Errorf("cannot retrieve player stats: %w", err)
	}
	fmt.Println()
	fmt.Printf("%s: %d matches, %d wins, best %d\n", flagScoresPlayer, stats.Matches, stats.Wins, stats.HighScore)
	if !stats.LastPlayed.IsZero() {
		fmt.Printf("last played %s\n", stats.LastPlayed.Format("2006-01-02 15:04"))
	}
	return nil
}
