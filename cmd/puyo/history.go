package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-puyo/internal/platform/tui"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse past matches, replays and top scores",
	Long: `Open the match history. Tab and the arrow keys switch between the
recent matches, the stored replays and the top scores of each ruleset.
Press enter on a replay to watch it; leaving the replay returns here.

Examples:
  puyo history
  puyo history --db ./puyo.db`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func runHistory(_ *cobra.Command, _ []string) error {
	store := openStore()
	if store == nil {
		return errors.New("history needs a database")
	}
	defer store.Close()

	for {
		width, height := terminalSize()
		id, err := tui.RunScoreboard(store, settings.PlayerName, width, height)
		if err != nil {
			return err
		}
		if id == "" {
			return nil
		}

		f, err := store.LoadReplay(id)
		if err != nil {
			logger.Error("cannot load replay", "id", id, "err", err)
			continue
		}
		if err := watchReplay(f); err != nil {
			logger.Error("cannot play replay", "id", id, "err", err)
		}
	}
}
