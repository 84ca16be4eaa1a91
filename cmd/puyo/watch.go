package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-puyo/internal/platform/tui"
	"github.com/vovakirdan/tui-puyo/internal/registry"
	"github.com/vovakirdan/tui-puyo/internal/replay"
)

var flagReplayID string

var watchCmd = &cobra.Command{
	Use:   "watch [file]",
	Short: "Play back a recorded match",
	Long: `Play back a replay file, or a replay stored in the database with --id.

Controls:
  P/Space    - Pause
  F          - Fast forward (x2, x4, normal)
  Backspace  - Rewind
  R          - Restart from the first frame
  B/Q        - Quit

Examples:
  puyo watch ~/.puyo/replays/3f0c.rpvs
  puyo watch --id 8d1e9c52-0b5e-4c6b-9a51-71c3cf5b0e2a`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&flagReplayID, "id", "", "Replay id from the history database")
}

func runWatch(_ *cobra.Command, args []string) error {
	var (
		f   *replay.File
		err error
	)
	switch {
	case len(args) == 1:
		f, err = replay.LoadFile(args[0])
	case flagReplayID != "":
		f, err = loadStoredReplay(flagReplayID)
	default:
		return errors.New("watch needs a replay file or --id")
	}
	if err != nil {
		return err
	}
	return watchReplay(f)
}

func loadStoredReplay(id string) (*replay.File, error) {
	store := openStore()
	if store == nil {
		return nil, fmt.Errorf("no database at %s", settings.DBPath)
	}
	defer store.Close()
	return store.LoadReplay(id)
}

// watchReplay plays f with the ruleset it was recorded under.
func watchReplay(f *replay.File) error {
	rules, err := registry.Create(f.Header.Ruleset)
	if err != nil {
		return err
	}
	width, height := terminalSize()
	return tui.RunReplay(f, rules, logger, settings.TickRate, width, height)
}
