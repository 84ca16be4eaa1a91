package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-puyo/internal/config"
	"github.com/vovakirdan/tui-puyo/internal/multiplayer"
	"github.com/vovakirdan/tui-puyo/internal/player"
	"github.com/vovakirdan/tui-puyo/internal/ruleset"
	"github.com/vovakirdan/tui-puyo/internal/storage"
	"github.com/vovakirdan/tui-puyo/internal/versus"
)

var (
	flagSimMatches int
	flagSimPlayers int
	flagSimFrames  int
	flagSimSave    bool
)

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run CPU matches without a screen",
	Long: `Run CPU against CPU matches as fast as possible and print the
results. With --save every match and its replay are stored, so they can be
watched later from 'puyo history'.

Examples:
  puyo sim
  puyo sim --matches 20 --players 4 --cpu hard
  puyo sim --seed 42 --save`,
	Args: cobra.NoArgs,
	RunE: runSim,
}

func init() {
	simCmd.Flags().IntVar(&flagSimMatches, "matches", 1, "Number of matches")
	simCmd.Flags().IntVar(&flagSimPlayers, "players", 2, "CPU players per match (2-4)")
	simCmd.Flags().IntVar(&flagSimFrames, "frames", 60*60*10, "Frame limit per match")
	simCmd.Flags().StringVar(&flagCPU, "cpu", "", "CPU preset: easy, normal, hard, fixed")
	simCmd.Flags().BoolVar(&flagSimSave, "save", false, "Store matches and replays in the database")
	rootCmd.AddCommand(simCmd)
}

func runSim(_ *cobra.Command, _ []string) error {
	preset := config.DifficultyPreset(flagCPU)
	if preset == "" {
		preset = config.DifficultyPreset(settings.CPU)
	}
	cpuCfg, err := config.LoadCPU("")
	if err != nil {
		return err
	}
	rules, err := ruleset.Load(settings.Ruleset, "")
	if err != nil {
		return err
	}
	players := max(multiplayer.MinSeats, min(flagSimPlayers, versus.MaxSeats))

	var store *storage.Store
	if flagSimSave {
		if store = openStore(); store != nil {
			defer store.Close()
		}
	}

	wins := make([]int, players)
	for n := range flagSimMatches {
		seed := flagSeed + int64(n)
		if flagSeed == 0 {
			seed = time.Now().UnixNano()
		}
		seats := make([]versus.Seat, players)
		names := make([]string, players)
		for i := range seats {
			names[i] = fmt.Sprintf("CPU %d", i+1)
			seats[i] = versus.Seat{
				Name: names[i],
				Kind: player.KindCPU,
				CPU:  versus.NewCPU(cpuCfg, preset, seed+int64(i)),
			}
		}
		m, err := versus.New(versus.Config{
			Seed:   seed,
			Rules:  rules,
			Seats:  seats,
			Logger: logger,
		})
		if err != nil {
			return err
		}

		r := versus.NewRunner(m, 0)
		r.SetFrameLimit(flagSimFrames)
		var res versus.Result
		r.Run(func(out versus.Result) { res = out })
		if res.Err != nil {
			return fmt.Errorf("match %d: %w", n+1, res.Err)
		}

		winner := "draw"
		if res.Winner >= 0 {
			wins[res.Winner]++
			winner = names[res.Winner]
		}
		fmt.Printf("match %3d  seed %-20d  %6d frames  %-8s  scores %v\n", n+1, seed, res.Frames, winner, res.Scores)

		if store != nil {
			saveSim(store, m, multiplayer.MatchInfo{
				ID:      multiplayer.NewMatchID(),
				Mode:    multiplayer.MatchModeVsCPU,
				Seed:    seed,
				Ruleset: rules.ID(),
				Names:   names,
			}, res)
		}
	}

	fmt.Println()
	for i, w := range wins {
		fmt.Printf("CPU %d won %d of %d\n", i+1, w, flagSimMatches)
	}
	return nil
}

func saveSim(store *storage.Store, m *versus.Match, info multiplayer.MatchInfo, res versus.Result) {
	replayID, err := store.SaveReplay(string(info.ID), m.Recording(time.Now()))
	if err != nil {
		logger.Warn("cannot save replay", "err", err)
	}
	players := make([]storage.MatchPlayer, len(info.Names))
	for i, name := range info.Names {
		players[i] = storage.MatchPlayer{Seat: i, Name: name, Score: res.Scores[i]}
	}
	winner := ""
	if res.Winner >= 0 {
		winner = info.Names[res.Winner]
	}
	if _, err := store.SaveMatch(storage.MatchRecord{
		MatchID:   string(info.ID),
		Ruleset:   info.Ruleset,
		Seed:      info.Seed,
		Players:   players,
		Winner:    winner,
		EndReason: res.Reason.String(),
		Duration:  res.Frames / max(1, settings.TickRate),
		ReplayID:  replayID,
	}); err != nil {
		logger.Warn("cannot save match", "err", err)
	}
}
