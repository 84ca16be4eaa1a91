package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-puyo/internal/config"
	"github.com/vovakirdan/tui-puyo/internal/core"
	"github.com/vovakirdan/tui-puyo/internal/netplay"
	"github.com/vovakirdan/tui-puyo/internal/platform/tui"
	"github.com/vovakirdan/tui-puyo/internal/registry"
	"github.com/vovakirdan/tui-puyo/internal/ruleset"
	"github.com/vovakirdan/tui-puyo/internal/storage"
)

var (
	flagCPU       string
	flagOpponents int
	flagName      string
	flagRulesFile string
	flagRelay     string
	flagRoom      string
	flagSeats     int
	flagNoExport  bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a match",
	Long: `Start the game menu, or go straight into a match.

Without flags the menu lets you pick a CPU match or browse the history.
--cpu or --opponents start a CPU match directly. --relay joins the room
named by --room on a websocket relay and plays the people seated there.

Controls:
  A/D, Left/Right  - Move
  X/W/Up, Z        - Rotate clockwise, counter-clockwise
  S/Down           - Soft drop
  H                - Show where the best pair placement chains
  P/Space          - Pause (offline)
  R                - Restart (after the match)
  B/Esc            - Back
  Ctrl+S           - Screenshot to ~/.puyo/screenshots

CPU presets:
  easy, normal, hard - Start at that strength and speed up over the match
  fixed              - Stay at the configured strength

Examples:
  puyo play
  puyo play --cpu hard
  puyo play --cpu easy --opponents 3 --rules fever
  puyo play --rules-file ./my-tsu.yaml --cpu normal
  puyo play --relay ws://example.net:23235/ws --room FRIDAY --seats 3`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagCPU, "cpu", "", "CPU preset: easy, normal, hard, fixed")
	playCmd.Flags().IntVar(&flagOpponents, "opponents", 1, "Number of CPU opponents (1-3)")
	playCmd.Flags().StringVar(&flagName, "name", "", "Player name (default from settings)")
	playCmd.Flags().StringVar(&flagRulesFile, "rules-file", "", "Path to a custom ruleset YAML")
	playCmd.Flags().StringVar(&flagRelay, "relay", "", "Relay websocket URL for online play")
	playCmd.Flags().StringVar(&flagRoom, "room", "", "Relay room to join or create")
	playCmd.Flags().IntVar(&flagSeats, "seats", 2, "Players in a new relay room (2-4)")
	playCmd.Flags().BoolVar(&flagNoExport, "no-export", false, "Do not write replay files to the replay directory")
}

// terminalSize returns the size of stdout, or 80x24 when it is not a terminal.
func terminalSize() (int, int) {
	width, height := 80, 24 // Defaults
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
		height = h
	}
	return width, height
}

func playerName() string {
	if flagName != "" {
		return flagName
	}
	return settings.PlayerName
}

func replayDir() string {
	if flagNoExport {
		return ""
	}
	if settings.ReplayDir != "" {
		if err := os.MkdirAll(settings.ReplayDir, 0o755); err != nil {
			logger.Warn("cannot create replay directory", "path", settings.ReplayDir, "err", err)
			return ""
		}
	}
	return settings.ReplayDir
}

func runPlay(cmd *cobra.Command, _ []string) error {
	width, height := terminalSize()

	store := openStore()
	if store != nil {
		defer store.Close()
	}

	switch {
	case flagRelay != "":
		return playRelay(cmd.Context(), store, width, height)
	case flagCPU != "" || cmd.Flags().Changed("opponents"):
		return playCPU(store, width, height)
	}

	cfg := core.RuntimeConfig{
		ScreenW:  width,
		ScreenH:  height,
		TickRate: settings.TickRate,
		Seed:     flagSeed,
	}
	return tui.RunSession(tui.SessionOptions{
		Name:      playerName(),
		Store:     store,
		Config:    cfg,
		Ruleset:   settings.Ruleset,
		CPU:       config.DifficultyPreset(settings.CPU),
		ReplayDir: replayDir(),
		Logger:    logger,
	})
}

func playCPU(store *storage.Store, width, height int) error {
	preset := config.DifficultyPreset(flagCPU)
	if preset == "" {
		preset = config.DifficultyPreset(settings.CPU)
	}
	cpuCfg, err := config.LoadCPU("")
	if err != nil {
		return err
	}
	if _, err := config.ApplyCPUPreset(&cpuCfg, preset); err != nil {
		return err
	}

	rules, err := ruleset.Load(settings.Ruleset, flagRulesFile)
	if err != nil {
		return err
	}

	setup := tui.VsCPUSetup(playerName(), rules, preset, flagOpponents, flagSeed)
	setup.CPUConfig = cpuCfg
	setup.TickRate = settings.TickRate
	setup.ReplayDir = replayDir()
	setup.Logger = logger
	return tui.Run(setup, store, width, height)
}

func playRelay(ctx context.Context, store *storage.Store, width, height int) error {
	if flagRoom == "" {
		return errors.New("--room is required with --relay")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	client, err := netplay.Dial(dialCtx, flagRelay, netplay.JoinRequest{
		Room:    flagRoom,
		Name:    playerName(),
		Seats:   flagSeats,
		Ruleset: settings.Ruleset,
	}, logger)
	cancel()
	if err != nil {
		return err
	}
	defer client.Close()

	fmt.Printf("Joined room %s, waiting for players (Ctrl+C to give up)...\n", flagRoom)
	info, seat, err := client.WaitStart(ctx, func(e netplay.Envelope) {
		if e.Type == netplay.TypeJoined {
			fmt.Printf("  %d/%d seated: %v\n", len(e.Names), e.Seats, e.Names)
		}
	})
	if err != nil {
		return err
	}
	stop()

	rules, err := registry.Create(info.Ruleset)
	if err != nil {
		return err
	}

	setup := tui.OnlineSetup(info, seat, rules, client)
	setup.TickRate = settings.TickRate
	setup.ReplayDir = replayDir()
	setup.Logger = logger
	return tui.Run(setup, store, width, height)
}
