package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-puyo/internal/netplay"
)

var flagRelayAddr string

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Start the websocket relay for online play",
	Long: `Start a websocket relay. Clients started with 'puyo play --relay'
join a named room; the first one sets the number of seats and the ruleset.
When the room is full every client receives the same seed and the relay
forwards match records between them.

Examples:
  puyo relay
  puyo relay --addr :23235 --rules fever
  puyo play --relay ws://localhost:23235/ws --room FRIDAY`,
	Args: cobra.NoArgs,
	RunE: runRelay,
}

func init() {
	relayCmd.Flags().StringVar(&flagRelayAddr, "addr", "", "Relay address (default from settings)")
}

func runRelay(_ *cobra.Command, _ []string) error {
	cfg := netplay.DefaultRelayConfig()
	cfg.Address = settings.RelayAddr
	if flagRelayAddr != "" {
		cfg.Address = flagRelayAddr
	}
	cfg.DefaultRuleset = settings.Ruleset

	fmt.Printf("Starting puyo relay on ws://%s/ws\n", cfg.Address)
	fmt.Println("Press Ctrl+C to stop")

	return netplay.NewRelay(cfg, logger.WithPrefix("relay")).ListenAndServe()
}
