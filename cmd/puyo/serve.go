package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-puyo/internal/config"
	"github.com/vovakirdan/tui-puyo/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SSH server",
	Long: `Start an SSH server that lets people connect and play.

Each SSH connection gets its own session with the game menu. Online tables
are hosted with a join code and filled by other connections to the same
server. Matches, replays and scores are stored per server.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.puyo/host_key

Examples:
  puyo serve                           # Listen on the settings address
  puyo serve --ssh :2222               # Listen on port 2222
  puyo serve --host-key ./my_host_key  # Use specific host key
  puyo serve --db ./puyo.db            # Use specific database

Users can connect with:
  ssh localhost -p 2222`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (default from settings)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
}

func runServe(_ *cobra.Command, _ []string) error {
	addr := settings.SSHAddr
	if flagSSHAddr != "" {
		addr = flagSSHAddr
	}
	cfg := tui.SSHServerConfig{
		Address:     addr,
		HostKeyPath: flagHostKey,
		DBPath:      settings.DBPath,
		IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
		TickRate:    settings.TickRate,
		Ruleset:     settings.Ruleset,
		CPU:         config.DifficultyPreset(settings.CPU),
	}

	server, err := tui.NewSSHServer(cfg)
	if err != nil {
		return fmt.Errorf("cannot create server: %w", err)
	}

	fmt.Printf("Starting puyo SSH server on %s\n", cfg.Address)
	fmt.Println("Press Ctrl+C to stop")

	return server.ListenAndServe()
}
