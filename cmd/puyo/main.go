// puyo is a terminal versus puzzle game: chain colored pairs, bury your
// opponents in nuisance, play CPUs locally or people over SSH and websockets.
//
// Usage:
//
//	puyo play                - Menu, vs CPU, history (or a match via --cpu / --relay)
//	puyo watch <file>        - Play back a replay file or a stored replay (--id)
//	puyo history             - Browse matches, replays and top scores
//	puyo serve               - Start the SSH server
//	puyo relay               - Start the websocket relay for online play
//	puyo predict <field>     - Count the chain a field string would fire
//	puyo rules               - List the available rulesets
//
// Global flags:
//
//	--fps <rate>     - Set tick rate (default from settings: 60)
//	--seed <value>   - Set the match seed for reproducible games
//	--db <path>      - Set database path (default: ~/.puyo/puyo.db)
//	--rules <id>     - Set the ruleset (default from settings: tsu)
//	--config <path>  - Read settings from this file
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-puyo/internal/config"
	"github.com/vovakirdan/tui-puyo/internal/storage"

	// Import rulesets to register them
	_ "github.com/vovakirdan/tui-puyo/internal/ruleset"
)

var (
	// Global flags
	flagFPS      int
	flagSeed     int64
	flagDBPath   string
	flagRules    string
	flagSettings string

	// settings merges the settings file with the flags set on the command line.
	settings config.Settings

	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "puyo",
	})
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "puyo",
	Short: "Puyo VS - chain puzzle battles in your terminal",
	Long: `Puyo VS is a falling pair puzzle game for the terminal. Connect four
or more puyo of one color to pop them, chain pops to send nuisance puyo to
your opponents, and keep your own field below the top.

Available commands:
  play     - Play against CPUs, or online through a relay
  watch    - Play back a recorded match
  history  - Browse past matches, replays and top scores
  serve    - Start the SSH server for remote play
  relay    - Start the websocket relay for online play
  predict  - Count the chain of a field string
  rules    - List the available rulesets

Examples:
  puyo play
  puyo play --cpu hard --opponents 2
  puyo play --relay ws://localhost:23235/ws --room FRIDAY
  puyo watch ~/.puyo/replays/3f0c.rpvs
  puyo serve --ssh :2222`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadSettings(cmd)
	},
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 60, "Tick rate (frames per second)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "Match seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to the database (default from settings)")
	rootCmd.PersistentFlags().StringVar(&flagRules, "rules", "", "Ruleset id (default from settings)")
	rootCmd.PersistentFlags().StringVar(&flagSettings, "config", "", "Path to settings YAML")

	// Add subcommands
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(relayCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(rulesCmd)
}

// loadSettings reads the settings file and lets explicit flags win.
func loadSettings(cmd *cobra.Command) error {
	s, err := config.LoadSettings(flagSettings)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("fps") {
		s.TickRate = flagFPS
	}
	if flags.Changed("db") {
		s.DBPath = flagDBPath
	}
	if flags.Changed("rules") {
		s.Ruleset = flagRules
	}
	settings = s
	return nil
}

// openStore opens the database, or returns nil when it cannot be opened.
// Games still work without storage.
func openStore() *storage.Store {
	if settings.DBPath == "" {
		return nil
	}
	store, err := storage.Open(settings.DBPath)
	if err != nil {
		logger.Warn("could not open database", "path", settings.DBPath, "err", err)
		return nil
	}
	return store
}
