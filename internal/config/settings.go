package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Settings are the application level options shared by every command.
type Settings struct {
	DBPath     string `mapstructure:"db_path"`
	SSHAddr    string `mapstructure:"ssh_addr"`
	RelayAddr  string `mapstructure:"relay_addr"`
	TickRate   int    `mapstructure:"tick_rate"`
	PlayerName string `mapstructure:"player_name"`
	Ruleset    string `mapstructure:"ruleset"`
	CPU        string `mapstructure:"cpu"`
	ReplayDir  string `mapstructure:"replay_dir"`
}

// EnvPrefix prefixes environment overrides, e.g. PUYO_TICK_RATE.
const EnvPrefix = "PUYO"

// LoadSettings reads settings.yaml and applies PUYO_* environment overrides.
// Search order: path -> ~/.puyo/settings.yaml -> ./configs/settings.yaml -> defaults.
// A missing file is not an error unless path was given explicitly.
func LoadSettings(path string) (Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("settings")
		v.SetConfigType("yaml")
		if dir := UserDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath("configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("config: cannot read settings: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("config: cannot decode settings: %w", err)
	}
	if s.TickRate <= 0 {
		return Settings{}, fmt.Errorf("config: tick_rate must be positive, got %d", s.TickRate)
	}
	return s, nil
}

func setDefaults(v *viper.Viper) {
	dir := UserDir()
	if dir == "" {
		dir = "."
	}
	v.SetDefault("db_path", filepath.Join(dir, "puyo.db"))
	v.SetDefault("ssh_addr", "0.0.0.0:2222")
	v.SetDefault("relay_addr", "127.0.0.1:8765")
	v.SetDefault("tick_rate", 60)
	v.SetDefault("player_name", "player")
	v.SetDefault("ruleset", "tsu")
	v.SetDefault("cpu", string(DifficultyNormal))
	v.SetDefault("replay_dir", filepath.Join(dir, "replays"))
}
