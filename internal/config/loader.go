package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadRuleset loads the configuration of a ruleset.
// Search order: customPath -> ~/.puyo/configs/<id>.yaml -> ./configs/<id>.yaml -> embedded default
func LoadRuleset(id, customPath string) (RulesetConfig, error) {
	var cfg RulesetConfig

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("config: cannot read %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: cannot parse %s: %w", customPath, err)
		}
		if cfg.ID == "" {
			cfg.ID = id
		}
		return cfg, nil
	}

	filename := id + ".yaml"

	// Try user config directory
	if userCfgPath := userConfigPath(filename); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err == nil {
				return withID(cfg, id), nil
			}
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile(filepath.Join("configs", filename)); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			return withID(cfg, id), nil
		}
	}

	// Use embedded default YAML
	data, ok := embeddedRulesets[id]
	if !ok {
		return cfg, fmt.Errorf("config: unknown ruleset %q", id)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultRulesetConfig(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

func withID(cfg RulesetConfig, id string) RulesetConfig {
	if cfg.ID == "" {
		cfg.ID = id
	}
	return cfg
}

// LoadCPU loads the CPU opponent configuration.
// Search order: customPath -> ~/.puyo/configs/cpu.yaml -> ./configs/cpu.yaml -> embedded default
func LoadCPU(customPath string) (CPUConfig, error) {
	var cfg CPUConfig

	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("config: cannot read %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: cannot parse %s: %w", customPath, err)
		}
		return cfg, nil
	}

	if userCfgPath := userConfigPath("cpu.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err == nil {
				return cfg, nil
			}
		}
	}

	if data, err := os.ReadFile("configs/cpu.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			return cfg, nil
		}
	}

	if err := yaml.Unmarshal(defaultCPUYAML, &cfg); err != nil {
		return DefaultCPUConfig(), nil
	}
	return cfg, nil
}

// userConfigPath returns the path to a config file in the user's config directory.
func userConfigPath(filename string) string {
	dir := UserDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "configs", filename)
}

// UserDir returns ~/.puyo, or "" when the home directory is unknown.
func UserDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".puyo")
}

// ApplyCPUPreset selects the preset and sets up difficulty progression for it.
func ApplyCPUPreset(cfg *CPUConfig, preset DifficultyPreset) (CPUPreset, error) {
	p, ok := cfg.Presets[preset]
	if !ok {
		return CPUPreset{}, fmt.Errorf("config: unknown cpu preset %q", preset)
	}
	if preset == DifficultyFixed {
		cfg.Difficulty.Enabled = false
	} else {
		cfg.Difficulty.Enabled = true
		cfg.Difficulty.InitialLevel = InitialLevelForPreset(preset)
	}
	return p, nil
}
