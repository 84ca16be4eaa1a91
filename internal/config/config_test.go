package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedRulesetsParse(t *testing.T) {
	for _, id := range RulesetIDs() {
		t.Run(id, func(t *testing.T) {
			cfg, err := LoadRuleset(id, "")
			if err != nil {
				t.Fatalf("LoadRuleset(%q) error = %v", id, err)
			}
			if cfg.ID != id {
				t.Errorf("ID = %q, expected %q", cfg.ID, id)
			}
			if cfg.ClearThreshold < 2 {
				t.Errorf("ClearThreshold = %d, expected at least 2", cfg.ClearThreshold)
			}
			if cfg.TargetPoint <= 0 {
				t.Errorf("TargetPoint = %d, expected positive", cfg.TargetPoint)
			}
			if len(cfg.Bonus.Chain) == 0 || len(cfg.Bonus.Color) == 0 || len(cfg.Bonus.Link) == 0 {
				t.Errorf("empty bonus table in %+v", cfg.Bonus)
			}
			if cfg.Physics.Gravity <= 0 || cfg.Physics.PopEnd <= 0 {
				t.Errorf("physics not set: %+v", cfg.Physics)
			}
		})
	}
}

func TestEmbeddedTsuMatchesHardcoded(t *testing.T) {
	cfg, err := LoadRuleset("tsu", "")
	if err != nil {
		t.Fatal(err)
	}
	def := DefaultRulesetConfig()
	if cfg.TargetPoint != def.TargetPoint || cfg.MarginTime != def.MarginTime {
		t.Errorf("embedded tsu = %d/%d, hardcoded = %d/%d", cfg.TargetPoint, cfg.MarginTime, def.TargetPoint, def.MarginTime)
	}
	if len(cfg.Bonus.Chain) != len(def.Bonus.Chain) {
		t.Errorf("chain table length %d, expected %d", len(cfg.Bonus.Chain), len(def.Bonus.Chain))
	}
}

func TestLoadRulesetUnknown(t *testing.T) {
	if _, err := LoadRuleset("nope", ""); err == nil {
		t.Error("LoadRuleset(nope) expected error")
	}
}

func TestLoadRulesetCustomPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	data := []byte("title: Custom\nclear_threshold: 3\ntarget_point: 50\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadRuleset("custom", path)
	if err != nil {
		t.Fatalf("LoadRuleset() error = %v", err)
	}
	if cfg.ID != "custom" || cfg.ClearThreshold != 3 || cfg.TargetPoint != 50 {
		t.Errorf("LoadRuleset() = %+v", cfg)
	}

	if _, err := LoadRuleset("custom", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing custom path expected error")
	}
}

func TestApplyCPUPreset(t *testing.T) {
	cfg, err := LoadCPU("")
	if err != nil {
		t.Fatal(err)
	}

	hard, err := ApplyCPUPreset(&cfg, DifficultyHard)
	if err != nil {
		t.Fatal(err)
	}
	if !hard.LookAhead {
		t.Error("hard preset should look ahead")
	}
	if !cfg.Difficulty.Enabled || cfg.Difficulty.InitialLevel != 0.7 {
		t.Errorf("difficulty = %+v", cfg.Difficulty)
	}

	if _, err := ApplyCPUPreset(&cfg, DifficultyFixed); err != nil {
		t.Fatal(err)
	}
	if cfg.Difficulty.Enabled {
		t.Error("fixed preset should disable progression")
	}

	if _, err := ApplyCPUPreset(&cfg, "insane"); err == nil {
		t.Error("unknown preset expected error")
	}
}

func TestDifficultyManager(t *testing.T) {
	cfg := DefaultCPUConfig().Difficulty
	dm := NewDifficultyManager(cfg)

	if got := dm.Level(0, 0); got != 0 {
		t.Errorf("Level(0, 0) = %v, expected 0", got)
	}
	if got := dm.Level(0, cfg.Progression.MaxAt*2); got != 1 {
		t.Errorf("Level past max = %v, expected 1", got)
	}

	tests := []struct {
		name    string
		ticks   int
		think   int
		move    int
		mistake float64
	}{
		{"start", 0, 24, 8, 0.15},
		{"max", cfg.Progression.MaxAt, 8, 4, 0.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dm.ThinkDelay(24, 0, tt.ticks); got != tt.think {
				t.Errorf("ThinkDelay() = %d, expected %d", got, tt.think)
			}
			if got := dm.MoveDelay(8, 0, tt.ticks); got != tt.move {
				t.Errorf("MoveDelay() = %d, expected %d", got, tt.move)
			}
			got := dm.MistakeRate(0.15, 0, tt.ticks)
			if diff := got - tt.mistake; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("MistakeRate() = %v, expected %v", got, tt.mistake)
			}
		})
	}

	if got := dm.ThinkDelay(2, 0, cfg.Progression.MaxAt); got != 1 {
		t.Errorf("ThinkDelay floor = %d, expected 1", got)
	}

	dm.SetEnabled(false)
	dm.SetInitialLevel(2)
	if got := dm.Level(0, 1<<20); got != 1 {
		t.Errorf("clamped fixed level = %v, expected 1", got)
	}
}

func TestLoadSettingsDefaults(t *testing.T) {
	t.Setenv("PUYO_TICK_RATE", "30")
	t.Setenv("PUYO_RULESET", "fever")

	if _, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("explicit missing settings file expected error")
	}

	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("player_name: alice\ncpu: hard\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s.PlayerName != "alice" || s.CPU != "hard" {
		t.Errorf("file values not applied: %+v", s)
	}
	if s.TickRate != 30 || s.Ruleset != "fever" {
		t.Errorf("env overrides not applied: %+v", s)
	}
	if s.SSHAddr == "" || s.DBPath == "" {
		t.Errorf("defaults missing: %+v", s)
	}
}
