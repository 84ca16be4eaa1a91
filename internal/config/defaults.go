package config

import (
	_ "embed"
)

//go:embed defaults/tsu.yaml
var defaultTsuYAML []byte

//go:embed defaults/fever.yaml
var defaultFeverYAML []byte

//go:embed defaults/classic.yaml
var defaultClassicYAML []byte

//go:embed defaults/cpu.yaml
var defaultCPUYAML []byte

// embeddedRulesets maps ruleset ids to their embedded YAML.
var embeddedRulesets = map[string][]byte{
	"tsu":     defaultTsuYAML,
	"fever":   defaultFeverYAML,
	"classic": defaultClassicYAML,
}

// RulesetIDs returns the ids of the embedded rulesets.
func RulesetIDs() []string {
	return []string{"classic", "fever", "tsu"}
}

// DefaultRulesetConfig returns the hardcoded Tsu configuration.
func DefaultRulesetConfig() RulesetConfig {
	return RulesetConfig{
		ID:             "tsu",
		Title:          "Tsu",
		ClearThreshold: 4,
		Colors:         4,
		MarginTime:     192,
		TargetPoint:    70,
		DelayedFall:    true,
		AddDropBonus:   true,
		MaxDropBonus:   300,
		ForgiveGarbage: true,
		AllClearBonus:  30,
		Bonus: BonusTables{
			Chain: []int{0, 8, 16, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, 480, 512},
			Color: []int{0, 3, 6, 12, 24},
			Link:  []int{0, 0, 0, 0, 2, 3, 4, 5, 6, 7, 10},
		},
		Physics: RulesetPhysics{
			Gravity:   0.04,
			BounceEnd: 10,
			PopEnd:    30,
			LockDelay: 30,
			DropSpeed: 0.02,
			SoftDrop:  0.5,
		},
	}
}

// DefaultCPUConfig returns the hardcoded CPU configuration.
func DefaultCPUConfig() CPUConfig {
	normal := CPUPreset{
		ThinkDelay:  24,
		MoveDelay:   8,
		MistakeRate: 0.15,
		ChainGoal:   3,
	}
	return CPUConfig{
		Presets: map[DifficultyPreset]CPUPreset{
			DifficultyEasy: {
				ThinkDelay:  40,
				MoveDelay:   12,
				MistakeRate: 0.35,
				ChainGoal:   2,
			},
			DifficultyNormal: normal,
			DifficultyHard: {
				ThinkDelay:  10,
				MoveDelay:   4,
				MistakeRate: 0.02,
				ChainGoal:   5,
				LookAhead:   true,
			},
			DifficultyFixed: normal,
		},
		Difficulty: DifficultyConfig{
			Enabled:      true,
			InitialLevel: 0.0,
			Progression: ProgressionConfig{
				Type:  "time",
				MaxAt: 10800,
			},
			Scaling: ScalingConfig{
				ThinkReduction:   16,
				MoveReduction:    4,
				MistakeReduction: 0.1,
			},
		},
	}
}
