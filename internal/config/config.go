// Package config provides YAML-based ruleset and CPU configuration with
// embedded defaults, plus the viper-backed application settings.
package config

// RulesetConfig contains everything a ruleset needs to score and time a match.
type RulesetConfig struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`

	ClearThreshold int `yaml:"clear_threshold"`
	Colors         int `yaml:"colors"`

	// MarginTime is the number of seconds after which the target point
	// starts to shrink.
	MarginTime  int `yaml:"margin_time"`
	TargetPoint int `yaml:"target_point"`

	DelayedFall        bool `yaml:"delayed_fall"`
	AddDropBonus       bool `yaml:"add_drop_bonus"`
	MaxDropBonus       int  `yaml:"max_drop_bonus"`
	BonusEQ            bool `yaml:"bonus_eq"`
	LegacyNuisanceDrop bool `yaml:"legacy_nuisance_drop"`
	ForgiveGarbage     bool `yaml:"forgive_garbage"`
	AllClearBonus      int  `yaml:"all_clear_bonus"` // nuisance puyo

	Bonus   BonusTables    `yaml:"bonus"`
	Physics RulesetPhysics `yaml:"physics"`
}

// BonusTables holds the scoring tables. Chain is indexed by chain-1, Color
// by colors-1 and Link by group size-1; indices past the end reuse the last
// entry.
type BonusTables struct {
	Chain []int `yaml:"chain"`
	Color []int `yaml:"color"`
	Link  []int `yaml:"link"`
}

// RulesetPhysics defines animation timing in ticks and cells.
type RulesetPhysics struct {
	Gravity   float64 `yaml:"gravity"`    // cells per tick squared
	BounceEnd int     `yaml:"bounce_end"` // ticks
	PopEnd    int     `yaml:"pop_end"`    // ticks
	// LockDelay is how many ticks a piece may rest on the stack before it locks.
	LockDelay int     `yaml:"lock_delay"`
	DropSpeed float64 `yaml:"drop_speed"` // cells per tick while falling freely
	SoftDrop  float64 `yaml:"soft_drop"`  // cells per tick while the drop key is held
}

// CPUConfig contains the CPU opponent presets and their progression.
type CPUConfig struct {
	Presets    map[DifficultyPreset]CPUPreset `yaml:"presets"`
	Difficulty DifficultyConfig               `yaml:"difficulty"`
}

// CPUPreset defines how a CPU opponent thinks and moves.
type CPUPreset struct {
	ThinkDelay  int     `yaml:"think_delay"` // ticks before the first move
	MoveDelay   int     `yaml:"move_delay"`  // ticks between moves
	MistakeRate float64 `yaml:"mistake_rate"`
	// ChainGoal is the chain length the CPU builds towards before firing.
	ChainGoal int `yaml:"chain_goal"`
	// LookAhead makes the CPU consider the next piece as well.
	LookAhead bool `yaml:"look_ahead"`
}

// DifficultyConfig defines the difficulty progression system.
type DifficultyConfig struct {
	Enabled      bool              `yaml:"enabled"`
	InitialLevel float64           `yaml:"initial_level"` // 0.0 = easy, 1.0 = hard
	Progression  ProgressionConfig `yaml:"progression"`
	Scaling      ScalingConfig     `yaml:"scaling"`
}

// ProgressionConfig defines how difficulty increases over time.
type ProgressionConfig struct {
	Type  string `yaml:"type"`   // "score", "time", or "none"
	MaxAt int    `yaml:"max_at"` // Score/ticks at which max difficulty is reached
}

// ScalingConfig defines the magnitude of difficulty changes.
type ScalingConfig struct {
	ThinkReduction   int     `yaml:"think_reduction"`   // think delay removed at max difficulty
	MoveReduction    int     `yaml:"move_reduction"`    // move delay removed at max difficulty
	MistakeReduction float64 `yaml:"mistake_reduction"` // mistake rate removed at max difficulty
}

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
	DifficultyFixed  DifficultyPreset = "fixed"
)

// InitialLevelForPreset returns the initial_level for a difficulty preset.
func InitialLevelForPreset(preset DifficultyPreset) float64 {
	switch preset {
	case DifficultyEasy:
		return 0.0
	case DifficultyNormal:
		return 0.3
	case DifficultyHard:
		return 0.7
	default:
		return 0.0
	}
}

// IsFixedPreset returns true if the preset disables progression.
func IsFixedPreset(preset DifficultyPreset) bool {
	return preset == DifficultyFixed
}
