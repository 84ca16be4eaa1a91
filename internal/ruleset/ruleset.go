// Package ruleset implements the rule families: Tsu, Fever and Classic.
// Each one is a Standard ruleset built from its YAML configuration and
// registered under its id.
package ruleset

import (
	"github.com/vovakirdan/tui-puyo/internal/config"
	"github.com/vovakirdan/tui-puyo/internal/registry"
)

const (
	// ticksPerSecond converts margin frames to seconds.
	ticksPerSecond = 60
	// marginStep is how often the target point shrinks once margin time is over.
	marginStep = 16
)

// Standard is a table driven ruleset.
type Standard struct {
	cfg config.RulesetConfig
}

// New creates a ruleset from its configuration.
func New(cfg config.RulesetConfig) *Standard {
	if cfg.ClearThreshold <= 0 {
		cfg.ClearThreshold = 4
	}
	if cfg.TargetPoint <= 0 {
		cfg.TargetPoint = 70
	}
	if cfg.Colors <= 0 {
		cfg.Colors = 4
	}
	cfg.Physics = withPhysicsDefaults(cfg.Physics)
	return &Standard{cfg: cfg}
}

// withPhysicsDefaults replaces unset or negative timings and speeds with the
// Tsu defaults. A zero gravity or drop speed would leave puyo hanging forever.
func withPhysicsDefaults(p config.RulesetPhysics) config.RulesetPhysics {
	def := config.DefaultRulesetConfig().Physics
	if p.Gravity <= 0 {
		p.Gravity = def.Gravity
	}
	if p.DropSpeed <= 0 {
		p.DropSpeed = def.DropSpeed
	}
	if p.SoftDrop <= 0 {
		p.SoftDrop = def.SoftDrop
	}
	if p.BounceEnd <= 0 {
		p.BounceEnd = def.BounceEnd
	}
	if p.PopEnd <= 0 {
		p.PopEnd = def.PopEnd
	}
	if p.LockDelay <= 0 {
		p.LockDelay = def.LockDelay
	}
	return p
}

func (s *Standard) ID() string    { return s.cfg.ID }
func (s *Standard) Title() string { return s.cfg.Title }

// Settings returns the static options.
func (s *Standard) Settings() registry.Settings {
	return registry.Settings{
		ClearThreshold:     s.cfg.ClearThreshold,
		Colors:             s.cfg.Colors,
		MarginTime:         s.cfg.MarginTime,
		TargetPoint:        s.cfg.TargetPoint,
		DelayedFall:        s.cfg.DelayedFall,
		AddDropBonus:       s.cfg.AddDropBonus,
		MaxDropBonus:       s.cfg.MaxDropBonus,
		BonusEQ:            s.cfg.BonusEQ,
		LegacyNuisanceDrop: s.cfg.LegacyNuisanceDrop,
		ForgiveGarbage:     s.cfg.ForgiveGarbage,
		AllClearBonus:      s.cfg.AllClearBonus,
		Gravity:            s.cfg.Physics.Gravity,
		BounceEnd:          s.cfg.Physics.BounceEnd,
		PopEnd:             s.cfg.Physics.PopEnd,
		LockDelay:          s.cfg.Physics.LockDelay,
		DropSpeed:          s.cfg.Physics.DropSpeed,
		SoftDrop:           s.cfg.Physics.SoftDrop,
	}
}

func (s *Standard) ChainBonus(chain int) int  { return lookup(s.cfg.Bonus.Chain, chain) }
func (s *Standard) ColorBonus(colors int) int { return lookup(s.cfg.Bonus.Color, colors) }
func (s *Standard) LinkBonus(size int) int    { return lookup(s.cfg.Bonus.Link, size) }

// lookup reads a 1-based table; past the end the last entry repeats.
func lookup(table []int, n int) int {
	if n < 1 || len(table) == 0 {
		return 0
	}
	if n > len(table) {
		return table[len(table)-1]
	}
	return table[n-1]
}

// TargetPoint returns the score per nuisance puyo. Once margin time has
// passed it drops to three quarters every marginStep seconds, never below 1.
func (s *Standard) TargetPoint(marginFrames int) int {
	tp := s.cfg.TargetPoint
	if s.cfg.MarginTime <= 0 {
		return tp
	}
	elapsed := marginFrames / ticksPerSecond
	if elapsed < s.cfg.MarginTime {
		return tp
	}
	steps := (elapsed-s.cfg.MarginTime)/marginStep + 1
	for i := 0; i < steps && tp > 1; i++ {
		tp = tp * 3 / 4
	}
	return max(tp, 1)
}

// OnChain converts the pass score to nuisance for each opponent. Fractions
// carry over in Leftover. A pending all-clear adds its bonus to the pass.
func (s *Standard) OnChain(t *registry.Turn) {
	opponents := max(t.Divider, 2) - 1
	raw := float64(t.ChainScore)/float64(s.TargetPoint(t.MarginTimer))/float64(opponents) + t.Leftover

	attack := int(raw)
	t.Leftover = raw - float64(attack)
	if t.BonusEQ && s.cfg.BonusEQ {
		attack += attack / 4
	}
	if t.AllClear {
		attack += s.cfg.AllClearBonus
		t.AllClear = false
	}
	t.Attack = attack
}

// OnAllClear arms the all-clear bonus for the next chain.
func (s *Standard) OnAllClear(t *registry.Turn) {
	if s.cfg.AllClearBonus > 0 {
		t.AllClear = true
	}
}

func init() {
	for _, id := range config.RulesetIDs() {
		registry.Register(id, factory(id))
	}
}

func factory(id string) registry.Factory {
	return func() registry.Ruleset {
		cfg, err := config.LoadRuleset(id, "")
		if err != nil {
			cfg = config.DefaultRulesetConfig()
		}
		return New(cfg)
	}
}

// Load returns the registered ruleset id, or one read from customPath.
func Load(id, customPath string) (registry.Ruleset, error) {
	if customPath == "" {
		return registry.Create(id)
	}
	cfg, err := config.LoadRuleset(id, customPath)
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}
