// Package registry provides a global registry of ruleset factories.
// Rulesets register themselves in init() functions, allowing players and
// the CLI to pick one by id without hardcoded dependencies.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/tui-puyo/internal/field"
)

// Settings are the static options of a ruleset.
type Settings struct {
	ClearThreshold int
	Colors         int
	MarginTime     int // seconds
	TargetPoint    int

	DelayedFall        bool
	AddDropBonus       bool
	MaxDropBonus       int
	BonusEQ            bool
	LegacyNuisanceDrop bool
	ForgiveGarbage     bool
	AllClearBonus      int

	Gravity   float64
	BounceEnd int
	PopEnd    int
	LockDelay int
	DropSpeed float64
	SoftDrop  float64
}

// Turn carries the per-pass scoring state a ruleset reads and updates.
type Turn struct {
	Chain      int
	ChainScore int // score of the current pass
	ScoreVal   int // score counted towards garbage

	// Leftover is the fraction of a nuisance puyo carried to the next pass.
	Leftover    float64
	MarginTimer int // frames since the match started
	Divider     int
	BonusEQ     bool

	// AllClear is set when the field was emptied and the bonus is pending.
	AllClear bool
	// Attack is the nuisance produced by this pass, per opponent.
	Attack int
}

// Ruleset is the interface every rule family implements.
// Rulesets are pure: they hold no per-match state and may be shared.
type Ruleset interface {
	field.Rules

	// ID returns a unique identifier (e.g. "tsu").
	ID() string

	// Title returns a human-readable name.
	Title() string

	Settings() Settings

	// TargetPoint returns the score per nuisance puyo after marginFrames
	// frames of play.
	TargetPoint(marginFrames int) int

	// OnChain converts the pass score into nuisance and applies any
	// pending all-clear bonus.
	OnChain(t *Turn)

	// OnAllClear is called when a chain leaves the field empty.
	OnAllClear(t *Turn)
}

// RulesetInfo contains metadata about a registered ruleset.
type RulesetInfo struct {
	ID    string
	Title string
}

// Factory is a function that creates a ruleset.
type Factory func() Ruleset

var (
	factories = make(map[string]Factory)
	titles    = make(map[string]string)
	mu        sync.RWMutex
)

// Register adds a ruleset factory to the registry.
// Typically called from an init() function.
// Panics if a ruleset with the same ID is already registered.
func Register(id string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[id]; exists {
		panic(fmt.Sprintf("registry: ruleset %q already registered", id))
	}

	factories[id] = f
	titles[id] = f().Title()
}

// List returns information about all registered rulesets, sorted by ID.
func List() []RulesetInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]RulesetInfo, 0, len(factories))
	for id := range factories {
		result = append(result, RulesetInfo{
			ID:    id,
			Title: titles[id],
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create instantiates a ruleset by its ID.
// Returns an error if the ID is not registered.
func Create(id string) (Ruleset, error) {
	mu.RLock()
	defer mu.RUnlock()

	f, ok := factories[id]
	if !ok {
		return nil, fmt.Errorf("registry: unknown ruleset %q", id)
	}

	return f(), nil
}

// Exists checks if a ruleset with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[id]
	return ok
}
