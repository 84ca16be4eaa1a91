package player

import "github.com/vovakirdan/tui-puyo/internal/field"

// EventKind identifies a player event the front-end may react to.
type EventKind int

const (
	EventChain        EventKind = iota + 1 // a pass popped; Chain and Amount sent
	EventChainEnd                          // the chain finished at depth Chain
	EventAllClear                          // the field was emptied by a chain
	EventGarbage                           // Amount nuisance started falling
	EventNuisanceLand                      // the last nuisance of a drop landed
	EventLost
	EventTray // a garbage resolution left Amount nuisance queued
)

// Event is a notable moment in a player's turn.
type Event struct {
	Kind   EventKind
	Chain  int
	Amount int
	Pos    field.Pos
}

// Snapshot captures the state compared by determinism checks.
type Snapshot struct {
	Phase     Phase
	Field     string
	Score     int
	ScoreVal  int
	GQ        int
	Chain     int
	LastChain int
	Margin    int
	Leftover  float64
	Next      [][2]int
}

// Snapshot returns the player's current state.
func (p *Player) Snapshot() Snapshot {
	return Snapshot{
		Phase:     p.phase,
		Field:     p.field.Encode(),
		Score:     p.score,
		ScoreVal:  p.scoreVal,
		GQ:        p.gq,
		Chain:     p.chain,
		LastChain: p.lastChain,
		Margin:    p.margin,
		Leftover:  p.leftover,
		Next:      p.queue.Preview(),
	}
}
