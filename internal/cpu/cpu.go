// Package cpu implements the computer opponent. It picks a placement for
// each new piece by scoring every column and rotation with the field's
// virtual chain search, then steers the piece there one input at a time.
package cpu

import (
	"math/rand"

	"github.com/vovakirdan/tui-puyo/internal/config"
	"github.com/vovakirdan/tui-puyo/internal/core"
	"github.com/vovakirdan/tui-puyo/internal/field"
	"github.com/vovakirdan/tui-puyo/internal/player"
)

// Scoring weights.
const (
	fireWeight    = 1000 // per chain link once the goal is reached
	earlyPenalty  = 150  // firing a short chain while the field is safe
	linkWeight    = 12   // per same-colored neighbor
	heightWeight  = 3    // per row above the floor
	deathPenalty  = 100000
	dangerHeight  = 9 // stack height at which any chain is welcome
	lookAheadBias = 300
	maxStuck      = 3
)

// Move is a placement the CPU aims for.
type Move struct {
	X, Rot int
	Score  int
}

// Controller drives one CPU player.
type Controller struct {
	preset config.CPUPreset
	diff   *config.DifficultyManager
	rng    *rand.Rand

	ticks   int
	planned bool
	target  Move
	wait    int
	last    player.Piece
	stuck   int
}

// New creates a controller. The seed keeps its mistakes reproducible.
func New(preset config.CPUPreset, diff config.DifficultyConfig, seed int64) *Controller {
	return &Controller{
		preset: preset,
		diff:   config.NewDifficultyManager(diff),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Target returns the placement currently aimed for.
func (c *Controller) Target() (Move, bool) {
	return c.target, c.planned
}

// Input returns the actions for p this tick.
func (c *Controller) Input(p *player.Player) core.InputFrame {
	c.ticks++
	in := core.NewInputFrame()

	pc, ok := p.Piece()
	if !ok {
		c.planned = false
		return in
	}
	if !c.planned {
		c.target = c.choose(p, pc)
		c.planned = true
		c.stuck = 0
		c.last = pc
		c.wait = c.diff.ThinkDelay(c.preset.ThinkDelay, p.Score(), c.ticks)
	}
	if c.wait > 0 {
		c.wait--
		return in
	}

	if pc.X == c.last.X && pc.Rot == c.last.Rot {
		c.stuck++
	} else {
		c.stuck = 0
	}
	c.last = pc

	switch {
	case c.stuck > maxStuck:
		in.Set(core.ActionDown)
	case pc.Rot != c.target.Rot:
		if (c.target.Rot-pc.Rot+4)%4 == 3 {
			in.Set(core.ActionRotateCCW)
		} else {
			in.Set(core.ActionRotateCW)
		}
	case pc.X < c.target.X:
		in.Set(core.ActionRight)
	case pc.X > c.target.X:
		in.Set(core.ActionLeft)
	default:
		in.Set(core.ActionDown)
		c.stuck = 0
		return in
	}
	c.wait = c.diff.MoveDelay(c.preset.MoveDelay, p.Score(), c.ticks)
	return in
}

func (c *Controller) choose(p *player.Player, pc player.Piece) Move {
	moves := Candidates(p.Field(), pc.Pivot, pc.Second)
	if len(moves) == 0 {
		return Move{X: pc.X, Rot: pc.Rot}
	}
	if c.rng.Float64() < c.diff.MistakeRate(c.preset.MistakeRate, p.Score(), c.ticks) {
		var safe []Move
		death := p.Field().DeathCell()
		for _, m := range moves {
			if !touchesDeath(p.Field(), m, pc, death) {
				safe = append(safe, m)
			}
		}
		if len(safe) > 0 {
			return safe[c.rng.Intn(len(safe))]
		}
	}

	var next *[2]int
	if c.preset.LookAhead {
		if q := p.Next(); len(q) > 0 {
			next = &q[0]
		}
	}
	return Best(p.Field(), pc.Pivot, pc.Second, c.preset.ChainGoal, next)
}

func touchesDeath(f *field.Field, m Move, pc player.Piece, death field.Pos) bool {
	for _, s := range player.ShadowOf(f, m.X, m.Rot, pc.Pivot, pc.Second) {
		if s.X == death.X && s.Y >= death.Y {
			return true
		}
	}
	return false
}

// Candidates lists every column and rotation a doublet fits in.
func Candidates(f *field.Field, pivot, second int) []Move {
	var moves []Move
	for x := 0; x < f.Width(); x++ {
		for rot := 0; rot < 4; rot++ {
			if player.ShadowOf(f, x, rot, pivot, second) != nil {
				moves = append(moves, Move{X: x, Rot: rot})
			}
		}
	}
	return moves
}

// Best returns the highest scoring placement. With next set, each
// placement is also credited with the best chain the following doublet
// could fire on top of it.
func Best(f *field.Field, pivot, second, goal int, next *[2]int) Move {
	var best Move
	found := false
	for _, m := range Candidates(f, pivot, second) {
		shadow := player.ShadowOf(f, m.X, m.Rot, pivot, second)
		m.Score = Evaluate(f, shadow, goal)
		if next != nil && m.Score > -deathPenalty/2 {
			m.Score += lookAhead(f, shadow, *next, goal)
		}
		if !found || m.Score > best.Score {
			best = m
			found = true
		}
	}
	if !found {
		return Move{X: (f.Width() - 1) / 2}
	}
	return best
}

// Evaluate scores placing shadow on f.
func Evaluate(f *field.Field, shadow []field.Shadow, goal int) int {
	death := f.DeathCell()
	score := 0
	for _, s := range shadow {
		if s.X == death.X && s.Y >= death.Y {
			return -deathPenalty
		}
		score -= s.Y * heightWeight
		score += linkWeight * sameNeighbours(f, s)
	}

	chain := f.VirtualChain(shadow)
	switch {
	case chain == 0:
	case chain >= max(goal, 1):
		score += fireWeight * chain
	case stackHeight(f) >= dangerHeight:
		score += fireWeight / 2 * chain
	default:
		score -= earlyPenalty
	}
	return score
}

// lookAhead returns the bonus for the best chain next can fire once
// shadow has been placed.
func lookAhead(f *field.Field, shadow []field.Shadow, next [2]int, goal int) int {
	sim := f.Clone()
	for _, s := range shadow {
		sim.AddColorPuyo(s.X, s.Y, s.Color, field.Resting, 0, 0)
	}
	if sim.PredictChain() > 0 {
		return 0
	}
	bestChain := 0
	for _, m := range Candidates(sim, next[0], next[1]) {
		chain := sim.VirtualChain(player.ShadowOf(sim, m.X, m.Rot, next[0], next[1]))
		bestChain = max(bestChain, chain)
	}
	if bestChain >= max(goal, 1) {
		return lookAheadBias * bestChain
	}
	return 0
}

func sameNeighbours(f *field.Field, s field.Shadow) int {
	n := 0
	for _, d := range [4]field.Pos{{X: 0, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: -1}, {X: -1, Y: 0}} {
		if f.Color(s.X+d.X, s.Y+d.Y) == s.Color {
			n++
		}
	}
	return n
}

func stackHeight(f *field.Field) int {
	h := 0
	for x := 0; x < f.Width(); x++ {
		if y := f.DropTarget(x); y < 0 {
			h = f.Height()
		} else {
			h = max(h, y)
		}
	}
	return h
}
