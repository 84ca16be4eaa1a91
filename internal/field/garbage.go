package field

import "math"

// MaxGarbageDrop is the most nuisance puyo a single drop places.
const MaxGarbageDrop = 30

// ColumnSource returns the column for the i-th nuisance puyo of a drop.
type ColumnSource func(i int) int

// GarbageResult describes one nuisance drop.
type GarbageResult struct {
	// Dropped is the amount taken off the garbage queue.
	Dropped int
	// Placed counts puyo that found a free cell; the rest are lost.
	Placed int
	// Last is the cell of the chronologically last placed puyo, (-1, -1) if none.
	Last Pos
}

// DropGarbage creates up to MaxGarbageDrop nuisance puyo in the spawn row,
// one per ColumnSource pick. Every full row of picks starts one row higher
// so the drop arrives in layers. Each puyo is dropped to its resting cell
// right away and falls there visually; the last one is tagged LastNuisance.
func (f *Field) DropGarbage(amount int, column ColumnSource) GarbageResult {
	res := GarbageResult{Last: Pos{X: -1, Y: -1}}
	if amount <= 0 {
		return res
	}
	res.Dropped = min(amount, MaxGarbageDrop)

	var last *Puyo
	spawn := f.props.GridH - 2
	for i := 0; i < res.Dropped; i++ {
		x := column(i)
		if !f.AddNuisancePuyo(x, spawn, Pending, i/f.props.GridW, 0) {
			continue
		}
		ny := f.DropSingle(x, spawn)
		f.setFallTarget(x, ny)
		last = f.At(x, ny)
		res.Placed++
	}
	if last != nil {
		last.LastNuisance = true
		res.Last = Pos{X: last.X, Y: last.Y}
	}
	f.sweep = 0
	return res
}

// LegacyNuisanceColumn is the fixed column pattern used by legacy
// rulesets. Within each row of picks every column appears once; the order
// interleaves the outer and inner halves of the field and rotates by one
// column per row.
func LegacyNuisanceColumn(width, cycle int) int {
	if width <= 0 {
		return 0
	}
	if cycle < 0 {
		cycle = -cycle
	}
	row := cycle / width
	k := (cycle + row) % width
	half := (width + 1) / 2
	if k%2 == 0 {
		return k / 2
	}
	return half + k/2
}

// LoseDrop starts the defeat animation: every puyo is unlinked and thrown
// downward with a column dependent initial speed. FallAway moves them.
func (f *Field) LoseDrop() {
	for x := 0; x < f.props.GridW; x++ {
		for y := 0; y < f.props.GridH; y++ {
			p := f.At(x, y)
			if p == nil {
				continue
			}
			f.unlinkAround(x, y)
			if p.Speed < 0.01 {
				p.Speed = float64(int(math.Sqrt(float64(x)+2)*12)%10) / 64
			}
			p.Speed += 0.01
		}
	}
}

// FallAway advances the defeat animation and reports whether every puyo has
// left the visible area.
func (f *Field) FallAway(gravity float64) bool {
	gone := true
	for _, p := range f.cells {
		if p == nil {
			continue
		}
		p.Speed += gravity
		p.PosY -= p.Speed
		if p.PosY > -float64(f.props.GridH) {
			gone = false
		}
	}
	return gone
}
