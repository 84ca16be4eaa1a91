package field

// releaseAll is the sweep value that releases every pending puyo at once.
const releaseAll = 100

// CueKind identifies a landing event the front-end may react to.
type CueKind uint8

const (
	CueLand CueKind = iota + 1
	// CueNuisanceLand is emitted when the last puyo of a garbage drop lands.
	CueNuisanceLand
)

// Cue is a landing event produced by FallPuyo.
type Cue struct {
	Kind CueKind
	Pos  Pos
}

// DropPuyo relocates every floating puyo to its resting cell and schedules
// its fall. Within a column the fall delays count up from the floor, so
// lower puyo start falling first when delayed fall is enabled.
func (f *Field) DropPuyo() {
	for x := 0; x < f.props.GridW; x++ {
		delay := 0
		for y := 0; y < f.props.GridH; y++ {
			ny := f.DropSingle(x, y)
			if ny == -1 || ny == y {
				continue
			}
			p := f.At(x, ny)
			if p.Kind == KindColor {
				f.unlinkAround(x, y)
				p.Links = 0
			}
			p.FallDelay = float64(delay)
			p.Fall = Pending
			p.TargetY = ny
			delay++
		}
	}
	f.sweep = 0
}

// FallPuyo advances falling puyo by one tick. With delayedFall the sweep
// counter grows by half a step per tick; otherwise everything is released
// at once. Puyo that passed their target row land and bounce on the next tick.
func (f *Field) FallPuyo(delayedFall bool, gravity float64) []Cue {
	if delayedFall {
		f.sweep += 0.5
	} else {
		f.sweep = releaseAll
	}

	var cues []Cue
	for x := 0; x < f.props.GridW; x++ {
		for y := 0; y < f.props.GridH; y++ {
			p := f.At(x, y)
			if p == nil {
				continue
			}
			if p.Fall == Pending && p.FallDelay <= f.sweep {
				p.Fall = Falling
				p.Speed = 0
			}
			if p.Fall == Falling {
				p.Speed += gravity
				p.PosY -= p.Speed
			}
			if p.Fall == Resting && p.Landed {
				p.Speed = 0
				p.Landed = false
				p.BounceTimer = 2
				f.searchBounce(x, y, y+1)
			}
			if p.Fall == Falling && p.PosY <= float64(p.TargetY) {
				p.PosY = float64(p.TargetY)
				p.Fall = Resting
				p.Speed = 0
				p.Landed = true

				cue := Cue{Kind: CueLand, Pos: Pos{X: x, Y: y}}
				if p.Kind == KindNuisance && p.LastNuisance {
					cue.Kind = CueNuisanceLand
					p.LastNuisance = false
				}
				cues = append(cues, cue)
			}
		}
	}
	return cues
}

// searchBounce walks down the stack under a landed puyo. Up to four ranks
// bounce, rank k with multiplier 1/2^(k-1) and its links cut. The walk stops
// at a hard puyo, which becomes the bottom of the bounce.
func (f *Field) searchBounce(x, y, span int) {
	count := 1
	for i := 0; i < span && y-i >= 0; i++ {
		p := f.At(x, y-i)
		if p != nil {
			if p.Hard {
				for j := 0; j <= i; j++ {
					if q := f.At(x, y-i+j); q != nil {
						q.BottomY = y - i
					}
				}
				return
			}
			p.BottomY = 0
		}
		if count < 5 {
			if p != nil && p.Fall == Resting {
				f.unlinkAround(x, y-i)
				p.BounceMultiplier = 1 / float64(int(1)<<(count-1))
				p.BounceTimer = 2
			}
			count++
		}
	}
}

// BouncePuyo advances bounce timers. A finished bounce re-links color puyo
// to their resting neighbors.
func (f *Field) BouncePuyo(bounceEnd int) {
	for x := 0; x < f.props.GridW; x++ {
		for y := 0; y < f.props.GridH; y++ {
			p := f.At(x, y)
			if p == nil {
				continue
			}
			if p.Fall == Resting && p.BounceTimer > 0 {
				p.BounceTimer++
			}
			if p.BounceTimer > bounceEnd {
				if p.Kind == KindColor {
					f.searchLink(x, y)
				}
				p.BounceTimer = 0
			}
		}
	}
}

func (f *Field) linkable(p, q *Puyo) bool {
	return q != nil && q.Kind == KindColor && q.Color == p.Color
}

// searchLink connects the color puyo at (x, y) to resting neighbors of the
// same color. Vertical links never cross into the hidden row.
func (f *Field) searchLink(x, y int) {
	p := f.At(x, y)
	if p == nil || p.Kind != KindColor {
		return
	}
	if q := f.At(x, y-1); f.linkable(p, q) && q.Fall == Resting && y != f.HiddenRow() {
		q.Links |= LinkUp
		p.Links |= LinkDown
	}
	if q := f.At(x, y+1); f.linkable(p, q) && q.Fall == Resting && y != f.HiddenRow()-1 {
		q.Links |= LinkDown
		p.Links |= LinkUp
	}
	if q := f.At(x+1, y); f.linkable(p, q) {
		if q.Fall == Resting {
			q.Links |= LinkLeft
			p.Links |= LinkRight
		} else {
			q.Links &^= LinkLeft
			p.Links &^= LinkRight
		}
	}
	if q := f.At(x-1, y); f.linkable(p, q) {
		if q.Fall == Resting {
			q.Links |= LinkRight
			p.Links |= LinkLeft
		} else {
			q.Links &^= LinkRight
			p.Links &^= LinkLeft
		}
	}
}

// unlinkAround cuts every link touching (x, y).
func (f *Field) unlinkAround(x, y int) {
	if q := f.At(x, y-1); q != nil {
		q.Links &^= LinkUp
	}
	if q := f.At(x, y+1); q != nil {
		q.Links &^= LinkDown
	}
	if q := f.At(x+1, y); q != nil {
		q.Links &^= LinkLeft
	}
	if q := f.At(x-1, y); q != nil {
		q.Links &^= LinkRight
	}
	if p := f.At(x, y); p != nil {
		p.Links = 0
	}
}

// LinkAll links every resting color puyo to its neighbors. Used after a
// field is loaded from a string.
func (f *Field) LinkAll() {
	for x := 0; x < f.props.GridW; x++ {
		for y := 0; y < f.props.GridH; y++ {
			f.searchLink(x, y)
		}
	}
}

// Falling reports whether any puyo is pending or falling.
func (f *Field) Falling() bool {
	for _, p := range f.cells {
		if p != nil && p.Fall != Resting {
			return true
		}
	}
	return false
}

// Settled reports whether nothing is falling, landing or bouncing.
func (f *Field) Settled() bool {
	for _, p := range f.cells {
		if p != nil && (p.Fall != Resting || p.Landed || p.BounceTimer != 0) {
			return false
		}
	}
	return true
}

// PopTick advances the pop animation of destroyed puyo and releases those
// past popEnd. It reports whether the pending removal list is empty.
func (f *Field) PopTick(popEnd int) bool {
	kept := f.deleted[:0]
	for _, p := range f.deleted {
		p.PopTimer++
		if p.PopTimer <= popEnd {
			kept = append(kept, p)
		}
	}
	for i := len(kept); i < len(f.deleted); i++ {
		f.deleted[i] = nil
	}
	f.deleted = kept
	return len(f.deleted) == 0
}
