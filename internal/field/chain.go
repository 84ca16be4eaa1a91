package field

// Rules supplies the bonus tables used when scoring a chain pass.
type Rules interface {
	// ChainBonus returns the bonus for the given chain depth (1 = first pass).
	ChainBonus(chain int) int
	// ColorBonus returns the bonus for the number of distinct colors popped.
	ColorBonus(colors int) int
	// LinkBonus returns the bonus for a single group of the given size.
	LinkBonus(size int) int
}

// ChainResult is the outcome of one SearchChain pass.
type ChainResult struct {
	Found  bool
	Chain  int // chain depth after this pass
	Groups int
	Popped int
	Colors int
	Points int // popped * 10
	Bonus  int
	Score  int // Points * Bonus

	// Predicted is the chain the resting field would produce, computed
	// only on the first pass of a chain.
	Predicted     int
	HasPrediction bool

	// Top is the highest popped cell, or (-1, -1) when nothing popped.
	Top Pos
}

// SearchChain runs one clearing pass. It discards the overflow rows, finds
// every qualifying group, notifies their neighbors and moves all members to
// the pending removal list in one batch. chain is the depth reached so far.
func (f *Field) SearchChain(rules Rules, chain int) ChainResult {
	res := ChainResult{Chain: chain, Top: Pos{X: -1, Y: -1}}

	for x := 0; x < f.props.GridW; x++ {
		f.clearCell(x, f.props.GridH-1)
		f.clearCell(x, f.props.GridH-2)
	}

	if chain == 0 {
		res.Predicted = f.PredictChain()
		res.HasPrediction = true
	}

	f.Unmark()
	groups := f.findGroups(f.threshold)

	colors := make(map[int]struct{})
	linkBonus := 0
	for _, g := range groups {
		for _, pos := range g {
			colors[f.At(pos.X, pos.Y).Color] = struct{}{}
			f.popNeighbours(pos, false)
			if pos.Y > res.Top.Y {
				res.Top = pos
			}
		}
		for _, pos := range g {
			f.RemovePuyo(pos.X, pos.Y)
		}
		res.Popped += len(g)
		linkBonus += rules.LinkBonus(len(g))
	}

	res.Groups = len(groups)
	res.Colors = len(colors)
	if res.Groups > 0 {
		res.Found = true
		res.Chain++
	}

	res.Points = res.Popped * 10
	res.Bonus = rules.ChainBonus(res.Chain) + rules.ColorBonus(res.Colors) + linkBonus
	if res.Chain == 1 && res.Bonus == 0 {
		res.Bonus = 1
	}
	if res.Found {
		res.Score = res.Points * res.Bonus
	}
	return res
}

// popNeighbours notifies the four neighbors of a popped cell. The upward
// neighbor is skipped when it sits on the hidden row.
func (f *Field) popNeighbours(pos Pos, virtual bool) {
	if pos.Y+1 != f.HiddenRow() {
		f.popNeighbour(pos.X, pos.Y+1, virtual)
	}
	f.popNeighbour(pos.X+1, pos.Y, virtual)
	f.popNeighbour(pos.X, pos.Y-1, virtual)
	f.popNeighbour(pos.X-1, pos.Y, virtual)
}

func (f *Field) popNeighbour(x, y int, virtual bool) {
	p := f.At(x, y)
	if p == nil || p.Destroy {
		return
	}
	switch p.Kind {
	case KindNuisance:
		if virtual {
			f.clearCell(x, y)
			return
		}
		f.RemovePuyo(x, y)
	case KindColor:
		// color puyo only pop as part of their own group
	}
}

// PredictChain returns how many passes the current field would chain if
// left alone. It works on a deep copy; the live grid is not touched.
func (f *Field) PredictChain() int {
	sim := f.Clone()
	chain := 0
	for {
		sim.Unmark()
		groups := sim.findGroups(sim.threshold)
		if len(groups) == 0 {
			break
		}
		for _, g := range groups {
			for _, pos := range g {
				sim.popNeighbours(pos, true)
			}
			for _, pos := range g {
				sim.clearCell(pos.X, pos.Y)
			}
		}
		chain++
		sim.Drop()
	}
	return chain
}

// Shadow is a prospective color puyo used for hints and AI queries.
type Shadow struct {
	X, Y  int
	Color int
}

// placeShadow temporarily adds the shadow puyo. It returns nil when any
// shadow cell is taken.
func (f *Field) placeShadow(shadow []Shadow) []Pos {
	for _, s := range shadow {
		if !f.IsEmpty(s.X, s.Y) {
			return nil
		}
	}
	added := make([]Pos, 0, len(shadow))
	for _, s := range shadow {
		if f.AddColorPuyo(s.X, s.Y, s.Color, Resting, 0, 0) {
			added = append(added, Pos{X: s.X, Y: s.Y})
		}
	}
	return added
}

func (f *Field) removeShadow(added []Pos) {
	for _, pos := range added {
		f.clearCell(pos.X, pos.Y)
	}
}

// VirtualChain returns the chain that placing shadow would trigger, or 0
// when a shadow cell is occupied. The field is left as it was.
func (f *Field) VirtualChain(shadow []Shadow) int {
	added := f.placeShadow(shadow)
	if added == nil {
		return 0
	}
	defer f.removeShadow(added)
	f.Unmark()
	return f.PredictChain()
}

// TriggerGlow highlights the resting puyo that would pop together with shadow.
func (f *Field) TriggerGlow(shadow []Shadow) {
	for _, s := range shadow {
		if !f.InBounds(s.X, s.Y) {
			return
		}
	}
	added := f.placeShadow(shadow)
	if added == nil {
		return
	}
	f.Unmark()
	f.ClearGlow()
	for _, s := range shadow {
		for _, pos := range f.FindConnected(s.X, s.Y, f.threshold) {
			f.At(pos.X, pos.Y).Glow = true
		}
	}
	f.removeShadow(added)
	f.Unmark()
}

// ClearGlow removes every hint highlight.
func (f *Field) ClearGlow() {
	for _, p := range f.cells {
		if p != nil {
			p.Glow = false
		}
	}
}
