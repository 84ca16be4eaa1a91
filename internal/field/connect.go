package field

// searchOrder is the neighbor visitation priority: up, right, down, left.
var searchOrder = [4]Pos{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}

type searchFrame struct {
	pos  Pos
	next int
}

// FindConnected collects the group of same-colored color puyo reachable from
// (x, y). The seed must be an unmarked, non-destroyed color puyo. Visited
// puyo are marked; call Unmark before an independent scan. Groups smaller
// than n are discarded and nil is returned.
//
// The traversal is a depth-first walk on an explicit stack that visits
// neighbors in searchOrder, so members come out in the same order a
// recursive walk would produce.
func (f *Field) FindConnected(x, y, n int) []Pos {
	seed := f.At(x, y)
	if seed == nil || seed.Kind != KindColor || seed.Mark || seed.Destroy {
		return nil
	}

	seed.Mark = true
	group := []Pos{{X: x, Y: y}}
	stack := []searchFrame{{pos: Pos{X: x, Y: y}}}
	hidden := f.HiddenRow()

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next == len(searchOrder) {
			stack = stack[:len(stack)-1]
			continue
		}
		d := searchOrder[top.next]
		top.next++

		nx, ny := top.pos.X+d.X, top.pos.Y+d.Y
		if ny == hidden {
			continue
		}
		p := f.At(nx, ny)
		if p == nil || p.Kind != KindColor || p.Mark || p.Color != seed.Color {
			continue
		}
		p.Mark = true
		group = append(group, Pos{X: nx, Y: ny})
		stack = append(stack, searchFrame{pos: Pos{X: nx, Y: ny}})
	}

	if len(group) < n {
		return nil
	}
	return group
}

// Unmark clears the visited flag on every occupied cell.
func (f *Field) Unmark() {
	for _, p := range f.cells {
		if p != nil {
			p.Mark = false
		}
	}
}

// findGroups scans the visible rows column by column and returns every
// group of at least n members. The grid is not modified apart from marks.
func (f *Field) findGroups(n int) [][]Pos {
	var groups [][]Pos
	for x := 0; x < f.props.GridW; x++ {
		for y := 0; y < f.HiddenRow(); y++ {
			if g := f.FindConnected(x, y, n); g != nil {
				groups = append(groups, g)
			}
		}
	}
	return groups
}
