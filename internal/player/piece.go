package player

import (
	"math/rand"

	"github.com/vovakirdan/tui-puyo/internal/field"
)

// satellite offsets per rotation: up, right, down, left.
var satellite = [4]field.Pos{{X: 0, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: -1}, {X: -1, Y: 0}}

// Piece is the controlled doublet: a pivot and a satellite that turns
// around it.
type Piece struct {
	X, Y   int // pivot cell
	Rot    int // 0 up, 1 right, 2 down, 3 left
	Pivot  int // pivot color
	Second int // satellite color

	fall float64 // progress toward the next row
	lock int     // ticks spent resting
}

// Cells returns the pivot and satellite cells.
func (pc Piece) Cells() [2]field.Pos {
	return cellsAt(pc.X, pc.Y, pc.Rot)
}

func cellsAt(x, y, rot int) [2]field.Pos {
	off := satellite[rot&3]
	return [2]field.Pos{{X: x, Y: y}, {X: x + off.X, Y: y + off.Y}}
}

func fits(f *field.Field, x, y, rot int) bool {
	for _, c := range cellsAt(x, y, rot) {
		if !f.IsEmpty(c.X, c.Y) {
			return false
		}
	}
	return true
}

// move shifts the piece by dx columns when the target is free.
func (pc *Piece) move(f *field.Field, dx int) bool {
	if !fits(f, pc.X+dx, pc.Y, pc.Rot) {
		return false
	}
	pc.X += dx
	return true
}

// rotate turns the piece by dir quarter turns. A blocked sideways turn
// pushes the piece away from the wall, a blocked downward turn lifts it.
func (pc *Piece) rotate(f *field.Field, dir int) bool {
	rot := (pc.Rot + dir + 4) & 3
	kicks := []field.Pos{{X: 0, Y: 0}}
	switch rot {
	case 1:
		kicks = append(kicks, field.Pos{X: -1, Y: 0})
	case 3:
		kicks = append(kicks, field.Pos{X: 1, Y: 0})
	case 2:
		kicks = append(kicks, field.Pos{X: 0, Y: 1})
	}
	for _, k := range kicks {
		if fits(f, pc.X+k.X, pc.Y+k.Y, rot) {
			pc.X += k.X
			pc.Y += k.Y
			pc.Rot = rot
			return true
		}
	}
	return false
}

// resting reports whether the piece cannot move down.
func (pc *Piece) resting(f *field.Field) bool {
	return !fits(f, pc.X, pc.Y-1, pc.Rot)
}

// descend adds speed to the fall progress and moves down whole rows. It
// returns the number of rows moved.
func (pc *Piece) descend(f *field.Field, speed float64) int {
	pc.fall += speed
	rows := 0
	for pc.fall >= 1 {
		if pc.resting(f) {
			pc.fall = 0
			break
		}
		pc.Y--
		pc.fall--
		rows++
	}
	return rows
}

// Shadow returns where the piece lands when dropped straight down, with
// the colors of each cell. It returns nil when a column is full.
func (pc Piece) Shadow(f *field.Field) []field.Shadow {
	return ShadowOf(f, pc.X, pc.Rot, pc.Pivot, pc.Second)
}

// ShadowOf returns the resting cells of a doublet dropped into column x
// with rotation rot, or nil when a cell would reach the hidden row.
func ShadowOf(f *field.Field, x, rot, pivot, second int) []field.Shadow {
	off := satellite[rot&3]
	sx := x + off.X
	hidden := f.HiddenRow()
	if off.X == 0 {
		y := f.DropTarget(x)
		if y < 0 || y+1 >= hidden {
			return nil
		}
		if off.Y > 0 {
			return []field.Shadow{{X: x, Y: y, Color: pivot}, {X: x, Y: y + 1, Color: second}}
		}
		return []field.Shadow{{X: x, Y: y, Color: second}, {X: x, Y: y + 1, Color: pivot}}
	}
	py, sy := f.DropTarget(x), f.DropTarget(sx)
	if py < 0 || sy < 0 || py >= hidden || sy >= hidden {
		return nil
	}
	return []field.Shadow{{X: x, Y: py, Color: pivot}, {X: sx, Y: sy, Color: second}}
}

// Queue deals doublet colors from a seeded stream.
type Queue struct {
	rng    *rand.Rand
	colors int
	next   [][2]int
}

// QueueDepth is how many doublets are dealt ahead, the current one included.
const QueueDepth = 3

// NewQueue creates a queue drawing from the first colors colors.
func NewQueue(rng *rand.Rand, colors int) *Queue {
	q := &Queue{rng: rng, colors: max(colors, 1)}
	for len(q.next) < QueueDepth {
		q.next = append(q.next, q.deal())
	}
	return q
}

func (q *Queue) deal() [2]int {
	return [2]int{q.rng.Intn(q.colors), q.rng.Intn(q.colors)}
}

// Pop removes the front doublet and deals a new one at the back.
func (q *Queue) Pop() [2]int {
	d := q.next[0]
	q.next = append(q.next[1:], q.deal())
	return d
}

// Preview returns the upcoming doublets without removing them.
func (q *Queue) Preview() [][2]int {
	out := make([][2]int, len(q.next))
	copy(out, q.next)
	return out
}
