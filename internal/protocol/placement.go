package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vovakirdan/tui-puyo/internal/field"
)

// Shape is the kind of piece a placement locked.
type Shape uint8

const (
	Doublet Shape = iota + 2
	Triplet
	Quadruplet
	Big
)

func (s Shape) String() string {
	switch s {
	case Doublet:
		return "doublet"
	case Triplet:
		return "triplet"
	case Quadruplet:
		return "quadruplet"
	case Big:
		return "big"
	}
	return "unknown"
}

// unused marks an empty slot.
const unused = -1

// Placement describes a locked piece and the sender's scoring state.
// Cells hold up to four positions; unused slots are (-1, -1). The color of
// each slot follows the shape: doublet (c1, c2), triplet (c1, c1, c2),
// quadruplet (c1, c1, c2, c2), big (cBig x 4).
type Placement struct {
	Color1   int
	Color2   int
	ColorBig int // -1 unless the piece is big
	Cells    [4]field.Pos

	ScoreVal  int
	DropBonus int
	Margin    int
	Divider   int
	BonusEQ   bool
}

// NewDoublet returns a placement of a two-puyo piece.
func NewDoublet(c1, c2 int, a, b field.Pos) Placement {
	return Placement{
		Color1:   c1,
		Color2:   c2,
		ColorBig: unused,
		Cells:    [4]field.Pos{a, b, {X: unused, Y: unused}, {X: unused, Y: unused}},
	}
}

// Shape infers the piece shape from the used slots.
func (p Placement) Shape() Shape {
	if p.ColorBig >= 0 {
		return Big
	}
	n := 0
	for _, c := range p.Cells {
		if c.X != unused {
			n++
		}
	}
	switch n {
	case 3:
		return Triplet
	case 4:
		return Quadruplet
	}
	return Doublet
}

// Slots returns the colored cells of the placement in slot order.
func (p Placement) Slots() []field.Shadow {
	var colors []int
	switch p.Shape() {
	case Big:
		colors = []int{p.ColorBig, p.ColorBig, p.ColorBig, p.ColorBig}
	case Triplet:
		colors = []int{p.Color1, p.Color1, p.Color2}
	case Quadruplet:
		colors = []int{p.Color1, p.Color1, p.Color2, p.Color2}
	default:
		colors = []int{p.Color1, p.Color2}
	}
	slots := make([]field.Shadow, 0, len(colors))
	for i, c := range colors {
		pos := p.Cells[i]
		if pos.X == unused {
			continue
		}
		slots = append(slots, field.Shadow{X: pos.X, Y: pos.Y, Color: c})
	}
	return slots
}

func (p Placement) encode() string {
	v := []int{
		p.Color1, p.Color2, p.ColorBig,
		p.Cells[0].X, p.Cells[0].Y,
		p.Cells[1].X, p.Cells[1].Y,
		p.Cells[2].X, p.Cells[2].Y,
		p.Cells[3].X, p.Cells[3].Y,
		p.ScoreVal, p.DropBonus, p.Margin, p.Divider, boolInt(p.BonusEQ),
	}
	var sb strings.Builder
	sb.WriteByte(byte(KindPlacement))
	for _, n := range v {
		sb.WriteString(separator)
		sb.WriteString(strconv.Itoa(n))
	}
	return sb.String()
}

func decodePlacement(fields []string) (Placement, error) {
	if len(fields) != placementFields {
		return Placement{}, fmt.Errorf("protocol: placement has %d fields, expected %d: %w", len(fields), placementFields, ErrDesync)
	}
	v := make([]int, placementFields-1)
	for i, f := range fields[1:] {
		n, err := strconv.Atoi(f)
		if err != nil {
			return Placement{}, fmt.Errorf("protocol: placement field %d is %q: %w", i+1, f, ErrDesync)
		}
		v[i] = n
	}
	p := Placement{
		Color1:    v[0],
		Color2:    v[1],
		ColorBig:  v[2],
		ScoreVal:  v[11],
		DropBonus: v[12],
		Margin:    v[13],
		Divider:   v[14],
		BonusEQ:   v[15] != 0,
	}
	for i := range p.Cells {
		p.Cells[i] = field.Pos{X: v[3+2*i], Y: v[4+2*i]}
	}
	if p.Shape() == Doublet && (p.Cells[0].X == unused || p.Cells[1].X == unused) {
		return Placement{}, fmt.Errorf("protocol: placement has fewer than two cells: %w", ErrDesync)
	}
	if p.ColorBig < unused {
		return Placement{}, fmt.Errorf("protocol: bad big color %d: %w", p.ColorBig, ErrDesync)
	}
	for _, s := range p.Slots() {
		if !field.ValidColor(s.Color) {
			return Placement{}, fmt.Errorf("protocol: bad color %d: %w", s.Color, ErrDesync)
		}
	}
	return p, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
