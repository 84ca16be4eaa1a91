package field

import (
	"strings"
)

// nuisanceDigit encodes a nuisance puyo in a field string.
const nuisanceDigit = '6'

// Encode returns the field string: one digit per cell in row-major order
// starting at the floor, 0 for empty, color+1 for color puyo and 6 for
// nuisance. Trailing zeros are trimmed, so an empty field encodes as "".
func (f *Field) Encode() string {
	var sb strings.Builder
	sb.Grow(len(f.cells))
	for y := 0; y < f.props.GridH; y++ {
		for x := 0; x < f.props.GridW; x++ {
			p := f.At(x, y)
			switch {
			case p == nil:
				sb.WriteByte('0')
			case p.Kind == KindColor:
				sb.WriteByte(byte('1' + p.Color))
			case p.Kind == KindNuisance:
				sb.WriteByte(nuisanceDigit)
			}
		}
	}
	return strings.TrimRight(sb.String(), "0")
}

// Decode replaces the grid with the content of a field string. Pieces are
// placed exactly on their encoded cells and linked; unknown digits and
// cells beyond the grid are ignored. Floating pieces stay where they are
// until the next DropPuyo.
func (f *Field) Decode(s string) {
	f.Clear()
	for i := 0; i < len(s); i++ {
		x := i % f.props.GridW
		y := i / f.props.GridW
		switch d := s[i]; {
		case d >= '1' && d <= '5':
			f.AddColorPuyo(x, y, int(d-'1'), Resting, 0, 0)
		case d == nuisanceDigit:
			f.AddNuisancePuyo(x, y, Resting, 0, 0)
		}
	}
	f.LinkAll()
}

// DropField rains the pieces of a field string down from the spawn row on
// top of the current content. The string is consumed from its end so the
// upper rows arrive last; each layer starts higher and later than the one
// below it.
func (f *Field) DropField(s string) {
	w := f.props.GridW
	spawn := f.props.GridH - 2
	for i := 0; i < len(s); i++ {
		d := s[len(s)-1-i]
		x := w - 1 - i%w
		layer := i / w
		placed := false
		switch {
		case d >= '1' && d <= '5':
			placed = f.AddColorPuyo(x, spawn, int(d-'1'), Pending, layer, float64(layer))
		case d == nuisanceDigit:
			placed = f.AddNuisancePuyo(x, spawn, Pending, layer, 0)
		}
		if placed {
			ny := f.DropSingle(x, spawn)
			f.setFallTarget(x, ny)
		}
	}
	f.sweep = 0
}
