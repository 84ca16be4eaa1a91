package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tui-puyo/internal/field"
)

func TestPlacementLayout(t *testing.T) {
	p := NewDoublet(1, 3, field.Pos{X: 2, Y: 0}, field.Pos{X: 2, Y: 1})
	p.ScoreVal = 1280
	p.DropBonus = 12
	p.Margin = 3600
	p.Divider = 2
	p.BonusEQ = true

	s := Encode(NewPlacement(p))
	assert.Equal(t, "p|1|3|-1|2|0|2|1|-1|-1|-1|-1|1280|12|3600|2|1", s)
	assert.Len(t, strings.Split(s, "|"), placementFields)

	m, err := Decode(s)
	require.NoError(t, err)
	assert.Equal(t, KindPlacement, m.Kind)
	assert.Equal(t, p, m.Placement)
}

func TestPlacementShapes(t *testing.T) {
	none := field.Pos{X: -1, Y: -1}
	tests := []struct {
		name   string
		p      Placement
		shape  Shape
		colors []int
	}{
		{
			name:   "doublet",
			p:      Placement{Color1: 0, Color2: 1, ColorBig: -1, Cells: [4]field.Pos{{X: 0, Y: 0}, {X: 1, Y: 0}, none, none}},
			shape:  Doublet,
			colors: []int{0, 1},
		},
		{
			name:   "triplet",
			p:      Placement{Color1: 2, Color2: 3, ColorBig: -1, Cells: [4]field.Pos{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 0}, none}},
			shape:  Triplet,
			colors: []int{2, 2, 3},
		},
		{
			name:   "quadruplet",
			p:      Placement{Color1: 0, Color2: 4, ColorBig: -1, Cells: [4]field.Pos{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 0}, {X: 1, Y: 1}}},
			shape:  Quadruplet,
			colors: []int{0, 0, 4, 4},
		},
		{
			name:   "big",
			p:      Placement{Color1: 0, Color2: 0, ColorBig: 3, Cells: [4]field.Pos{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 0}, {X: 1, Y: 1}}},
			shape:  Big,
			colors: []int{3, 3, 3, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.shape, tt.p.Shape())

			slots := tt.p.Slots()
			require.Len(t, slots, len(tt.colors))
			for i, s := range slots {
				assert.Equal(t, tt.colors[i], s.Color, "slot %d", i)
				assert.Equal(t, tt.p.Cells[i], field.Pos{X: s.X, Y: s.Y})
			}

			m, err := Decode(Encode(NewPlacement(tt.p)))
			require.NoError(t, err)
			assert.Equal(t, tt.p, m.Placement)
		})
	}
}

func TestGarbageRecords(t *testing.T) {
	assert.Equal(t, "g|18", Encode(NewGarbage(18)))
	assert.Equal(t, "n", Encode(NewNoGarbage()))
	assert.Equal(t, "c|2", Encode(NewConfirm(2)))

	m, err := Decode("g|18")
	require.NoError(t, err)
	assert.Equal(t, KindGarbage, m.Kind)
	assert.Equal(t, 18, m.Garbage)

	m, err = Decode("n")
	require.NoError(t, err)
	assert.Equal(t, KindNoGarbage, m.Kind)

	m, err = Decode("c|2")
	require.NoError(t, err)
	assert.Equal(t, KindConfirm, m.Kind)
	assert.Equal(t, 2, m.Seat)
}

func TestDecodeDesync(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"unknown tag", "x|1"},
		{"long tag", "pp|1"},
		{"short placement", "p|1|2|-1|0|0|1|0"},
		{"long placement", "p|1|2|-1|0|0|1|0|-1|-1|-1|-1|0|0|0|2|0|9"},
		{"non numeric placement", "p|1|a|-1|0|0|1|0|-1|-1|-1|-1|0|0|0|2|0"},
		{"single cell placement", "p|1|2|-1|0|0|-1|-1|-1|-1|-1|-1|0|0|0|2|0"},
		{"garbage without count", "g"},
		{"garbage with two counts", "g|1|2"},
		{"negative garbage", "g|-3"},
		{"no garbage with payload", "n|0"},
		{"confirm without seat", "c"},
		{"confirm with two seats", "c|1|2"},
		{"negative confirm seat", "c|-1"},
		{"color past palette", "p|5|2|-1|0|0|1|0|-1|-1|-1|-1|0|0|0|2|0"},
		{"negative pair color", "p|-1|2|-1|0|0|1|0|-1|-1|-1|-1|0|0|0|2|0"},
		{"big color past palette", "p|0|0|9|0|0|1|0|0|1|1|1|0|0|0|2|0"},
		{"big color below unused", "p|0|0|-2|0|0|1|0|-1|-1|-1|-1|0|0|0|2|0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDesync)
		})
	}
}

func TestPeek(t *testing.T) {
	assert.Equal(t, KindPlacement, Peek("p|0"))
	assert.Equal(t, KindGarbage, Peek("g|1"))
	assert.Equal(t, Kind(0), Peek(""))
}

func TestAcceptMargin(t *testing.T) {
	tests := []struct {
		name     string
		local    int
		incoming int
		expected bool
	}{
		{"equal", 600, 600, true},
		{"behind", 600, 100, true},
		{"ahead within tolerance", 600, 600 + MarginTolerance, true},
		{"too far ahead", 600, 601 + MarginTolerance, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AcceptMargin(tt.local, tt.incoming))
		})
	}
	assert.Equal(t, 1200, MarginTolerance)
}
