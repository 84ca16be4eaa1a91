// Package field implements the puyo grid: placement, gravity, connected
// group search, chain resolution, prediction, fall/bounce physics and
// nuisance placement. It is pure logic with no rendering or I/O.
package field

// Properties describes the grid geometry and its on-screen placement.
type Properties struct {
	GridW int // columns
	GridH int // rows, including the hidden row and two overflow rows

	CellW   int
	CellH   int
	OffsetX int
	OffsetY int
	Scale   float64
	Angle   float64
}

// DefaultProperties returns the standard 6x15 field: 12 visible rows, one
// hidden row and two overflow rows.
func DefaultProperties() Properties {
	return Properties{
		GridW: 6,
		GridH: 15,
		CellW: 2,
		CellH: 1,
		Scale: 1,
	}
}

// DefaultClearThreshold is the group size that pops when no ruleset says otherwise.
const DefaultClearThreshold = 4

// Field owns the grid of puyo. Cells are stored in a flat slice indexed by
// x + y*GridW; every accessor is bounds checked.
type Field struct {
	props     Properties
	threshold int
	cells     []*Puyo

	// deleted holds popped puyo until their pop animation finishes.
	deleted []*Puyo

	sweep float64
}

// New creates an empty field. A threshold below 1 falls back to
// DefaultClearThreshold.
func New(props Properties, threshold int) *Field {
	if props.GridW <= 0 || props.GridH <= 0 {
		props = DefaultProperties()
	}
	if threshold < 1 {
		threshold = DefaultClearThreshold
	}
	return &Field{
		props:     props,
		threshold: threshold,
		cells:     make([]*Puyo, props.GridW*props.GridH),
	}
}

// Properties returns the grid geometry.
func (f *Field) Properties() Properties {
	return f.props
}

// Width returns the number of columns.
func (f *Field) Width() int {
	return f.props.GridW
}

// Height returns the number of rows.
func (f *Field) Height() int {
	return f.props.GridH
}

// Threshold returns the clear threshold.
func (f *Field) Threshold() int {
	return f.threshold
}

// HiddenRow is the row right above the visible area. Puyo there never join a group.
func (f *Field) HiddenRow() int {
	return f.props.GridH - 3
}

// InBounds reports whether (x, y) is a cell of the grid.
func (f *Field) InBounds(x, y int) bool {
	return x >= 0 && x < f.props.GridW && y >= 0 && y < f.props.GridH
}

func (f *Field) index(x, y int) int {
	return x + y*f.props.GridW
}

// At returns the occupant of (x, y) or nil.
func (f *Field) At(x, y int) *Puyo {
	if !f.InBounds(x, y) {
		return nil
	}
	return f.cells[f.index(x, y)]
}

func (f *Field) set(x, y int, p *Puyo) {
	f.cells[f.index(x, y)] = p
	if p != nil {
		p.X, p.Y = x, y
	}
}

// IsEmpty reports whether a piece could occupy (x, y). The region above the
// grid counts as empty for interior columns; anything outside the column
// range is never empty.
func (f *Field) IsEmpty(x, y int) bool {
	if y > f.props.GridH-1 && x > 0 && x < f.props.GridW-1 {
		return true
	}
	if !f.InBounds(x, y) {
		return false
	}
	return f.cells[f.index(x, y)] == nil
}

// IsPuyo reports whether (x, y) holds a puyo.
func (f *Field) IsPuyo(x, y int) bool {
	return f.At(x, y) != nil
}

// Color returns the color at (x, y), or -1 for empty, nuisance and out of range.
func (f *Field) Color(x, y int) int {
	p := f.At(x, y)
	if p == nil || p.Kind != KindColor {
		return -1
	}
	return p.Color
}

// KindAt returns the kind of the occupant at (x, y).
func (f *Field) KindAt(x, y int) Kind {
	p := f.At(x, y)
	if p == nil {
		return KindNone
	}
	return p.Kind
}

// AddColorPuyo places a color puyo. offset lifts its starting visual row
// above the cell. Returns false when the cell is occupied or out of range,
// or the color is outside the palette.
func (f *Field) AddColorPuyo(x, y, color int, fall FallState, offset int, delay float64) bool {
	if !ValidColor(color) || !f.InBounds(x, y) || f.At(x, y) != nil {
		return false
	}
	p := newColorPuyo(x, y, color)
	p.Fall = fall
	p.FallDelay = delay
	p.PosY = float64(y + offset)
	f.set(x, y, p)
	return true
}

// AddNuisancePuyo places a nuisance puyo with the same rules as AddColorPuyo.
func (f *Field) AddNuisancePuyo(x, y int, fall FallState, offset int, delay float64) bool {
	if !f.InBounds(x, y) || f.At(x, y) != nil {
		return false
	}
	p := newNuisancePuyo(x, y)
	p.Fall = fall
	p.FallDelay = delay
	p.PosY = float64(y + offset)
	f.set(x, y, p)
	return true
}

// DropSingle moves the puyo at (x, y) to the lowest empty cell below it and
// returns its row. It returns y when the puyo already rests, and -1 when the
// cell is empty, out of range, or the puyo cannot drop.
func (f *Field) DropSingle(x, y int) int {
	p := f.At(x, y)
	if p == nil || !p.Dropable {
		return -1
	}
	if y == 0 || !f.IsEmpty(x, y-1) {
		return y
	}
	ny := y - 1
	for ny > 0 && f.IsEmpty(x, ny-1) {
		ny--
	}
	f.set(x, y, nil)
	f.set(x, ny, p)
	return ny
}

// Drop applies DropSingle to every cell, column by column from the floor up.
func (f *Field) Drop() {
	for x := 0; x < f.props.GridW; x++ {
		for y := 0; y < f.props.GridH; y++ {
			f.DropSingle(x, y)
		}
	}
}

// setFallTarget aims the puyo at (x, y) at its current cell.
func (f *Field) setFallTarget(x, y int) {
	if p := f.At(x, y); p != nil {
		p.TargetY = y
	}
}

// RemovePuyo flags the puyo at (x, y) destroyed and moves it to the pending
// removal list so its pop animation can play.
func (f *Field) RemovePuyo(x, y int) bool {
	p := f.At(x, y)
	if p == nil {
		return false
	}
	p.Destroy = true
	p.Mark = false
	f.deleted = append(f.deleted, p)
	f.set(x, y, nil)
	return true
}

// clearCell discards the occupant of (x, y) without animation.
func (f *Field) clearCell(x, y int) {
	if f.InBounds(x, y) {
		f.set(x, y, nil)
	}
}

// Deleted returns the puyo currently playing their pop animation.
func (f *Field) Deleted() []*Puyo {
	return f.deleted
}

// Clear empties the grid and the pending removal list.
func (f *Field) Clear() {
	for i := range f.cells {
		f.cells[i] = nil
	}
	f.deleted = nil
	f.sweep = 0
}

// Count returns the number of occupied cells.
func (f *Field) Count() int {
	n := 0
	for _, p := range f.cells {
		if p != nil {
			n++
		}
	}
	return n
}

// DeathCell is the cell that ends the game when occupied after a move.
func (f *Field) DeathCell() Pos {
	return Pos{X: (f.props.GridW - 1) / 2, Y: f.props.GridH - 4}
}

// Lost reports whether the death cell is occupied.
func (f *Field) Lost() bool {
	d := f.DeathCell()
	return f.IsPuyo(d.X, d.Y)
}

// Clone returns a deep copy of the grid. The pending removal list is not copied.
func (f *Field) Clone() *Field {
	c := &Field{
		props:     f.props,
		threshold: f.threshold,
		cells:     make([]*Puyo, len(f.cells)),
		sweep:     f.sweep,
	}
	for i, p := range f.cells {
		if p != nil {
			c.cells[i] = p.clone()
		}
	}
	return c
}

// DropTarget returns the row a piece dropped into column x comes to rest
// on, or -1 when the column is full or out of range.
func (f *Field) DropTarget(x int) int {
	if x < 0 || x >= f.props.GridW {
		return -1
	}
	for y := 0; y < f.props.GridH; y++ {
		if f.At(x, y) == nil {
			return y
		}
	}
	return -1
}
