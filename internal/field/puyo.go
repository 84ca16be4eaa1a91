package field

// Kind discriminates the puyo variants stored in a field cell.
type Kind uint8

const (
	KindNone Kind = iota
	KindColor
	KindNuisance
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindColor:
		return "Color"
	case KindNuisance:
		return "Nuisance"
	default:
		return "Unknown"
	}
}

// FallState is the per-cell fall sub-state.
type FallState uint8

const (
	Resting FallState = iota // settled on its cell
	Pending                  // waiting for the sweep counter to reach FallDelay
	Falling                  // accelerating toward TargetY
)

// Link is a bitmask of adjacency links drawn between same-colored neighbors.
type Link uint8

const (
	LinkUp Link = 1 << iota
	LinkDown
	LinkLeft
	LinkRight
)

// MaxColors is the number of distinct puyo colors the field understands.
const MaxColors = 5

// ValidColor reports whether c is a puyo color the field can hold.
func ValidColor(c int) bool { return c >= 0 && c < MaxColors }

// Pos is a cell coordinate. Y grows upward, row 0 is the floor.
type Pos struct {
	X, Y int
}

// Puyo is a single grid occupant. Kind selects the variant: Color and Links
// are only meaningful for KindColor, Hard and LastNuisance for KindNuisance.
type Puyo struct {
	Kind  Kind
	Color int

	X, Y int

	// Fall state.
	Fall      FallState
	FallDelay float64
	TargetY   int
	PosY      float64 // visual row, fractional while falling
	Speed     float64
	Landed    bool // landed this phase, bounce not started yet

	// Bounce state.
	BounceTimer      int
	BounceMultiplier float64
	BottomY          int

	Links Link

	Mark         bool
	Destroy      bool
	Glow         bool
	LastNuisance bool
	Hard         bool
	Dropable     bool

	PopTimer int
}

func newColorPuyo(x, y, color int) *Puyo {
	return &Puyo{
		Kind:             KindColor,
		Color:            color,
		X:                x,
		Y:                y,
		TargetY:          y,
		PosY:             float64(y),
		BounceMultiplier: 1,
		Dropable:         true,
	}
}

func newNuisancePuyo(x, y int) *Puyo {
	return &Puyo{
		Kind:             KindNuisance,
		Color:            -1,
		X:                x,
		Y:                y,
		TargetY:          y,
		PosY:             float64(y),
		BounceMultiplier: 1,
		Hard:             true,
		Dropable:         true,
	}
}

// clone returns an independent copy of the puyo.
func (p *Puyo) clone() *Puyo {
	c := *p
	return &c
}

// Linked reports whether the puyo is linked in the given direction.
func (p *Puyo) Linked(l Link) bool {
	return p.Links&l != 0
}

// BounceOffset returns the current squash offset of a bouncing puyo in
// cells. Zero when the puyo is not bouncing.
func (p *Puyo) BounceOffset(bounceEnd int) float64 {
	if p.BounceTimer == 0 || bounceEnd <= 0 {
		return 0
	}
	t := float64(p.BounceTimer) / float64(bounceEnd)
	if t > 1 {
		t = 1
	}
	// one squash and release per bounce
	return -0.25 * p.BounceMultiplier * (1 - t) * (1 - 2*abs(t-0.5))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
