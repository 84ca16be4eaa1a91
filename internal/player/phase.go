package player

// Phase is a step of the per-player state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCreatePiece
	PhaseDropPuyo
	PhaseFall
	PhaseBounce
	PhaseSearchChain
	PhasePop
	PhaseDropGarbage
	PhaseFallGarbage
	PhaseCheckLoss
	PhaseLost
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseCreatePiece:
		return "CreatePiece"
	case PhaseDropPuyo:
		return "DropPuyo"
	case PhaseFall:
		return "Fall"
	case PhaseBounce:
		return "Bounce"
	case PhaseSearchChain:
		return "SearchChain"
	case PhasePop:
		return "Pop"
	case PhaseDropGarbage:
		return "DropGarbage"
	case PhaseFallGarbage:
		return "FallGarbage"
	case PhaseCheckLoss:
		return "CheckLoss"
	case PhaseLost:
		return "Lost"
	default:
		return "Unknown"
	}
}

// Kind tells who decides a player's moves.
type Kind int

const (
	KindHuman Kind = iota
	KindCPU
	KindOnline
	KindReplay
)

// String returns the kind name stored in replay files.
func (k Kind) String() string {
	switch k {
	case KindHuman:
		return "human"
	case KindCPU:
		return "cpu"
	case KindOnline:
		return "online"
	case KindReplay:
		return "replay"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String. Unknown names map to KindReplay.
func ParseKind(s string) Kind {
	switch s {
	case "human":
		return KindHuman
	case "cpu":
		return KindCPU
	case "online":
		return KindOnline
	default:
		return KindReplay
	}
}

// Authoritative reports whether the player decides its own moves. Other
// players follow the records in their inbox.
func (k Kind) Authoritative() bool {
	return k == KindHuman || k == KindCPU
}
