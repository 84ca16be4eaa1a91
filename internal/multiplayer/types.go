// Package multiplayer is the session layer of online play: the transport
// the match exchanges records over, an in-process hub implementing it, and
// the lobby coordinator that seats sessions into matches.
package multiplayer

import "github.com/google/uuid"

// SessionID uniquely identifies a player's session (e.g., SSH connection).
type SessionID string

// MatchID uniquely identifies a match. It doubles as the transport channel
// name of the match.
type MatchID string

// NewSessionID returns a random session id.
func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// NewMatchID returns a random match id.
func NewMatchID() MatchID {
	return MatchID(uuid.NewString())
}

// MatchMode defines how a match is configured.
type MatchMode int

const (
	// MatchModeVsCPU is one local human against CPU players.
	MatchModeVsCPU MatchMode = iota

	// MatchModeOnline seats every player on its own client.
	MatchModeOnline

	// MatchModeReplay plays back a recorded match.
	MatchModeReplay
)

// String returns a human-readable name for the match mode.
func (m MatchMode) String() string {
	switch m {
	case MatchModeVsCPU:
		return "vs CPU"
	case MatchModeOnline:
		return "Online"
	case MatchModeReplay:
		return "Replay"
	default:
		return "Unknown"
	}
}

// MatchInfo describes a match every client agrees on before the first tick.
type MatchInfo struct {
	ID      MatchID
	Mode    MatchMode
	Seed    int64
	Ruleset string
	Names   []string // one per seat
}
