package replay

// State is the playback mode.
type State int

const (
	Normal State = iota
	Paused
	FastForward
	FastForwardX4
	Rewind
)

func (s State) String() string {
	switch s {
	case Normal:
		return "normal"
	case Paused:
		return "paused"
	case FastForward:
		return "fast forward"
	case FastForwardX4:
		return "fast forward x4"
	case Rewind:
		return "rewind"
	}
	return "unknown"
}

// RewindFrames is how far one rewind request jumps back.
const RewindFrames = 3 * 60

// Player feeds recorded messages back into a match.
type Player struct {
	file    *File
	state   State
	cursors []int
}

// NewPlayer creates a playback cursor at frame 0.
func NewPlayer(f *File) *Player {
	return &Player{file: f, cursors: make([]int, len(f.Players))}
}

// File returns the replay being played.
func (p *Player) File() *File { return p.file }

// State returns the playback mode.
func (p *Player) State() State { return p.state }

// SetState changes the playback mode.
func (p *Player) SetState(s State) { p.state = s }

// Speed returns how many match ticks run per display tick.
func (p *Player) Speed() int {
	switch p.state {
	case Paused:
		return 0
	case FastForward:
		return 2
	case FastForwardX4:
		return 4
	}
	return 1
}

// Due returns, in order, the messages of player recorded at or before frame
// that have not been delivered yet.
func (p *Player) Due(player, frame int) []string {
	if player < 0 || player >= len(p.cursors) {
		return nil
	}
	msgs := p.file.Players[player].Messages
	var due []string
	for p.cursors[player] < len(msgs) && msgs[p.cursors[player]].Frame <= frame {
		due = append(due, msgs[p.cursors[player]].Payload)
		p.cursors[player]++
	}
	return due
}

// Reset moves every cursor back to the start. Rewinding re-simulates the
// match from frame 0 up to the target frame.
func (p *Player) Reset() {
	for i := range p.cursors {
		p.cursors[i] = 0
	}
}

// RewindTarget returns the frame a rewind from frame lands on.
func (p *Player) RewindTarget(frame int) int {
	return max(frame-RewindFrames, 0)
}

// Done reports whether frame is past the recorded duration.
func (p *Player) Done(frame int) bool {
	return frame >= p.file.Header.Duration
}
