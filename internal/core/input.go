package core

// Action is a control a player can press, independent of the key bound to it.
type Action int

const (
	ActionNone Action = iota
	ActionLeft
	ActionRight
	ActionRotateCW
	ActionRotateCCW
	ActionDown // held for soft drop
	ActionConfirm
	ActionBack
	ActionRestart
	ActionQuit
	ActionPause
	ActionFastForward // replay only
	ActionRewind      // replay only
	ActionHint
	actionCount
)

var actionNames = [actionCount]string{
	"None", "Left", "Right", "RotateCW", "RotateCCW", "Down", "Confirm", "Back",
	"Restart", "Quit", "Pause", "FastForward", "Rewind", "Hint",
}

func (a Action) String() string {
	if a < 0 || a >= actionCount {
		return "Unknown"
	}
	return actionNames[a]
}

// PlayerID is a local input slot. Player1 is the keyboard.
type PlayerID int

const (
	Player1 PlayerID = iota
	Player2
	Player3
	Player4
	playerSlots
)

// InputFrame is the set of actions pressed during one frame. The zero
// value is an empty frame.
type InputFrame struct {
	pressed uint32
}

func NewInputFrame() InputFrame { return InputFrame{} }

func (f *InputFrame) Set(a Action) {
	if a > ActionNone && a < actionCount {
		f.pressed |= 1 << a
	}
}

func (f InputFrame) Has(a Action) bool {
	return a > ActionNone && a < actionCount && f.pressed&(1<<a) != 0
}

// Merge adds every action pressed in other.
func (f *InputFrame) Merge(other InputFrame) { f.pressed |= other.pressed }

func (f *InputFrame) Clear() { f.pressed = 0 }

func (f InputFrame) Empty() bool { return f.pressed == 0 }

// Actions lists the pressed actions in declaration order.
func (f InputFrame) Actions() []Action {
	var out []Action
	for a := ActionNone + 1; a < actionCount; a++ {
		if f.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

// MultiInputFrame holds one InputFrame per local slot. The zero value is
// an empty frame for every slot.
type MultiInputFrame struct {
	slots [playerSlots]InputFrame
}

func NewMultiInputFrame() MultiInputFrame { return MultiInputFrame{} }

// Player returns the slot's frame, or an empty frame for an unknown slot.
func (m MultiInputFrame) Player(id PlayerID) InputFrame {
	if id < 0 || id >= playerSlots {
		return InputFrame{}
	}
	return m.slots[id]
}

func (m *MultiInputFrame) SetPlayer(id PlayerID, frame InputFrame) {
	if id >= 0 && id < playerSlots {
		m.slots[id] = frame
	}
}

func (m *MultiInputFrame) Clear() {
	m.slots = [playerSlots]InputFrame{}
}
