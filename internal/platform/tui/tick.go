// Package tui provides the Bubble Tea front-end: the versus screen, the
// replay viewer, match history and the SSH server hosting them.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-puyo/internal/core"
)

// TickMsg advances a match or replay by one frame.
type TickMsg time.Time

func tickCmd(tickRate int) tea.Cmd {
	return tea.Tick(core.FrameInterval(tickRate), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
