package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-puyo/internal/core"
	"github.com/vovakirdan/tui-puyo/internal/registry"
	"github.com/vovakirdan/tui-puyo/internal/replay"
	"github.com/vovakirdan/tui-puyo/internal/versus"
)

// ReplayModel plays a recorded match back with pause, fast forward and
// rewind.
type ReplayModel struct {
	file      *replay.File
	match     *versus.Match
	views     []versus.View
	screen    *core.Screen
	keyMapper *KeyMapper
	tickRate  int
	status    string

	quitting   bool
	backToMenu bool
	standalone bool
}

// NewReplayModel prepares f for playback with rules.
func NewReplayModel(f *replay.File, rules registry.Ruleset, logger *log.Logger, tickRate, width, height int) (ReplayModel, error) {
	if tickRate <= 0 {
		tickRate = 60
	}
	match, err := versus.NewReplay(f, rules, logger)
	if err != nil {
		return ReplayModel{}, err
	}
	match.Start()
	return ReplayModel{
		file:      f,
		match:     match,
		views:     match.View(),
		screen:    core.NewScreen(width, height),
		keyMapper: NewKeyMapper(),
		tickRate:  tickRate,
	}, nil
}

// Init starts the tick loop.
func (m ReplayModel) Init() tea.Cmd {
	return tickCmd(m.tickRate)
}

// Update handles messages.
func (m ReplayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.screen.Resize(msg.Width, msg.Height)
		return m, nil
	case TickMsg:
		return m.handleTick()
	}
	return m, nil
}

func (m ReplayModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	pb := m.match.Playback()
	action, _ := m.keyMapper.MapKey(msg)
	switch action {
	case core.ActionQuit, core.ActionBack:
		m.backToMenu = true
		if m.standalone {
			m.quitting = true
			return m, tea.Quit
		}
	case core.ActionPause:
		if pb.State() == replay.Paused {
			pb.SetState(replay.Normal)
		} else {
			pb.SetState(replay.Paused)
		}
	case core.ActionFastForward:
		switch pb.State() {
		case replay.FastForward:
			pb.SetState(replay.FastForwardX4)
		case replay.FastForwardX4:
			pb.SetState(replay.Normal)
		default:
			pb.SetState(replay.FastForward)
		}
	case core.ActionRewind:
		pb.SetState(replay.Rewind)
	case core.ActionRestart:
		if err := m.match.Seek(0); err != nil {
			m.status = err.Error()
		}
		m.views = m.match.View()
	}
	return m, nil
}

func (m ReplayModel) handleTick() (tea.Model, tea.Cmd) {
	if m.status == "" {
		if err := m.match.Advance(); err != nil {
			m.status = err.Error()
		}
		m.views = m.match.View()
	}
	return m, tickCmd(m.tickRate)
}

// View renders the replay.
func (m ReplayModel) View() string {
	if m.quitting {
		return ""
	}

	m.screen.Clear()
	w, h := BoardsSize(m.views)
	if w > m.screen.Width() || h+2 > m.screen.Height() {
		renderTooSmall(m.screen, w, h+2)
		return RenderScreen(m.screen)
	}

	x := (m.screen.Width() - w) / 2
	hd := m.file.Header
	title := fmt.Sprintf("REPLAY %s  %s  %d/%d  [%s]",
		hd.Date, hd.Ruleset, m.match.Frame(), hd.Duration, m.match.Playback().State())
	m.screen.DrawTextColor(x, 0, title, core.ColorGray)
	DrawBoards(m.screen, m.views, x, 1)

	footer := "p pause  f fast forward  backspace rewind  r restart  b back"
	color := core.ColorGray
	switch {
	case m.status != "":
		footer, color = m.status, core.ColorRed
	case m.match.Finished():
		footer, color = "END  r restart  b back", core.ColorBrightYellow
	}
	m.screen.DrawTextColor(x, h+1, footer, color)
	return RenderScreen(m.screen)
}

// IsQuitting returns true if user requested to quit entirely.
func (m ReplayModel) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if user requested to go back to menu.
func (m ReplayModel) BackToMenu() bool {
	return m.backToMenu
}

// RunReplay plays f in a standalone Bubble Tea program.
func RunReplay(f *replay.File, rules registry.Ruleset, logger *log.Logger, tickRate, width, height int) error {
	model, err := NewReplayModel(f, rules, logger, tickRate, width, height)
	if err != nil {
		return err
	}
	model.standalone = true

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
