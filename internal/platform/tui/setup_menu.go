package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-puyo/internal/config"
	"github.com/vovakirdan/tui-puyo/internal/multiplayer"
	"github.com/vovakirdan/tui-puyo/internal/registry"
)

var cpuPresets = []config.DifficultyPreset{
	config.DifficultyEasy,
	config.DifficultyNormal,
	config.DifficultyHard,
	config.DifficultyFixed,
}

// MatchSelection holds the options picked before a match.
type MatchSelection struct {
	Ruleset   string
	CPU       config.DifficultyPreset // vs CPU only
	Opponents int                     // vs CPU only
	Seats     int                     // online host only
}

type setupRow int

const (
	rowRuleset setupRow = iota
	rowCPU
	rowOpponents
	rowSeats
	rowStart
)

// SetupModel lets users choose the ruleset and the table before a match.
type SetupModel struct {
	mode      multiplayer.MatchMode
	rows      []setupRow
	cursor    int
	rulesets  []registry.RulesetInfo
	ruleset   int
	cpu       int
	selection MatchSelection
	width     int
	height    int
	keyMapper *KeyMapper
	choosing  bool
	quitting  bool
	back      bool
}

// NewSetupModel creates the setup screen for mode with defaults preselected.
func NewSetupModel(mode multiplayer.MatchMode, defaults MatchSelection, width, height int) SetupModel {
	m := SetupModel{
		mode:      mode,
		rulesets:  registry.List(),
		selection: defaults,
		width:     width,
		height:    height,
		keyMapper: NewKeyMapper(),
		choosing:  true,
	}
	if mode == multiplayer.MatchModeOnline {
		m.rows = []setupRow{rowRuleset, rowSeats, rowStart}
	} else {
		m.rows = []setupRow{rowRuleset, rowCPU, rowOpponents, rowStart}
	}
	for i, r := range m.rulesets {
		if r.ID == defaults.Ruleset {
			m.ruleset = i
		}
	}
	m.cpu = 1
	for i, p := range cpuPresets {
		if p == defaults.CPU {
			m.cpu = i
		}
	}
	m.selection.Opponents = max(1, min(m.selection.Opponents, multiplayer.MaxSeats-1))
	m.selection.Seats = max(multiplayer.MinSeats, min(m.selection.Seats, multiplayer.MaxSeats))
	return m
}

// Init initializes the model.
func (m SetupModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

func (m SetupModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "a", "h":
		m.cycle(-1)
		return m, nil
	case "right", "d", "l":
		m.cycle(1)
		return m, nil
	}

	switch m.keyMapper.MapKeyToMenuAction(msg) {
	case MenuActionQuit:
		m.quitting = true
		return m, tea.Quit
	case MenuActionUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case MenuActionDown:
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case MenuActionSelect:
		if m.rows[m.cursor] != rowStart {
			m.cycle(1)
			return m, nil
		}
		m.choosing = false
		if len(m.rulesets) > 0 {
			m.selection.Ruleset = m.rulesets[m.ruleset].ID
		}
		m.selection.CPU = cpuPresets[m.cpu]
		return m, nil
	case MenuActionBack:
		m.back = true
		return m, nil
	}
	return m, nil
}

// cycle steps the value of the row under the cursor.
func (m *SetupModel) cycle(dir int) {
	wrap := func(v, n int) int { return ((v+dir)%n + n) % n }
	switch m.rows[m.cursor] {
	case rowRuleset:
		if len(m.rulesets) > 0 {
			m.ruleset = wrap(m.ruleset, len(m.rulesets))
		}
	case rowCPU:
		m.cpu = wrap(m.cpu, len(cpuPresets))
	case rowOpponents:
		m.selection.Opponents = wrap(m.selection.Opponents-1, multiplayer.MaxSeats-1) + 1
	case rowSeats:
		span := multiplayer.MaxSeats - multiplayer.MinSeats + 1
		m.selection.Seats = wrap(m.selection.Seats-multiplayer.MinSeats, span) + multiplayer.MinSeats
	}
}

func (m SetupModel) rowText(r setupRow) string {
	switch r {
	case rowRuleset:
		title := "?"
		if len(m.rulesets) > 0 {
			title = m.rulesets[m.ruleset].Title
		}
		return fmt.Sprintf("Rules:      < %-8s >", title)
	case rowCPU:
		return fmt.Sprintf("CPU:        < %-8s >", cpuPresets[m.cpu])
	case rowOpponents:
		return fmt.Sprintf("Opponents:  < %-8d >", m.selection.Opponents)
	case rowSeats:
		return fmt.Sprintf("Players:    < %-8d >", m.selection.Seats)
	}
	return "Start"
}

// View renders the setup screen.
func (m SetupModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := "V S   C P U"
	if m.mode == multiplayer.MatchModeOnline {
		title = "H O S T   M A T C H"
	}
	b.WriteString("\n")
	b.WriteString(centerText(title, m.width))
	b.WriteString("\n\n")

	for i, r := range m.rows {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		b.WriteString(centerText(cursor+m.rowText(r), m.width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(centerText("Left/Right: Change  |  Enter: Select  |  Esc: Back  |  Q: Quit", m.width))

	return b.String()
}

// Selected returns the selection, or nil if still choosing.
func (m SetupModel) Selected() *MatchSelection {
	if m.choosing {
		return nil
	}
	return &m.selection
}

// IsQuitting returns true if user wants to quit.
func (m SetupModel) IsQuitting() bool {
	return m.quitting
}

// WantsBack returns true if user pressed back.
func (m SetupModel) WantsBack() bool {
	return m.back
}
