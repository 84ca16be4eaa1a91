package tui

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-puyo/internal/multiplayer"
)

// OnlineState is the step of the host or join flow a player is on.
type OnlineState int

const (
	OnlineStateChooseMode OnlineState = iota
	OnlineStateHostSetup
	OnlineStateHostWaiting
	OnlineStateJoinEnterCode
	OnlineStateJoinWaiting
	OnlineStateInMatch
)

const joinCodeLen = 6

var (
	lobbyTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	lobbyCodeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	lobbyErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// OnlineLobbyModel lets a player host a table or join one by code. The
// session owner forwards every multiplayer.SessionEvent to Update; the
// lobby never reads the event channel itself.
type OnlineLobbyModel struct {
	state       OnlineState
	width       int
	height      int
	sessionID   multiplayer.SessionID
	coordinator *multiplayer.Coordinator

	setup    SetupModel
	defaults MatchSelection

	lobbyCode string
	ruleset   string
	seats     int
	names     []string

	code      textinput.Model
	joinError string

	started *multiplayer.MatchStartedEvent

	backToMenu bool
	quitting   bool
}

func NewOnlineLobbyModel(
	sessionID multiplayer.SessionID,
	coordinator *multiplayer.Coordinator,
	defaults MatchSelection,
	width, height int,
) OnlineLobbyModel {
	code := textinput.New()
	code.Prompt = ""
	code.Placeholder = strings.Repeat("_", joinCodeLen)
	code.CharLimit = joinCodeLen
	code.Width = joinCodeLen
	return OnlineLobbyModel{
		width:       width,
		height:      height,
		sessionID:   sessionID,
		coordinator: coordinator,
		defaults:    defaults,
		code:        code,
	}
}

// waitForEvent reads the next coordinator event. A nil channel means the
// session is offline and nothing will arrive.
func waitForEvent(events <-chan multiplayer.SessionEvent) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		if evt, ok := <-events; ok {
			return evt
		}
		return nil
	}
}

func (m OnlineLobbyModel) Init() tea.Cmd { return nil }

func (m OnlineLobbyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.leaveLobby()
			m.quitting = true
			return m, tea.Quit
		}
		return m.onKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.state == OnlineStateHostSetup {
			next, _ := m.setup.Update(msg)
			m.setup = next.(SetupModel)
		}
	case multiplayer.SessionEvent:
		m.onEvent(msg)
	}
	return m, nil
}

func (m *OnlineLobbyModel) onEvent(evt multiplayer.SessionEvent) {
	switch e := evt.(type) {
	case multiplayer.LobbyCreatedEvent:
		m.lobbyCode, m.ruleset, m.seats = e.Code, e.Ruleset, e.Seats
		m.state = OnlineStateHostWaiting
	case multiplayer.LobbyJoinedEvent:
		m.lobbyCode, m.names, m.seats = e.Code, e.Names, e.Seats
	case multiplayer.LobbyPlayerLeftEvent:
		m.names = e.Names
	case multiplayer.LobbyErrorEvent:
		m.joinError = e.Err.Error()
		if m.state == OnlineStateJoinWaiting {
			m.state = OnlineStateJoinEnterCode
		} else if m.state == OnlineStateHostWaiting {
			m.state = OnlineStateChooseMode
		}
	case multiplayer.MatchStartedEvent:
		m.started = &e
		m.state = OnlineStateInMatch
	case multiplayer.MatchEndedEvent:
		// The table closed before it filled.
		m.joinError = e.Reason.String()
		m.names = nil
		m.state = OnlineStateChooseMode
	}
}

func (m OnlineLobbyModel) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	switch m.state {
	case OnlineStateChooseMode:
		switch strings.ToLower(k) {
		case "h", "1":
			m.setup = NewSetupModel(multiplayer.MatchModeOnline, m.defaults, m.width, m.height)
			m.joinError = ""
			m.state = OnlineStateHostSetup
		case "j", "2":
			m.code.Reset()
			m.code.Focus()
			m.joinError = ""
			m.state = OnlineStateJoinEnterCode
		case "esc", "b":
			m.backToMenu = true
		case "q":
			m.quitting = true
			return m, tea.Quit
		}

	case OnlineStateHostSetup:
		return m.onSetupKey(msg)

	case OnlineStateHostWaiting:
		switch k {
		case "esc", "b":
			m.leaveLobby()
			m.state = OnlineStateChooseMode
		case "q":
			m.leaveLobby()
			m.quitting = true
			return m, tea.Quit
		}

	case OnlineStateJoinEnterCode:
		switch k {
		case "esc":
			m.code.Blur()
			m.state = OnlineStateChooseMode
		case "enter":
			if code := m.code.Value(); code != "" {
				m.joinError = ""
				m.state = OnlineStateJoinWaiting
				m.coordinator.Send(multiplayer.JoinLobbyMsg{SessionID: m.sessionID, Code: code})
			}
		default:
			var cmd tea.Cmd
			m.code, cmd = m.code.Update(msg)
			m.code.SetValue(normalizeCode(m.code.Value()))
			m.code.CursorEnd()
			return m, cmd
		}

	case OnlineStateJoinWaiting:
		if k == "esc" || k == "b" {
			m.leaveLobby()
			m.names = nil
			m.state = OnlineStateJoinEnterCode
		}
	}
	return m, nil
}

func (m OnlineLobbyModel) onSetupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	next, cmd := m.setup.Update(msg)
	m.setup = next.(SetupModel)
	if m.setup.IsQuitting() {
		m.quitting = true
		return m, cmd
	}
	if m.setup.WantsBack() {
		m.state = OnlineStateChooseMode
		return m, nil
	}
	if sel := m.setup.Selected(); sel != nil {
		m.defaults = *sel
		m.ruleset, m.seats = sel.Ruleset, sel.Seats
		m.coordinator.Send(multiplayer.CreateLobbyMsg{SessionID: m.sessionID, Ruleset: sel.Ruleset, Seats: sel.Seats})
		m.state = OnlineStateHostWaiting
	}
	return m, nil
}

// normalizeCode keeps the letters and digits of s, upper-cased.
func normalizeCode(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if r < unicode.MaxASCII && (unicode.IsUpper(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// leaveLobby gives up this session's seat. A host leaving closes the table
// for everyone.
func (m OnlineLobbyModel) leaveLobby() {
	code := m.lobbyCode
	if code == "" {
		code = m.code.Value()
	}
	if code == "" || m.coordinator == nil {
		return
	}
	switch m.state {
	case OnlineStateHostWaiting:
		m.coordinator.Send(multiplayer.CancelLobbyMsg{SessionID: m.sessionID, Code: code})
	case OnlineStateJoinWaiting:
		m.coordinator.Send(multiplayer.LeaveLobbyMsg{SessionID: m.sessionID, Code: code})
	}
}

func (m OnlineLobbyModel) View() string {
	if m.quitting {
		return ""
	}
	if m.state == OnlineStateHostSetup {
		return m.setup.View()
	}

	var title, footer string
	var body []string
	switch m.state {
	case OnlineStateChooseMode:
		title, footer = "O N L I N E", "Esc back  Q quit"
		body = []string{"[H] Host a table", "[J] Join a table"}
	case OnlineStateHostWaiting:
		title, footer = "HOSTING TABLE", "Esc cancel  Q quit"
		if m.lobbyCode == "" {
			body = []string{"Opening lobby..."}
			break
		}
		body = append([]string{
			"Share this code with your opponents:",
			"",
			lobbyCodeStyle.Render("[ " + m.lobbyCode + " ]"),
			"",
			"Rules: " + m.ruleset,
			"",
		}, m.seatLines()...)
		body = append(body, "", "Waiting for players to join...")
	case OnlineStateJoinEnterCode:
		title, footer = "JOIN TABLE", "Enter connect  Esc back"
		body = []string{"Enter the table code:", "", "[ " + m.code.View() + " ]"}
	case OnlineStateJoinWaiting:
		title, footer = "JOINED", "Esc leave"
		body = []string{"Table: " + m.code.Value(), ""}
		if len(m.names) == 0 {
			body = append(body, "Connecting...")
		} else {
			body = append(body, m.seatLines()...)
		}
	case OnlineStateInMatch:
		title = "MATCH STARTING"
		if m.started != nil {
			body = []string{fmt.Sprintf("You are player %d", m.started.Seat+1), ""}
		}
		body = append(body, "Get ready!")
	}
	if m.joinError != "" && (m.state == OnlineStateChooseMode || m.state == OnlineStateJoinEnterCode) {
		body = append(body, "", lobbyErrStyle.Render(m.joinError))
	}

	lines := []string{"", centerText(lobbyTitleStyle.Render(title), m.width), ""}
	for _, l := range body {
		lines = append(lines, centerText(l, m.width))
	}
	if footer != "" {
		lines = append(lines, "", centerText(footer, m.width))
	}
	return strings.Join(lines, "\n")
}

// seatLines lists seated players, then "..." for every open seat.
func (m OnlineLobbyModel) seatLines() []string {
	out := make([]string, m.seats)
	for i := range out {
		name := "..."
		if i < len(m.names) {
			name = m.names[i]
		}
		out[i] = fmt.Sprintf("%d. %-12s", i+1, name)
	}
	return out
}

func (m OnlineLobbyModel) State() OnlineState { return m.state }

func (m OnlineLobbyModel) BackToMenu() bool { return m.backToMenu }

func (m OnlineLobbyModel) IsQuitting() bool { return m.quitting }

// Started is the start event once the table filled, or nil.
func (m OnlineLobbyModel) Started() *multiplayer.MatchStartedEvent { return m.started }

func (m OnlineLobbyModel) LobbyCode() string { return m.lobbyCode }
