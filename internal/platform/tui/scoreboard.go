package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-puyo/internal/registry"
	"github.com/vovakirdan/tui-puyo/internal/storage"
)

// Scoreboard layout constants
const (
	minWidthForSidebar = 80  // Minimum width to show the page sidebar
	sidebarWidth       = 20  // Width of page sidebar
	tableMinWidth      = 50  // Minimum table width
	maxRows            = 100 // Max rows to load
)

// ScoreboardKeyMap defines the key bindings for the history screen.
type ScoreboardKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Select   key.Binding
	Back     key.Binding
	Quit     key.Binding
	NextPage key.Binding
	PrevPage key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k ScoreboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextPage, k.Select, k.Back}
}

// FullHelp returns key bindings for the full help view.
func (k ScoreboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextPage, k.PrevPage},
		{k.Select, k.Back, k.Quit},
	}
}

// DefaultScoreboardKeyMap returns default key bindings.
func DefaultScoreboardKeyMap() ScoreboardKeyMap {
	return ScoreboardKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("left/h", "prev page"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("right/l", "next page"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "watch replay"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "prev page"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc/b", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

type pageKind int

const (
	pageMatches pageKind = iota
	pageReplays
	pageScores
)

// historyPage is one entry of the sidebar.
type historyPage struct {
	kind    pageKind
	title   string
	ruleset string // pageScores only
}

// ScoreboardModel is the Bubble Tea model for the history screen: recent
// matches, stored replays and the top scores of every ruleset.
type ScoreboardModel struct {
	pages       []historyPage
	pageCursor  int
	store       *storage.Store
	player      string // limits the match page to one player when set
	replayIDs   []string
	rows        int
	table       table.Model
	help        help.Model
	keys        ScoreboardKeyMap
	width       int
	height      int
	quitting    bool
	goingBack   bool   // True if user pressed back (not quit)
	watch       string // replay id picked with enter
	showSidebar bool   // Whether to show page sidebar
	standalone  bool
	err         error
}

// NewScoreboardModel creates the history screen. When player is not empty
// the match page only lists that player's matches.
func NewScoreboardModel(store *storage.Store, player string, width, height int) ScoreboardModel {
	pages := []historyPage{
		{kind: pageMatches, title: "Matches"},
		{kind: pageReplays, title: "Replays"},
	}
	for _, r := range registry.List() {
		pages = append(pages, historyPage{kind: pageScores, title: "Top " + r.Title, ruleset: r.ID})
	}

	keys := DefaultScoreboardKeyMap()
	h := help.New()
	h.ShowAll = false

	m := ScoreboardModel{
		pages:       pages,
		store:       store,
		player:      player,
		keys:        keys,
		help:        h,
		width:       width,
		height:      height,
		showSidebar: width >= minWidthForSidebar,
	}
	m.load()
	return m
}

// columns returns the table columns of the current page.
func (m *ScoreboardModel) columns() []table.Column {
	var cols []table.Column
	switch m.pages[m.pageCursor].kind {
	case pageMatches:
		cols = []table.Column{
			{Title: "Date", Width: 12},
			{Title: "Rules", Width: 8},
			{Title: "Players", Width: 24},
			{Title: "Winner", Width: 10},
			{Title: "Time", Width: 6},
		}
	case pageReplays:
		cols = []table.Column{
			{Title: "Date", Width: 12},
			{Title: "Rules", Width: 8},
			{Title: "Players", Width: 24},
			{Title: "Length", Width: 8},
		}
	default:
		cols = []table.Column{
			{Title: "Rank", Width: 6},
			{Title: "Player", Width: 12},
			{Title: "Score", Width: 10},
			{Title: "Chain", Width: 6},
			{Title: "Date", Width: 12},
		}
	}

	// Calculate available width for table
	tableWidth := m.width - 4 // Margins
	if m.showSidebar {
		tableWidth -= sidebarWidth + 3 // Sidebar + border + gap
	}
	used := 0
	for _, c := range cols {
		used += c.Width + 2
	}
	// Give the spare room to the widest column.
	if extra := tableWidth - used; extra > 0 && tableWidth > tableMinWidth {
		wide := 0
		for i, c := range cols {
			if c.Width > cols[wide].Width {
				wide = i
			}
		}
		cols[wide].Width += min(extra, 20)
	}
	return cols
}

// createTable creates a new table with the columns of the current page.
func (m *ScoreboardModel) createTable() table.Model {
	t := table.New(
		table.WithColumns(m.columns()),
		table.WithFocused(true),
		table.WithHeight(max(m.height-8, 3)), // Leave room for header, help, and margins
	)

	// Table styles
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// load rebuilds the table for the current page.
func (m *ScoreboardModel) load() {
	m.table = m.createTable()
	m.replayIDs = nil
	m.err = nil

	var rows []table.Row
	if m.store != nil {
		rows, m.err = m.loadRows()
	}
	m.rows = len(rows)
	m.table.SetRows(rows)

	// Reset cursor to top
	m.table.GotoTop()
}

func (m *ScoreboardModel) loadRows() ([]table.Row, error) {
	page := m.pages[m.pageCursor]
	var rows []table.Row

	switch page.kind {
	case pageMatches:
		var (
			matches []storage.MatchRecord
			err     error
		)
		if m.player != "" {
			matches, err = m.store.PlayerHistory(m.player, maxRows)
		} else {
			matches, err = m.store.RecentMatches(maxRows)
		}
		if err != nil {
			return nil, err
		}
		for _, r := range matches {
			names := make([]string, len(r.Players))
			for i, p := range r.Players {
				names[i] = fmt.Sprintf("%s %d", p.Name, p.Score)
			}
			winner := r.Winner
			if winner == "" {
				winner = "-"
			}
			rows = append(rows, table.Row{
				r.CreatedAt.Format("Jan 02 15:04"),
				r.Ruleset,
				strings.Join(names, " / "),
				winner,
				fmt.Sprintf("%d:%02d", r.Duration/60, r.Duration%60),
			})
			m.replayIDs = append(m.replayIDs, r.ReplayID)
		}

	case pageReplays:
		replays, err := m.store.Replays(maxRows)
		if err != nil {
			return nil, err
		}
		for _, r := range replays {
			secs := r.Frames / 60
			rows = append(rows, table.Row{
				r.CreatedAt.Format("Jan 02 15:04"),
				r.Ruleset,
				strings.Join(r.Players, " / "),
				fmt.Sprintf("%d:%02d", secs/60, secs%60),
			})
			m.replayIDs = append(m.replayIDs, r.ID)
		}

	case pageScores:
		scores, err := m.store.TopScores(page.ruleset, maxRows)
		if err != nil {
			return nil, err
		}
		for i, s := range scores {
			rows = append(rows, table.Row{
				fmt.Sprintf("#%d", i+1),
				s.Player,
				fmt.Sprintf("%d", s.Score),
				fmt.Sprintf("%d", s.MaxChain),
				s.CreatedAt.Format("Jan 02 15:04"),
			})
		}
	}
	return rows, nil
}

// Init initializes the scoreboard model.
func (m ScoreboardModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the scoreboard.
func (m ScoreboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Back):
			m.goingBack = true
			if m.standalone {
				return m, tea.Quit
			}
			return m, nil

		case key.Matches(msg, m.keys.Select):
			i := m.table.Cursor()
			if i >= 0 && i < len(m.replayIDs) && m.replayIDs[i] != "" {
				m.watch = m.replayIDs[i]
				if m.standalone {
					return m, tea.Quit
				}
			}
			return m, nil

		case key.Matches(msg, m.keys.NextPage), key.Matches(msg, m.keys.Right):
			m.pageCursor = (m.pageCursor + 1) % len(m.pages)
			m.load()
			return m, nil

		case key.Matches(msg, m.keys.PrevPage), key.Matches(msg, m.keys.Left):
			m.pageCursor--
			if m.pageCursor < 0 {
				m.pageCursor = len(m.pages) - 1
			}
			m.load()
			return m, nil

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			// Pass to table for scrolling
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.showSidebar = m.width >= minWidthForSidebar
		m.load()
		m.help.Width = msg.Width
		return m, nil
	}

	// Pass other messages to table
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the scoreboard.
func (m ScoreboardModel) View() string {
	if m.quitting || m.goingBack {
		return ""
	}

	var b strings.Builder

	// Title
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		MarginBottom(1)

	title := fmt.Sprintf("HISTORY - %s", m.pages[m.pageCursor].title)
	b.WriteString(titleStyle.Render(centerText(title, m.width)))
	b.WriteString("\n\n")

	if m.showSidebar {
		// Wide layout: sidebar + table
		b.WriteString(m.renderWideLayout())
	} else {
		// Narrow layout: page tabs + table
		b.WriteString(m.renderNarrowLayout())
	}

	// Help bar
	b.WriteString("\n")
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderWideLayout renders the history with a sidebar for page selection.
func (m ScoreboardModel) renderWideLayout() string {
	sidebarStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(sidebarWidth).
		Padding(0, 1)

	var sidebar strings.Builder
	sidebar.WriteString("Pages\n")
	sidebar.WriteString(strings.Repeat("-", sidebarWidth-4))
	sidebar.WriteString("\n")

	for i, p := range m.pages {
		cursor := "  "
		style := lipgloss.NewStyle()
		if i == m.pageCursor {
			cursor = "> "
			style = style.Bold(true).Foreground(lipgloss.Color("229"))
		}

		name := p.title
		maxLen := sidebarWidth - 6
		if len(name) > maxLen {
			name = name[:maxLen-1] + "."
		}
		sidebar.WriteString(style.Render(cursor + name))
		sidebar.WriteString("\n")
	}

	sidebarRendered := sidebarStyle.Render(sidebar.String())

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	tableRendered := tableStyle.Render(m.renderTableContent())

	return lipgloss.JoinHorizontal(lipgloss.Top, sidebarRendered, "  ", tableRendered)
}

// renderNarrowLayout renders the history with page tabs above the table.
func (m ScoreboardModel) renderNarrowLayout() string {
	var b strings.Builder

	tabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	activeTabStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Padding(0, 1)

	tabs := make([]string, len(m.pages))
	for i, p := range m.pages {
		shortName := p.title
		if len(shortName) > 10 {
			shortName = shortName[:9] + "."
		}
		if i == m.pageCursor {
			tabs[i] = activeTabStyle.Render(shortName)
		} else {
			tabs[i] = tabStyle.Render(" " + shortName + " ")
		}
	}

	// Wrap tabs if needed
	tabLine := strings.Join(tabs, " ")
	if lipgloss.Width(tabLine) > m.width-4 {
		tabLine = fmt.Sprintf("< %s >", m.pages[m.pageCursor].title)
	}
	b.WriteString(centerText(tabLine, m.width))
	b.WriteString("\n\n")

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	b.WriteString(centerText(tableStyle.Render(m.renderTableContent()), m.width))

	return b.String()
}

// renderTableContent renders the table or empty message.
func (m ScoreboardModel) renderTableContent() string {
	emptyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Italic(true).
		Padding(2, 4)

	switch {
	case m.store == nil:
		return emptyStyle.Render("History is not available without a database.")
	case m.err != nil:
		return emptyStyle.Render(fmt.Sprintf("Cannot load history:\n%v", m.err))
	case m.rows == 0:
		return emptyStyle.Render("Nothing recorded yet.\nFinish a match to fill this page!")
	}

	return m.table.View()
}

// IsGoingBack returns true if user wants to go back to menu.
func (m ScoreboardModel) IsGoingBack() bool {
	return m.goingBack
}

// IsQuitting returns true if user wants to quit entirely.
func (m ScoreboardModel) IsQuitting() bool {
	return m.quitting
}

// Watch returns the replay id picked with enter, or "".
func (m ScoreboardModel) Watch() string {
	return m.watch
}

// ClearWatch forgets the picked replay.
func (m *ScoreboardModel) ClearWatch() {
	m.watch = ""
}

// RunScoreboard runs the history screen on its own. It returns the replay
// id picked with enter, or "" when the user left.
func RunScoreboard(store *storage.Store, player string, width, height int) (string, error) {
	model := NewScoreboardModel(store, player, width, height)
	model.standalone = true

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	m, ok := finalModel.(ScoreboardModel)
	if !ok {
		return "", nil
	}
	return m.Watch(), nil
}
