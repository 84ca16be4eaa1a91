package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-puyo/internal/core"
)

// MenuChoice is an entry of the main menu.
type MenuChoice int

const (
	MenuChoiceVsCPU MenuChoice = iota
	MenuChoiceOnline
	MenuChoiceHistory
)

type MenuItem struct {
	Choice MenuChoice
	Title  string
	Hint   string
}

var (
	menuTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	menuActiveStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	menuHintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// MenuModel is the first screen of a session. Digits pick an entry directly.
type MenuModel struct {
	items    []MenuItem
	cursor   int
	config   core.RuntimeConfig
	keys     *KeyMapper
	quitting bool
	selected *MenuItem
}

// NewMenuModel lists the online entry only when a coordinator is available.
func NewMenuModel(cfg core.RuntimeConfig, online bool) MenuModel {
	items := []MenuItem{{Choice: MenuChoiceVsCPU, Title: "Versus CPU", Hint: "one to three CPU opponents"}}
	if online {
		items = append(items, MenuItem{Choice: MenuChoiceOnline, Title: "Online", Hint: "host or join a table by code"})
	}
	items = append(items, MenuItem{Choice: MenuChoiceHistory, Title: "History & Replays", Hint: "past matches and top scores"})
	return MenuModel{items: items, config: cfg, keys: NewKeyMapper()}
}

func (m MenuModel) Init() tea.Cmd { return nil }

func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.config.ScreenW, m.config.ScreenH = msg.Width, msg.Height
	case tea.KeyMsg:
		if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
			if i := int(s[0] - '1'); i < len(m.items) {
				m.cursor = i
				m.pick(m.items[i])
			}
			return m, nil
		}
		switch m.keys.MapKeyToMenuAction(msg) {
		case MenuActionQuit:
			m.quitting = true
			return m, tea.Quit
		case MenuActionUp:
			m.cursor = (m.cursor + len(m.items) - 1) % len(m.items)
		case MenuActionDown:
			m.cursor = (m.cursor + 1) % len(m.items)
		case MenuActionSelect:
			m.pick(m.items[m.cursor])
		case MenuActionScoreboard:
			for _, item := range m.items {
				if item.Choice == MenuChoiceHistory {
					m.pick(item)
				}
			}
		}
	}
	return m, nil
}

func (m *MenuModel) pick(item MenuItem) {
	m.selected = &item
}

func (m MenuModel) View() string {
	if m.quitting {
		return ""
	}
	w := m.config.ScreenW
	lines := []string{
		"",
		centerText(menuTitleStyle.Render("P U Y O   V S"), w),
		centerText(menuHintStyle.Render("pop four, chain, bury them"), w),
		"",
	}
	for i, item := range m.items {
		label := string(rune('1'+i)) + ". " + item.Title
		if i == m.cursor {
			lines = append(lines, centerText(menuActiveStyle.Render("> "+label), w))
			lines = append(lines, centerText(menuHintStyle.Render(item.Hint), w))
			continue
		}
		lines = append(lines, centerText("  "+label, w), "")
	}
	lines = append(lines, "", centerText("Up/Down move  Enter select  Tab history  Q quit", w), "")
	return strings.Join(lines, "\n")
}

// Selected is the chosen entry, nil until the player picks one.
func (m MenuModel) Selected() *MenuItem { return m.selected }

func (m MenuModel) IsQuitting() bool { return m.quitting }

// Config carries the screen size seen by the menu to the next screen.
func (m MenuModel) Config() core.RuntimeConfig { return m.config }

// centerText pads text on the left so it sits in the middle of width
// columns. Styled text is measured without its escape codes.
func centerText(text string, width int) string {
	if strings.Contains(text, "\n") {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, text)
	}
	if w := lipgloss.Width(text); w < width {
		return strings.Repeat(" ", (width-w)/2) + text
	}
	return text
}
