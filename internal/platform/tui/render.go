package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-puyo/internal/core"
)

// ansiCodes are the terminal colors of core.Color.
var ansiCodes = map[core.Color]string{
	core.ColorRed:           "1",
	core.ColorGreen:         "2",
	core.ColorYellow:        "3",
	core.ColorBlue:          "4",
	core.ColorMagenta:       "5",
	core.ColorCyan:          "6",
	core.ColorWhite:         "7",
	core.ColorBrightRed:     "9",
	core.ColorBrightGreen:   "10",
	core.ColorBrightYellow:  "11",
	core.ColorBrightBlue:    "12",
	core.ColorBrightMagenta: "13",
	core.ColorBrightCyan:    "14",
	core.ColorBrightWhite:   "15",
	core.ColorOrange:        "208",
	core.ColorGray:          "245",
}

// styles holds one lipgloss style per color. Bright colors mark glowing
// puyo and the active pair, so they are drawn bold.
var styles = buildStyles()

func buildStyles() map[core.Color]lipgloss.Style {
	m := make(map[core.Color]lipgloss.Style, len(ansiCodes)+1)
	m[core.ColorDefault] = lipgloss.NewStyle()
	for c, code := range ansiCodes {
		st := lipgloss.NewStyle().Foreground(lipgloss.Color(code))
		if c >= core.ColorBrightRed && c <= core.ColorBrightCyan {
			st = st.Bold(true)
		}
		m[c] = st
	}
	return m
}

func styleOf(c core.Color) lipgloss.Style {
	if st, ok := styles[c]; ok {
		return st
	}
	return styles[core.ColorDefault]
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Each row is cut into runs of one color so every run costs one escape.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	var run strings.Builder
	for y := range s.Height() {
		if y > 0 {
			sb.WriteByte('\n')
		}
		start := 0
		for start < s.Width() {
			color := s.GetCell(start, y).Color
			run.Reset()
			end := start
			for ; end < s.Width(); end++ {
				cell := s.GetCell(end, y)
				if cell.Color != color {
					break
				}
				run.WriteRune(cell.Rune)
			}
			if color == core.ColorDefault {
				sb.WriteString(run.String())
			} else {
				sb.WriteString(styleOf(color).Render(run.String()))
			}
			start = end
		}
	}
	return sb.String()
}
