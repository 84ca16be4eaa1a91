package core

// Color represents a foreground color for a screen cell.
// Uses ANSI 256-color codes for terminal compatibility.
type Color uint8

// Predefined colors for game elements.
const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorBrightRed
	ColorBrightGreen
	ColorBrightYellow
	ColorBrightBlue
	ColorBrightMagenta
	ColorBrightCyan
	ColorBrightWhite
	ColorOrange
	ColorGray
)

// puyoColors maps puyo color indices to screen colors.
var puyoColors = [...]Color{ColorRed, ColorGreen, ColorBlue, ColorYellow, ColorMagenta}

// PuyoColor returns the screen color of a puyo color index. Nuisance and
// unknown indices are gray.
func PuyoColor(index int) Color {
	if index < 0 || index >= len(puyoColors) {
		return ColorGray
	}
	return puyoColors[index]
}

// Highlight returns the bright variant used for glowing puyo.
func (c Color) Highlight() Color {
	switch c {
	case ColorRed:
		return ColorBrightRed
	case ColorGreen:
		return ColorBrightGreen
	case ColorYellow:
		return ColorBrightYellow
	case ColorBlue:
		return ColorBrightBlue
	case ColorMagenta:
		return ColorBrightMagenta
	case ColorCyan:
		return ColorBrightCyan
	case ColorWhite, ColorGray:
		return ColorBrightWhite
	}
	return c
}
