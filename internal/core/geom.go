// Package core provides the platform types shared by the engine and the
// front-ends: screen buffer, colors, input actions and geometry. It has no
// external dependencies (especially no Bubble Tea) so the engine stays pure
// and testable.
package core

// Rect is an area of the screen, such as the well of one player panel.
type Rect struct {
	X, Y int
	W, H int
}

func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Right is the first column past the rectangle.
func (r Rect) Right() int { return r.X + r.W }

// Bottom is the first row past the rectangle.
func (r Rect) Bottom() int { return r.Y + r.H }

// Center returns the middle cell, rounding toward the top left.
func (r Rect) Center() (int, int) {
	return r.X + r.W/2, r.Y + r.H/2
}

// Clamp restricts val to [lo, hi].
func Clamp(val, lo, hi int) int {
	return min(max(val, lo), hi)
}
