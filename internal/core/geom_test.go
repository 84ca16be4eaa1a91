package core

import "testing"

func TestRectEdges(t *testing.T) {
	r := NewRect(2, 3, 14, 16)
	if r.Right() != 16 {
		t.Errorf("Right() = %d, expected 16", r.Right())
	}
	if r.Bottom() != 19 {
		t.Errorf("Bottom() = %d, expected 19", r.Bottom())
	}
}

func TestRectCenter(t *testing.T) {
	tests := []struct {
		name   string
		r      Rect
		cx, cy int
	}{
		{"even well", NewRect(0, 2, 14, 16), 7, 10},
		{"odd size rounds down", NewRect(1, 1, 5, 3), 3, 2},
		{"empty", NewRect(4, 4, 0, 0), 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cx, cy := tt.r.Center()
			if cx != tt.cx || cy != tt.cy {
				t.Errorf("Center() = (%d, %d), expected (%d, %d)", cx, cy, tt.cx, tt.cy)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, lo, hi int
		expected    int
	}{
		{0, 1, 3, 1},
		{2, 1, 3, 2},
		{7, 1, 3, 3},
		{1, 1, 1, 1},
	}
	for _, tt := range tests {
		if got := Clamp(tt.val, tt.lo, tt.hi); got != tt.expected {
			t.Errorf("Clamp(%d, %d, %d) = %d, expected %d", tt.val, tt.lo, tt.hi, got, tt.expected)
		}
	}
}

func TestFrameInterval(t *testing.T) {
	if got := FrameInterval(50); got.Milliseconds() != 20 {
		t.Errorf("FrameInterval(50) = %v, expected 20ms", got)
	}
	if FrameInterval(0) != FrameInterval(DefaultTickRate) {
		t.Errorf("FrameInterval(0) = %v, expected the default rate", FrameInterval(0))
	}
}
