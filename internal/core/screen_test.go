package core

import (
	"strings"
	"testing"
)

func TestNewScreen(t *testing.T) {
	s := NewScreen(30, 20)
	if s.Width() != 30 || s.Height() != 20 {
		t.Fatalf("NewScreen(30, 20) is %dx%d", s.Width(), s.Height())
	}
	if strings.TrimSpace(s.String()) != "" {
		t.Errorf("new screen is not blank: %q", s.String())
	}
}

func TestScreenSetColorClips(t *testing.T) {
	s := NewScreen(4, 2)
	for _, p := range [][2]int{{-1, 0}, {4, 0}, {0, -1}, {0, 2}} {
		s.SetColor(p[0], p[1], '@', ColorRed)
	}
	if strings.ContainsRune(s.String(), '@') {
		t.Errorf("out of bounds writes leaked into %q", s.String())
	}
	if got := s.GetCell(9, 9); got != blank {
		t.Errorf("GetCell(9, 9) = %+v, expected blank", got)
	}
}

func TestScreenDrawText(t *testing.T) {
	tests := []struct {
		name     string
		x, y     int
		text     string
		expected string
	}{
		{"inside", 1, 0, "()", " ()   "},
		{"clipped right", 4, 0, "LOST", "    LO"},
		{"clipped left", -2, 0, "><ab", "ab    "},
		{"multibyte", 0, 0, "──", "──    "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScreen(6, 1)
			s.DrawText(tt.x, tt.y, tt.text)
			if got := s.Row(0); got != tt.expected {
				t.Errorf("Row(0) = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestScreenDrawTextCentered(t *testing.T) {
	s := NewScreen(12, 1)
	s.DrawTextCentered(0, "PAUSE")
	if got := s.Row(0); got != "   PAUSE    " {
		t.Errorf("Row(0) = %q", got)
	}
}

func TestScreenDrawBox(t *testing.T) {
	s := NewScreen(6, 4)
	s.DrawBox(NewRect(0, 0, 6, 4), ColorGray)
	expected := "┌────┐\n│    │\n│    │\n└────┘"
	if got := s.String(); got != expected {
		t.Errorf("String() =\n%s\nexpected\n%s", got, expected)
	}
	if c := s.GetCell(5, 3).Color; c != ColorGray {
		t.Errorf("corner color = %v, expected gray", c)
	}
}

func TestScreenResizeKeepsTopLeft(t *testing.T) {
	s := NewScreen(10, 4)
	s.DrawText(0, 0, "alice")
	s.DrawText(0, 3, "bob")

	s.Resize(3, 2)
	if got := s.String(); got != "ali\n   " {
		t.Errorf("after shrink String() = %q", got)
	}

	s.Resize(8, 3)
	if got := s.Row(0); got != "ali     " {
		t.Errorf("after grow Row(0) = %q", got)
	}
	if got := s.Row(7); got != "        " {
		t.Errorf("Row(7) = %q, expected blanks", got)
	}
}

func TestScreenColors(t *testing.T) {
	s := NewScreen(10, 3)
	s.SetColor(1, 1, '●', ColorRed)
	s.DrawTextColor(3, 2, "ok", ColorGreen)

	if got := s.GetCell(1, 1); got != (Cell{Rune: '●', Color: ColorRed}) {
		t.Errorf("GetCell(1, 1) = %+v", got)
	}
	if got := s.GetCell(4, 2); got.Rune != 'k' || got.Color != ColorGreen {
		t.Errorf("GetCell(4, 2) = %+v", got)
	}

	s.Clear()
	if got := s.GetCell(1, 1); got != blank {
		t.Errorf("after Clear GetCell(1, 1) = %+v", got)
	}
}

func TestPuyoColor(t *testing.T) {
	if PuyoColor(0) != ColorRed {
		t.Errorf("PuyoColor(0) = %v, expected red", PuyoColor(0))
	}
	if PuyoColor(-1) != ColorGray || PuyoColor(9) != ColorGray {
		t.Error("out of range colors should be gray")
	}
	if ColorBlue.Highlight() != ColorBrightBlue {
		t.Error("Highlight() of blue should be bright blue")
	}
	if ColorOrange.Highlight() != ColorOrange {
		t.Error("Highlight() of orange should be unchanged")
	}
}
