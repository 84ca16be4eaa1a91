package tui

import (
	"strings"
	"testing"

	"github.com/vovakirdan/tui-puyo/internal/core"
	"github.com/vovakirdan/tui-puyo/internal/field"
	"github.com/vovakirdan/tui-puyo/internal/player"
	"github.com/vovakirdan/tui-puyo/internal/versus"
)

func emptyView(name string) versus.View {
	return versus.View{
		Name:  name,
		Field: field.New(field.DefaultProperties(), field.DefaultClearThreshold),
	}
}

func TestBoardsSize(t *testing.T) {
	tests := []struct {
		players int
		w, h    int
	}{
		{1, 14, 20},
		{2, 30, 20},
		{4, 62, 20},
	}

	for _, tt := range tests {
		views := make([]versus.View, tt.players)
		for i := range views {
			views[i] = emptyView("p")
		}
		w, h := BoardsSize(views)
		if w != tt.w || h != tt.h {
			t.Errorf("BoardsSize(%d players) = %dx%d, expected %dx%d", tt.players, w, h, tt.w, tt.h)
		}
	}
}

func TestDrawBoards(t *testing.T) {
	a := emptyView("alice")
	a.Field.Decode("1100002")
	a.Score = 1234
	a.Tray[0] = player.TrayRock

	b := emptyView("bob")
	b.Lost = true

	s := core.NewScreen(40, 22)
	DrawBoards(s, []versus.View{a, b}, 0, 0)

	if row := s.Row(0); !strings.HasPrefix(row, "alice") || !strings.Contains(row, "bob") {
		t.Errorf("name row = %q, expected both names", row)
	}
	if got := s.Row(1)[1]; got != byte(trayGlyphs[player.TrayRock]) {
		t.Errorf("tray glyph = %q, expected %q", got, trayGlyphs[player.TrayRock])
	}
	// Hidden row sits right under the top border.
	if row := s.Row(3); row[1:3] != ".." {
		t.Errorf("hidden row = %q, expected dots", row)
	}
	// Death cell of a 6 wide field is column 2, one row below the hidden row.
	if row := s.Row(4); row[5:7] != "><" {
		t.Errorf("death row = %q, expected marker at column 2", row)
	}
	// The floor is the last row inside the well.
	floor := s.Row(15)
	if floor[1:5] != "()()" {
		t.Errorf("floor row = %q, expected two puyo on the left", floor)
	}
	if !strings.Contains(s.Row(18), "00001234") {
		t.Errorf("score row = %q, expected padded score", s.Row(18))
	}
	if !strings.Contains(s.String(), "LOST") {
		t.Error("lost player should be marked LOST")
	}
}

func TestRenderTooSmall(t *testing.T) {
	s := core.NewScreen(30, 6)
	renderTooSmall(s, 60, 22)

	out := s.String()
	if !strings.Contains(out, "Window too small") || !strings.Contains(out, "60x22") {
		t.Errorf("renderTooSmall() = %q", out)
	}
}
