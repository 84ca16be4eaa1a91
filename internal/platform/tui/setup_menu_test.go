package tui

import (
	"testing"

	"github.com/vovakirdan/tui-puyo/internal/config"
	"github.com/vovakirdan/tui-puyo/internal/multiplayer"

	// Register rulesets for the setup screen.
	_ "github.com/vovakirdan/tui-puyo/internal/ruleset"
)

func press(m SetupModel, keys ...string) SetupModel {
	for _, k := range keys {
		next, _ := m.Update(keyMsg(k))
		m = next.(SetupModel)
	}
	return m
}

func TestSetupModelVsCPU(t *testing.T) {
	defaults := MatchSelection{Ruleset: "tsu", CPU: config.DifficultyNormal, Opponents: 1}
	m := NewSetupModel(multiplayer.MatchModeVsCPU, defaults, 80, 24)

	if m.Selected() != nil {
		t.Fatal("Selected() should be nil before start")
	}

	// CPU row: normal -> hard. Opponents row: 1 -> 3 by wrapping backwards.
	m = press(m, "down", "right", "down", "left", "down", "enter")

	sel := m.Selected()
	if sel == nil {
		t.Fatal("Selected() = nil after start")
	}
	if sel.Ruleset != "tsu" {
		t.Errorf("Ruleset = %q, expected tsu", sel.Ruleset)
	}
	if sel.CPU != config.DifficultyHard {
		t.Errorf("CPU = %q, expected hard", sel.CPU)
	}
	if sel.Opponents != multiplayer.MaxSeats-1 {
		t.Errorf("Opponents = %d, expected %d", sel.Opponents, multiplayer.MaxSeats-1)
	}
}

func TestSetupModelSeatsWrap(t *testing.T) {
	m := NewSetupModel(multiplayer.MatchModeOnline, MatchSelection{Ruleset: "tsu", Seats: 9}, 80, 24)

	// Out of range defaults are clamped.
	m = press(m, "down")
	if m.selection.Seats != multiplayer.MaxSeats {
		t.Fatalf("Seats = %d, expected clamp to %d", m.selection.Seats, multiplayer.MaxSeats)
	}

	m = press(m, "right")
	if m.selection.Seats != multiplayer.MinSeats {
		t.Errorf("Seats after wrap = %d, expected %d", m.selection.Seats, multiplayer.MinSeats)
	}

	// Enter on a value row cycles it instead of starting.
	m = press(m, "enter")
	if m.Selected() != nil || m.selection.Seats != multiplayer.MinSeats+1 {
		t.Errorf("enter on seats: selected=%v seats=%d", m.Selected(), m.selection.Seats)
	}
}

func TestSetupModelBack(t *testing.T) {
	m := NewSetupModel(multiplayer.MatchModeVsCPU, MatchSelection{}, 80, 24)
	m = press(m, "esc")
	if !m.WantsBack() {
		t.Error("WantsBack() = false after esc")
	}
}

func TestSetupModelRulesetCycle(t *testing.T) {
	m := NewSetupModel(multiplayer.MatchModeVsCPU, MatchSelection{Ruleset: "tsu"}, 80, 24)
	if len(m.rulesets) < 2 {
		t.Skip("needs at least two rulesets")
	}
	m = press(m, "right", "down", "down", "down", "enter")
	sel := m.Selected()
	if sel == nil || sel.Ruleset == "tsu" {
		t.Errorf("Selected() = %+v, expected another ruleset", sel)
	}
}
