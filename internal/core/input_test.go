package core

import (
	"slices"
	"testing"
)

func TestInputFrame(t *testing.T) {
	var f InputFrame
	if !f.Empty() {
		t.Fatal("zero InputFrame should be empty")
	}
	f.Set(ActionDown)
	f.Set(ActionLeft)
	f.Set(ActionNone)
	f.Set(Action(99))

	if !f.Has(ActionDown) || !f.Has(ActionLeft) {
		t.Errorf("Has() misses a set action: %v", f.Actions())
	}
	if f.Has(ActionRight) || f.Has(ActionNone) {
		t.Errorf("Has() reports an unset action: %v", f.Actions())
	}
	if got := f.Actions(); !slices.Equal(got, []Action{ActionLeft, ActionDown}) {
		t.Errorf("Actions() = %v, expected [Left Down]", got)
	}

	var g InputFrame
	g.Set(ActionRotateCW)
	f.Merge(g)
	if !f.Has(ActionRotateCW) {
		t.Error("Merge() dropped RotateCW")
	}
	f.Clear()
	if !f.Empty() {
		t.Errorf("after Clear() Actions() = %v", f.Actions())
	}
}

func TestMultiInputFrame(t *testing.T) {
	var m MultiInputFrame
	var in InputFrame
	in.Set(ActionHint)
	m.SetPlayer(Player2, in)
	m.SetPlayer(PlayerID(7), in)

	if !m.Player(Player2).Has(ActionHint) {
		t.Error("Player2 lost its input")
	}
	if !m.Player(Player1).Empty() || !m.Player(PlayerID(7)).Empty() {
		t.Error("other slots should stay empty")
	}
	m.Clear()
	if !m.Player(Player2).Empty() {
		t.Error("Clear() kept Player2 input")
	}
}

func TestActionString(t *testing.T) {
	tests := map[Action]string{
		ActionNone:        "None",
		ActionRotateCCW:   "RotateCCW",
		ActionFastForward: "FastForward",
		ActionHint:        "Hint",
		Action(-1):        "Unknown",
		actionCount:       "Unknown",
	}
	for a, expected := range tests {
		if got := a.String(); got != expected {
			t.Errorf("Action(%d).String() = %q, expected %q", int(a), got, expected)
		}
	}
}
