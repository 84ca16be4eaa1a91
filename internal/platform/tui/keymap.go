package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-puyo/internal/core"
)

type actionBinding struct {
	action  core.Action
	binding key.Binding
}

type menuBinding struct {
	action  MenuAction
	binding key.Binding
}

func bind(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// KeyMapper holds the key bindings of the match, replay and menu screens.
// The first binding that matches a key wins.
type KeyMapper struct {
	quit  key.Binding
	match []actionBinding
	menu  []menuBinding
}

func NewKeyMapper() *KeyMapper {
	return &KeyMapper{
		quit: bind("q", "quit", "ctrl+c", "q"),
		match: []actionBinding{
			{core.ActionLeft, bind("a/←", "left", "a", "left")},
			{core.ActionRight, bind("d/→", "right", "d", "right")},
			{core.ActionRotateCW, bind("x/↑", "rotate", "x", "w", "up")},
			{core.ActionRotateCCW, bind("z", "rotate back", "z")},
			{core.ActionDown, bind("s/↓", "drop", "s", "down")},
			{core.ActionConfirm, bind("enter", "confirm", "enter")},
			{core.ActionBack, bind("esc", "back", "b", "esc")},
			{core.ActionPause, bind("p", "pause", "p", " ")},
			{core.ActionRestart, bind("r", "rematch", "r")},
			{core.ActionFastForward, bind("f", "faster", "f")},
			{core.ActionRewind, bind("bksp", "rewind", "backspace")},
			{core.ActionHint, bind("h", "hint", "h")},
		},
		menu: []menuBinding{
			{MenuActionUp, bind("↑/k", "up", "w", "up", "k")},
			{MenuActionDown, bind("↓/j", "down", "s", "down", "j")},
			{MenuActionSelect, bind("enter", "select", "enter", " ")},
			{MenuActionBack, bind("esc", "back", "b", "esc")},
			{MenuActionScoreboard, bind("tab", "history", "tab")},
		},
	}
}

// MapKey returns the match action of a key. Quit keys report isQuit.
func (km *KeyMapper) MapKey(msg tea.KeyMsg) (action core.Action, isQuit bool) {
	if key.Matches(msg, km.quit) {
		return core.ActionQuit, true
	}
	for _, b := range km.match {
		if key.Matches(msg, b.binding) {
			return b.action, false
		}
	}
	return core.ActionNone, false
}

// MapKeyToMultiFrame presses the key's action for the local player, which
// always sits in the Player1 slot of the frame.
func (km *KeyMapper) MapKeyToMultiFrame(msg tea.KeyMsg, frame *core.MultiInputFrame) bool {
	action, isQuit := km.MapKey(msg)
	if action == core.ActionNone {
		return isQuit
	}
	local := frame.Player(core.Player1)
	local.Set(action)
	frame.SetPlayer(core.Player1, local)
	return isQuit
}

// MenuAction is what a key does on a list screen.
type MenuAction int

const (
	MenuActionNone MenuAction = iota
	MenuActionUp
	MenuActionDown
	MenuActionSelect
	MenuActionBack
	MenuActionQuit
	MenuActionScoreboard
)

func (km *KeyMapper) MapKeyToMenuAction(msg tea.KeyMsg) MenuAction {
	if key.Matches(msg, km.quit) {
		return MenuActionQuit
	}
	for _, b := range km.menu {
		if key.Matches(msg, b.binding) {
			return b.action
		}
	}
	return MenuActionNone
}

// MatchHelp is the footer line of a running match.
func (km *KeyMapper) MatchHelp() string {
	var parts []string
	for _, b := range km.match {
		switch b.action {
		case core.ActionLeft, core.ActionRight, core.ActionRotateCW, core.ActionDown, core.ActionHint, core.ActionPause:
			h := b.binding.Help()
			parts = append(parts, h.Key+" "+h.Desc)
		}
	}
	return strings.Join(parts, "  ")
}
