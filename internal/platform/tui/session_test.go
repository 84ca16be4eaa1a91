package tui

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-puyo/internal/core"
	"github.com/vovakirdan/tui-puyo/internal/multiplayer"
	"github.com/vovakirdan/tui-puyo/internal/storage"
)

func newSession(t *testing.T, store *storage.Store) SessionModel {
	t.Helper()
	return NewSessionModel(SessionOptions{
		Name:    "alice",
		Store:   store,
		Config:  core.RuntimeConfig{ScreenW: 100, ScreenH: 30, TickRate: 60, Seed: 11},
		Ruleset: "tsu",
		Logger:  log.New(io.Discard),
	})
}

func sessionUpdate(m SessionModel, msgs ...any) SessionModel {
	for _, msg := range msgs {
		if k, ok := msg.(string); ok {
			msg = keyMsg(k)
		}
		next, _ := m.Update(msg)
		m = next.(SessionModel)
	}
	return m
}

func TestSessionOfflineMenu(t *testing.T) {
	m := newSession(t, nil)
	for _, item := range m.menu.items {
		if item.Choice == MenuChoiceOnline {
			t.Error("offline session should not list online play")
		}
	}

	m = sessionUpdate(m, "tab")
	if m.screen != screenHistory {
		t.Fatalf("screen = %v, expected history after tab", m.screen)
	}
	m = sessionUpdate(m, "esc")
	if m.screen != screenMenu {
		t.Errorf("screen = %v, expected menu after esc", m.screen)
	}
}

func TestSessionStartsCPUMatch(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "puyo.db"))
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	defer store.Close()

	m := newSession(t, store)
	// Versus CPU, then Start on the setup screen.
	m = sessionUpdate(m, "enter")
	if m.screen != screenSetup {
		t.Fatalf("screen = %v, expected setup", m.screen)
	}
	m = sessionUpdate(m, "down", "down", "down", "enter")
	if m.screen != screenMatch {
		t.Fatalf("screen = %v, expected match (err %q)", m.screen, m.err)
	}
	if got := m.match.setup.Info.Seed; got != 11 {
		t.Errorf("match seed = %d, expected 11", got)
	}
	if n := len(m.match.views); n != 2 {
		t.Errorf("views = %d, expected 2", n)
	}

	for range 30 {
		m = sessionUpdate(m, TickMsg{})
	}
	if m.match.match.Frame() == 0 {
		t.Error("ticks did not advance the match")
	}

	// Pause, then leave to the menu.
	m = sessionUpdate(m, "esc", "esc")
	if m.screen != screenMenu {
		t.Errorf("screen = %v, expected menu after leaving", m.screen)
	}
}

func TestSessionIgnoresEventsOutsideMatch(t *testing.T) {
	m := newSession(t, nil)
	m = sessionUpdate(m, multiplayer.MatchEndedEvent{Reason: multiplayer.MatchEndReasonDisconnect, Winner: -1})
	if m.screen != screenMenu || m.quitting {
		t.Errorf("screen = %v quitting = %v after a stray event", m.screen, m.quitting)
	}
}
