package tui

import (
	"testing"

	"github.com/vovakirdan/tui-puyo/internal/multiplayer"
)

func newLobby() OnlineLobbyModel {
	coord := multiplayer.NewCoordinator(multiplayer.DefaultCoordinatorConfig(), multiplayer.NewSessionRegistry(), multiplayer.NewHub())
	return NewOnlineLobbyModel("s1", coord, MatchSelection{Ruleset: "tsu", Seats: 2}, 80, 24)
}

func lobbyUpdate(m OnlineLobbyModel, msgs ...any) OnlineLobbyModel {
	for _, msg := range msgs {
		if k, ok := msg.(string); ok {
			msg = keyMsg(k)
		}
		next, _ := m.Update(msg)
		m = next.(OnlineLobbyModel)
	}
	return m
}

func TestOnlineLobbyJoinCode(t *testing.T) {
	m := lobbyUpdate(newLobby(), "j")
	if m.State() != OnlineStateJoinEnterCode {
		t.Fatalf("State() = %v, expected join code entry", m.State())
	}

	m = lobbyUpdate(m, "a", "b", "-", "3", "c", "d", "e", "f", "g")
	if m.code.Value() != "AB3CDE" {
		t.Errorf("code = %q, expected AB3CDE", m.code.Value())
	}

	m = lobbyUpdate(m, "backspace")
	if m.code.Value() != "AB3CD" {
		t.Errorf("code after backspace = %q", m.code.Value())
	}

	m = lobbyUpdate(m, "enter")
	if m.State() != OnlineStateJoinWaiting {
		t.Fatalf("State() = %v, expected waiting after enter", m.State())
	}

	m = lobbyUpdate(m, multiplayer.LobbyErrorEvent{Err: multiplayer.ErrLobbyNotFound})
	if m.State() != OnlineStateJoinEnterCode {
		t.Errorf("State() = %v, expected back to code entry", m.State())
	}
	if m.joinError == "" {
		t.Error("joinError should be set")
	}
}

func TestOnlineLobbyHostFlow(t *testing.T) {
	m := lobbyUpdate(newLobby(), "h")
	if m.State() != OnlineStateHostSetup {
		t.Fatalf("State() = %v, expected host setup", m.State())
	}

	// Rules, Players, Start.
	m = lobbyUpdate(m, "down", "down", "enter")
	if m.State() != OnlineStateHostWaiting {
		t.Fatalf("State() = %v, expected host waiting", m.State())
	}

	m = lobbyUpdate(m,
		multiplayer.LobbyCreatedEvent{Code: "ABCDEF", Ruleset: "tsu", Seats: 3},
		multiplayer.LobbyJoinedEvent{Code: "ABCDEF", Names: []string{"alice", "bob"}, Seats: 3},
	)
	if m.LobbyCode() != "ABCDEF" || m.seats != 3 || len(m.names) != 2 {
		t.Errorf("lobby = %q seats=%d names=%v", m.LobbyCode(), m.seats, m.names)
	}

	started := multiplayer.MatchStartedEvent{
		Info: multiplayer.MatchInfo{ID: "m1", Mode: multiplayer.MatchModeOnline, Seed: 7, Ruleset: "tsu", Names: []string{"alice", "bob", "carol"}},
		Code: "ABCDEF",
		Seat: 0,
	}
	m = lobbyUpdate(m, started)
	if m.State() != OnlineStateInMatch {
		t.Errorf("State() = %v, expected in match", m.State())
	}
	if got := m.Started(); got == nil || got.Info.ID != "m1" {
		t.Errorf("Started() = %+v, expected match m1", got)
	}
}

func TestOnlineLobbyClosedByHost(t *testing.T) {
	m := lobbyUpdate(newLobby(), "j", "a", "enter")
	m = lobbyUpdate(m, multiplayer.MatchEndedEvent{Reason: multiplayer.MatchEndReasonHostLeft, Winner: -1})

	if m.State() != OnlineStateChooseMode {
		t.Errorf("State() = %v, expected choose mode", m.State())
	}
	if m.joinError != multiplayer.MatchEndReasonHostLeft.String() {
		t.Errorf("joinError = %q", m.joinError)
	}
}

func TestOnlineLobbyBack(t *testing.T) {
	m := lobbyUpdate(newLobby(), "esc")
	if !m.BackToMenu() {
		t.Error("BackToMenu() = false after esc")
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := map[string]string{
		"abc123": "ABC123",
		"a-b c":  "ABC",
		"ÄB9":    "B9",
		"":       "",
	}
	for in, expected := range tests {
		if got := normalizeCode(in); got != expected {
			t.Errorf("normalizeCode(%q) = %q, expected %q", in, got, expected)
		}
	}
}
