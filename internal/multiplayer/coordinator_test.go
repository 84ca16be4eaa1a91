package multiplayer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSaver struct {
	results chan MatchResultData
}

func (f *fakeSaver) SaveMatchResult(r MatchResultData) error {
	f.results <- r
	return nil
}

// waitEvent returns the next event of type T, skipping others.
func waitEvent[T SessionEvent](t *testing.T, s *ChannelSession) T {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case evt := <-s.Events():
			if e, ok := evt.(T); ok {
				return e
			}
		case <-timeout:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func newTestCoordinator(t *testing.T) (*Coordinator, *SessionRegistry) {
	t.Helper()
	sessions := NewSessionRegistry()
	c := NewCoordinator(DefaultCoordinatorConfig(), sessions, NewHub())
	c.Start()
	t.Cleanup(c.Stop)
	return c, sessions
}

func newSession(reg *SessionRegistry, name string) *ChannelSession {
	s := NewChannelSession(NewSessionID(), name, 16)
	reg.Register(s)
	return s
}

func TestCoordinatorMatchFlow(t *testing.T) {
	c, reg := newTestCoordinator(t)
	saver := &fakeSaver{results: make(chan MatchResultData, 1)}
	c.SetResultSaver(saver)

	host := newSession(reg, "alice")
	guest := newSession(reg, "bob")

	c.Send(CreateLobbyMsg{SessionID: host.ID(), Ruleset: "tsu", Seats: 2})
	created := waitEvent[LobbyCreatedEvent](t, host)
	assert.Len(t, created.Code, 6)
	assert.Equal(t, 2, created.Seats)

	c.Send(JoinLobbyMsg{SessionID: guest.ID(), Code: created.Code})
	joined := waitEvent[LobbyJoinedEvent](t, guest)
	assert.Equal(t, []string{"alice", "bob"}, joined.Names)

	hs := waitEvent[MatchStartedEvent](t, host)
	gs := waitEvent[MatchStartedEvent](t, guest)
	assert.Equal(t, hs.Info, gs.Info)
	assert.Equal(t, 0, hs.Seat)
	assert.Equal(t, 1, gs.Seat)
	assert.Equal(t, "tsu", hs.Info.Ruleset)
	assert.Equal(t, MatchModeOnline, hs.Info.Mode)

	channel := string(hs.Info.ID)
	require.NoError(t, hs.Transport.Send(channel, "p|0"))
	env := <-gs.Transport.Receive()
	assert.Equal(t, 0, env.From)
	assert.Equal(t, "p|0", env.Payload)

	_, err := c.GetLobby(created.Code)
	assert.ErrorIs(t, err, ErrLobbyNotFound, "a started lobby is closed")
	assert.Equal(t, 1, c.MatchCount())

	c.Send(MatchFinishedMsg{
		SessionID: host.ID(),
		MatchID:   hs.Info.ID,
		Winner:    1,
		Frames:    600,
		Scores:    []int{120, 4000},
	})
	ended := waitEvent[MatchEndedEvent](t, guest)
	assert.Equal(t, 1, ended.Winner)
	assert.Equal(t, MatchEndReasonCompleted, ended.Reason)

	select {
	case r := <-saver.results:
		assert.Equal(t, "bob", r.Winner)
		assert.Equal(t, 10, r.DurationSecs)
		assert.Equal(t, []string{"alice", "bob"}, r.Players)
	case <-time.After(2 * time.Second):
		t.Fatal("result not saved")
	}
}

func TestCoordinatorLobbyErrors(t *testing.T) {
	c, reg := newTestCoordinator(t)
	host := newSession(reg, "alice")
	guest := newSession(reg, "bob")

	c.Send(JoinLobbyMsg{SessionID: guest.ID(), Code: "NOPE00"})
	evt := waitEvent[LobbyErrorEvent](t, guest)
	assert.ErrorIs(t, evt.Err, ErrLobbyNotFound)

	c.Send(CreateLobbyMsg{SessionID: host.ID(), Ruleset: "tsu", Seats: 3})
	created := waitEvent[LobbyCreatedEvent](t, host)

	c.Send(CreateLobbyMsg{SessionID: host.ID(), Ruleset: "tsu"})
	evt = waitEvent[LobbyErrorEvent](t, host)
	assert.ErrorIs(t, evt.Err, ErrInLobby)

	c.Send(JoinLobbyMsg{SessionID: guest.ID(), Code: created.Code})
	waitEvent[LobbyJoinedEvent](t, guest)

	c.Send(LeaveLobbyMsg{SessionID: guest.ID(), Code: created.Code})
	left := waitEvent[LobbyPlayerLeftEvent](t, host)
	assert.Equal(t, []string{"alice"}, left.Names)

	c.Send(JoinLobbyMsg{SessionID: guest.ID(), Code: created.Code})
	waitEvent[LobbyJoinedEvent](t, guest)
	c.Send(CancelLobbyMsg{SessionID: host.ID(), Code: created.Code})
	ended := waitEvent[MatchEndedEvent](t, guest)
	assert.Equal(t, MatchEndReasonCancelled, ended.Reason)
}

func TestCoordinatorDisconnectEndsMatch(t *testing.T) {
	c, reg := newTestCoordinator(t)
	host := newSession(reg, "alice")
	guest := newSession(reg, "bob")

	c.Send(CreateLobbyMsg{SessionID: host.ID(), Ruleset: "tsu", Seats: 2})
	created := waitEvent[LobbyCreatedEvent](t, host)
	c.Send(JoinLobbyMsg{SessionID: guest.ID(), Code: created.Code})
	waitEvent[MatchStartedEvent](t, host)

	c.Send(SessionDisconnectedMsg{SessionID: guest.ID()})
	ended := waitEvent[MatchEndedEvent](t, host)
	assert.Equal(t, MatchEndReasonDisconnect, ended.Reason)
	assert.Equal(t, -1, ended.Winner)
}
