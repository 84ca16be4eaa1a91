package netplay

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tui-puyo/internal/config"
	"github.com/vovakirdan/tui-puyo/internal/core"
	"github.com/vovakirdan/tui-puyo/internal/multiplayer"
	"github.com/vovakirdan/tui-puyo/internal/player"
	"github.com/vovakirdan/tui-puyo/internal/ruleset"
	"github.com/vovakirdan/tui-puyo/internal/versus"
)

var quiet = log.New(io.Discard)

func startRelay(t *testing.T) (*Relay, string) {
	t.Helper()
	relay := NewRelay(DefaultRelayConfig(), quiet)
	server := httptest.NewServer(relay.Handler())
	t.Cleanup(server.Close)
	return relay, "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func dial(t *testing.T, url string, req JoinRequest) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, url, req, quiet)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

type started struct {
	info multiplayer.MatchInfo
	seat int
}

func waitStart(t *testing.T, c *Client) started {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	info, seat, err := c.WaitStart(ctx, nil)
	require.NoError(t, err)
	return started{info: info, seat: seat}
}

func TestRelaySeatsAndForwards(t *testing.T) {
	relay, url := startRelay(t)

	a := dial(t, url, JoinRequest{Room: "r1", Name: "alice", Seats: 2, Ruleset: "fever"})
	b := dial(t, url, JoinRequest{Room: "r1", Name: "bob"})

	sa := waitStart(t, a)
	sb := waitStart(t, b)
	assert.Equal(t, sa.info, sb.info)
	assert.Equal(t, 0, sa.seat)
	assert.Equal(t, 1, sb.seat)
	assert.Equal(t, []string{"alice", "bob"}, sa.info.Names)
	assert.Equal(t, "fever", sa.info.Ruleset)
	assert.NotEmpty(t, sa.info.ID)
	assert.Equal(t, 1, relay.Rooms())

	require.NoError(t, a.Send("", "p|0|1|-1|2|0|2|1|-1|-1|-1|-1|0|0|10|2|0"))
	require.NoError(t, a.Send("", "n"))

	for _, want := range []string{"p|0|1|-1|2|0|2|1|-1|-1|-1|-1|0|0|10|2|0", "n"} {
		select {
		case env := <-b.Receive():
			assert.Equal(t, 0, env.From)
			assert.Equal(t, want, env.Payload)
		case <-time.After(2 * time.Second):
			t.Fatalf("record %q not forwarded", want)
		}
	}
	select {
	case env := <-a.Receive():
		t.Fatalf("sender received its own record %q", env.Payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRelayRoomFull(t *testing.T) {
	_, url := startRelay(t)

	a := dial(t, url, JoinRequest{Room: "r2", Name: "alice", Seats: 2})
	b := dial(t, url, JoinRequest{Room: "r2", Name: "bob"})
	waitStart(t, a)
	waitStart(t, b)

	c := dial(t, url, JoinRequest{Room: "r2", Name: "carol"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err := c.WaitStart(ctx, nil)
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestRelayLeave(t *testing.T) {
	relay, url := startRelay(t)

	a := dial(t, url, JoinRequest{Room: "r3", Name: "alice", Seats: 2})
	b := dial(t, url, JoinRequest{Room: "r3", Name: "bob"})
	waitStart(t, a)
	waitStart(t, b)

	require.NoError(t, a.Close())
	select {
	case e := <-b.Lobby():
		assert.Equal(t, TypeLeft, e.Type)
		assert.Equal(t, "alice", e.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("leave not reported")
	}

	require.NoError(t, b.Close())
	assert.Eventually(t, func() bool { return relay.Rooms() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, b.Send("", "n"), multiplayer.ErrClosed)
}

func TestLobbyUpdates(t *testing.T) {
	_, url := startRelay(t)

	a := dial(t, url, JoinRequest{Room: "r4", Name: "alice", Seats: 2})
	var seen [][]string
	done := make(chan started, 1)
	go func() {
		info, seat, err := a.WaitStart(context.Background(), func(e Envelope) {
			seen = append(seen, e.Names)
		})
		if err == nil {
			done <- started{info: info, seat: seat}
		}
	}()

	dial(t, url, JoinRequest{Room: "r4", Name: "bob"})
	select {
	case s := <-done:
		assert.Equal(t, 0, s.seat)
	case <-time.After(2 * time.Second):
		t.Fatal("match did not start")
	}
	require.NotEmpty(t, seen)
	assert.Equal(t, []string{"alice"}, seen[0])
}

func TestMatchOverRelay(t *testing.T) {
	_, url := startRelay(t)

	a := dial(t, url, JoinRequest{Room: "r5", Name: "alice", Seats: 2})
	b := dial(t, url, JoinRequest{Room: "r5", Name: "bob"})
	sa := waitStart(t, a)
	sb := waitStart(t, b)

	side := func(s started, tr multiplayer.Transport) *versus.Match {
		seats := versus.OnlineSeats(s.info, s.seat)
		seats[s.seat].Kind = player.KindCPU
		m, err := versus.New(versus.Config{
			Seed:      s.info.Seed,
			Rules:     ruleset.New(config.DefaultRulesetConfig()),
			Seats:     seats,
			Transport: tr,
			Channel:   string(s.info.ID),
			Logger:    quiet,
		})
		require.NoError(t, err)
		m.Start()
		return m
	}
	ma, mb := side(sa, a), side(sb, b)

	for ma.Frame() < 1500 {
		require.NoError(t, ma.Tick(core.NewMultiInputFrame()))
		require.NoError(t, mb.Tick(core.NewMultiInputFrame()))
		if ma.Frame()%100 == 0 {
			time.Sleep(time.Millisecond)
		}
	}

	sent := ma.Recording(time.Now()).Players[0].Messages
	received := mb.Recording(time.Now()).Players[0].Messages
	require.LessOrEqual(t, len(received), len(sent))
	for i := range received {
		assert.Equal(t, sent[i].Payload, received[i].Payload, "record %d", i)
	}
	assert.NotEmpty(t, received)
}
