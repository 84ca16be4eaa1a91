package versus

import (
	"bytes"
	"errors"
	"io"
	"slices"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-puyo/internal/config"
	"github.com/vovakirdan/tui-puyo/internal/core"
	"github.com/vovakirdan/tui-puyo/internal/multiplayer"
	"github.com/vovakirdan/tui-puyo/internal/player"
	"github.com/vovakirdan/tui-puyo/internal/protocol"
	"github.com/vovakirdan/tui-puyo/internal/replay"
	"github.com/vovakirdan/tui-puyo/internal/ruleset"
)

const testFrames = 3000

var quiet = log.New(io.Discard)

func cpuMatch(t *testing.T, seed int64) *Match {
	t.Helper()
	m, err := New(Config{
		Seed:  seed,
		Rules: ruleset.New(config.DefaultRulesetConfig()),
		Seats: []Seat{
			{Name: "red", Kind: player.KindCPU},
			{Name: "blue", Kind: player.KindCPU},
		},
		Logger: quiet,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	m.Start()
	return m
}

func run(t *testing.T, m *Match, frames int) {
	t.Helper()
	for m.Frame() < frames {
		if err := m.Tick(core.NewMultiInputFrame()); err != nil {
			t.Fatalf("Tick() at frame %d error = %v", m.Frame(), err)
		}
	}
}

func placements(msgs []replay.Message) int {
	n := 0
	for _, msg := range msgs {
		if protocol.Peek(msg.Payload) == protocol.KindPlacement {
			n++
		}
	}
	return n
}

func TestNewValidation(t *testing.T) {
	rules := ruleset.New(config.DefaultRulesetConfig())
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"no rules", Config{Seats: []Seat{{Kind: player.KindHuman}}}, ErrNoRules},
		{"no seats", Config{Rules: rules}, ErrNoSeats},
		{"too many", Config{Rules: rules, Seats: make([]Seat, MaxSeats+1)}, ErrTooManySeats},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, expected %v", err, tt.want)
			}
		})
	}
}

func TestDeterminism(t *testing.T) {
	a := cpuMatch(t, 42)
	b := cpuMatch(t, 42)
	run(t, a, testFrames)
	run(t, b, testFrames)

	if !slices.Equal(a.Scores(), b.Scores()) {
		t.Errorf("scores differ: %v vs %v", a.Scores(), b.Scores())
	}
	sa, sb := a.Snapshots(), b.Snapshots()
	for i := range sa {
		if sa[i].Field != sb[i].Field {
			t.Errorf("player %d field differs:\n%q\n%q", i, sa[i].Field, sb[i].Field)
		}
		if sa[i].Phase != sb[i].Phase || sa[i].GQ != sb[i].GQ {
			t.Errorf("player %d state differs: %+v vs %+v", i, sa[i], sb[i])
		}
	}
	if n := placements(a.Recording(time.Now()).Players[0].Messages); n < 5 {
		t.Errorf("CPU placed %d pieces in %d frames, expected at least 5", n, testFrames)
	}
}

func TestReplayRoundTrip(t *testing.T) {
	live := cpuMatch(t, 7)
	run(t, live, testFrames)

	var buf bytes.Buffer
	if err := live.Recording(time.Now()).Save(&buf); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	f, err := replay.Load(&buf)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if f.Header.Duration != testFrames {
		t.Errorf("Duration = %d, expected %d", f.Header.Duration, testFrames)
	}

	rp, err := NewReplay(f, live.Rules(), quiet)
	if err != nil {
		t.Fatalf("NewReplay() error = %v", err)
	}
	rp.Start()
	for !rp.Finished() {
		if err := rp.Advance(); err != nil {
			t.Fatalf("Advance() error = %v", err)
		}
	}

	if rp.Frame() != live.Frame() {
		t.Fatalf("replay stopped at frame %d, expected %d", rp.Frame(), live.Frame())
	}
	for i, p := range live.Players() {
		got := rp.Player(i)
		if got.Field().Encode() != p.Field().Encode() {
			t.Errorf("player %d field = %q, expected %q", i, got.Field().Encode(), p.Field().Encode())
		}
		if got.Score() != p.Score() {
			t.Errorf("player %d score = %d, expected %d", i, got.Score(), p.Score())
		}
	}
}

func TestReplaySeekAndRewind(t *testing.T) {
	live := cpuMatch(t, 11)
	run(t, live, 1500)

	rp, err := NewReplay(live.Recording(time.Now()), live.Rules(), quiet)
	if err != nil {
		t.Fatalf("NewReplay() error = %v", err)
	}
	rp.Start()
	run(t, rp, 400)
	want := rp.Snapshots()
	run(t, rp, 400+replay.RewindFrames)

	rp.Playback().SetState(replay.Rewind)
	if err := rp.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if rp.Frame() != 400 {
		t.Fatalf("Frame() after rewind = %d, expected 400", rp.Frame())
	}
	if rp.Playback().State() != replay.Normal {
		t.Errorf("State() after rewind = %v, expected normal", rp.Playback().State())
	}
	got := rp.Snapshots()
	for i := range want {
		if got[i].Field != want[i].Field || got[i].Score != want[i].Score {
			t.Errorf("player %d after rewind = %+v, expected %+v", i, got[i], want[i])
		}
	}

	rp.Playback().SetState(replay.FastForwardX4)
	if err := rp.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if rp.Frame() != 404 {
		t.Errorf("Frame() after x4 = %d, expected 404", rp.Frame())
	}

	if err := live.Advance(); !errors.Is(err, ErrNotReplay) {
		t.Errorf("Advance() on live match error = %v, expected ErrNotReplay", err)
	}
}

type chanTransport struct {
	in   chan multiplayer.Envelope
	sent []string
}

func (c *chanTransport) Send(_ string, payload string) error {
	c.sent = append(c.sent, payload)
	return nil
}
func (c *chanTransport) Receive() <-chan multiplayer.Envelope { return c.in }
func (c *chanTransport) Close() error                        { return nil }

func TestDesyncIsFatal(t *testing.T) {
	tr := &chanTransport{in: make(chan multiplayer.Envelope, 4)}
	m, err := New(Config{
		Seed:      1,
		Rules:     ruleset.New(config.DefaultRulesetConfig()),
		Seats:     []Seat{{Name: "me", Kind: player.KindHuman}, {Name: "you", Kind: player.KindOnline}},
		Transport: tr,
		Channel:   "m",
		Logger:    quiet,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	m.Start()

	tr.in <- multiplayer.Envelope{Channel: "m", From: 1, Payload: "x|1"}
	err = m.Tick(core.NewMultiInputFrame())
	if !errors.Is(err, protocol.ErrDesync) {
		t.Fatalf("Tick() error = %v, expected ErrDesync", err)
	}
	if again := m.Tick(core.NewMultiInputFrame()); again != err {
		t.Errorf("second Tick() error = %v, expected the same error", again)
	}
}

func TestConfirmUnblocksPeer(t *testing.T) {
	tr := &chanTransport{in: make(chan multiplayer.Envelope, 4)}
	m, err := New(Config{
		Seed:      1,
		Rules:     ruleset.New(config.DefaultRulesetConfig()),
		Seats:     []Seat{{Name: "me", Kind: player.KindHuman}, {Name: "you", Kind: player.KindOnline}},
		Transport: tr,
		Channel:   "m",
		Logger:    quiet,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	m.Start()

	m.Player(1).ExpectConfirm()
	if err := m.Tick(core.NewMultiInputFrame()); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if _, ok := m.Player(0).Piece(); ok {
		t.Fatal("piece spawned while the peer owed a confirmation")
	}

	tr.in <- multiplayer.Envelope{Channel: "m", From: 1, Payload: protocol.Encode(protocol.NewConfirm(0))}
	if err := m.Tick(core.NewMultiInputFrame()); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if _, ok := m.Player(0).Piece(); !ok {
		t.Error("piece not spawned after the confirmation")
	}
}

func TestConfirmForOtherSeatIgnored(t *testing.T) {
	tr := &chanTransport{in: make(chan multiplayer.Envelope, 4)}
	m, err := New(Config{
		Seed:  1,
		Rules: ruleset.New(config.DefaultRulesetConfig()),
		Seats: []Seat{
			{Name: "me", Kind: player.KindHuman},
			{Name: "you", Kind: player.KindOnline},
			{Name: "them", Kind: player.KindOnline},
		},
		Transport: tr,
		Channel:   "m",
		Logger:    quiet,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	m.Start()
	m.Player(1).ExpectConfirm()

	tr.in <- multiplayer.Envelope{Channel: "m", From: 1, Payload: protocol.Encode(protocol.NewConfirm(2))}
	if err := m.Tick(core.NewMultiInputFrame()); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if got := m.Player(1).Waiting(); got != 1 {
		t.Fatalf("Waiting() = %d after a confirmation for seat 2, expected 1", got)
	}

	tr.in <- multiplayer.Envelope{Channel: "m", From: 1, Payload: protocol.Encode(protocol.NewConfirm(0))}
	if err := m.Tick(core.NewMultiInputFrame()); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if got := m.Player(1).Waiting(); got != 0 {
		t.Errorf("Waiting() = %d after a confirmation for seat 0, expected 0", got)
	}
}

func TestOnlinePairOverHub(t *testing.T) {
	hub := multiplayer.NewHub()
	info := multiplayer.MatchInfo{
		ID:      multiplayer.NewMatchID(),
		Seed:    99,
		Ruleset: "tsu",
		Names:   []string{"alice", "bob"},
	}
	channel := string(info.ID)
	rules := ruleset.New(config.DefaultRulesetConfig())

	newSide := func(local int) *Match {
		seats := OnlineSeats(info, local)
		seats[local].Kind = player.KindCPU
		m, err := New(Config{
			Seed:      info.Seed,
			Rules:     rules,
			Seats:     seats,
			Transport: hub.Join(channel, local),
			Channel:   channel,
			Logger:    quiet,
		})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		m.Start()
		return m
	}
	a, b := newSide(0), newSide(1)

	for a.Frame() < testFrames {
		if err := a.Tick(core.NewMultiInputFrame()); err != nil {
			t.Fatalf("a.Tick() error = %v", err)
		}
		if err := b.Tick(core.NewMultiInputFrame()); err != nil {
			t.Fatalf("b.Tick() error = %v", err)
		}
	}

	sent := a.Recording(time.Now()).Players[0].Messages
	received := b.Recording(time.Now()).Players[0].Messages
	if len(sent) != len(received) {
		t.Fatalf("b received %d records of seat 0, a sent %d", len(received), len(sent))
	}
	for i := range sent {
		if sent[i].Payload != received[i].Payload {
			t.Fatalf("record %d = %q, expected %q", i, received[i].Payload, sent[i].Payload)
		}
	}
	if placements(sent) < 5 {
		t.Errorf("seat 0 placed %d pieces, expected at least 5", placements(sent))
	}
}

func TestOnlineSeats(t *testing.T) {
	info := multiplayer.MatchInfo{Names: []string{"a", "b", "c"}}
	seats := OnlineSeats(info, 1)
	want := []player.Kind{player.KindOnline, player.KindHuman, player.KindOnline}
	for i, s := range seats {
		if s.Kind != want[i] || s.Name != info.Names[i] {
			t.Errorf("seat %d = %+v, expected %s %v", i, s, info.Names[i], want[i])
		}
	}
}
