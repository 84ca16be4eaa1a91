package versus

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-puyo/internal/core"
	"github.com/vovakirdan/tui-puyo/internal/player"
	"github.com/vovakirdan/tui-puyo/internal/registry"
	"github.com/vovakirdan/tui-puyo/internal/replay"
)

var ErrNotReplay = errors.New("versus: not a replay")

// NewReplay creates a match that plays f back. Every seat replays its
// recorded messages; no input is read.
func NewReplay(f *replay.File, rules registry.Ruleset, logger *log.Logger) (*Match, error) {
	seats := make([]Seat, len(f.Players))
	for i, rec := range f.Players {
		seats[i] = Seat{Name: rec.Name, Kind: player.KindReplay}
	}
	m, err := New(Config{
		Seed:   int64(f.Header.Seed),
		Rules:  rules,
		Seats:  seats,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("versus: cannot replay: %w", err)
	}
	m.playback = replay.NewPlayer(f)
	return m, nil
}

// Playback returns the replay cursor, or nil for a live match.
func (m *Match) Playback() *replay.Player { return m.playback }

// Advance runs one display tick of a replay: as many match frames as the
// playback speed asks for, or a rewind.
func (m *Match) Advance() error {
	if m.playback == nil {
		return ErrNotReplay
	}
	if m.playback.State() == replay.Rewind {
		m.playback.SetState(replay.Normal)
		return m.Seek(m.playback.RewindTarget(m.frame))
	}
	for range m.playback.Speed() {
		if m.Finished() {
			return nil
		}
		if err := m.Tick(core.MultiInputFrame{}); err != nil {
			return err
		}
	}
	return nil
}

// Seek re-simulates the replay from the first frame up to frame.
func (m *Match) Seek(frame int) error {
	if m.playback == nil {
		return ErrNotReplay
	}
	m.build()
	m.playback.Reset()
	m.Start()
	for m.frame < frame {
		if err := m.Tick(core.MultiInputFrame{}); err != nil {
			return err
		}
	}
	return nil
}

// Finished reports whether a replay ran past its recorded duration.
func (m *Match) Finished() bool {
	return m.playback != nil && m.playback.Done(m.frame)
}
