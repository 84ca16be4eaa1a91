// Package versus runs a match: every player of one table ticked in lockstep
// from a shared seed. Local human and CPU players decide their own moves and
// announce them; remote players replay what their owners announced; replay
// players replay a recorded file. The match routes those records between
// players, the transport and the recorder.
package versus

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-puyo/internal/config"
	"github.com/vovakirdan/tui-puyo/internal/core"
	"github.com/vovakirdan/tui-puyo/internal/cpu"
	"github.com/vovakirdan/tui-puyo/internal/multiplayer"
	"github.com/vovakirdan/tui-puyo/internal/player"
	"github.com/vovakirdan/tui-puyo/internal/protocol"
	"github.com/vovakirdan/tui-puyo/internal/registry"
	"github.com/vovakirdan/tui-puyo/internal/replay"
)

// MaxSeats is the largest table a match supports.
const MaxSeats = 4

var (
	ErrNoSeats      = errors.New("versus: no seats")
	ErrTooManySeats = errors.New("versus: too many seats")
	ErrNoRules      = errors.New("versus: no ruleset")
)

// Seat describes one participant.
type Seat struct {
	Name string
	Kind player.Kind
	// CPU drives a KindCPU seat. When nil a controller is built from
	// config.DefaultCPUConfig.
	CPU *cpu.Controller
}

// Config configures a match.
type Config struct {
	Seed  int64
	Rules registry.Ruleset
	Seats []Seat

	// Transport carries records to the other clients of an online match.
	// Nil for offline play.
	Transport multiplayer.Transport
	Channel   string

	Logger *log.Logger
}

// Match is one running table.
type Match struct {
	cfg     Config
	logger  *log.Logger
	players []*player.Player
	cpus    []*cpu.Controller
	humans  []core.PlayerID // input slot per seat, -1 for non-human seats

	frame     int
	recorder  *replay.Recorder
	playback  *replay.Player
	transport multiplayer.Transport

	started time.Time
	over    bool
	winner  int
	err     error
}

// New creates a match in the Idle state. Call Start to begin play.
func New(cfg Config) (*Match, error) {
	if cfg.Rules == nil {
		return nil, ErrNoRules
	}
	if len(cfg.Seats) == 0 {
		return nil, ErrNoSeats
	}
	if len(cfg.Seats) > MaxSeats {
		return nil, fmt.Errorf("%w: %d", ErrTooManySeats, len(cfg.Seats))
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	m := &Match{
		cfg:       cfg,
		logger:    cfg.Logger,
		transport: cfg.Transport,
		winner:    -1,
	}
	m.build()
	return m, nil
}

// build creates the players and their recorder from the config.
func (m *Match) build() {
	m.players = make([]*player.Player, len(m.cfg.Seats))
	m.cpus = make([]*cpu.Controller, len(m.cfg.Seats))
	m.humans = make([]core.PlayerID, len(m.cfg.Seats))
	m.recorder = replay.NewRecorder()
	m.frame = 0
	m.over = false
	m.winner = -1
	m.err = nil

	local := core.Player1
	for i, seat := range m.cfg.Seats {
		p := player.New(player.Options{
			Index: i,
			Name:  seat.Name,
			Kind:  seat.Kind,
			Seed:  m.cfg.Seed,
			Rules: m.cfg.Rules,
		})
		m.players[i] = p
		m.recorder.AddPlayer(seat.Name, seat.Kind.String())

		m.humans[i] = -1
		switch seat.Kind {
		case player.KindHuman:
			m.humans[i] = local
			local++
		case player.KindCPU:
			c := seat.CPU
			if c == nil {
				c = NewCPU(config.DefaultCPUConfig(), config.DifficultyNormal, m.cfg.Seed+int64(i))
			}
			m.cpus[i] = c
		}
		if seat.Kind.Authoritative() {
			p.SetBlocked(m.peersPending)
		}
	}
	for _, p := range m.players {
		p.SetActive(len(m.players))
	}
}

// peersPending reports whether a remote peer still owes confirmations.
func (m *Match) peersPending() bool {
	for _, q := range m.players {
		if q.Kind() == player.KindOnline && q.Waiting() > 0 {
			return true
		}
	}
	return false
}

// Start begins play for every player.
func (m *Match) Start() {
	m.started = time.Now()
	for _, p := range m.players {
		p.Start()
	}
	m.logger.Debug("match started", "seed", m.cfg.Seed, "rules", m.cfg.Rules.ID(), "players", len(m.players))
}

// Tick advances the match by one frame. A desync is fatal: once returned,
// every later call returns the same error.
func (m *Match) Tick(in core.MultiInputFrame) error {
	if m.err != nil {
		return m.err
	}

	m.receive()
	if m.playback != nil {
		for i, p := range m.players {
			for _, msg := range m.playback.Due(i, m.frame) {
				p.Push(msg)
			}
		}
	}

	for i, p := range m.players {
		if err := p.Tick(m.input(i, in)); err != nil {
			m.err = fmt.Errorf("versus: frame %d: %w", m.frame, err)
			m.logger.Error("match stopped", "frame", m.frame, "player", i, "err", err)
			return m.err
		}
		m.route(i, p)
	}
	m.confirm()
	m.distribute()
	m.checkWinner()

	m.frame++
	return nil
}

func (m *Match) input(i int, in core.MultiInputFrame) core.InputFrame {
	switch {
	case m.humans[i] >= 0:
		return in.Player(m.humans[i])
	case m.cpus[i] != nil:
		return m.cpus[i].Input(m.players[i])
	}
	return core.NewInputFrame()
}

// receive drains the transport into the inboxes of remote players.
func (m *Match) receive() {
	if m.transport == nil {
		return
	}
	for {
		select {
		case env, ok := <-m.transport.Receive():
			if !ok {
				m.logger.Warn("transport closed", "frame", m.frame)
				m.transport = nil
				return
			}
			m.deliver(env)
		default:
			return
		}
	}
}

func (m *Match) deliver(env multiplayer.Envelope) {
	if env.From < 0 || env.From >= len(m.players) {
		m.logger.Warn("record from unknown seat", "seat", env.From, "record", env.Payload)
		return
	}
	p := m.players[env.From]
	if protocol.Peek(env.Payload) == protocol.KindConfirm {
		m.acknowledge(p, env)
		return
	}
	if p.Kind() != player.KindOnline {
		m.logger.Warn("record for local seat", "seat", env.From, "record", env.Payload)
		return
	}
	p.Push(env.Payload)
	m.recorder.Record(env.From, m.frame, env.Payload)
}

// acknowledge settles a confirmation from p. Only confirmations of our own
// garbage records count; peers also see the ones meant for each other.
func (m *Match) acknowledge(p *player.Player, env multiplayer.Envelope) {
	msg, err := protocol.Decode(env.Payload)
	if err != nil {
		m.logger.Warn("bad confirmation", "seat", env.From, "record", env.Payload, "err", err)
		return
	}
	if msg.Seat >= len(m.players) || !m.players[msg.Seat].Kind().Authoritative() {
		return
	}
	p.Confirm()
}

// route records what player i produced and forwards it to the peers.
func (m *Match) route(i int, p *player.Player) {
	for _, msg := range p.Drain() {
		m.recorder.Record(i, m.frame, msg)
		if m.transport == nil || !p.Kind().Authoritative() {
			continue
		}
		if err := m.transport.Send(m.cfg.Channel, msg); err != nil {
			m.logger.Warn("cannot send record", "player", i, "err", err)
			continue
		}
		switch protocol.Peek(msg) {
		case protocol.KindGarbage, protocol.KindNoGarbage:
			for _, q := range m.players {
				if q.Kind() == player.KindOnline {
					q.ExpectConfirm()
				}
			}
		}
	}
}

// confirm acknowledges the garbage resolutions replayed for remote players.
// Each confirmation names the seat that sent the garbage record.
func (m *Match) confirm() {
	for i, p := range m.players {
		n := p.TakeConfirms()
		if m.transport == nil {
			continue
		}
		c := protocol.Encode(protocol.NewConfirm(i))
		for range n {
			if err := m.transport.Send(m.cfg.Channel, c); err != nil {
				m.logger.Warn("cannot send confirmation", "err", err)
				break
			}
		}
	}
}

// distribute hands every player's attack to the opponents still playing.
func (m *Match) distribute() {
	for i, p := range m.players {
		a := p.TakeAttack()
		if a <= 0 {
			continue
		}
		for j, q := range m.players {
			if j != i && !q.Lost() {
				q.AddGarbage(a)
			}
		}
	}
}

func (m *Match) checkWinner() {
	alive, last := 0, -1
	for i, p := range m.players {
		if !p.Lost() {
			alive++
			last = i
		}
	}
	for _, p := range m.players {
		p.SetActive(alive)
	}
	if m.over {
		return
	}
	if (len(m.players) > 1 && alive <= 1) || alive == 0 {
		m.over = true
		m.winner = last
		if len(m.players) == 1 {
			m.winner = -1
		}
		m.logger.Debug("match over", "frame", m.frame, "winner", m.winner)
	}
}

// Players returns the players in seat order.
func (m *Match) Players() []*player.Player { return m.players }

// Player returns the player at seat i.
func (m *Match) Player(i int) *player.Player { return m.players[i] }

// Frame returns the number of frames played.
func (m *Match) Frame() int { return m.frame }

// Seed returns the match seed.
func (m *Match) Seed() int64 { return m.cfg.Seed }

// Rules returns the ruleset.
func (m *Match) Rules() registry.Ruleset { return m.cfg.Rules }

// Over reports whether a winner was decided.
func (m *Match) Over() bool { return m.over }

// Winner returns the winning seat, or -1.
func (m *Match) Winner() int { return m.winner }

// Err returns the fatal error that stopped the match.
func (m *Match) Err() error { return m.err }

// Connected reports whether the match still has a transport.
func (m *Match) Connected() bool { return m.transport != nil }

// Scores returns every player's score in seat order.
func (m *Match) Scores() []int {
	scores := make([]int, len(m.players))
	for i, p := range m.players {
		scores[i] = p.Score()
	}
	return scores
}

// Recording returns the replay of the match so far, stamped with t.
func (m *Match) Recording(t time.Time) *replay.File {
	h := replay.NewHeader(t, m.frame, len(m.players), uint64(m.cfg.Seed), m.cfg.Rules.ID())
	return m.recorder.File(h)
}

// Snapshots returns the state of every player.
func (m *Match) Snapshots() []player.Snapshot {
	out := make([]player.Snapshot, len(m.players))
	for i, p := range m.players {
		out[i] = p.Snapshot()
	}
	return out
}
