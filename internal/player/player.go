// Package player runs the per-player state machine of a versus match: piece
// control, chain resolution, scoring and the garbage queue. Authoritative
// players (human and CPU) announce their decisions as protocol records;
// online and replay players replay those records from their inbox, so every
// client reaches the same field from the same seed.
package player

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/vovakirdan/tui-puyo/internal/core"
	"github.com/vovakirdan/tui-puyo/internal/field"
	"github.com/vovakirdan/tui-puyo/internal/protocol"
	"github.com/vovakirdan/tui-puyo/internal/registry"
)

// Options configure a new player.
type Options struct {
	Index int
	Name  string
	Kind  Kind
	// Seed is the match seed. Every player deals the same pieces; the
	// nuisance stream is offset by Index.
	Seed  int64
	Rules registry.Ruleset
	// Props defaults to field.DefaultProperties.
	Props field.Properties
}

// Player is one participant of a match.
type Player struct {
	index int
	name  string
	kind  Kind

	rules    registry.Ruleset
	settings registry.Settings
	field    *field.Field

	phase Phase
	piece *Piece
	queue *Queue

	nuisanceRNG *rand.Rand
	legacyCycle int

	inbox  []string
	outbox []string
	events []Event

	score     int // displayed score, drop bonus included
	scoreVal  int // score counted towards garbage
	dropBonus int
	chain     int
	lastChain int
	predicted int
	leftover  float64
	margin    int
	divider   int
	active    int
	bonusEQ   bool
	allClear  bool

	gq       int
	attack   int
	forgive  bool
	confirms int // confirmations owed to the peer that owns this player
	waiting  int // confirmations this player's peer still owes us

	blocked func() bool
	hint    bool
	done    bool
	err     error
}

// New creates a player in the Idle phase.
func New(opts Options) *Player {
	props := opts.Props
	if props.GridW == 0 {
		props = field.DefaultProperties()
	}
	set := opts.Rules.Settings()
	return &Player{
		index:       opts.Index,
		name:        opts.Name,
		kind:        opts.Kind,
		rules:       opts.Rules,
		settings:    set,
		field:       field.New(props, set.ClearThreshold),
		phase:       PhaseIdle,
		queue:       NewQueue(rand.New(rand.NewSource(opts.Seed)), set.Colors),
		nuisanceRNG: rand.New(rand.NewSource(opts.Seed + int64(opts.Index) + 1)),
		divider:     2,
		active:      2,
	}
}

// Start leaves the Idle phase.
func (p *Player) Start() {
	if p.phase == PhaseIdle {
		p.setPhase(PhaseCreatePiece)
	}
}

func (p *Player) setPhase(ph Phase) {
	p.phase = ph
}

// Tick advances the player by one frame. The returned error is fatal for
// the match; once set, it is returned by every later call.
func (p *Player) Tick(in core.InputFrame) error {
	if p.err != nil || p.phase == PhaseIdle {
		return p.err
	}
	if p.phase != PhaseLost {
		p.margin++
	}
	if in.Has(core.ActionHint) {
		p.hint = !p.hint
		if !p.hint {
			p.field.ClearGlow()
		}
	}

	var err error
	switch p.phase {
	case PhaseCreatePiece:
		err = p.phaseCreatePiece(in)
	case PhaseDropPuyo:
		p.field.DropPuyo()
		p.setPhase(PhaseFall)
	case PhaseFall:
		p.fall()
		if !p.field.Falling() {
			p.setPhase(PhaseBounce)
		}
	case PhaseBounce:
		p.fall()
		if p.field.Settled() {
			p.setPhase(PhaseSearchChain)
		}
	case PhaseSearchChain:
		p.phaseSearchChain()
	case PhasePop:
		if p.field.PopTick(p.settings.PopEnd) {
			p.setPhase(PhaseDropPuyo)
		}
	case PhaseDropGarbage:
		err = p.phaseDropGarbage()
	case PhaseFallGarbage:
		p.phaseFallGarbage()
	case PhaseCheckLoss:
		p.phaseCheckLoss()
	case PhaseLost:
		if !p.done && p.field.FallAway(p.settings.Gravity) {
			p.done = true
		}
	}
	p.err = err
	return err
}

func (p *Player) fall() {
	p.field.FallPuyo(p.settings.DelayedFall, p.settings.Gravity)
	p.field.BouncePuyo(p.settings.BounceEnd)
}

func (p *Player) phaseCreatePiece(in core.InputFrame) error {
	if !p.kind.Authoritative() {
		msg, ok, err := p.next(protocol.KindPlacement)
		if err != nil || !ok {
			return err
		}
		pl := msg.Placement
		p.queue.Pop()
		p.scoreVal = pl.ScoreVal
		p.dropBonus = pl.DropBonus
		p.divider = pl.Divider
		if protocol.AcceptMargin(p.margin, pl.Margin) {
			p.margin = pl.Margin
		}
		if pl.BonusEQ {
			p.bonusEQ = true
		}
		p.place(pl)
		return nil
	}

	if p.piece == nil {
		if p.blocked != nil && p.blocked() {
			return nil
		}
		p.spawn()
	}
	if !p.control(in) {
		return nil
	}
	p.lockPiece()
	return nil
}

func (p *Player) spawn() {
	c := p.queue.Pop()
	p.piece = &Piece{
		X:      (p.field.Width() - 1) / 2,
		Y:      p.field.HiddenRow() - 1,
		Pivot:  c[0],
		Second: c[1],
	}
}

// control applies one frame of input and gravity. It reports whether the
// piece locked.
func (p *Player) control(in core.InputFrame) bool {
	pc, f := p.piece, p.field
	if in.Has(core.ActionLeft) {
		pc.move(f, -1)
	}
	if in.Has(core.ActionRight) {
		pc.move(f, 1)
	}
	if in.Has(core.ActionRotateCW) {
		pc.rotate(f, 1)
	}
	if in.Has(core.ActionRotateCCW) {
		pc.rotate(f, -1)
	}

	soft := in.Has(core.ActionDown)
	speed := p.settings.DropSpeed
	if soft {
		speed = p.settings.SoftDrop
	}
	rows := pc.descend(f, speed)
	if soft && p.settings.AddDropBonus {
		p.dropBonus += rows
	}

	if p.hint && p.kind == KindHuman {
		if shadow := pc.Shadow(f); shadow != nil {
			f.TriggerGlow(shadow)
		} else {
			f.ClearGlow()
		}
	}

	if !pc.resting(f) {
		pc.lock = 0
		return false
	}
	pc.lock++
	return soft || pc.lock >= p.settings.LockDelay
}

func (p *Player) lockPiece() {
	cells := p.piece.Cells()
	pl := protocol.NewDoublet(p.piece.Pivot, p.piece.Second, cells[0], cells[1])

	p.divider = max(2, p.active)
	if p.settings.BonusEQ && p.gq > 0 {
		p.bonusEQ = true
	}
	pl.ScoreVal = p.scoreVal
	pl.DropBonus = p.dropBonus
	pl.Margin = p.margin
	pl.Divider = p.divider
	pl.BonusEQ = p.bonusEQ
	p.send(protocol.NewPlacement(pl))

	if p.settings.ForgiveGarbage && p.gq <= 0 {
		p.forgive = true
	}
	p.place(pl)
}

func (p *Player) place(pl protocol.Placement) {
	for _, s := range pl.Slots() {
		p.field.AddColorPuyo(s.X, s.Y, s.Color, field.Resting, 0, 0)
	}
	p.piece = nil
	p.field.ClearGlow()
	p.setPhase(PhaseDropPuyo)
}

func (p *Player) phaseSearchChain() {
	res := p.field.SearchChain(p.rules, p.chain)
	if res.HasPrediction {
		p.predicted = res.Predicted
	}

	if !res.Found {
		p.bonusEQ = false
		if p.chain > 0 {
			p.lastChain = p.chain
			if p.field.Count() == 0 {
				t := p.turn()
				p.rules.OnAllClear(&t)
				if t.AllClear && !p.allClear {
					p.allClear = true
					p.emitEvent(Event{Kind: EventAllClear})
				}
			}
			p.emitEvent(Event{Kind: EventChainEnd, Chain: p.chain})
		}
		p.chain = 0
		p.predicted = 0
		p.setPhase(PhaseDropGarbage)
		return
	}

	p.chain = res.Chain
	p.scoreVal += res.Score
	p.score += res.Score
	if p.settings.AddDropBonus {
		bonus := p.dropBonus
		if p.settings.MaxDropBonus > 0 {
			bonus = min(bonus, p.settings.MaxDropBonus)
		}
		p.score += bonus
		p.dropBonus = 0
	}

	t := p.turn()
	t.ChainScore = res.Score
	p.rules.OnChain(&t)
	p.leftover = t.Leftover
	p.allClear = t.AllClear
	sent := p.offset(t.Attack)

	p.emitEvent(Event{Kind: EventChain, Chain: p.chain, Amount: sent, Pos: res.Top})
	p.setPhase(PhasePop)
}

func (p *Player) turn() registry.Turn {
	return registry.Turn{
		Chain:       p.chain,
		ScoreVal:    p.scoreVal,
		Leftover:    p.leftover,
		MarginTimer: p.margin,
		Divider:     p.divider,
		BonusEQ:     p.bonusEQ,
		AllClear:    p.allClear,
	}
}

// offset cancels own garbage with an attack and keeps the rest for the
// opponents. It returns the amount sent.
func (p *Player) offset(attack int) int {
	if attack <= 0 {
		return 0
	}
	if p.gq > 0 {
		cancel := min(p.gq, attack)
		p.gq -= cancel
		attack -= cancel
	}
	p.attack += attack
	return attack
}

func (p *Player) phaseCheckLoss() {
	if p.field.Lost() {
		p.field.LoseDrop()
		p.setPhase(PhaseLost)
		p.emitEvent(Event{Kind: EventLost})
		return
	}
	p.setPhase(PhaseCreatePiece)
}

// Push appends a record to the inbox.
func (p *Player) Push(msg string) {
	p.inbox = append(p.inbox, msg)
}

// next consumes the front inbox record when it is one of kinds. A record
// that does not decode or is not expected here is a desync.
func (p *Player) next(kinds ...protocol.Kind) (protocol.Message, bool, error) {
	if len(p.inbox) == 0 {
		return protocol.Message{}, false, nil
	}
	raw := p.inbox[0]
	m, err := protocol.Decode(raw)
	if err != nil {
		return m, false, fmt.Errorf("player %d: %w", p.index, err)
	}
	if !slices.Contains(kinds, m.Kind) {
		return m, false, fmt.Errorf("player %d: unexpected record %q in phase %s: %w", p.index, raw, p.phase, protocol.ErrDesync)
	}
	p.inbox = p.inbox[1:]
	return m, true, nil
}

func (p *Player) send(m protocol.Message) {
	p.outbox = append(p.outbox, protocol.Encode(m))
}

// Drain returns and clears the records produced since the last call.
func (p *Player) Drain() []string {
	out := p.outbox
	p.outbox = nil
	return out
}

// AddGarbage queues nuisance sent by an opponent.
func (p *Player) AddGarbage(n int) {
	if n > 0 {
		p.gq += n
	}
}

// TakeAttack returns and clears the nuisance produced for the opponents.
func (p *Player) TakeAttack() int {
	a := p.attack
	p.attack = 0
	return a
}

// ExpectConfirm records that a garbage resolution was sent to this
// player's owner and awaits acknowledgement.
func (p *Player) ExpectConfirm() { p.waiting++ }

// Confirm settles one pending acknowledgement.
func (p *Player) Confirm() {
	if p.waiting > 0 {
		p.waiting--
	}
}

// Waiting returns the acknowledgements still pending.
func (p *Player) Waiting() int { return p.waiting }

// TakeConfirms returns and clears the acknowledgements owed to this
// player's owner for garbage resolutions replayed here.
func (p *Player) TakeConfirms() int {
	n := p.confirms
	p.confirms = 0
	return n
}

// SetBlocked installs the check that holds back the next piece.
func (p *Player) SetBlocked(fn func() bool) { p.blocked = fn }

// SetActive tells the player how many players are still in the match.
func (p *Player) SetActive(n int) { p.active = n }

// Events returns and clears the events since the last call.
func (p *Player) Events() []Event {
	ev := p.events
	p.events = nil
	return ev
}

func (p *Player) emitEvent(e Event) {
	p.events = append(p.events, e)
}

func (p *Player) Index() int                  { return p.index }
func (p *Player) Name() string                { return p.name }
func (p *Player) Kind() Kind                  { return p.kind }
func (p *Player) Phase() Phase                { return p.phase }
func (p *Player) Field() *field.Field         { return p.field }
func (p *Player) Rules() registry.Ruleset     { return p.rules }
func (p *Player) Settings() registry.Settings { return p.settings }
func (p *Player) Score() int                  { return p.score }
func (p *Player) Chain() int                  { return p.chain }
func (p *Player) LastChain() int              { return p.lastChain }
func (p *Player) Predicted() int              { return p.predicted }
func (p *Player) GQ() int                     { return p.gq }
func (p *Player) Margin() int                 { return p.margin }
func (p *Player) AllClear() bool              { return p.allClear }
func (p *Player) HintOn() bool                { return p.hint }
func (p *Player) Err() error                  { return p.err }

// Tray returns the warning icons for the garbage queue.
func (p *Player) Tray() [TraySlots]TrayIcon { return TrayIcons(p.gq) }

// Lost reports whether the player has been knocked out.
func (p *Player) Lost() bool { return p.phase == PhaseLost }

// Done reports whether the defeat animation has finished.
func (p *Player) Done() bool { return p.done }

// Piece returns the controlled piece, if any.
func (p *Player) Piece() (Piece, bool) {
	if p.piece == nil {
		return Piece{}, false
	}
	return *p.piece, true
}

// Next returns the upcoming doublets.
func (p *Player) Next() [][2]int { return p.queue.Preview() }
