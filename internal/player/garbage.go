package player

import (
	"github.com/vovakirdan/tui-puyo/internal/field"
	"github.com/vovakirdan/tui-puyo/internal/protocol"
)

// TrayIcon is one slot of the nuisance warning tray.
type TrayIcon int

const (
	TrayNone TrayIcon = iota
	TraySmall
	TrayBig
	TrayRock
	TrayStar
	TrayMoon
	TrayCrown
)

// TraySlots is the number of icons the tray shows.
const TraySlots = 6

var trayTiers = []struct {
	icon  TrayIcon
	value int
}{
	{TrayCrown, 720},
	{TrayMoon, 360},
	{TrayStar, 180},
	{TrayRock, 30},
	{TrayBig, 6},
	{TraySmall, 1},
}

// Value returns the nuisance count one icon stands for.
func (t TrayIcon) Value() int {
	for _, tier := range trayTiers {
		if tier.icon == t {
			return tier.value
		}
	}
	return 0
}

// TrayIcons splits amount into tray icons, largest tiers first.
func TrayIcons(amount int) [TraySlots]TrayIcon {
	var tray [TraySlots]TrayIcon
	slot := 0
	for _, tier := range trayTiers {
		for amount >= tier.value && slot < TraySlots {
			tray[slot] = tier.icon
			amount -= tier.value
			slot++
		}
	}
	return tray
}

// columns returns the column source for the next garbage drop. Legacy
// rulesets cycle a fixed pattern; the others draw one shuffled row of
// columns at a time from the nuisance stream.
func (p *Player) columns() field.ColumnSource {
	w := p.field.Width()
	if p.settings.LegacyNuisanceDrop {
		return func(int) int {
			x := field.LegacyNuisanceColumn(w, p.legacyCycle)
			p.legacyCycle++
			return x
		}
	}
	var row []int
	return func(i int) int {
		if i%w == 0 {
			row = p.nuisanceRNG.Perm(w)
		}
		return row[i%w]
	}
}

// dropGarbage places up to one drop of the queue and returns the amount
// taken off it.
func (p *Player) dropGarbage(amount int) int {
	res := p.field.DropGarbage(amount, p.columns())
	p.gq = max(p.gq-res.Dropped, 0)
	if res.Dropped > 0 {
		p.emitEvent(Event{Kind: EventGarbage, Amount: res.Dropped, Pos: res.Last})
	}
	return res.Dropped
}

// updateTray reports the queue left after a garbage resolution, including
// one that placed nothing.
func (p *Player) updateTray() {
	p.emitEvent(Event{Kind: EventTray, Amount: p.gq})
}

// phaseDropGarbage resolves the garbage queue. An authoritative player
// decides and announces the drop; the others wait for that announcement.
func (p *Player) phaseDropGarbage() error {
	if p.kind.Authoritative() {
		dropped := 0
		if p.gq > 0 && !p.forgive {
			dropped = p.dropGarbage(p.gq)
		}
		p.forgive = false
		if dropped > 0 {
			p.send(protocol.NewGarbage(dropped))
		} else {
			p.send(protocol.NewNoGarbage())
		}
		p.updateTray()
		p.setPhase(PhaseFallGarbage)
		return nil
	}

	msg, ok, err := p.next(protocol.KindGarbage, protocol.KindNoGarbage)
	if err != nil || !ok {
		return err
	}
	if msg.Kind == protocol.KindGarbage {
		p.dropGarbage(msg.Garbage)
	}
	p.forgive = false
	if p.kind == KindOnline {
		p.confirms++
	}
	p.updateTray()
	p.setPhase(PhaseFallGarbage)
	return nil
}

func (p *Player) phaseFallGarbage() {
	for _, c := range p.field.FallPuyo(p.settings.DelayedFall, p.settings.Gravity) {
		if c.Kind == field.CueNuisanceLand {
			p.emitEvent(Event{Kind: EventNuisanceLand, Pos: c.Pos})
		}
	}
	p.field.BouncePuyo(p.settings.BounceEnd)
	if p.field.Settled() {
		p.setPhase(PhaseCheckLoss)
	}
}
