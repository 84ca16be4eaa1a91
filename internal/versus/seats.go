package versus

import (
	"github.com/vovakirdan/tui-puyo/internal/config"
	"github.com/vovakirdan/tui-puyo/internal/cpu"
	"github.com/vovakirdan/tui-puyo/internal/multiplayer"
	"github.com/vovakirdan/tui-puyo/internal/player"
)

// NewCPU builds a controller for preset. An unknown preset falls back to
// the normal one.
func NewCPU(cfg config.CPUConfig, preset config.DifficultyPreset, seed int64) *cpu.Controller {
	p, err := config.ApplyCPUPreset(&cfg, preset)
	if err != nil {
		p, _ = config.ApplyCPUPreset(&cfg, config.DifficultyNormal)
	}
	return cpu.New(p, cfg.Difficulty, seed)
}

// OnlineSeats lays out the table of an online match as seen from seat
// local: that seat is the human, the others are remote.
func OnlineSeats(info multiplayer.MatchInfo, local int) []Seat {
	seats := make([]Seat, len(info.Names))
	for i, name := range info.Names {
		kind := player.KindOnline
		if i == local {
			kind = player.KindHuman
		}
		seats[i] = Seat{Name: name, Kind: kind}
	}
	return seats
}
