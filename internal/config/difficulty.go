package config

// DifficultyManager makes a CPU opponent quicker and more accurate as its
// score grows or the match runs on, following DifficultyConfig.
type DifficultyManager struct {
	cfg   DifficultyConfig
	start float64
}

func NewDifficultyManager(cfg DifficultyConfig) *DifficultyManager {
	return &DifficultyManager{cfg: cfg, start: cfg.InitialLevel}
}

// SetInitialLevel replaces the level the CPU starts at. It is clamped to [0, 1].
func (d *DifficultyManager) SetInitialLevel(level float64) {
	d.start = unit(level)
}

func (d *DifficultyManager) SetEnabled(enabled bool) { d.cfg.Enabled = enabled }

// IsEnabled reports whether the level moves at all.
func (d *DifficultyManager) IsEnabled() bool {
	return d.cfg.Enabled && d.cfg.Progression.Type != "none"
}

// Level is the current strength in [start, 1]. Progression "score" measures
// score against MaxAt, "time" measures frames.
func (d *DifficultyManager) Level(score, ticks int) float64 {
	if !d.IsEnabled() {
		return d.start
	}
	var done int
	switch d.cfg.Progression.Type {
	case "score":
		done = score
	case "time":
		done = ticks
	default:
		return d.start
	}
	span := float64(max(d.cfg.Progression.MaxAt, 1))
	return d.start + unit(float64(done)/span)*(1-d.start)
}

// ThinkDelay is how many frames the CPU waits before it starts moving a new pair.
func (d *DifficultyManager) ThinkDelay(base, score, ticks int) int {
	return shrink(base, d.cfg.Scaling.ThinkReduction, d.Level(score, ticks))
}

// MoveDelay is how many frames pass between two CPU inputs.
func (d *DifficultyManager) MoveDelay(base, score, ticks int) int {
	return shrink(base, d.cfg.Scaling.MoveReduction, d.Level(score, ticks))
}

// MistakeRate is the chance the CPU drops its pair somewhere random.
func (d *DifficultyManager) MistakeRate(base float64, score, ticks int) float64 {
	return unit(base - d.Level(score, ticks)*d.cfg.Scaling.MistakeReduction)
}

// shrink removes the level's share of cut from base, never going below one frame.
func shrink(base, cut int, level float64) int {
	return max(base-int(level*float64(cut)), 1)
}

func unit(v float64) float64 {
	return min(max(v, 0), 1)
}
