package core

import "time"

// DefaultTickRate is the frame rate a match runs at when none is set.
const DefaultTickRate = 60

// RuntimeConfig describes the terminal a match is drawn on and how fast
// its frames advance.
type RuntimeConfig struct {
	ScreenW  int
	ScreenH  int
	TickRate int   // frames per second
	Seed     int64 // match seed; 0 picks one at match start
}

// DefaultConfig is an 80x24 terminal at the default tick rate.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{ScreenW: 80, ScreenH: 24, TickRate: DefaultTickRate}
}

// FrameInterval is the wall time of one frame at tickRate. Rates below one
// fall back to DefaultTickRate.
func FrameInterval(tickRate int) time.Duration {
	if tickRate < 1 {
		tickRate = DefaultTickRate
	}
	return time.Second / time.Duration(tickRate)
}
