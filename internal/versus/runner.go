package versus

import (
	"sync"
	"time"

	"github.com/vovakirdan/tui-puyo/internal/core"
	"github.com/vovakirdan/tui-puyo/internal/multiplayer"
)

// Frame is published after every tick of a paced runner.
type Frame struct {
	Frame   int
	Players []View
	Over    bool
	Winner  int
	Err     error
}

// Result contains the outcome of a run.
type Result struct {
	Reason multiplayer.MatchEndReason
	Winner int
	Frames int
	Scores []int
	Err    error
}

type playerInput struct {
	player core.PlayerID
	input  core.InputFrame
}

// Runner drives a match on its own goroutine at a fixed tick rate. Inputs
// and control requests arrive on buffered channels and are applied at the
// top of the next tick.
type Runner struct {
	match    *Match
	tickRate int
	limit    int

	inputChan chan playerInput
	pending   core.MultiInputFrame
	ctrlChan  chan func(*Match)
	frames    chan Frame

	done     chan struct{}
	doneOnce sync.Once
}

// NewRunner creates a runner. A tickRate of 0 runs unpaced and publishes
// only the final frame.
func NewRunner(m *Match, tickRate int) *Runner {
	return &Runner{
		match:     m,
		tickRate:  tickRate,
		inputChan: make(chan playerInput, 64),
		pending:   core.NewMultiInputFrame(),
		ctrlChan:  make(chan func(*Match), 16),
		frames:    make(chan Frame, 1),
		done:      make(chan struct{}),
	}
}

// SetFrameLimit stops the run after n frames. Zero means no limit.
func (r *Runner) SetFrameLimit(n int) { r.limit = n }

// SendInput queues input for a local player.
// Non-blocking, uses a buffered channel.
func (r *Runner) SendInput(id core.PlayerID, in core.InputFrame) {
	select {
	case r.inputChan <- playerInput{player: id, input: in}:
	default:
		// Channel full, drop input (rare under normal conditions)
	}
}

// Do runs fn on the match goroutine before the next tick.
func (r *Runner) Do(fn func(*Match)) {
	select {
	case r.ctrlChan <- fn:
	case <-r.done:
	}
}

// Frames returns the channel of published frames. Only the latest frame is
// kept when the reader falls behind.
func (r *Runner) Frames() <-chan Frame { return r.frames }

// Done returns a channel closed when the run ends.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Run ticks the match until it is over, fails, runs out of replay, or is
// stopped. The callback receives the outcome.
func (r *Runner) Run(onComplete func(Result)) {
	defer r.Stop()

	m := r.match
	if m.started.IsZero() {
		m.Start()
	}

	var tick <-chan time.Time
	if r.tickRate > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(r.tickRate))
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if tick != nil {
			select {
			case <-tick:
			case fn := <-r.ctrlChan:
				fn(m)
				continue
			case <-r.done:
				r.finish(onComplete, multiplayer.MatchEndReasonCancelled)
				return
			}
		} else {
			select {
			case <-r.done:
				r.finish(onComplete, multiplayer.MatchEndReasonCancelled)
				return
			default:
			}
		}

		reason, ended := r.step()
		if r.tickRate > 0 || ended {
			r.publish()
		}
		if ended {
			r.finish(onComplete, reason)
			return
		}
	}
}

func (r *Runner) step() (multiplayer.MatchEndReason, bool) {
	m := r.match
	r.drainInputs()

	var err error
	if m.playback != nil {
		err = m.Advance()
	} else {
		err = m.Tick(r.pending)
	}
	r.pending.Clear()

	switch {
	case err != nil:
		return multiplayer.MatchEndReasonDesync, true
	case m.Over():
		return multiplayer.MatchEndReasonCompleted, true
	case m.Finished():
		return multiplayer.MatchEndReasonCompleted, true
	case r.limit > 0 && m.Frame() >= r.limit:
		return multiplayer.MatchEndReasonCancelled, true
	}
	return 0, false
}

func (r *Runner) drainInputs() {
	for {
		select {
		case pi := <-r.inputChan:
			frame := r.pending.Player(pi.player)
			frame.Merge(pi.input)
			r.pending.SetPlayer(pi.player, frame)
		case fn := <-r.ctrlChan:
			fn(r.match)
		default:
			return
		}
	}
}

func (r *Runner) publish() {
	m := r.match
	f := Frame{
		Frame:   m.Frame(),
		Players: m.View(),
		Over:    m.Over(),
		Winner:  m.Winner(),
		Err:     m.Err(),
	}
	select {
	case r.frames <- f:
	default:
		select {
		case <-r.frames:
		default:
		}
		select {
		case r.frames <- f:
		default:
		}
	}
}

func (r *Runner) finish(onComplete func(Result), reason multiplayer.MatchEndReason) {
	if onComplete == nil {
		return
	}
	m := r.match
	onComplete(Result{
		Reason: reason,
		Winner: m.Winner(),
		Frames: m.Frame(),
		Scores: m.Scores(),
		Err:    m.Err(),
	})
}

// Stop ends the run. Safe to call multiple times.
func (r *Runner) Stop() {
	r.doneOnce.Do(func() {
		close(r.done)
	})
}
