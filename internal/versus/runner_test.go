package versus

import (
	"testing"
	"time"

	"github.com/vovakirdan/tui-puyo/internal/core"
	"github.com/vovakirdan/tui-puyo/internal/multiplayer"
)

func TestRunnerUnpaced(t *testing.T) {
	m := cpuMatch(t, 5)
	r := NewRunner(m, 0)
	r.SetFrameLimit(600)

	var res Result
	r.Run(func(out Result) { res = out })

	if res.Err != nil {
		t.Fatalf("Result.Err = %v", res.Err)
	}
	if !m.Over() && res.Frames != 600 {
		t.Errorf("Frames = %d, expected 600", res.Frames)
	}
	if !m.Over() && res.Reason != multiplayer.MatchEndReasonCancelled {
		t.Errorf("Reason = %v, expected cancelled at the frame limit", res.Reason)
	}
	if len(res.Scores) != 2 {
		t.Errorf("Scores = %v, expected two entries", res.Scores)
	}

	select {
	case f := <-r.Frames():
		if f.Frame != res.Frames || len(f.Players) != 2 {
			t.Errorf("final frame = %d with %d players", f.Frame, len(f.Players))
		}
	default:
		t.Error("no final frame published")
	}
	select {
	case <-r.Done():
	default:
		t.Error("Done() not closed after Run returned")
	}
}

func TestRunnerStop(t *testing.T) {
	m := cpuMatch(t, 5)
	r := NewRunner(m, 120)

	results := make(chan Result, 1)
	go r.Run(func(out Result) { results <- out })

	select {
	case <-r.Frames():
	case <-time.After(2 * time.Second):
		t.Fatal("no frame published")
	}

	applied := make(chan int, 1)
	r.Do(func(m *Match) { applied <- m.Frame() })
	r.SendInput(core.Player1, core.NewInputFrame())
	select {
	case <-applied:
	case <-time.After(2 * time.Second):
		t.Fatal("control request not applied")
	}

	r.Stop()
	select {
	case res := <-results:
		if res.Reason != multiplayer.MatchEndReasonCancelled {
			t.Errorf("Reason = %v, expected cancelled", res.Reason)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
}
