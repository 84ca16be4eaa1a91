package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/tui-puyo/internal/multiplayer"
	"github.com/vovakirdan/tui-puyo/internal/replay"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "deep", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() with nested path failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}

func TestStoreScores(t *testing.T) {
	store := openTestStore(t)

	for i, score := range []int{100, 500, 50, 300} {
		if _, err := store.SaveScore("alice", "tsu", score, i+1); err != nil {
			t.Fatalf("SaveScore() failed: %v", err)
		}
	}
	if _, err := store.SaveScore("bob", "fever", 900, 2); err != nil {
		t.Fatalf("SaveScore() failed: %v", err)
	}

	scores, err := store.TopScores("tsu", 3)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("Expected 3 scores with limit, got %d", len(scores))
	}
	if scores[0].Score != 500 || scores[1].Score != 300 || scores[2].Score != 100 {
		t.Errorf("Scores not in expected order: %v", scores)
	}
	if scores[0].MaxChain != 2 || scores[0].Player != "alice" {
		t.Errorf("top score = %+v, expected alice with a 2 chain", scores[0])
	}

	high, err := store.HighScore("fever")
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if high != 900 {
		t.Errorf("Expected high score of 900, got %d", high)
	}
	if high, _ := store.HighScore("classic"); high != 0 {
		t.Errorf("Expected high score of 0 for an unplayed ruleset, got %d", high)
	}

	if err := store.ClearScores("tsu"); err != nil {
		t.Fatalf("ClearScores() failed: %v", err)
	}
	if scores, _ := store.TopScores("tsu", 10); len(scores) != 0 {
		t.Errorf("Expected 0 tsu scores after clear, got %d", len(scores))
	}
	if scores, _ := store.TopScores("fever", 10); len(scores) != 1 {
		t.Error("fever scores should not be affected by clearing tsu")
	}
}

func TestStoreMatches(t *testing.T) {
	store := openTestStore(t)

	first := MatchRecord{
		MatchID:   "m1",
		Ruleset:   "tsu",
		Seed:      42,
		Players:   []MatchPlayer{{Seat: 0, Name: "alice", Score: 1200}, {Seat: 1, Name: "bob", Score: 300}},
		Winner:    "alice",
		EndReason: multiplayer.MatchEndReasonCompleted.String(),
		Duration:  95,
		ReplayID:  "r1",
	}
	if _, err := store.SaveMatch(first); err != nil {
		t.Fatalf("SaveMatch() failed: %v", err)
	}
	if _, err := store.SaveMatch(first); err == nil {
		t.Error("SaveMatch() with a duplicate match id should fail")
	}

	err := store.SaveMatchResult(multiplayer.MatchResultData{
		MatchID:      "m2",
		Ruleset:      "fever",
		Seed:         7,
		Players:      []string{"bob", "carol"},
		Scores:       []int{50},
		EndReason:    multiplayer.MatchEndReasonDisconnect.String(),
		DurationSecs: 12,
	})
	if err != nil {
		t.Fatalf("SaveMatchResult() failed: %v", err)
	}

	got, err := store.MatchByID("m1")
	if err != nil {
		t.Fatalf("MatchByID() failed: %v", err)
	}
	if got == nil {
		t.Fatal("MatchByID() returned nil for a stored match")
	}
	if got.Winner != "alice" || got.Seed != 42 || got.ReplayID != "r1" || len(got.Players) != 2 {
		t.Errorf("MatchByID() = %+v", got)
	}
	if got.Players[1] != first.Players[1] {
		t.Errorf("player 1 = %+v, expected %+v", got.Players[1], first.Players[1])
	}

	missing, err := store.MatchByID("nope")
	if err != nil || missing != nil {
		t.Errorf("MatchByID(missing) = %v, %v; expected nil, nil", missing, err)
	}

	recent, err := store.RecentMatches(10)
	if err != nil {
		t.Fatalf("RecentMatches() failed: %v", err)
	}
	if len(recent) != 2 || recent[0].MatchID != "m2" {
		t.Errorf("RecentMatches() = %+v, expected m2 first", recent)
	}
	if recent[0].Winner != "" || recent[0].Players[1].Score != 0 {
		t.Errorf("m2 = %+v, expected no winner and a zero score for carol", recent[0])
	}

	history, err := store.PlayerHistory("alice", 10)
	if err != nil {
		t.Fatalf("PlayerHistory() failed: %v", err)
	}
	if len(history) != 1 || history[0].MatchID != "m1" {
		t.Errorf("PlayerHistory(alice) = %+v", history)
	}

	stats, err := store.GetPlayerStats("bob")
	if err != nil {
		t.Fatalf("GetPlayerStats() failed: %v", err)
	}
	if stats.Matches != 2 || stats.Wins != 0 || stats.HighScore != 300 {
		t.Errorf("GetPlayerStats(bob) = %+v", stats)
	}
}

func TestStoreReplays(t *testing.T) {
	store := openTestStore(t)

	rec := replay.NewRecorder()
	rec.AddPlayer("alice", "human")
	rec.AddPlayer("cpu", "cpu")
	rec.Record(0, 30, "p|0|1|-1|2|0|2|1|-1|-1|-1|-1|0|0|30|2|0")
	rec.Record(0, 80, "n")
	f := rec.File(replay.NewHeader(time.Now(), 120, 2, 99, "tsu"))

	id, err := store.SaveReplay("m1", f)
	if err != nil {
		t.Fatalf("SaveReplay() failed: %v", err)
	}

	loaded, err := store.LoadReplay(id)
	if err != nil {
		t.Fatalf("LoadReplay() failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("LoadReplay() returned nil")
	}
	if loaded.Header.Seed != 99 || len(loaded.Players) != 2 || len(loaded.Players[0].Messages) != 2 {
		t.Errorf("LoadReplay() = %+v", loaded)
	}

	if missing, err := store.LoadReplay("nope"); err != nil || missing != nil {
		t.Errorf("LoadReplay(missing) = %v, %v; expected nil, nil", missing, err)
	}

	entries, err := store.Replays(5)
	if err != nil {
		t.Fatalf("Replays() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 replay, got %d", len(entries))
	}
	e := entries[0]
	if e.ID != id || e.MatchID != "m1" || e.Frames != 120 || e.Ruleset != "tsu" {
		t.Errorf("Replays()[0] = %+v", e)
	}
	if len(e.Players) != 2 || e.Players[1] != "cpu" {
		t.Errorf("Players = %v, expected [alice cpu]", e.Players)
	}
}
