// Package storage provides SQLite-based persistence for scores, match
// results and replays.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/tui-puyo/internal/multiplayer"
	"github.com/vovakirdan/tui-puyo/internal/replay"
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// ScoreEntry represents a single high score record.
type ScoreEntry struct {
	ID        int64
	Player    string
	Ruleset   string
	Score     int
	MaxChain  int
	CreatedAt time.Time
}

// MatchPlayer is one seat of a stored match.
type MatchPlayer struct {
	Seat  int
	Name  string
	Score int
}

// MatchRecord represents the outcome of a match.
type MatchRecord struct {
	ID        int64
	MatchID   string
	Ruleset   string
	Seed      int64
	Players   []MatchPlayer
	Winner    string // Empty if no winner
	EndReason string
	Duration  int    // Duration in seconds
	ReplayID  string // Empty if no replay was kept
	CreatedAt time.Time
}

// ReplayEntry describes a stored replay without its data.
type ReplayEntry struct {
	ID        string
	MatchID   string
	Ruleset   string
	Players   []string
	Frames    int
	CreatedAt time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			player TEXT NOT NULL,
			ruleset TEXT NOT NULL,
			score INTEGER NOT NULL,
			max_chain INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_scores_top ON scores(ruleset, score DESC);

		CREATE TABLE IF NOT EXISTS matches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id TEXT NOT NULL UNIQUE,
			ruleset TEXT NOT NULL,
			seed INTEGER NOT NULL,
			winner TEXT,
			end_reason TEXT NOT NULL,
			duration_secs INTEGER NOT NULL DEFAULT 0,
			replay_id TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS match_players (
			match_id TEXT NOT NULL,
			seat INTEGER NOT NULL,
			name TEXT NOT NULL,
			score INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (match_id, seat)
		);
		CREATE INDEX IF NOT EXISTS idx_match_players_name ON match_players(name);

		CREATE TABLE IF NOT EXISTS replays (
			id TEXT PRIMARY KEY,
			match_id TEXT,
			ruleset TEXT NOT NULL,
			players TEXT NOT NULL,
			frames INTEGER NOT NULL,
			data BLOB NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// parseTime reads a DATETIME column - handle both time.Time and string.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// SaveScore records the final score and longest chain of a player.
// Returns the ID of the inserted record.
func (s *Store) SaveScore(player, ruleset string, score, maxChain int) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO scores (player, ruleset, score, max_chain) VALUES (?, ?, ?, ?)",
		player, ruleset, score, maxChain,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save score: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// TopScores retrieves the top N scores for the given ruleset.
// Results are ordered by score descending.
func (s *Store) TopScores(ruleset string, limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, player, ruleset, score, max_chain, created_at
		 FROM scores
		 WHERE ruleset = ?
		 ORDER BY score DESC
		 LIMIT ?`,
		ruleset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query scores: %w", err)
	}
	defer rows.Close()

	var entries []ScoreEntry
	for rows.Next() {
		var e ScoreEntry
		var createdAt any
		if err := rows.Scan(&e.ID, &e.Player, &e.Ruleset, &e.Score, &e.MaxChain, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// HighScore returns the highest score for the given ruleset.
// Returns 0 if no scores exist.
func (s *Store) HighScore(ruleset string) (int, error) {
	var score sql.NullInt64
	err := s.db.QueryRow(
		"SELECT MAX(score) FROM scores WHERE ruleset = ?",
		ruleset,
	).Scan(&score)

	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}

	if !score.Valid {
		return 0, nil
	}

	return int(score.Int64), nil
}

// ClearScores deletes all scores for the given ruleset.
func (s *Store) ClearScores(ruleset string) error {
	_, err := s.db.Exec("DELETE FROM scores WHERE ruleset = ?", ruleset)
	if err != nil {
		return fmt.Errorf("storage: cannot clear scores: %w", err)
	}
	return nil
}

// SaveMatch records the result of a match and its players.
// Returns the ID of the inserted record.
func (s *Store) SaveMatch(m MatchRecord) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	res, err := tx.Exec(
		`INSERT INTO matches
		 (match_id, ruleset, seed, winner, end_reason, duration_secs, replay_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.MatchID,
		m.Ruleset,
		m.Seed,
		nullString(m.Winner),
		m.EndReason,
		m.Duration,
		nullString(m.ReplayID),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save match: %w", err)
	}
	for _, p := range m.Players {
		if _, err := tx.Exec(
			"INSERT INTO match_players (match_id, seat, name, score) VALUES (?, ?, ?, ?)",
			m.MatchID, p.Seat, p.Name, p.Score,
		); err != nil {
			return 0, fmt.Errorf("storage: cannot save match player: %w", err)
		}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage: cannot commit match: %w", err)
	}
	return id, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

const matchColumns = `id, match_id, ruleset, seed, winner, end_reason, duration_secs, replay_id, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (MatchRecord, error) {
	var m MatchRecord
	var winner, replayID sql.NullString
	var createdAt any
	err := row.Scan(&m.ID, &m.MatchID, &m.Ruleset, &m.Seed, &winner, &m.EndReason, &m.Duration, &replayID, &createdAt)
	if err != nil {
		return m, err
	}
	m.Winner = winner.String
	m.ReplayID = replayID.String
	m.CreatedAt = parseTime(createdAt)
	return m, nil
}

// MatchByID retrieves a match by its match ID. Returns nil if not found.
func (s *Store) MatchByID(matchID string) (*MatchRecord, error) {
	m, err := scanMatch(s.db.QueryRow(
		"SELECT "+matchColumns+" FROM matches WHERE match_id = ?",
		matchID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query match: %w", err)
	}
	if m.Players, err = s.matchPlayers(m.MatchID); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecentMatches retrieves the most recent matches.
func (s *Store) RecentMatches(limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryMatches(
		"SELECT "+matchColumns+" FROM matches ORDER BY created_at DESC, id DESC LIMIT ?",
		limit,
	)
}

// PlayerHistory retrieves the matches a player took part in.
func (s *Store) PlayerHistory(name string, limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryMatches(
		`SELECT `+matchColumns+` FROM matches
		 WHERE match_id IN (SELECT match_id FROM match_players WHERE name = ?)
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		name, limit,
	)
}

func (s *Store) queryMatches(query string, args ...any) ([]MatchRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query matches: %w", err)
	}

	var results []MatchRecord
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	rows.Close()

	for i := range results {
		if results[i].Players, err = s.matchPlayers(results[i].MatchID); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (s *Store) matchPlayers(matchID string) ([]MatchPlayer, error) {
	rows, err := s.db.Query(
		"SELECT seat, name, score FROM match_players WHERE match_id = ? ORDER BY seat",
		matchID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query match players: %w", err)
	}
	defer rows.Close()

	var players []MatchPlayer
	for rows.Next() {
		var p MatchPlayer
		if err := rows.Scan(&p.Seat, &p.Name, &p.Score); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// SaveMatchResult implements multiplayer.MatchResultSaver.
// This adapter allows the coordinator to save match results without direct storage dependency.
func (s *Store) SaveMatchResult(data multiplayer.MatchResultData) error {
	m := MatchRecord{
		MatchID:   data.MatchID,
		Ruleset:   data.Ruleset,
		Seed:      data.Seed,
		Winner:    data.Winner,
		EndReason: data.EndReason,
		Duration:  data.DurationSecs,
	}
	for i, name := range data.Players {
		p := MatchPlayer{Seat: i, Name: name}
		if i < len(data.Scores) {
			p.Score = data.Scores[i]
		}
		m.Players = append(m.Players, p)
	}
	_, err := s.SaveMatch(m)
	return err
}

// Ensure Store implements MatchResultSaver
var _ multiplayer.MatchResultSaver = (*Store)(nil)

// SaveReplay stores a replay and returns its id.
func (s *Store) SaveReplay(matchID string, f *replay.File) (string, error) {
	var buf bytes.Buffer
	if err := f.Save(&buf); err != nil {
		return "", fmt.Errorf("storage: cannot encode replay: %w", err)
	}
	names := make([]string, len(f.Players))
	for i, p := range f.Players {
		names[i] = p.Name
	}

	id := uuid.NewString()
	_, err := s.db.Exec(
		"INSERT INTO replays (id, match_id, ruleset, players, frames, data) VALUES (?, ?, ?, ?, ?, ?)",
		id, nullString(matchID), f.Header.Ruleset, strings.Join(names, "\n"), f.Header.Duration, buf.Bytes(),
	)
	if err != nil {
		return "", fmt.Errorf("storage: cannot save replay: %w", err)
	}
	return id, nil
}

// LoadReplay reads a stored replay. Returns nil if not found.
func (s *Store) LoadReplay(id string) (*replay.File, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM replays WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query replay: %w", err)
	}
	f, err := replay.Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("storage: cannot decode replay %s: %w", id, err)
	}
	return f, nil
}

// Replays lists the most recent replays.
func (s *Store) Replays(limit int) ([]ReplayEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, match_id, ruleset, players, frames, created_at
		 FROM replays
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query replays: %w", err)
	}
	defer rows.Close()

	var entries []ReplayEntry
	for rows.Next() {
		var e ReplayEntry
		var matchID sql.NullString
		var players string
		var createdAt any
		if err := rows.Scan(&e.ID, &matchID, &e.Ruleset, &players, &e.Frames, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.MatchID = matchID.String
		e.Players = strings.Split(players, "\n")
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return entries, nil
}

// PlayerStats contains aggregated statistics for a player.
type PlayerStats struct {
	Name       string
	Matches    int
	Wins       int
	HighScore  int
	LastPlayed time.Time
}

// GetPlayerStats retrieves aggregated statistics for a player.
func (s *Store) GetPlayerStats(name string) (*PlayerStats, error) {
	stats := &PlayerStats{Name: name}

	var lastPlayed any
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN m.winner = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(MAX(p.score), 0), MAX(m.created_at)
		 FROM match_players p JOIN matches m ON m.match_id = p.match_id
		 WHERE p.name = ?`,
		name, name,
	).Scan(&stats.Matches, &stats.Wins, &stats.HighScore, &lastPlayed)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get player stats: %w", err)
	}
	stats.LastPlayed = parseTime(lastPlayed)

	return stats, nil
}
