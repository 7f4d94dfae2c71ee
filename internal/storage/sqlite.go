// Package storage provides SQLite-based persistence for script run history.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/luads/internal/engine"
)

// Run outcomes.
const (
	OutcomeRunning   = "running"
	OutcomeStopped   = "stopped"
	OutcomeErrored   = "errored"
	OutcomeRestarted = "restarted"
	OutcomeQuit      = "quit"
)

// Store manages the SQLite database connection for run history.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// RunRecord is one execution of a script, from start to the state it
// ended in.
type RunRecord struct {
	ID        string
	Script    string // reference as given by the user
	Name      string
	Outcome   string
	Message   string // fault or load error, if any
	Ticks     int64
	StartedAt time.Time
	EndedAt   time.Time // zero while running
}

// Duration returns how long the run lasted, or zero while it is running.
func (r RunRecord) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// ScriptStats contains aggregated statistics for a script.
type ScriptStats struct {
	Script   string
	Runs     int
	Errors   int
	Ticks    int64
	LastRun  time.Time
	LastName string
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

	// Open database
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db, now: time.Now}

	// Run migrations
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			script TEXT NOT NULL,
			name TEXT NOT NULL,
			outcome TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			ticks INTEGER NOT NULL DEFAULT 0,
			started_at TEXT NOT NULL,
			ended_at TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_runs_script ON runs(script);
		CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
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

// BeginRun records the start of a run and returns its ID.
func (s *Store) BeginRun(script, name string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		"INSERT INTO runs (id, script, name, outcome, started_at) VALUES (?, ?, ?, ?, ?)",
		id, script, name, OutcomeRunning, formatTime(s.now()),
	)
	if err != nil {
		return "", fmt.Errorf("storage: cannot begin run: %w", err)
	}
	return id, nil
}

// FinishRun records how a run ended.
func (s *Store) FinishRun(id, outcome, message string, ticks uint64) error {
	res, err := s.db.Exec(
		"UPDATE runs SET outcome = ?, message = ?, ticks = ?, ended_at = ? WHERE id = ?",
		outcome, message, int64(ticks), formatTime(s.now()), id,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("storage: unknown run %s", id)
	}
	return nil
}

// Run retrieves a run by ID. Returns nil if it does not exist.
func (s *Store) Run(id string) (*RunRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, script, name, outcome, message, ticks, started_at, ended_at
		 FROM runs WHERE id = ?`,
		id,
	)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query run: %w", err)
	}
	return &r, nil
}

// Runs retrieves the most recent runs, newest first. An empty script
// returns runs of every script.
func (s *Store) Runs(script string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, script, name, outcome, message, ticks, started_at, ended_at
		 FROM runs
		 WHERE ? = '' OR script = ?
		 ORDER BY started_at DESC, rowid DESC
		 LIMIT ?`,
		script, script, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return runs, nil
}

// RecentScripts returns distinct script references, most recently run first.
func (s *Store) RecentScripts(limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT script FROM runs
		 GROUP BY script
		 ORDER BY MAX(started_at) DESC, MAX(rowid) DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query recent scripts: %w", err)
	}
	defer rows.Close()

	var scripts []string
	for rows.Next() {
		var script string
		if err := rows.Scan(&script); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		scripts = append(scripts, script)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return scripts, nil
}

// ScriptStats retrieves aggregated statistics for every script that has run.
func (s *Store) ScriptStats() (map[string]*ScriptStats, error) {
	rows, err := s.db.Query(
		`SELECT script, COUNT(*), SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
		        COALESCE(SUM(ticks), 0), MAX(started_at),
		        (SELECT name FROM runs r2 WHERE r2.script = runs.script ORDER BY started_at DESC LIMIT 1)
		 FROM runs
		 GROUP BY script`,
		OutcomeErrored,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get script stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]*ScriptStats)
	for rows.Next() {
		var st ScriptStats
		var lastRun any
		if err := rows.Scan(&st.Script, &st.Runs, &st.Errors, &st.Ticks, &lastRun, &st.LastName); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		st.LastRun = parseTime(lastRun)
		stats[st.Script] = &st
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return stats, nil
}

// ClearRuns deletes the history of one script, or of all scripts when
// script is empty.
func (s *Store) ClearRuns(script string) error {
	_, err := s.db.Exec("DELETE FROM runs WHERE ? = '' OR script = ?", script, script)
	if err != nil {
		return fmt.Errorf("storage: cannot clear runs: %w", err)
	}
	return nil
}

// Ensure Store implements RunLog
var _ engine.RunLog = (*Store)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (RunRecord, error) {
	var r RunRecord
	var startedAt, endedAt any
	if err := sc.Scan(&r.ID, &r.Script, &r.Name, &r.Outcome, &r.Message, &r.Ticks, &startedAt, &endedAt); err != nil {
		return r, err
	}
	r.StartedAt = parseTime(startedAt)
	r.EndedAt = parseTime(endedAt)
	return r, nil
}

const timeLayout = "2006-01-02 15:04:05.000000000"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime handles both time.Time and string columns.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse(timeLayout, v); err == nil {
			return parsed
		}
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
