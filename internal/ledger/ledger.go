// Package ledger persists an audit trail of planning runs in SQLite:
// the run itself, its planning and scenario artifacts, and every
// execution result.
package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Schrodinger0/codex-flow-sub001/pkg/models"
)

// Artifact kinds stored per run.
const (
	ArtifactPlanning = "planning"
	ArtifactScenario = "scenario"
)

// Run statuses.
const (
	RunStatusRunning = "running"
	RunStatusDone    = "done"
	RunStatusFailed  = "failed"
)

// Ledger wraps an SQLite connection with run-audit operations.
type Ledger struct {
	conn *sql.DB
	path string
	mu   sync.Mutex
}

// Run is one recorded planning run.
type Run struct {
	ID         string
	Goal       string
	Status     string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Open opens the ledger database at path, creating parent directories as
// needed. WAL mode is enabled for concurrent reads.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &Ledger{conn: conn, path: path}, nil
}

// Close closes the underlying connection.
func (l *Ledger) Close() error {
	return l.conn.Close()
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.path
}

// Migrate applies all pending schema migrations.
func (l *Ledger) Migrate() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := l.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Runs},
		{2, migrationV2Artifacts},
		{3, migrationV3Results},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := l.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}

	return nil
}

const migrationV1Runs = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	goal TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'running',
	started_at DATETIME NOT NULL,
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

const migrationV2Artifacts = `
CREATE TABLE IF NOT EXISTS artifacts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id),
	kind TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_artifacts_run_id ON artifacts(run_id);
`

const migrationV3Results = `
CREATE TABLE IF NOT EXISTS results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id),
	alias TEXT NOT NULL,
	agent_id TEXT NOT NULL,
	task TEXT NOT NULL,
	ok INTEGER NOT NULL,
	ms INTEGER NOT NULL,
	engine TEXT NOT NULL,
	summary TEXT NOT NULL,
	output TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_run_id ON results(run_id);
`

// BeginRun records a new run and returns its identifier.
func (l *Ledger) BeginRun(goal string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := uuid.NewString()
	_, err := l.conn.Exec(
		"INSERT INTO runs (id, goal, status, started_at) VALUES (?, ?, ?, ?)",
		id, goal, RunStatusRunning, formatTime(time.Now()),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// FinishRun marks the run done or failed.
func (l *Ledger) FinishRun(runID string, ok bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	status := RunStatusDone
	if !ok {
		status = RunStatusFailed
	}
	_, err := l.conn.Exec(
		"UPDATE runs SET status = ?, finished_at = ? WHERE id = ?",
		status, formatTime(time.Now()), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// SaveArtifact stores a JSON-encoded artifact for the run.
func (l *Ledger) SaveArtifact(runID, kind string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s artifact: %w", kind, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, err = l.conn.Exec(
		"INSERT INTO artifacts (run_id, kind, payload, created_at) VALUES (?, ?, ?, ?)",
		runID, kind, string(data), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert %s artifact: %w", kind, err)
	}
	return nil
}

// Artifact loads the most recent artifact of a kind for the run into dst.
func (l *Ledger) Artifact(runID, kind string, dst any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var payload string
	row := l.conn.QueryRow(
		"SELECT payload FROM artifacts WHERE run_id = ? AND kind = ? ORDER BY id DESC LIMIT 1",
		runID, kind,
	)
	if err := row.Scan(&payload); err != nil {
		return fmt.Errorf("load %s artifact: %w", kind, err)
	}
	if err := json.Unmarshal([]byte(payload), dst); err != nil {
		return fmt.Errorf("decode %s artifact: %w", kind, err)
	}
	return nil
}

// SaveResult records one execution result for the run.
func (l *Ledger) SaveResult(runID string, result models.ExecutionResult) error {
	output := ""
	if result.Output != nil {
		data, err := json.Marshal(result.Output)
		if err != nil {
			return fmt.Errorf("encode result output: %w", err)
		}
		output = string(data)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.conn.Exec(
		`INSERT INTO results (run_id, alias, agent_id, task, ok, ms, engine, summary, output, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, result.Alias, result.AgentID, result.Task, boolToInt(result.OK),
		result.MS, result.Engine, result.Summary, output, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// Results returns the run's execution results in insertion order.
func (l *Ledger) Results(runID string) ([]models.ExecutionResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.conn.Query(
		"SELECT alias, agent_id, task, ok, ms, engine, summary, output FROM results WHERE run_id = ? ORDER BY id",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []models.ExecutionResult
	for rows.Next() {
		var r models.ExecutionResult
		var ok int
		var output sql.NullString
		if err := rows.Scan(&r.Alias, &r.AgentID, &r.Task, &ok, &r.MS, &r.Engine, &r.Summary, &output); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.OK = ok != 0
		if output.Valid && output.String != "" {
			if err := json.Unmarshal([]byte(output.String), &r.Output); err != nil {
				return nil, fmt.Errorf("decode result output: %w", err)
			}
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// GetRun loads one run record.
func (l *Ledger) GetRun(runID string) (*Run, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var run Run
	var startedAt string
	var finishedAt sql.NullString
	row := l.conn.QueryRow(
		"SELECT id, goal, status, started_at, finished_at FROM runs WHERE id = ?",
		runID,
	)
	if err := row.Scan(&run.ID, &run.Goal, &run.Status, &startedAt, &finishedAt); err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}

	started, err := parseTime(startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	run.StartedAt = started
	if finishedAt.Valid {
		finished, err := parseTime(finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		run.FinishedAt = &finished
	}
	return &run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
