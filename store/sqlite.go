// ABOUTME: SQLite-backed persistence for workflow results, keyed by workflow id.
// ABOUTME: Timeline and state log are stored as JSON columns; summaries support list queries.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/2389-research/flyout/workflow"
)

// Summary is a compact row for list queries, matching the API's list shape.
type Summary struct {
	WorkflowID string `json:"workflow_id"`
	Submitted  string `json:"submitted"`
	Steps      int    `json:"steps"`
	Succeeded  int    `json:"succeeded"`
}

// SqliteStore persists workflow results in a SQLite database.
type SqliteStore struct {
	db *sql.DB
}

// Open opens or creates the workflow database at the given path and runs
// migrations.
func Open(path string) (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS workflows (
			workflow_id TEXT PRIMARY KEY,
			submitted TEXT NOT NULL,
			steps INTEGER NOT NULL,
			succeeded INTEGER NOT NULL,
			timeline TEXT NOT NULL,
			state_log TEXT NOT NULL
		);`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SqliteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SqliteStore) Close() error {
	return s.db.Close()
}

// Save upserts a workflow result. Reruns with the same id overwrite.
func (s *SqliteStore) Save(result *workflow.Result) error {
	timeline, err := json.Marshal(result.Timeline)
	if err != nil {
		return fmt.Errorf("encode timeline: %w", err)
	}
	stateLog, err := json.Marshal(result.StateLog)
	if err != nil {
		return fmt.Errorf("encode state log: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO workflows (workflow_id, submitted, steps, succeeded, timeline, state_log)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(workflow_id) DO UPDATE SET
			submitted = excluded.submitted,
			steps = excluded.steps,
			succeeded = excluded.succeeded,
			timeline = excluded.timeline,
			state_log = excluded.state_log`,
		result.WorkflowID,
		result.Submitted.Format("2006-01-02T15:04:05Z07:00"),
		len(result.Timeline),
		result.Succeeded(),
		string(timeline),
		string(stateLog),
	)
	if err != nil {
		return fmt.Errorf("upsert workflow: %w", err)
	}
	return nil
}

// Get loads one workflow result by id. Returns sql.ErrNoRows when absent.
func (s *SqliteStore) Get(workflowID string) (*workflow.Result, error) {
	var submitted, timeline, stateLog string
	err := s.db.QueryRow(
		"SELECT submitted, timeline, state_log FROM workflows WHERE workflow_id = ?",
		workflowID).Scan(&submitted, &timeline, &stateLog)
	if err != nil {
		return nil, err
	}

	result := &workflow.Result{WorkflowID: workflowID}
	if err := result.Submitted.UnmarshalText([]byte(submitted)); err != nil {
		return nil, fmt.Errorf("parse submitted: %w", err)
	}
	if err := json.Unmarshal([]byte(timeline), &result.Timeline); err != nil {
		return nil, fmt.Errorf("decode timeline: %w", err)
	}
	if err := json.Unmarshal([]byte(stateLog), &result.StateLog); err != nil {
		return nil, fmt.Errorf("decode state log: %w", err)
	}
	return result, nil
}

// List returns summaries for all stored workflows, newest first.
func (s *SqliteStore) List() ([]Summary, error) {
	rows, err := s.db.Query(
		"SELECT workflow_id, submitted, steps, succeeded FROM workflows ORDER BY submitted DESC")
	if err != nil {
		return nil, fmt.Errorf("query workflows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.WorkflowID, &sum.Submitted, &sum.Steps, &sum.Succeeded); err != nil {
			return nil, fmt.Errorf("scan workflow row: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}
