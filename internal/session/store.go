package session

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"minutes/internal/api"
	"minutes/internal/config"
	"minutes/internal/workflow"
)

// Store persists the current session and the job history in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the session database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.SessionDBPath())
}

// OpenPath opens the database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted session, or an idle session when none exists.
func (s *Store) Load(ctx context.Context) (workflow.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT job_id, file_name, phase, progress_percent, progress_message,
        transcript_expanded, result_json, updated_at FROM current_session WHERE id = 1`)

	var (
		jobID, fileName, message, resultJSON sql.NullString
		phase, updatedAt                     string
		percent                              int
		expanded                             bool
	)
	if err := row.Scan(&jobID, &fileName, &phase, &percent, &message, &expanded, &resultJSON, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return workflow.Session{Phase: workflow.PhaseIdle}, nil
		}
		return workflow.Session{}, fmt.Errorf("load session: %w", err)
	}

	session := workflow.Session{
		JobID:              jobID.String,
		FileName:           fileName.String,
		Phase:              workflow.Phase(phase),
		Progress:           workflow.Progress{Percent: percent, Message: message.String},
		TranscriptExpanded: expanded,
		UpdatedAt:          parseTime(updatedAt),
	}
	if resultJSON.Valid && resultJSON.String != "" {
		stored := storedResult{ProcessingResult: &api.ProcessingResult{}}
		if err := json.Unmarshal([]byte(resultJSON.String), &stored); err != nil {
			return workflow.Session{}, fmt.Errorf("decode stored result: %w", err)
		}
		stored.Raw = stored.RawResults
		session.Result = stored.ProcessingResult
	}
	return session, nil
}

// storedResult keeps the backend's raw results next to the decoded fields.
type storedResult struct {
	*api.ProcessingResult
	RawResults json.RawMessage `json:"raw_results,omitempty"`
}

// Save replaces the persisted session.
func (s *Store) Save(ctx context.Context, session workflow.Session) error {
	var resultJSON any
	if session.Result != nil {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(storedResult{ProcessingResult: session.Result, RawResults: session.Result.Raw}); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		resultJSON = strings.TrimSuffix(buf.String(), "\n")
	}
	updatedAt := session.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	phase := session.Phase
	if phase == "" {
		phase = workflow.PhaseIdle
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO current_session (
            id, job_id, file_name, phase, progress_percent, progress_message,
            transcript_expanded, result_json, updated_at
        ) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            job_id = excluded.job_id,
            file_name = excluded.file_name,
            phase = excluded.phase,
            progress_percent = excluded.progress_percent,
            progress_message = excluded.progress_message,
            transcript_expanded = excluded.transcript_expanded,
            result_json = excluded.result_json,
            updated_at = excluded.updated_at`,
		nullableString(session.JobID),
		nullableString(session.FileName),
		string(phase),
		session.Progress.Percent,
		nullableString(session.Progress.Message),
		session.TranscriptExpanded,
		resultJSON,
		formatTime(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear removes the persisted session.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM current_session"); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
