package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"minutes/internal/workflow"
)

// Job is a history row.
type Job struct {
	workflow.JobRecord
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordJob inserts or updates the history row for a job. Summary and counts
// are kept from earlier records when the update carries none.
func (s *Store) RecordJob(ctx context.Context, record workflow.JobRecord) error {
	if record.JobID == "" {
		return fmt.Errorf("record job: job id is required")
	}
	now := formatTime(time.Now())
	_, err := s.db.ExecContext(ctx, `INSERT INTO jobs (
            job_id, file_name, status, summary, decision_count, action_item_count,
            error_message, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(job_id) DO UPDATE SET
            file_name = CASE WHEN excluded.file_name = '' THEN jobs.file_name ELSE excluded.file_name END,
            status = excluded.status,
            summary = COALESCE(excluded.summary, jobs.summary),
            decision_count = CASE WHEN excluded.summary IS NULL THEN jobs.decision_count ELSE excluded.decision_count END,
            action_item_count = CASE WHEN excluded.summary IS NULL THEN jobs.action_item_count ELSE excluded.action_item_count END,
            error_message = excluded.error_message,
            updated_at = excluded.updated_at`,
		record.JobID,
		record.FileName,
		record.Status,
		summaryValue(record),
		record.Decisions,
		record.ActionItems,
		nullableString(record.Error),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("record job: %w", err)
	}
	return nil
}

// summaryValue marks records that carry extraction data. A completed job
// with an empty summary still stores "" so its counts are kept.
func summaryValue(record workflow.JobRecord) any {
	switch record.Status {
	case workflow.JobCompleted, workflow.JobConfirmed:
		return record.Summary
	default:
		return nil
	}
}

const jobColumns = `job_id, file_name, status, summary, decision_count, action_item_count,
        error_message, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(scanner rowScanner) (Job, error) {
	var (
		job                  Job
		summary, errMessage  sql.NullString
		createdAt, updatedAt string
	)
	if err := scanner.Scan(
		&job.JobID,
		&job.FileName,
		&job.Status,
		&summary,
		&job.Decisions,
		&job.ActionItems,
		&errMessage,
		&createdAt,
		&updatedAt,
	); err != nil {
		return Job{}, err
	}
	job.Summary = summary.String
	job.Error = errMessage.String
	job.CreatedAt = parseTime(createdAt)
	job.UpdatedAt = parseTime(updatedAt)
	return job, nil
}

// History returns the most recently updated jobs first. A non-positive limit
// returns every row.
func (s *Store) History(ctx context.Context, limit int) ([]Job, error) {
	query := "SELECT " + jobColumns + " FROM jobs ORDER BY updated_at DESC, job_id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return jobs, nil
}

// Job returns a single history row, or nil when unknown.
func (s *Store) Job(ctx context.Context, jobID string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE job_id = ?", jobID)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}
