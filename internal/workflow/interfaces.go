package workflow

import (
	"context"
	"time"

	"minutes/internal/api"
	"minutes/internal/intake"
)

// Backend is the part of the minutes API the controller drives.
type Backend interface {
	Upload(ctx context.Context, file intake.File) (api.UploadResponse, error)
	Process(ctx context.Context, jobID string) (api.ProcessResponse, error)
	Confirm(ctx context.Context, jobID string, results api.MeetingResults) error
	Export(ctx context.Context, jobID string) (api.ExportDocument, error)
}

// Presenter receives a snapshot after every state change. Render may be
// called from a timer goroutine when the copy label is restored.
type Presenter interface {
	Render(Snapshot)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(Snapshot)

func (f PresenterFunc) Render(s Snapshot) { f(s) }

// SessionStore persists the session after every change.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
}

// Job history statuses.
const (
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobConfirmed  = "confirmed"
	JobFailed     = "failed"
)

// JobRecord is one history entry for a backend job.
type JobRecord struct {
	JobID       string `json:"job_id"`
	FileName    string `json:"file_name,omitempty"`
	Status      string `json:"status"`
	Summary     string `json:"summary,omitempty"`
	Decisions   int    `json:"decisions"`
	ActionItems int    `json:"action_items"`
	Error       string `json:"error,omitempty"`
}

// History records job milestones. Stores implementing it alongside
// SessionStore are used automatically.
type History interface {
	RecordJob(ctx context.Context, record JobRecord) error
}

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

// DownloadSink delivers an exported document and reports where it went.
type DownloadSink interface {
	Deliver(ctx context.Context, filename string, markdown []byte) (string, error)
}

// Timer is the handle returned by Options.AfterFunc.
type Timer interface {
	Stop() bool
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func afterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
