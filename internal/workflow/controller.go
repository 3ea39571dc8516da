package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"minutes/internal/intake"
	"minutes/internal/logging"
	"minutes/internal/notifications"
	"minutes/internal/services"
)

// Options configures a Controller. Backend is required.
type Options struct {
	Backend      Backend
	Store        SessionStore
	History      History
	Presenter    Presenter
	Clipboard    Clipboard
	Notifier     notifications.Service
	Logger       *slog.Logger
	DisplayDelay time.Duration
	CopyFeedback time.Duration
	// Initial restores a previously persisted session.
	Initial Session

	Sleep     func(ctx context.Context, d time.Duration) error
	AfterFunc func(d time.Duration, f func()) Timer
	Now       func() time.Time
}

// Controller runs the upload workflow for a single job at a time.
type Controller struct {
	backend      Backend
	store        SessionStore
	history      History
	presenter    Presenter
	clipboard    Clipboard
	notifier     notifications.Service
	logger       *slog.Logger
	displayDelay time.Duration
	copyFeedback time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
	afterFunc    func(d time.Duration, f func()) Timer
	now          func() time.Time

	// opMu serializes operations that talk to the backend.
	opMu sync.Mutex

	mu        sync.RWMutex
	session   Session
	copyLabel string
	copyTimer Timer
}

// New constructs a controller.
func New(opts Options) (*Controller, error) {
	if opts.Backend == nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "init", "backend is required", nil)
	}
	c := &Controller{
		backend:      opts.Backend,
		store:        opts.Store,
		history:      opts.History,
		presenter:    opts.Presenter,
		clipboard:    opts.Clipboard,
		notifier:     opts.Notifier,
		logger:       logging.NewComponentLogger(opts.Logger, "workflow"),
		displayDelay: opts.DisplayDelay,
		copyFeedback: opts.CopyFeedback,
		sleep:        opts.Sleep,
		afterFunc:    opts.AfterFunc,
		now:          opts.Now,
		session:      opts.Initial,
		copyLabel:    CopyLabelDefault,
	}
	if c.history == nil {
		if h, ok := opts.Store.(History); ok {
			c.history = h
		}
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	if c.afterFunc == nil {
		c.afterFunc = afterFunc
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.session.Phase == "" {
		c.session.Phase = PhaseIdle
	}
	// A sequence interrupted by a crash cannot resume; fall back to upload.
	if c.session.Phase.InFlight() {
		c.logger.Warn("discarding interrupted upload sequence",
			logging.String(logging.FieldJobID, c.session.JobID),
			logging.String("phase", string(c.session.Phase)),
			logging.String(logging.FieldEventType, "session_interrupted"),
		)
		c.session.Phase = PhaseIdle
	}
	return c, nil
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return snapshotOf(c.session, c.copyLabel)
}

// HandleFile validates the file and, when accepted, uploads and processes it.
// Rejected files leave the state untouched.
func (c *Controller) HandleFile(ctx context.Context, file intake.File) error {
	finish, err := c.StartFile(ctx, file)
	if err != nil {
		return err
	}
	return finish(ctx)
}

// StartFile validates the file, claims the job slot and switches the view to
// processing at 0%. The returned function runs the upload and process calls
// and must be called exactly once, possibly from another goroutine.
func (c *Controller) StartFile(ctx context.Context, file intake.File) (func(context.Context) error, error) {
	if err := file.Validate(); err != nil {
		c.logger.Info("file rejected",
			logging.String("file", file.Name),
			logging.Int64("size_bytes", file.Size),
			logging.Error(err),
		)
		return nil, validationFailure(err)
	}
	if !c.opMu.TryLock() {
		return nil, ErrBusy
	}
	if err := c.update(ctx, func(s *Session) error {
		if err := s.transition(PhaseUploading); err != nil {
			return err
		}
		s.FileName = file.Name
		s.Progress = Progress{Percent: 0, Message: MessageUploadingFile}
		return nil
	}); err != nil {
		c.opMu.Unlock()
		return nil, err
	}
	return func(ctx context.Context) error {
		defer c.opMu.Unlock()
		return c.runSequence(ctx, file)
	}, nil
}

// runSequence continues from the uploading phase set by StartFile.
func (c *Controller) runSequence(ctx context.Context, file intake.File) error {
	c.setProgress(ctx, 20, MessageUploading)

	logger := c.logger.With(logging.String("file", file.Name))
	logger.Info("uploading recording", logging.Int64("size_bytes", file.Size))

	uploaded, err := c.backend.Upload(services.WithOperation(ctx, OpUpload), file)
	if err != nil {
		return c.failSequence(ctx, OpUpload, err)
	}
	jobID := uploaded.JobID
	ctx = services.WithJobID(ctx, jobID)
	if err := c.update(ctx, func(s *Session) error {
		if err := s.transition(PhaseProcessing); err != nil {
			return err
		}
		s.JobID = jobID
		s.Progress = Progress{Percent: 40, Message: MessageTranscribing}
		return nil
	}); err != nil {
		return err
	}
	logging.WithContext(ctx, logger).Info("processing recording")
	c.record(ctx, JobRecord{JobID: jobID, FileName: file.Name, Status: JobProcessing})

	processed, err := c.backend.Process(services.WithOperation(ctx, OpProcess), jobID)
	if err != nil {
		return c.failSequence(ctx, OpProcess, err)
	}
	c.setProgress(ctx, 100, MessageDone)

	// Results arrived already; a cancelled delay only shortens the pause.
	_ = c.sleep(ctx, c.displayDelay)

	result := processed.Result()
	if err := c.update(ctx, func(s *Session) error {
		if err := s.transition(PhaseDisplaying); err != nil {
			return err
		}
		s.Result = &result
		s.TranscriptExpanded = false
		return nil
	}); err != nil {
		return err
	}
	logging.WithContext(ctx, logger).Info("results ready",
		logging.Int("decisions", len(result.Decisions)),
		logging.Int("action_items", len(result.ActionItems)),
	)
	c.record(ctx, JobRecord{
		JobID:       jobID,
		FileName:    file.Name,
		Status:      JobCompleted,
		Summary:     result.Summary,
		Decisions:   len(result.Decisions),
		ActionItems: len(result.ActionItems),
	})
	c.notify(ctx, notifications.EventResultsReady, notifications.Payload{
		"fileName":    file.Name,
		"jobID":       jobID,
		"actionItems": len(result.ActionItems),
	})
	return nil
}

func (c *Controller) failSequence(ctx context.Context, operation string, err error) error {
	failure := sequenceFailure(operation, err)
	if updateErr := c.update(ctx, func(s *Session) error {
		return s.transition(PhaseIdle)
	}); updateErr != nil {
		return errors.Join(failure, updateErr)
	}
	if jobID, ok := services.JobIDFromContext(ctx); ok && operation == OpProcess {
		c.record(ctx, JobRecord{JobID: jobID, FileName: c.current().FileName, Status: JobFailed, Error: failure.Message})
	}
	c.reportFailure(ctx, failure)
	return failure
}

// ClearFile hides the file-info panel. Any job in flight is unaffected.
func (c *Controller) ClearFile(ctx context.Context) Snapshot {
	_ = c.update(ctx, func(s *Session) error {
		s.FileName = ""
		return nil
	})
	return c.Snapshot()
}

// ToggleTranscript flips the transcript panel between collapsed and expanded.
func (c *Controller) ToggleTranscript(ctx context.Context) Snapshot {
	_ = c.update(ctx, func(s *Session) error {
		s.TranscriptExpanded = !s.TranscriptExpanded
		return nil
	})
	return c.Snapshot()
}

// Reset discards the job, its results and the file selection and returns to
// the upload view. It makes no network call.
func (c *Controller) Reset(ctx context.Context) error {
	if !c.opMu.TryLock() {
		return ErrBusy
	}
	defer c.opMu.Unlock()

	c.mu.Lock()
	c.stopCopyTimerLocked()
	c.copyLabel = CopyLabelDefault
	c.mu.Unlock()

	return c.update(ctx, func(s *Session) error {
		*s = Session{Phase: PhaseIdle}
		return nil
	})
}

// Close stops pending timers.
func (c *Controller) Close() {
	c.mu.Lock()
	c.stopCopyTimerLocked()
	c.mu.Unlock()
}

func (c *Controller) setProgress(ctx context.Context, percent int, message string) {
	_ = c.update(ctx, func(s *Session) error {
		s.Progress = Progress{Percent: percent, Message: message}
		return nil
	})
}

// update applies fn to the session, persists it and renders. The session is
// left unchanged when fn fails.
func (c *Controller) update(ctx context.Context, fn func(*Session) error) error {
	c.mu.Lock()
	next := c.session
	if err := fn(&next); err != nil {
		c.mu.Unlock()
		return err
	}
	next.UpdatedAt = c.now().UTC()
	c.session = next
	snap := snapshotOf(next, c.copyLabel)
	c.mu.Unlock()

	c.persist(ctx, next)
	c.render(snap)
	return nil
}

func (c *Controller) persist(ctx context.Context, session Session) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(context.WithoutCancel(ctx), session); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "session not persisted", "session_save_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check state_dir permissions"),
		)
	}
}

func (c *Controller) render(snap Snapshot) {
	if c.presenter != nil {
		c.presenter.Render(snap)
	}
}

func (c *Controller) current() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Controller) reportFailure(ctx context.Context, failure *Failure) {
	logger := logging.WithContext(ctx, c.logger)
	logging.ErrorWithContext(logger, "operation failed", failure.Operation+"_failed",
		logging.String(logging.FieldOperation, failure.Operation),
		logging.String("error_kind", services.FailureKind(failure.Err)),
		logging.String("error_message", failure.Message),
		logging.Error(failure.Err),
	)
	c.notify(ctx, notifications.EventError, notifications.Payload{
		"context": failure.Operation,
		"error":   failure.Message,
	})
}

func (c *Controller) record(ctx context.Context, record JobRecord) {
	if c.history == nil {
		return
	}
	if err := c.history.RecordJob(context.WithoutCancel(ctx), record); err != nil {
		c.logger.Warn("job history not recorded",
			logging.String(logging.FieldJobID, record.JobID),
			logging.Error(err),
			logging.String(logging.FieldEventType, "history_record_failed"),
			logging.String(logging.FieldErrorHint, "check state_dir permissions"),
		)
	}
}

func (c *Controller) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		c.logger.Debug("notification failed", logging.String("event", string(event)), logging.Error(err))
	}
}

func (s *Session) transition(to Phase) error {
	from := s.Phase
	if from == to {
		return nil
	}
	if !isValidTransition(from, to) {
		return fmt.Errorf("invalid transition: %s -> %s", from, to)
	}
	s.Phase = to
	return nil
}
