package workflow

import (
	"context"
	"errors"
	"strings"

	"minutes/internal/api"
	"minutes/internal/logging"
	"minutes/internal/notifications"
	"minutes/internal/services"
)

// ResultsFetcher is implemented by backends that can replay stored results.
type ResultsFetcher interface {
	Results(ctx context.Context, jobID string) (api.ResultsResponse, error)
}

// Exported describes a delivered markdown export.
type Exported struct {
	FileName string
	Location string
	Markdown string
}

// ExportFileName derives the download name from the backend's filename: the
// part before its first dot, prefixed with meeting-minutes-. The stem is kept
// as given; sinks that write to disk make it safe for their filesystem.
func ExportFileName(serverFileName string) string {
	stem := serverFileName
	if idx := strings.Index(stem, "."); idx >= 0 {
		stem = stem[:idx]
	}
	return "meeting-minutes-" + stem + ".md"
}

// Confirm sends the held results back to the backend and shows the confirmed
// view. On failure the view is unchanged.
func (c *Controller) Confirm(ctx context.Context) error {
	if !c.opMu.TryLock() {
		return ErrBusy
	}
	defer c.opMu.Unlock()

	session := c.current()
	if !session.HasJob() {
		return ErrNoActiveJob
	}
	ctx = services.WithOperation(services.WithJobID(ctx, session.JobID), OpConfirm)

	var results api.MeetingResults
	if session.Result != nil {
		results = session.Result.MeetingResults
	}
	if err := c.backend.Confirm(ctx, session.JobID, results); err != nil {
		failure := confirmFailure(err)
		c.reportFailure(ctx, failure)
		return failure
	}
	if err := c.update(ctx, func(s *Session) error {
		return s.transition(PhaseConfirmed)
	}); err != nil {
		return err
	}
	logging.WithContext(ctx, c.logger).Info("results confirmed")
	record := JobRecord{JobID: session.JobID, FileName: session.FileName, Status: JobConfirmed}
	if session.Result != nil {
		record.Summary = session.Result.Summary
		record.Decisions = len(session.Result.Decisions)
		record.ActionItems = len(session.Result.ActionItems)
	}
	c.record(ctx, record)
	c.notify(ctx, notifications.EventConfirmed, notifications.Payload{
		"fileName": session.FileName,
		"jobID":    session.JobID,
	})
	return nil
}

// Export fetches the markdown document and hands it to sink.
func (c *Controller) Export(ctx context.Context, sink DownloadSink) (Exported, error) {
	if !c.opMu.TryLock() {
		return Exported{}, ErrBusy
	}
	defer c.opMu.Unlock()

	session := c.current()
	if !session.HasJob() {
		return Exported{}, ErrNoActiveJob
	}
	ctx = services.WithOperation(services.WithJobID(ctx, session.JobID), OpExport)

	doc, err := c.backend.Export(ctx, session.JobID)
	if err != nil {
		return Exported{}, c.exportFailed(ctx, OpExport, err)
	}
	if sink == nil {
		return Exported{}, c.exportFailed(ctx, OpExport, errors.New("no download destination"))
	}
	serverName := doc.Filename
	if strings.TrimSpace(serverName) == "" {
		serverName = session.FileName
	}
	name := ExportFileName(serverName)
	location, err := sink.Deliver(ctx, name, []byte(doc.Markdown))
	if err != nil {
		return Exported{}, c.exportFailed(ctx, OpExport, err)
	}
	logging.WithContext(ctx, c.logger).Info("markdown exported",
		logging.String("file", name),
		logging.String("location", location),
	)
	c.notify(ctx, notifications.EventExported, notifications.Payload{"fileName": name})
	return Exported{FileName: name, Location: location, Markdown: doc.Markdown}, nil
}

// Copy fetches the markdown document and writes it to the clipboard. On
// success the copy label reads "✓ Copied!" until the feedback period ends.
func (c *Controller) Copy(ctx context.Context) error {
	if !c.opMu.TryLock() {
		return ErrBusy
	}
	defer c.opMu.Unlock()

	session := c.current()
	if !session.HasJob() {
		return ErrNoActiveJob
	}
	ctx = services.WithOperation(services.WithJobID(ctx, session.JobID), OpCopy)

	if c.clipboard == nil {
		return c.exportFailed(ctx, OpCopy, errors.New("clipboard unavailable"))
	}
	doc, err := c.backend.Export(ctx, session.JobID)
	if err != nil {
		return c.exportFailed(ctx, OpCopy, err)
	}
	if err := c.clipboard.WriteAll(doc.Markdown); err != nil {
		return c.exportFailed(ctx, OpCopy, err)
	}
	logging.WithContext(ctx, c.logger).Info("markdown copied to clipboard", logging.Int("bytes", len(doc.Markdown)))
	c.showCopied()
	return nil
}

// Refresh replaces the held results with the backend's stored copy.
func (c *Controller) Refresh(ctx context.Context) error {
	fetcher, ok := c.backend.(ResultsFetcher)
	if !ok {
		return services.Wrap(services.ErrConfiguration, "workflow", "refresh", "backend cannot replay results", nil)
	}
	if !c.opMu.TryLock() {
		return ErrBusy
	}
	defer c.opMu.Unlock()

	session := c.current()
	if !session.HasJob() {
		return ErrNoActiveJob
	}
	ctx = services.WithJobID(ctx, session.JobID)
	resp, err := fetcher.Results(ctx, session.JobID)
	if err != nil {
		return sequenceFailure("refresh", err)
	}
	result := resp.Result()
	return c.update(ctx, func(s *Session) error {
		s.Result = &result
		// The backend is authoritative here, so the phase table is bypassed.
		if resp.Confirmed {
			s.Phase = PhaseConfirmed
		} else {
			s.Phase = PhaseDisplaying
		}
		return nil
	})
}

func (c *Controller) exportFailed(ctx context.Context, operation string, err error) error {
	failure := exportFailure(operation, err)
	c.reportFailure(ctx, failure)
	return failure
}

func (c *Controller) showCopied() {
	c.mu.Lock()
	c.stopCopyTimerLocked()
	c.copyLabel = CopyLabelCopied
	snap := snapshotOf(c.session, c.copyLabel)
	if c.copyFeedback > 0 {
		var timer Timer
		timer = c.afterFunc(c.copyFeedback, func() {
			c.mu.Lock()
			if c.copyTimer != timer {
				c.mu.Unlock()
				return
			}
			c.copyTimer = nil
			c.copyLabel = CopyLabelDefault
			restored := snapshotOf(c.session, c.copyLabel)
			c.mu.Unlock()
			c.render(restored)
		})
		c.copyTimer = timer
	}
	c.mu.Unlock()
	c.render(snap)

	if c.copyFeedback <= 0 {
		c.mu.Lock()
		c.copyLabel = CopyLabelDefault
		restored := snapshotOf(c.session, c.copyLabel)
		c.mu.Unlock()
		c.render(restored)
	}
}

func (c *Controller) stopCopyTimerLocked() {
	if c.copyTimer != nil {
		c.copyTimer.Stop()
		c.copyTimer = nil
	}
}
