package workflow_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"minutes/internal/api"
	"minutes/internal/intake"
	"minutes/internal/notifications"
	"minutes/internal/services/minutesapi"
	"minutes/internal/workflow"
)

type fakeBackend struct {
	mu         sync.Mutex
	calls      []string
	uploadResp api.UploadResponse
	uploadErr  error
	processRes api.ProcessResponse
	processErr error
	confirmErr error
	confirmed  []api.MeetingResults
	exportDoc  api.ExportDocument
	exportErr  error
	results    api.ResultsResponse

	// blockUpload, when set, holds Upload until closed.
	blockUpload chan struct{}
	uploading   chan struct{}
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) Upload(ctx context.Context, file intake.File) (api.UploadResponse, error) {
	f.record("upload:" + file.Name)
	if f.uploading != nil {
		close(f.uploading)
	}
	if f.blockUpload != nil {
		<-f.blockUpload
	}
	return f.uploadResp, f.uploadErr
}

func (f *fakeBackend) Process(ctx context.Context, jobID string) (api.ProcessResponse, error) {
	f.record("process:" + jobID)
	return f.processRes, f.processErr
}

func (f *fakeBackend) Confirm(ctx context.Context, jobID string, results api.MeetingResults) error {
	f.record("confirm:" + jobID)
	f.mu.Lock()
	f.confirmed = append(f.confirmed, results)
	f.mu.Unlock()
	return f.confirmErr
}

func (f *fakeBackend) Export(ctx context.Context, jobID string) (api.ExportDocument, error) {
	f.record("export:" + jobID)
	return f.exportDoc, f.exportErr
}

func (f *fakeBackend) Results(ctx context.Context, jobID string) (api.ResultsResponse, error) {
	f.record("results:" + jobID)
	return f.results, nil
}

type recorder struct {
	mu    sync.Mutex
	snaps []workflow.Snapshot
}

func (r *recorder) Render(s workflow.Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
}

func (r *recorder) progress() []workflow.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []workflow.Progress
	for _, s := range r.snaps {
		if s.View != workflow.ViewProcessing {
			continue
		}
		if len(out) > 0 && out[len(out)-1] == s.Progress {
			continue
		}
		out = append(out, s.Progress)
	}
	return out
}

func (r *recorder) views() []workflow.ViewState {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []workflow.ViewState
	for _, s := range r.snaps {
		if len(out) > 0 && out[len(out)-1] == s.View {
			continue
		}
		out = append(out, s.View)
	}
	return out
}

type memoryStore struct {
	mu      sync.Mutex
	saved   []workflow.Session
	records []workflow.JobRecord
}

func (m *memoryStore) RecordJob(ctx context.Context, r workflow.JobRecord) error {
	m.mu.Lock()
	m.records = append(m.records, r)
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) statuses() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r.JobID+":"+r.Status)
	}
	return out
}

func (m *memoryStore) Save(ctx context.Context, s workflow.Session) error {
	m.mu.Lock()
	m.saved = append(m.saved, s)
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) last() workflow.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved[len(m.saved)-1]
}

type fakeClipboard struct {
	text string
	err  error
}

func (f *fakeClipboard) WriteAll(text string) error {
	if f.err != nil {
		return f.err
	}
	f.text = text
	return nil
}

type fakeSink struct {
	name string
	data []byte
	err  error
}

func (f *fakeSink) Deliver(ctx context.Context, filename string, markdown []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.name = filename
	f.data = markdown
	return "/exports/" + filename, nil
}

type manualTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (m *manualTimer) Stop() bool {
	m.stopped = true
	return true
}

type captureNotifier struct {
	events []notifications.Event
}

func (c *captureNotifier) Publish(ctx context.Context, event notifications.Event, payload notifications.Payload) error {
	c.events = append(c.events, event)
	return nil
}

type harness struct {
	backend  *fakeBackend
	rec      *recorder
	store    *memoryStore
	clip     *fakeClipboard
	notifier *captureNotifier
	timers   []*manualTimer
	delays   []time.Duration
	ctrl     *workflow.Controller
}

func sampleProcess(jobID string) api.ProcessResponse {
	return api.ProcessResponse{
		JobID:      jobID,
		Status:     "completed",
		Transcript: "Alice: let's ship on Friday.",
		Results: api.MeetingResults{
			Summary:   "Release planning.",
			Decisions: []api.Decision{{Description: "Ship on Friday"}},
			ActionItems: []api.ActionItem{
				{Description: "Tag the release", Owner: "Alice", Deadline: "Friday", Confidence: 0.9},
			},
		},
	}
}

func newHarness(t *testing.T, initial workflow.Session) *harness {
	t.Helper()
	h := &harness{
		backend: &fakeBackend{
			uploadResp: api.UploadResponse{JobID: "abc"},
			processRes: sampleProcess("abc"),
			exportDoc:  api.ExportDocument{Markdown: "# Minutes\n", Filename: "standup.mp3"},
		},
		rec:      &recorder{},
		store:    &memoryStore{},
		clip:     &fakeClipboard{},
		notifier: &captureNotifier{},
	}
	ctrl, err := workflow.New(workflow.Options{
		Backend:      h.backend,
		Store:        h.store,
		Presenter:    h.rec,
		Clipboard:    h.clip,
		Notifier:     h.notifier,
		DisplayDelay: 500 * time.Millisecond,
		CopyFeedback: 2 * time.Second,
		Initial:      initial,
		Sleep: func(ctx context.Context, d time.Duration) error {
			h.delays = append(h.delays, d)
			return nil
		},
		AfterFunc: func(d time.Duration, fn func()) workflow.Timer {
			timer := &manualTimer{delay: d, fn: fn}
			h.timers = append(h.timers, timer)
			return timer
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.ctrl = ctrl
	return h
}

func audio(name string) intake.File {
	return intake.FromBytes(name, []byte("audio"))
}

func TestNewRequiresBackend(t *testing.T) {
	if _, err := workflow.New(workflow.Options{}); err == nil {
		t.Fatal("expected error without backend")
	}
}

func TestHandleFileSuccessfulSequence(t *testing.T) {
	h := newHarness(t, workflow.Session{})

	if err := h.ctrl.HandleFile(context.Background(), audio("standup.mp3")); err != nil {
		t.Fatalf("HandleFile: %v", err)
	}

	calls := h.backend.Calls()
	if strings.Join(calls, ",") != "upload:standup.mp3,process:abc" {
		t.Fatalf("unexpected calls %v", calls)
	}
	wantProgress := []workflow.Progress{
		{Percent: 0, Message: "Uploading audio file..."},
		{Percent: 20, Message: "Uploading..."},
		{Percent: 40, Message: "Transcribing audio..."},
		{Percent: 100, Message: "Done!"},
	}
	got := h.rec.progress()
	if len(got) != len(wantProgress) {
		t.Fatalf("unexpected progress sequence %v", got)
	}
	for i := range wantProgress {
		if got[i] != wantProgress[i] {
			t.Fatalf("progress[%d] = %+v, want %+v", i, got[i], wantProgress[i])
		}
	}
	views := h.rec.views()
	if len(views) != 2 || views[0] != workflow.ViewProcessing || views[1] != workflow.ViewResults {
		t.Fatalf("unexpected views %v", views)
	}
	if len(h.delays) != 1 || h.delays[0] != 500*time.Millisecond {
		t.Fatalf("expected a single 500ms display delay, got %v", h.delays)
	}

	snap := h.ctrl.Snapshot()
	if snap.JobID != "abc" || snap.Phase != workflow.PhaseDisplaying {
		t.Fatalf("unexpected snapshot %s", snap)
	}
	if !snap.FileInfoVisible || snap.FileName != "standup.mp3" {
		t.Fatalf("expected file info for standup.mp3, got %+v", snap)
	}
	if snap.Result == nil || snap.Result.Summary != "Release planning." || snap.Result.Transcript == "" {
		t.Fatalf("unexpected result %+v", snap.Result)
	}
	if snap.TranscriptExpanded || snap.TranscriptGlyph() != "▶" {
		t.Fatal("expected transcript collapsed after display")
	}
	if persisted := h.store.last(); persisted.JobID != "abc" || persisted.Phase != workflow.PhaseDisplaying {
		t.Fatalf("unexpected persisted session %+v", persisted)
	}
	if len(h.notifier.events) != 1 || h.notifier.events[0] != notifications.EventResultsReady {
		t.Fatalf("unexpected notifications %v", h.notifier.events)
	}
}

func TestHandleFileRejectsInvalidWithoutStateChange(t *testing.T) {
	cases := []struct {
		file intake.File
		want string
	}{
		{audio("notes.txt"), "Invalid file type. Please upload an audio file (MP3, WAV, M4A, WebM, OGG, or FLAC)."},
		{intake.File{Name: "long.wav", Size: intake.MaxUploadBytes + 1}, "File too large. Maximum size is 25MB."},
	}
	for _, tc := range cases {
		h := newHarness(t, workflow.Session{})
		err := h.ctrl.HandleFile(context.Background(), tc.file)
		if workflow.UserMessage(err) != tc.want {
			t.Fatalf("unexpected message %q", workflow.UserMessage(err))
		}
		if len(h.backend.Calls()) != 0 {
			t.Fatalf("expected no backend calls, got %v", h.backend.Calls())
		}
		if len(h.rec.snaps) != 0 {
			t.Fatalf("expected no renders, got %d", len(h.rec.snaps))
		}
		if snap := h.ctrl.Snapshot(); snap.View != workflow.ViewUpload || snap.FileInfoVisible {
			t.Fatalf("unexpected state after rejection %+v", snap)
		}
	}
}

func TestUploadFailureRevertsToUploadWithoutProcessing(t *testing.T) {
	h := newHarness(t, workflow.Session{})
	h.backend.uploadErr = &minutesapi.StatusError{Operation: "upload", StatusCode: 400, Message: "Unsupported codec"}

	err := h.ctrl.HandleFile(context.Background(), audio("standup.mp3"))
	if workflow.UserMessage(err) != "Error: Unsupported codec" {
		t.Fatalf("unexpected message %q", workflow.UserMessage(err))
	}
	if calls := h.backend.Calls(); len(calls) != 1 {
		t.Fatalf("expected process never called, got %v", calls)
	}
	snap := h.ctrl.Snapshot()
	if snap.View != workflow.ViewUpload || snap.JobID != "" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if len(h.notifier.events) != 1 || h.notifier.events[0] != notifications.EventError {
		t.Fatalf("expected error notification, got %v", h.notifier.events)
	}
}

func TestProcessFailureKeepsJobIDAndPreviousResult(t *testing.T) {
	h := newHarness(t, workflow.Session{})
	if err := h.ctrl.HandleFile(context.Background(), audio("first.mp3")); err != nil {
		t.Fatalf("first HandleFile: %v", err)
	}
	h.backend.uploadResp = api.UploadResponse{JobID: "def"}
	h.backend.processErr = &minutesapi.StatusError{Operation: "process", StatusCode: 500, Message: "Processing failed"}

	err := h.ctrl.HandleFile(context.Background(), audio("second.mp3"))
	if workflow.UserMessage(err) != "Error: Processing failed" {
		t.Fatalf("unexpected message %q", workflow.UserMessage(err))
	}
	snap := h.ctrl.Snapshot()
	if snap.View != workflow.ViewUpload {
		t.Fatalf("expected upload view, got %s", snap.View)
	}
	if snap.JobID != "def" {
		t.Fatalf("expected job id from successful upload, got %q", snap.JobID)
	}
	if snap.Result == nil || snap.Result.Summary != "Release planning." {
		t.Fatalf("expected previous result kept, got %+v", snap.Result)
	}
}

func TestConfirmSendsHeldResults(t *testing.T) {
	h := newHarness(t, workflow.Session{})
	raw := `{"summary":"Release planning.","owner_hint":null}`
	h.backend.processRes.Results.Raw = []byte(raw)
	if err := h.ctrl.HandleFile(context.Background(), audio("standup.mp3")); err != nil {
		t.Fatalf("HandleFile: %v", err)
	}
	if err := h.ctrl.Confirm(context.Background()); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if len(h.backend.confirmed) != 1 || h.backend.confirmed[0].Summary != "Release planning." {
		t.Fatalf("unexpected confirm payload %+v", h.backend.confirmed)
	}
	if string(h.backend.confirmed[0].Raw) != raw {
		t.Fatalf("expected held raw results, got %s", h.backend.confirmed[0].Raw)
	}
	if snap := h.ctrl.Snapshot(); snap.View != workflow.ViewConfirmed || !snap.Sections.Confirmed {
		t.Fatalf("expected confirmed view, got %s", snap.View)
	}
}

func TestConfirmFailureStaysOnResults(t *testing.T) {
	h := newHarness(t, workflow.Session{})
	if err := h.ctrl.HandleFile(context.Background(), audio("standup.mp3")); err != nil {
		t.Fatalf("HandleFile: %v", err)
	}
	h.backend.confirmErr = &minutesapi.StatusError{Operation: "confirm", StatusCode: 500, Message: "db locked"}
	err := h.ctrl.Confirm(context.Background())
	if workflow.UserMessage(err) != "Error confirming: Confirmation failed" {
		t.Fatalf("unexpected message %q", workflow.UserMessage(err))
	}
	if snap := h.ctrl.Snapshot(); snap.View != workflow.ViewResults {
		t.Fatalf("expected results view, got %s", snap.View)
	}
}

func TestNoActiveJobOperationsAreNoops(t *testing.T) {
	h := newHarness(t, workflow.Session{})
	ctx := context.Background()
	if err := h.ctrl.Confirm(ctx); !errors.Is(err, workflow.ErrNoActiveJob) {
		t.Fatalf("Confirm: expected ErrNoActiveJob, got %v", err)
	}
	if _, err := h.ctrl.Export(ctx, &fakeSink{}); !errors.Is(err, workflow.ErrNoActiveJob) {
		t.Fatalf("Export: expected ErrNoActiveJob, got %v", err)
	}
	if err := h.ctrl.Copy(ctx); !errors.Is(err, workflow.ErrNoActiveJob) {
		t.Fatalf("Copy: expected ErrNoActiveJob, got %v", err)
	}
	if calls := h.backend.Calls(); len(calls) != 0 {
		t.Fatalf("expected no network calls, got %v", calls)
	}
}

func TestExportDeliversDerivedFileName(t *testing.T) {
	h := newHarness(t, workflow.Session{JobID: "abc", Phase: workflow.PhaseDisplaying})
	h.backend.exportDoc = api.ExportDocument{Markdown: "# Minutes", Filename: "team.sync.mp3"}
	sink := &fakeSink{}

	exported, err := h.ctrl.Export(context.Background(), sink)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if sink.name != "meeting-minutes-team.md" || exported.FileName != sink.name {
		t.Fatalf("unexpected export name %q", sink.name)
	}
	if string(sink.data) != "# Minutes" || exported.Location != "/exports/meeting-minutes-team.md" {
		t.Fatalf("unexpected export %+v", exported)
	}
	if snap := h.ctrl.Snapshot(); snap.View != workflow.ViewResults {
		t.Fatalf("export must not change view, got %s", snap.View)
	}
}

func TestExportFailureMessage(t *testing.T) {
	h := newHarness(t, workflow.Session{JobID: "abc", Phase: workflow.PhaseDisplaying})
	h.backend.exportErr = &minutesapi.StatusError{Operation: "export", StatusCode: 404, Message: "Job not found"}
	_, err := h.ctrl.Export(context.Background(), &fakeSink{})
	if workflow.UserMessage(err) != "Export failed: Job not found" {
		t.Fatalf("unexpected message %q", workflow.UserMessage(err))
	}

	h.backend.exportErr = nil
	_, err = h.ctrl.Export(context.Background(), &fakeSink{err: errors.New("disk full")})
	if workflow.UserMessage(err) != "Export failed: disk full" {
		t.Fatalf("unexpected message %q", workflow.UserMessage(err))
	}
}

func TestExportFileName(t *testing.T) {
	cases := map[string]string{
		"standup.mp3":        "meeting-minutes-standup.md",
		"team.sync.2024.wav": "meeting-minutes-team.md",
		"noext":              "meeting-minutes-noext.md",
		"a/b.mp3":            "meeting-minutes-a/b.md",
		`team: "q1"?.wav`:    `meeting-minutes-team: "q1"?.md`,
	}
	for in, want := range cases {
		if got := workflow.ExportFileName(in); got != want {
			t.Fatalf("ExportFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCopyShowsFeedbackThenRestoresLabel(t *testing.T) {
	h := newHarness(t, workflow.Session{JobID: "abc", Phase: workflow.PhaseDisplaying})

	if err := h.ctrl.Copy(context.Background()); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if h.clip.text != "# Minutes\n" {
		t.Fatalf("unexpected clipboard %q", h.clip.text)
	}
	if label := h.ctrl.Snapshot().CopyLabel; label != "✓ Copied!" {
		t.Fatalf("unexpected label %q", label)
	}
	if len(h.timers) != 1 || h.timers[0].delay != 2*time.Second {
		t.Fatalf("expected one 2s timer, got %+v", h.timers)
	}
	h.timers[0].fn()
	if label := h.ctrl.Snapshot().CopyLabel; label != "Copy to Clipboard" {
		t.Fatalf("expected label restored, got %q", label)
	}
}

func TestCopyFailureKeepsLabel(t *testing.T) {
	h := newHarness(t, workflow.Session{JobID: "abc", Phase: workflow.PhaseDisplaying})
	h.clip.err = errors.New("no clipboard utilities available")
	err := h.ctrl.Copy(context.Background())
	if workflow.UserMessage(err) != "Copy failed: no clipboard utilities available" {
		t.Fatalf("unexpected message %q", workflow.UserMessage(err))
	}
	if label := h.ctrl.Snapshot().CopyLabel; label != "Copy to Clipboard" {
		t.Fatalf("unexpected label %q", label)
	}
}

func TestToggleTranscriptAndClearFile(t *testing.T) {
	h := newHarness(t, workflow.Session{JobID: "abc", FileName: "standup.mp3", Phase: workflow.PhaseDisplaying})
	ctx := context.Background()

	snap := h.ctrl.ToggleTranscript(ctx)
	if !snap.TranscriptExpanded || snap.TranscriptGlyph() != "▼" {
		t.Fatalf("expected expanded transcript, got %+v", snap)
	}
	snap = h.ctrl.ToggleTranscript(ctx)
	if snap.TranscriptExpanded || snap.TranscriptGlyph() != "▶" {
		t.Fatalf("expected collapsed transcript, got %+v", snap)
	}

	snap = h.ctrl.ClearFile(ctx)
	if snap.FileInfoVisible || snap.JobID != "abc" {
		t.Fatalf("ClearFile should only hide the selection, got %+v", snap)
	}
}

func TestResetClearsEverything(t *testing.T) {
	h := newHarness(t, workflow.Session{})
	if err := h.ctrl.HandleFile(context.Background(), audio("standup.mp3")); err != nil {
		t.Fatalf("HandleFile: %v", err)
	}
	before := len(h.backend.Calls())
	if err := h.ctrl.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	snap := h.ctrl.Snapshot()
	if snap.JobID != "" || snap.Result != nil || snap.FileInfoVisible || snap.Progress.Percent != 0 {
		t.Fatalf("unexpected state after reset %+v", snap)
	}
	if snap.View != workflow.ViewUpload || !snap.Sections.Upload {
		t.Fatalf("expected upload view, got %s", snap.View)
	}
	if len(h.backend.Calls()) != before {
		t.Fatal("reset must not call the backend")
	}
}

func TestConcurrentStartReturnsBusy(t *testing.T) {
	h := newHarness(t, workflow.Session{})
	h.backend.blockUpload = make(chan struct{})
	h.backend.uploading = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- h.ctrl.HandleFile(context.Background(), audio("first.mp3"))
	}()
	<-h.backend.uploading

	if err := h.ctrl.HandleFile(context.Background(), audio("second.mp3")); !errors.Is(err, workflow.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if err := h.ctrl.Reset(context.Background()); !errors.Is(err, workflow.ErrBusy) {
		t.Fatalf("expected ErrBusy from Reset, got %v", err)
	}
	close(h.backend.blockUpload)
	if err := <-done; err != nil {
		t.Fatalf("first HandleFile: %v", err)
	}
}

func TestStartFileEntersProcessingBeforeNetworkCalls(t *testing.T) {
	h := newHarness(t, workflow.Session{})

	finish, err := h.ctrl.StartFile(context.Background(), audio("standup.mp3"))
	if err != nil {
		t.Fatalf("StartFile: %v", err)
	}
	snap := h.ctrl.Snapshot()
	if snap.View != workflow.ViewProcessing || snap.Progress.Percent != 0 || snap.FileName != "standup.mp3" {
		t.Fatalf("expected processing view at 0%%, got %s", snap)
	}
	if calls := h.backend.Calls(); len(calls) != 0 {
		t.Fatalf("expected no backend calls before finish, got %v", calls)
	}
	if _, err := h.ctrl.StartFile(context.Background(), audio("other.mp3")); !errors.Is(err, workflow.ErrBusy) {
		t.Fatalf("expected ErrBusy while started, got %v", err)
	}

	if err := finish(context.Background()); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if got := h.ctrl.Snapshot().View; got != workflow.ViewResults {
		t.Fatalf("expected results view, got %s", got)
	}
	if err := h.ctrl.Reset(context.Background()); err != nil {
		t.Fatalf("expected slot released after finish, got %v", err)
	}
}

func TestStartFileRejectsInvalidWithoutClaimingSlot(t *testing.T) {
	h := newHarness(t, workflow.Session{})
	if _, err := h.ctrl.StartFile(context.Background(), audio("notes.txt")); err == nil {
		t.Fatal("expected validation failure")
	}
	if got := h.ctrl.Snapshot().View; got != workflow.ViewUpload {
		t.Fatalf("expected upload view, got %s", got)
	}
	if err := h.ctrl.HandleFile(context.Background(), audio("standup.mp3")); err != nil {
		t.Fatalf("HandleFile after rejection: %v", err)
	}
}

func TestNewDiscardsInterruptedSequence(t *testing.T) {
	h := newHarness(t, workflow.Session{JobID: "abc", Phase: workflow.PhaseProcessing})
	snap := h.ctrl.Snapshot()
	if snap.Phase != workflow.PhaseIdle || snap.View != workflow.ViewUpload {
		t.Fatalf("expected idle upload view, got %s", snap)
	}
	if snap.JobID != "abc" {
		t.Fatalf("expected job id retained, got %q", snap.JobID)
	}
}

func TestRefreshReplacesResults(t *testing.T) {
	h := newHarness(t, workflow.Session{JobID: "abc", Phase: workflow.PhaseIdle})
	h.backend.results = api.ResultsResponse{
		JobID:      "abc",
		Transcript: "refetched",
		Results:    api.MeetingResults{Summary: "Stored summary"},
		Confirmed:  true,
	}
	if err := h.ctrl.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	snap := h.ctrl.Snapshot()
	if snap.View != workflow.ViewConfirmed || snap.Result.Transcript != "refetched" {
		t.Fatalf("unexpected snapshot after refresh %+v", snap)
	}
}

func TestSectionsExactlyOneVisible(t *testing.T) {
	for _, view := range []workflow.ViewState{workflow.ViewUpload, workflow.ViewProcessing, workflow.ViewResults, workflow.ViewConfirmed} {
		vis := workflow.Sections(view)
		count := 0
		for _, shown := range []bool{vis.Upload, vis.Processing, vis.Results, vis.Confirmed} {
			if shown {
				count++
			}
		}
		if count != 1 {
			t.Fatalf("view %s shows %d sections", view, count)
		}
	}
}

func TestStatusLabel(t *testing.T) {
	cases := map[int]string{0: "Uploading...", 20: "Uploading...", 39: "Uploading...", 40: "Processing...", 79: "Processing...", 80: "Almost done!", 100: "Almost done!"}
	for percent, want := range cases {
		if got := workflow.StatusLabel(percent); got != want {
			t.Fatalf("StatusLabel(%d) = %q, want %q", percent, got, want)
		}
	}
}

func TestHistoryRecordsJobMilestones(t *testing.T) {
	h := newHarness(t, workflow.Session{})
	ctx := context.Background()
	if err := h.ctrl.HandleFile(ctx, audio("standup.mp3")); err != nil {
		t.Fatalf("HandleFile: %v", err)
	}
	if err := h.ctrl.Confirm(ctx); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	h.backend.uploadResp = api.UploadResponse{JobID: "def"}
	h.backend.processErr = errors.New("boom")
	_ = h.ctrl.HandleFile(ctx, audio("retro.mp3"))

	got := strings.Join(h.store.statuses(), ",")
	want := "abc:processing,abc:completed,abc:confirmed,def:processing,def:failed"
	if got != want {
		t.Fatalf("history = %s, want %s", got, want)
	}
	last := h.store.records[len(h.store.records)-1]
	if last.FileName != "retro.mp3" || last.Error != "Error: boom" {
		t.Fatalf("unexpected failure record %+v", last)
	}
}
