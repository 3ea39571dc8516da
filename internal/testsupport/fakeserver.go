package testsupport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"minutes/internal/api"
)

// FakeServer is an in-memory minutes backend.
type FakeServer struct {
	*httptest.Server

	mu        sync.Mutex
	nextID    int
	jobs      map[string]*fakeJob
	requests  []string
	requestID []string

	// Result is returned by /process for every job.
	Result api.ProcessResponse
	// Fail maps an endpoint name ("upload", "process", "confirm", "export")
	// to an error body returned with status 500.
	Fail map[string]string
}

type fakeJob struct {
	filename  string
	processed bool
	confirmed bool
	results   api.MeetingResults
}

// DemoResult returns a representative processing response.
func DemoResult() api.ProcessResponse {
	high := 0.92
	return api.ProcessResponse{
		Status:     "completed",
		Transcript: "Dana: Let's move the launch to March.\nLee: I'll update the roadmap by Friday.",
		Results: api.MeetingResults{
			Summary: "The team agreed to move the launch to March.",
			Decisions: []api.Decision{
				{Description: "Move the launch to March", Confidence: &high, SourceText: "Let's move the launch to March."},
			},
			ActionItems: []api.ActionItem{
				{Description: "Update the roadmap", Owner: "Lee", Deadline: "Friday", Confidence: 0.86},
				{Description: "Notify marketing", Confidence: 0.55},
			},
		},
	}
}

// NewFakeServer starts a fake backend and registers cleanup.
func NewFakeServer(t testing.TB) *FakeServer {
	t.Helper()
	fs := &FakeServer{
		jobs:   make(map[string]*fakeJob),
		Result: DemoResult(),
		Fail:   make(map[string]string),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		fs.track(r)
		_, _ = io.WriteString(w, "minutes backend")
	})
	mux.HandleFunc("POST /upload", fs.handleUpload)
	mux.HandleFunc("POST /process/{id}", fs.handleProcess)
	mux.HandleFunc("POST /confirm/{id}", fs.handleConfirm)
	mux.HandleFunc("GET /export/{id}", fs.handleExport)
	mux.HandleFunc("GET /status/{id}", fs.handleStatus)
	mux.HandleFunc("GET /results/{id}", fs.handleResults)
	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

// Requests lists "METHOD /path" for every request received.
func (fs *FakeServer) Requests() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.requests...)
}

// RequestIDs lists the X-Request-ID header of every request received.
func (fs *FakeServer) RequestIDs() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.requestID...)
}

// Confirmed reports whether the job was confirmed and with which results.
func (fs *FakeServer) Confirmed(jobID string) (api.MeetingResults, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	job, ok := fs.jobs[jobID]
	if !ok || !job.confirmed {
		return api.MeetingResults{}, false
	}
	return job.results, true
}

func (fs *FakeServer) track(r *http.Request) {
	fs.mu.Lock()
	fs.requests = append(fs.requests, r.Method+" "+r.URL.Path)
	fs.requestID = append(fs.requestID, r.Header.Get("X-Request-ID"))
	fs.mu.Unlock()
}

func (fs *FakeServer) failure(w http.ResponseWriter, endpoint string) bool {
	fs.mu.Lock()
	msg, ok := fs.Fail[endpoint]
	fs.mu.Unlock()
	if !ok {
		return false
	}
	if msg == "" {
		w.WriteHeader(http.StatusInternalServerError)
		return true
	}
	writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{Error: msg})
	return true
}

func (fs *FakeServer) job(w http.ResponseWriter, r *http.Request) (string, *fakeJob, bool) {
	id := r.PathValue("id")
	fs.mu.Lock()
	job, ok := fs.jobs[id]
	fs.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, api.ErrorResponse{Error: "Job not found"})
		return id, nil, false
	}
	return id, job, true
}

func (fs *FakeServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	fs.track(r)
	if fs.failure(w, "upload") {
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "No audio file provided"})
		return
	}
	_, _ = io.Copy(io.Discard, file)
	_ = file.Close()

	fs.mu.Lock()
	fs.nextID++
	id := fmt.Sprintf("job-%d", fs.nextID)
	fs.jobs[id] = &fakeJob{filename: header.Filename}
	fs.mu.Unlock()

	writeJSON(w, http.StatusOK, api.UploadResponse{JobID: id, Status: "uploaded", Message: "File uploaded successfully"})
}

func (fs *FakeServer) handleProcess(w http.ResponseWriter, r *http.Request) {
	fs.track(r)
	if fs.failure(w, "process") {
		return
	}
	id, job, ok := fs.job(w, r)
	if !ok {
		return
	}
	fs.mu.Lock()
	job.processed = true
	resp := fs.Result
	fs.mu.Unlock()
	resp.JobID = id
	writeJSON(w, http.StatusOK, resp)
}

func (fs *FakeServer) handleConfirm(w http.ResponseWriter, r *http.Request) {
	fs.track(r)
	if fs.failure(w, "confirm") {
		return
	}
	_, job, ok := fs.job(w, r)
	if !ok {
		return
	}
	var req api.ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid body"})
		return
	}
	fs.mu.Lock()
	job.confirmed = true
	job.results = req.Results
	fs.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "confirmed"})
}

func (fs *FakeServer) handleExport(w http.ResponseWriter, r *http.Request) {
	fs.track(r)
	if fs.failure(w, "export") {
		return
	}
	_, job, ok := fs.job(w, r)
	if !ok {
		return
	}
	fs.mu.Lock()
	summary := fs.Result.Results.Summary
	filename := job.filename
	fs.mu.Unlock()

	var b strings.Builder
	b.WriteString("# Meeting Minutes\n\n")
	b.WriteString("## Summary\n\n")
	b.WriteString(summary)
	b.WriteString("\n")
	writeJSON(w, http.StatusOK, api.ExportDocument{Markdown: b.String(), Filename: filename})
}

func (fs *FakeServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	fs.track(r)
	id, job, ok := fs.job(w, r)
	if !ok {
		return
	}
	fs.mu.Lock()
	status := "uploaded"
	if job.processed {
		status = "completed"
	}
	resp := api.JobStatus{JobID: id, Status: status, Filename: job.filename, Confirmed: job.confirmed}
	fs.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (fs *FakeServer) handleResults(w http.ResponseWriter, r *http.Request) {
	fs.track(r)
	id, job, ok := fs.job(w, r)
	if !ok {
		return
	}
	fs.mu.Lock()
	resp := api.ResultsResponse{
		JobID:      id,
		Transcript: fs.Result.Transcript,
		Results:    fs.Result.Results,
		Confirmed:  job.confirmed,
	}
	if job.confirmed {
		resp.Results = job.results
	}
	fs.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
