package minutesapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"minutes/internal/api"
	"minutes/internal/intake"
	"minutes/internal/services"
	"minutes/internal/services/minutesapi"
)

func newClient(t *testing.T, handler http.HandlerFunc) *minutesapi.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := minutesapi.New(srv.URL, 0, minutesapi.WithRequestIDs(func() string { return "req-fixed" }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestNewRejectsEmptyURL(t *testing.T) {
	if _, err := minutesapi.New("  ", 0); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestUploadSendsMultipartAudioField(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/upload" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get(minutesapi.RequestIDHeader); got != "req-fixed" {
			t.Fatalf("unexpected request id %q", got)
		}
		file, header, err := r.FormFile("audio")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "standup.mp3" || string(data) != "RIFFDATA" {
			t.Fatalf("unexpected upload %q %q", header.Filename, data)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.UploadResponse{JobID: "abc", Status: "uploaded"})
	})

	resp, err := client.Upload(context.Background(), intake.FromBytes("standup.mp3", []byte("RIFFDATA")))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if resp.JobID != "abc" {
		t.Fatalf("unexpected job id %q", resp.JobID)
	}
}

func TestUploadUsesContextRequestID(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(minutesapi.RequestIDHeader); got != "ctx-id" {
			t.Fatalf("expected context request id, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(api.UploadResponse{JobID: "abc"})
	})
	ctx := services.WithRequestID(context.Background(), "ctx-id")
	if _, err := client.Upload(ctx, intake.FromBytes("a.wav", []byte("x"))); err != nil {
		t.Fatalf("Upload: %v", err)
	}
}

func TestUploadErrorBodyIsSurfaced(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "Unsupported codec"})
	})

	_, err := client.Upload(context.Background(), intake.FromBytes("a.wav", []byte("x")))
	var statusErr *minutesapi.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusBadRequest || statusErr.Message != "Unsupported codec" {
		t.Fatalf("unexpected status error %+v", statusErr)
	}
	if minutesapi.UserMessage(err) != "Unsupported codec" {
		t.Fatalf("unexpected user message %q", minutesapi.UserMessage(err))
	}
}

func TestFallbackMessages(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>boom</html>"))
	})

	_, err := client.Upload(context.Background(), intake.FromBytes("a.wav", []byte("x")))
	if got := minutesapi.UserMessage(err); got != "Upload failed" {
		t.Fatalf("upload fallback: got %q", got)
	}
	if !errors.Is(err, services.ErrServer) {
		t.Fatalf("expected server marker, got %v", err)
	}
	_, err = client.Process(context.Background(), "abc")
	if got := minutesapi.UserMessage(err); got != "Processing failed" {
		t.Fatalf("process fallback: got %q", got)
	}
	err = client.Confirm(context.Background(), "abc", api.MeetingResults{})
	if got := minutesapi.UserMessage(err); got != "Confirmation failed" {
		t.Fatalf("confirm fallback: got %q", got)
	}
}

func TestUploadMissingJobIDIsDecodeError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"uploaded"}`))
	})
	_, err := client.Upload(context.Background(), intake.FromBytes("a.wav", []byte("x")))
	if !errors.Is(err, services.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestProcessDecodesResults(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/process/abc" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"job_id": "abc",
			"status": "completed",
			"transcript": "hello team",
			"results": {
				"summary": "Quarterly planning.",
				"decisions": [{"description": "Ship v2", "confidence": 0.9, "source_text": "we ship v2"}],
				"action_items": [{"description": "Write notes", "owner": "Ana", "deadline": null, "confidence": 0.72}]
			}
		}`))
	})

	resp, err := client.Process(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if resp.Transcript != "hello team" || resp.Results.Summary != "Quarterly planning." {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(resp.Results.Decisions) != 1 || resp.Results.Decisions[0].SourceText != "we ship v2" {
		t.Fatalf("unexpected decisions %+v", resp.Results.Decisions)
	}
	item := resp.Results.ActionItems[0]
	if item.Owner != "Ana" || item.Deadline != "" || item.Confidence != 0.72 {
		t.Fatalf("unexpected action item %+v", item)
	}
}

func TestConfirmSendsResultsVerbatim(t *testing.T) {
	var got map[string]json.RawMessage
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/confirm/abc" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	results := api.MeetingResults{Summary: "s"}
	if err := client.Confirm(context.Background(), "abc", results); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	var sent api.MeetingResults
	if err := json.Unmarshal(got["results"], &sent); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if sent.Summary != "s" || sent.Decisions == nil || sent.ActionItems == nil {
		t.Fatalf("unexpected confirm payload %s", got["results"])
	}
}

func TestConfirmEchoesProcessedResults(t *testing.T) {
	const results = `{"summary":"Sync.","decisions":[],"action_items":[{"description":"Book room","owner":null,"deadline":null}],"model":"v2"}`
	var confirmed map[string]json.RawMessage
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/process/abc":
			_, _ = w.Write([]byte(`{"job_id":"abc","status":"completed","transcript":"hi","results":` + results + `}`))
		case "/confirm/abc":
			if err := json.NewDecoder(r.Body).Decode(&confirmed); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	resp, err := client.Process(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	held := resp.Result()
	if held.ActionItems[0].Owner != "" || held.ActionItems[0].Confidence != 0 {
		t.Fatalf("unexpected decoded item %+v", held.ActionItems[0])
	}
	if err := client.Confirm(context.Background(), "abc", held.MeetingResults); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if string(confirmed["results"]) != results {
		t.Fatalf("expected results echoed unchanged\n got: %s\nwant: %s", confirmed["results"], results)
	}
}

func TestExportStatusAndResults(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("unexpected method %s", r.Method)
		}
		switch r.URL.Path {
		case "/export/abc":
			_ = json.NewEncoder(w).Encode(api.ExportDocument{Markdown: "# Minutes", Filename: "standup.mp3"})
		case "/status/abc":
			_ = json.NewEncoder(w).Encode(api.JobStatus{JobID: "abc", Status: "completed", Confirmed: true})
		case "/results/abc":
			_ = json.NewEncoder(w).Encode(api.ResultsResponse{JobID: "abc", Transcript: "t"})
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "Job not found"})
		}
	})
	ctx := context.Background()

	doc, err := client.Export(ctx, "abc")
	if err != nil || doc.Markdown != "# Minutes" || doc.Filename != "standup.mp3" {
		t.Fatalf("Export: %+v %v", doc, err)
	}
	status, err := client.Status(ctx, "abc")
	if err != nil || !status.Confirmed {
		t.Fatalf("Status: %+v %v", status, err)
	}
	res, err := client.Results(ctx, "abc")
	if err != nil || res.Transcript != "t" {
		t.Fatalf("Results: %+v %v", res, err)
	}
	_, err = client.Status(ctx, "missing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if minutesapi.UserMessage(err) != "Job not found" {
		t.Fatalf("unexpected message %q", minutesapi.UserMessage(err))
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client, err := minutesapi.New(base, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = client.Ping(context.Background())
	if !minutesapi.IsUnavailable(err) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if minutesapi.UserMessage(err) != "Could not reach the minutes server" {
		t.Fatalf("unexpected message %q", minutesapi.UserMessage(err))
	}
}
