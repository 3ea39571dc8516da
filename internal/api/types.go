package api

import (
	"bytes"
	"encoding/json"
)

// Decision is a decision extracted from the meeting transcript.
type Decision struct {
	Description string   `json:"description"`
	Confidence  *float64 `json:"confidence,omitempty"`
	SourceText  string   `json:"source_text,omitempty"`
}

// ActionItem is a follow-up task extracted from the meeting transcript.
// Owner and Deadline are empty when the backend reported null or omitted them.
type ActionItem struct {
	Description string  `json:"description"`
	Owner       string  `json:"owner,omitempty"`
	Deadline    string  `json:"deadline,omitempty"`
	Confidence  float64 `json:"confidence"`
	SourceText  string  `json:"source_text,omitempty"`
}

// MeetingResults is the backend's extraction payload, sent back verbatim on confirm.
type MeetingResults struct {
	Summary     string       `json:"summary"`
	Decisions   []Decision   `json:"decisions"`
	ActionItems []ActionItem `json:"action_items"`

	// Raw is the results object exactly as the backend sent it. Confirm
	// returns it unchanged so nulls and unknown fields survive.
	Raw json.RawMessage `json:"-"`
}

// ProcessingResult is everything the client holds for the active job.
type ProcessingResult struct {
	MeetingResults
	Transcript string `json:"transcript"`
}

// UploadResponse is returned by POST /upload.
type UploadResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// ProcessResponse is returned by POST /process/{job_id}.
type ProcessResponse struct {
	JobID      string         `json:"job_id"`
	Status     string         `json:"status"`
	Transcript string         `json:"transcript"`
	Results    MeetingResults `json:"results"`
}

// UnmarshalJSON decodes the response and keeps the raw results object.
func (r *ProcessResponse) UnmarshalJSON(data []byte) error {
	type plain ProcessResponse
	if err := json.Unmarshal(data, (*plain)(r)); err != nil {
		return err
	}
	raw, err := rawResults(data)
	r.Results.Raw = raw
	return err
}

// Result flattens the response into the client-held result.
func (r ProcessResponse) Result() ProcessingResult {
	return ProcessingResult{MeetingResults: r.Results, Transcript: r.Transcript}
}

// ConfirmRequest is the body of POST /confirm/{job_id}.
type ConfirmRequest struct {
	Results MeetingResults `json:"results"`
}

// ExportDocument is returned by GET /export/{job_id}.
type ExportDocument struct {
	Markdown string `json:"markdown"`
	Filename string `json:"filename"`
}

// JobStatus is returned by GET /status/{job_id}.
type JobStatus struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	Filename  string `json:"filename"`
	Confirmed bool   `json:"confirmed"`
	Error     string `json:"error,omitempty"`
}

// ResultsResponse is returned by GET /results/{job_id}.
type ResultsResponse struct {
	JobID      string         `json:"job_id"`
	Transcript string         `json:"transcript"`
	Results    MeetingResults `json:"results"`
	Confirmed  bool           `json:"confirmed"`
}

// UnmarshalJSON decodes the response and keeps the raw results object.
func (r *ResultsResponse) UnmarshalJSON(data []byte) error {
	type plain ResultsResponse
	if err := json.Unmarshal(data, (*plain)(r)); err != nil {
		return err
	}
	raw, err := rawResults(data)
	r.Results.Raw = raw
	return err
}

// Result flattens the response into the client-held result.
func (r ResultsResponse) Result() ProcessingResult {
	return ProcessingResult{MeetingResults: r.Results, Transcript: r.Transcript}
}

// ErrorResponse is the failure body shared by every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}

// rawResults extracts the "results" member of a response body. A missing or
// null member yields nil.
func rawResults(data []byte) (json.RawMessage, error) {
	var envelope struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(envelope.Results)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	return append(json.RawMessage(nil), trimmed...), nil
}
