package webui

import (
	"minutes/internal/api"
	"minutes/internal/workflow"
)

// StateResponse is the JSON rendition of the workflow state.
type StateResponse struct {
	View               workflow.ViewState    `json:"view"`
	Phase              workflow.Phase        `json:"phase"`
	JobID              string                `json:"job_id,omitempty"`
	FileName           string                `json:"file_name,omitempty"`
	Progress           workflow.Progress     `json:"progress"`
	StatusLabel        string                `json:"status_label"`
	CopyLabel          string                `json:"copy_label"`
	TranscriptExpanded bool                  `json:"transcript_expanded"`
	Result             *api.ProcessingResult `json:"result,omitempty"`
}

func newStateResponse(snap workflow.Snapshot) StateResponse {
	return StateResponse{
		View:               snap.View,
		Phase:              snap.Phase,
		JobID:              snap.JobID,
		FileName:           snap.FileName,
		Progress:           snap.Progress,
		StatusLabel:        snap.StatusLabel,
		CopyLabel:          snap.CopyLabel,
		TranscriptExpanded: snap.TranscriptExpanded,
		Result:             snap.Result,
	}
}
