package workflow

import (
	"fmt"
	"time"

	"minutes/internal/api"
)

// ViewState selects the single visible section.
type ViewState string

const (
	ViewUpload     ViewState = "upload"
	ViewProcessing ViewState = "processing"
	ViewResults    ViewState = "results"
	ViewConfirmed  ViewState = "confirmed"
)

// Visibility reports which sections are shown.
type Visibility struct {
	Upload     bool
	Processing bool
	Results    bool
	Confirmed  bool
}

// Sections maps a view state to section visibility. Every section starts
// hidden and only the target is revealed, so exactly one is visible.
func Sections(view ViewState) Visibility {
	var vis Visibility
	switch view {
	case ViewProcessing:
		vis.Processing = true
	case ViewResults:
		vis.Results = true
	case ViewConfirmed:
		vis.Confirmed = true
	default:
		vis.Upload = true
	}
	return vis
}

// Phase is the position in the upload sequence.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseUploading  Phase = "uploading"
	PhaseProcessing Phase = "processing"
	PhaseDisplaying Phase = "displaying"
	PhaseConfirmed  Phase = "confirmed"
)

// InFlight reports whether a network sequence is running in this phase.
func (p Phase) InFlight() bool {
	return p == PhaseUploading || p == PhaseProcessing
}

func isValidTransition(from, to Phase) bool {
	switch from {
	case PhaseIdle, "":
		// Confirm is allowed whenever a job id is held, even after a failed rerun.
		return to == PhaseUploading || to == PhaseConfirmed
	case PhaseUploading:
		return to == PhaseProcessing || to == PhaseIdle
	case PhaseProcessing:
		return to == PhaseDisplaying || to == PhaseIdle
	case PhaseDisplaying:
		return to == PhaseConfirmed || to == PhaseUploading || to == PhaseIdle
	case PhaseConfirmed:
		return to == PhaseUploading || to == PhaseIdle
	default:
		return false
	}
}

func viewFor(phase Phase) ViewState {
	switch phase {
	case PhaseUploading, PhaseProcessing:
		return ViewProcessing
	case PhaseDisplaying:
		return ViewResults
	case PhaseConfirmed:
		return ViewConfirmed
	default:
		return ViewUpload
	}
}

// Progress is the processing indicator.
type Progress struct {
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

const (
	MessageUploadingFile = "Uploading audio file..."
	MessageUploading     = "Uploading..."
	MessageTranscribing  = "Transcribing audio..."
	MessageDone          = "Done!"
)

// StatusLabel returns the coarse label shown beside the progress bar.
func StatusLabel(percent int) string {
	switch {
	case percent < 40:
		return "Uploading..."
	case percent < 80:
		return "Processing..."
	default:
		return "Almost done!"
	}
}

const (
	CopyLabelDefault = "Copy to Clipboard"
	CopyLabelCopied  = "✓ Copied!"
)

// Session is the controller state persisted between invocations.
type Session struct {
	JobID              string                `json:"job_id,omitempty"`
	FileName           string                `json:"file_name,omitempty"`
	Result             *api.ProcessingResult `json:"result,omitempty"`
	Phase              Phase                 `json:"phase"`
	Progress           Progress              `json:"progress"`
	TranscriptExpanded bool                  `json:"transcript_expanded"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// HasJob reports whether a job id is held.
func (s Session) HasJob() bool {
	return s.JobID != ""
}

// View derives the visible section from the phase.
func (s Session) View() ViewState {
	return viewFor(s.Phase)
}

// Snapshot is a render-ready copy of the controller state.
type Snapshot struct {
	Session
	View            ViewState  `json:"view"`
	Sections        Visibility `json:"-"`
	FileInfoVisible bool       `json:"file_info_visible"`
	StatusLabel     string     `json:"status_label"`
	CopyLabel       string     `json:"copy_label"`
}

func (s Snapshot) String() string {
	return fmt.Sprintf("view=%s phase=%s job=%s progress=%d%%", s.View, s.Phase, s.JobID, s.Progress.Percent)
}

// TranscriptGlyph is the toggle indicator for the transcript panel.
func (s Snapshot) TranscriptGlyph() string {
	if s.TranscriptExpanded {
		return "▼"
	}
	return "▶"
}

func snapshotOf(session Session, copyLabel string) Snapshot {
	if session.Result != nil {
		result := *session.Result
		session.Result = &result
	}
	view := session.View()
	return Snapshot{
		Session:         session,
		View:            view,
		Sections:        Sections(view),
		FileInfoVisible: session.FileName != "",
		StatusLabel:     StatusLabel(session.Progress.Percent),
		CopyLabel:       copyLabel,
	}
}

// SnapshotOf renders a stored session outside a controller.
func SnapshotOf(session Session) Snapshot {
	return snapshotOf(session, CopyLabelDefault)
}
