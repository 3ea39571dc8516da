package render

import (
	"math"

	"minutes/internal/api"
)

const (
	PlaceholderSummary     = "No summary generated."
	PlaceholderTranscript  = "No transcript available."
	PlaceholderActionItems = "No action items found"
	missingField           = "-"
)

// ActionColumns is the number of columns in the action item table.
const ActionColumns = 5

// Confidence tiers.
const (
	TierHigh   = "high"
	TierMedium = "medium"
	TierLow    = "low"
)

// ConfidenceTier buckets a confidence score: >=0.8 high, >=0.6 medium, else low.
func ConfidenceTier(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return TierHigh
	case confidence >= 0.6:
		return TierMedium
	default:
		return TierLow
	}
}

// ConfidencePercent rounds a confidence score to a whole percentage.
func ConfidencePercent(confidence float64) int {
	if math.IsNaN(confidence) || math.IsInf(confidence, 0) {
		return 0
	}
	return int(math.Floor(confidence*100 + 0.5))
}

// ActionRow is one rendered action item.
type ActionRow struct {
	Index       int
	Description string
	Owner       string
	Deadline    string
	Percent     int
	Tier        string
}

// ResultsView is the display model of a processing result.
type ResultsView struct {
	Summary            string
	Decisions          []string
	ShowDecisions      bool
	ActionRows         []ActionRow
	Transcript         string
	TranscriptExpanded bool
}

// TranscriptGlyph returns ▼ when expanded and ▶ when collapsed.
func (v ResultsView) TranscriptGlyph() string {
	if v.TranscriptExpanded {
		return "▼"
	}
	return "▶"
}

// NoActionItems reports whether the placeholder row is shown.
func (v ResultsView) NoActionItems() bool {
	return len(v.ActionRows) == 0
}

// BuildResults converts a result into its display model. A nil result renders
// every placeholder.
func BuildResults(result *api.ProcessingResult, transcriptExpanded bool) ResultsView {
	view := ResultsView{
		Summary:            PlaceholderSummary,
		Transcript:         PlaceholderTranscript,
		TranscriptExpanded: transcriptExpanded,
	}
	if result == nil {
		return view
	}
	if result.Summary != "" {
		view.Summary = result.Summary
	}
	if result.Transcript != "" {
		view.Transcript = result.Transcript
	}
	for _, decision := range result.Decisions {
		view.Decisions = append(view.Decisions, decision.Description)
	}
	view.ShowDecisions = len(view.Decisions) > 0
	for i, item := range result.ActionItems {
		view.ActionRows = append(view.ActionRows, ActionRow{
			Index:       i + 1,
			Description: item.Description,
			Owner:       orMissing(item.Owner),
			Deadline:    orMissing(item.Deadline),
			Percent:     ConfidencePercent(item.Confidence),
			Tier:        ConfidenceTier(item.Confidence),
		})
	}
	return view
}

func orMissing(value string) string {
	if value == "" {
		return missingField
	}
	return value
}
