package render

import (
	"embed"
	"html/template"
	"io"
	"strings"

	"minutes/internal/intake"
	"minutes/internal/workflow"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("minutes").Funcs(template.FuncMap{
	"actionColumns":      func() int { return ActionColumns },
	"placeholderActions": func() string { return PlaceholderActionItems },
}).ParseFS(templateFS, "templates/*.tmpl"))

// Page is the data behind the full browser page.
type Page struct {
	Title    string
	Snapshot workflow.Snapshot
	Results  ResultsView
	// Flash is a one-shot message such as a failed upload.
	Flash  string
	Accept string
	// RefreshSeconds asks the browser to reload while the page shows state
	// that changes on its own. Zero disables the refresh.
	RefreshSeconds int
}

// pollSeconds is the reload interval for the processing view and for the
// temporary copy confirmation label.
const pollSeconds = 2

// NewPage builds page data for a snapshot.
func NewPage(snap workflow.Snapshot, flash string) Page {
	return Page{
		Title:    "Meeting Minutes",
		Snapshot: snap,
		Results:  BuildResults(snap.Result, snap.TranscriptExpanded),
		Flash:    flash,
		Accept:   AcceptAttribute(),

		RefreshSeconds: refreshSeconds(snap),
	}
}

func refreshSeconds(snap workflow.Snapshot) int {
	if snap.Sections.Processing || snap.CopyLabel == workflow.CopyLabelCopied {
		return pollSeconds
	}
	return 0
}

// AcceptAttribute lists the allowed extensions for a file input.
func AcceptAttribute() string {
	exts := make([]string, 0, len(intake.AllowedExtensions))
	for _, ext := range intake.AllowedExtensions {
		exts = append(exts, "."+ext)
	}
	return strings.Join(exts, ",")
}

// WritePage renders the full page.
func WritePage(w io.Writer, page Page) error {
	return templates.ExecuteTemplate(w, "page", page)
}

// WriteResultsHTML renders the four result blocks on their own.
func WriteResultsHTML(w io.Writer, view ResultsView) error {
	return templates.ExecuteTemplate(w, "results", view)
}
