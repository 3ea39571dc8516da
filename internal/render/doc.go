// Package render turns processing results into HTML and terminal output.
//
// BuildResults produces a ResultsView: the summary (or its placeholder), the
// decision list (hidden when empty), numbered action item rows with a
// confidence tier, and the transcript panel state. The HTML templates escape
// every backend-supplied string; the terminal renderer draws the same model
// with go-pretty tables.
package render
