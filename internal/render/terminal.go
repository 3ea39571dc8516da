package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var tierTitle = cases.Title(language.Und)

// TerminalOptions controls terminal rendering.
type TerminalOptions struct {
	Colorize bool
}

var actionHeaders = []string{"#", "Action", "Owner", "Deadline", "Confidence"}

// TierLabel returns the title-cased tier name.
func TierLabel(tier string) string {
	return tierTitle.String(tier)
}

// ConfidenceCell formats a confidence value as "90% High".
func ConfidenceCell(row ActionRow, colorize bool) string {
	cell := fmt.Sprintf("%d%% %s", row.Percent, TierLabel(row.Tier))
	if !colorize {
		return cell
	}
	return tierColors(row.Tier).Sprint(cell)
}

func tierColors(tier string) text.Colors {
	switch tier {
	case TierHigh:
		return text.Colors{text.FgGreen}
	case TierMedium:
		return text.Colors{text.FgYellow}
	default:
		return text.Colors{text.FgRed}
	}
}

// ActionItemsTable renders the action item rows, or a single merged
// placeholder row when there are none.
func ActionItemsTable(rows []ActionRow, colorize bool) string {
	tw := newWriter(actionHeaders)
	if len(rows) == 0 {
		placeholder := make(table.Row, ActionColumns)
		for i := range placeholder {
			placeholder[i] = PlaceholderActionItems
		}
		tw.AppendRow(placeholder, table.RowConfig{AutoMerge: true})
	}
	for _, row := range rows {
		tw.AppendRow(table.Row{
			strconv.Itoa(row.Index),
			row.Description,
			row.Owner,
			row.Deadline,
			ConfidenceCell(row, colorize),
		})
	}
	tw.SetColumnConfigs(columnConfigs(ActionColumns, []Alignment{AlignRight, AlignLeft, AlignLeft, AlignLeft, AlignRight}))
	return tw.Render()
}

// WriteResults renders the results view for a terminal.
func WriteResults(w io.Writer, view ResultsView, opts TerminalOptions) error {
	var b strings.Builder

	writeHeader(&b, "Summary", opts.Colorize)
	b.WriteString(view.Summary)
	b.WriteString("\n")

	if view.ShowDecisions {
		b.WriteString("\n")
		writeHeader(&b, "Decisions", opts.Colorize)
		for _, decision := range view.Decisions {
			b.WriteString("  • ")
			b.WriteString(decision)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	writeHeader(&b, "Action Items", opts.Colorize)
	b.WriteString(ActionItemsTable(view.ActionRows, opts.Colorize))
	b.WriteString("\n\n")

	b.WriteString(view.TranscriptGlyph())
	b.WriteString(" Transcript\n")
	if view.TranscriptExpanded {
		b.WriteString(view.Transcript)
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeHeader(b *strings.Builder, title string, colorize bool) {
	line := fmt.Sprintf("== %s ==", title)
	if colorize {
		line = text.Bold.Sprint(line)
	}
	b.WriteString(line)
	b.WriteString("\n")
}
