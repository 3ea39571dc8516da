package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"minutes/internal/render"
	"minutes/internal/workflow"
)

const noJobMessage = "No active job. Upload a recording with `minutes upload <file>` first."

// printSnapshot writes the visible section of the workflow for a terminal.
func printSnapshot(out io.Writer, snap workflow.Snapshot, expandTranscript bool) error {
	colorize := shouldColorize(out)
	switch snap.View {
	case workflow.ViewProcessing:
		fmt.Fprintf(out, "%s %d%% %s\n", snap.StatusLabel, snap.Progress.Percent, snap.Progress.Message)
		return nil
	case workflow.ViewResults:
		return printResults(out, snap, expandTranscript, colorize)
	case workflow.ViewConfirmed:
		fmt.Fprintln(out, renderStatusLine("Minutes", statusOK, "confirmed", colorize))
		if snap.FileName != "" {
			fmt.Fprintln(out, renderKeyValue("File", snap.FileName))
		}
		fmt.Fprintln(out, renderKeyValue("Job", snap.JobID))
		fmt.Fprintln(out, "Run `minutes export` or `minutes copy` to take the markdown with you.")
		return nil
	default:
		if snap.FileInfoVisible {
			fmt.Fprintln(out, renderKeyValue("Selected file", snap.FileName))
		}
		fmt.Fprintln(out, "No meeting minutes to show. Run `minutes upload <file>` to start.")
		return nil
	}
}

func printResults(out io.Writer, snap workflow.Snapshot, expandTranscript, colorize bool) error {
	view := render.BuildResults(snap.Result, snap.TranscriptExpanded || expandTranscript)
	return render.WriteResults(out, view, render.TerminalOptions{Colorize: colorize})
}

// ignoreNoJob turns the missing-job case into a printed hint: confirm, export
// and copy are no-ops without a job.
func ignoreNoJob(cmd *cobra.Command, err error) error {
	if errors.Is(err, workflow.ErrNoActiveJob) {
		fmt.Fprintln(cmd.OutOrStdout(), noJobMessage)
		return nil
	}
	return err
}
