package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"minutes/internal/config"
	"minutes/internal/render"
	"minutes/internal/services/minutesapi"
	"minutes/internal/session"
	"minutes/internal/workflow"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status [job-id]",
		Short: "Ask the backend for the state of a job",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			var jobID string
			if len(args) == 1 {
				jobID = strings.TrimSpace(args[0])
			} else {
				if err := ctx.withStore(func(_ *config.Config, store *session.Store) error {
					stored, err := store.Load(cmd.Context())
					jobID = stored.JobID
					return err
				}); err != nil {
					return err
				}
			}
			if jobID == "" {
				fmt.Fprintln(cmd.OutOrStdout(), noJobMessage)
				return nil
			}

			client, err := minutesapi.NewFromConfig(cfg, logger)
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context(), jobID)
			if err != nil {
				return fmt.Errorf("job %s: %s", jobID, minutesapi.UserMessage(err))
			}
			if jsonOut {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			kind := statusInfo
			switch {
			case status.Error != "":
				kind = statusError
			case status.Confirmed:
				kind = statusOK
			}
			fmt.Fprintln(out, renderStatusLine("Job "+status.JobID, kind, status.Status, colorize))
			if status.Filename != "" {
				fmt.Fprintln(out, renderKeyValue("File", status.Filename))
			}
			fmt.Fprintln(out, renderKeyValue("Confirmed", yesNo(status.Confirmed)))
			if status.Error != "" {
				fmt.Fprintln(out, renderKeyValue("Error", status.Error))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently processed meetings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}
			return ctx.withStore(func(_ *config.Config, store *session.Store) error {
				jobs, err := store.History(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOut {
					if jobs == nil {
						jobs = []session.Job{}
					}
					return writeJSON(cmd, jobs)
				}
				out := cmd.OutOrStdout()
				if len(jobs) == 0 {
					fmt.Fprintln(out, "No meetings processed yet")
					return nil
				}
				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					rows = append(rows, []string{
						job.JobID,
						job.FileName,
						jobStatusLabel(job),
						strconv.Itoa(job.Decisions),
						strconv.Itoa(job.ActionItems),
						job.UpdatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(out, render.Table(
					[]string{"Job", "File", "Status", "Decisions", "Actions", "Updated"},
					rows,
					[]render.Alignment{render.AlignLeft, render.AlignLeft, render.AlignLeft, render.AlignRight, render.AlignRight, render.AlignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of meetings to list")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func jobStatusLabel(job session.Job) string {
	if job.Status == workflow.JobFailed && job.Error != "" {
		return job.Status + ": " + job.Error
	}
	return job.Status
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
