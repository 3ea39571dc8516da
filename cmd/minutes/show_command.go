package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"minutes/internal/config"
	"minutes/internal/session"
	"minutes/internal/workflow"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var transcript bool
	var refresh bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the minutes of the current job",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if running, snap, err := runningSequence(cmd, ctx, cfg); err != nil {
				return err
			} else if running {
				if jsonOut {
					return writeJSON(cmd, snap)
				}
				return printSnapshot(cmd.OutOrStdout(), snap, false)
			}

			return ctx.withApp(appOptions{lock: refresh}, func(a *app) error {
				if refresh {
					if err := a.controller.Refresh(cmd.Context()); err != nil {
						return ignoreNoJob(cmd, err)
					}
				}
				snap := a.controller.Snapshot()
				if jsonOut {
					return writeJSON(cmd, snap)
				}
				return printSnapshot(cmd.OutOrStdout(), snap, transcript)
			})
		},
	}

	cmd.Flags().BoolVarP(&transcript, "transcript", "t", false, "Include the full transcript")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Reload the results stored by the backend")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

// newTranscriptCommand flips the persisted transcript panel state.
func newTranscriptCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "transcript",
		Short: "Toggle whether the transcript is shown with the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(appOptions{lock: true}, func(a *app) error {
				snap := a.controller.ToggleTranscript(cmd.Context())
				state := "collapsed"
				if snap.TranscriptExpanded {
					state = "expanded"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Transcript %s\n", snap.TranscriptGlyph(), state)
				if snap.View == workflow.ViewResults && snap.TranscriptExpanded {
					return printSnapshot(cmd.OutOrStdout(), snap, false)
				}
				return nil
			})
		},
	}
}

// runningSequence reports a sequence that another process is running right
// now. A persisted in-flight phase without a lock holder was interrupted.
func runningSequence(cmd *cobra.Command, ctx *commandContext, cfg *config.Config) (bool, workflow.Snapshot, error) {
	var stored workflow.Session
	if err := ctx.withStore(func(_ *config.Config, store *session.Store) error {
		var err error
		stored, err = store.Load(cmd.Context())
		return err
	}); err != nil {
		return false, workflow.Snapshot{}, err
	}
	if !stored.Phase.InFlight() {
		return false, workflow.Snapshot{}, nil
	}
	lock, err := session.AcquireLock(cfg)
	if err != nil {
		if errors.Is(err, session.ErrLocked) {
			return true, workflow.SnapshotOf(stored), nil
		}
		return false, workflow.Snapshot{}, err
	}
	_ = lock.Release()
	return false, workflow.Snapshot{}, nil
}
