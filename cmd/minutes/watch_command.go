package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"minutes/internal/config"
	"minutes/internal/intake"
	"minutes/internal/logging"
	"minutes/internal/watch"
	"minutes/internal/workflow"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var existing bool
	var confirm bool
	var export bool

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Upload recordings dropped into a folder, one at a time",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir := cfg.Paths.WatchDir
			if len(args) == 1 {
				dir = strings.TrimSpace(args[0])
			}
			if dir == "" {
				return errors.New("no folder to watch: pass a directory or set paths.watch_dir")
			}
			dir, err = config.ExpandPath(dir)
			if err != nil {
				return err
			}

			return ctx.withApp(appOptions{lock: true}, func(a *app) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				handler := func(runCtx context.Context, path string) error {
					name := filepath.Base(path)
					file, err := intake.FromPath(path)
					if err == nil {
						err = a.controller.HandleFile(runCtx, file)
					}
					if err == nil && confirm {
						err = a.controller.Confirm(runCtx)
					}
					var exported workflow.Exported
					if err == nil && export {
						exported, err = a.controller.Export(runCtx, fileSink{dir: a.cfg.Paths.ExportDir})
					}
					if err != nil {
						fmt.Fprintln(out, renderStatusLine(name, statusError, workflow.UserMessage(err), colorize))
						return err
					}
					fmt.Fprintln(out, renderStatusLine(name, statusOK, describeResult(a.controller.Snapshot()), colorize))
					if exported.Location != "" {
						fmt.Fprintln(out, renderKeyValue("Export", exported.Location))
					}
					return nil
				}

				watcher, err := watch.New(dir, handler, watch.Options{
					ScanExisting: existing,
					Logger:       a.logger,
				})
				if err != nil {
					return err
				}
				defer func() {
					if err := watcher.Close(); err != nil {
						a.logger.Warn("close folder watcher failed",
							logging.Error(err),
							logging.String(logging.FieldEventType, "watch_close_failed"),
						)
					}
				}()

				fmt.Fprintf(out, "Watching %s for recordings (Ctrl+C to stop)\n", watcher.Dir())
				if err := watcher.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&existing, "existing", false, "Also process recordings already in the folder")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm each meeting's minutes automatically")
	cmd.Flags().BoolVar(&export, "export", false, "Export each meeting's markdown to paths.export_dir")
	return cmd
}

func describeResult(snap workflow.Snapshot) string {
	if snap.Result == nil {
		return string(snap.Phase)
	}
	desc := fmt.Sprintf("%d decisions, %d action items", len(snap.Result.Decisions), len(snap.Result.ActionItems))
	if snap.Phase == workflow.PhaseConfirmed {
		desc += " (confirmed)"
	}
	return desc
}
