package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"minutes/internal/workflow"
)

func newActionCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newConfirmCommand(ctx),
		newExportCommand(ctx),
		newCopyCommand(ctx),
		newClearCommand(ctx),
		newResetCommand(ctx),
	}
}

func newConfirmCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm",
		Short: "Confirm the extracted minutes with the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(appOptions{lock: true}, func(a *app) error {
				if err := a.controller.Confirm(cmd.Context()); err != nil {
					return ignoreNoJob(cmd, err)
				}
				return printSnapshot(cmd.OutOrStdout(), a.controller.Snapshot(), false)
			})
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var toStdout bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Save the minutes as a markdown file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(appOptions{lock: true}, func(a *app) error {
				var sink workflow.DownloadSink
				if toStdout {
					sink = stdoutSink{out: cmd.OutOrStdout()}
				} else {
					dir := outputDir
					if dir == "" {
						dir = a.cfg.Paths.ExportDir
					}
					sink = fileSink{dir: dir}
				}
				exported, err := a.controller.Export(cmd.Context(), sink)
				if err != nil {
					return ignoreNoJob(cmd, err)
				}
				if !toStdout {
					out := cmd.OutOrStdout()
					fmt.Fprintln(out, renderStatusLine("Export", statusOK, exported.Location, shouldColorize(out)))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory to write the markdown file (defaults to paths.export_dir)")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "Print the markdown instead of writing a file")
	return cmd
}

func newCopyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "copy",
		Short: "Copy the minutes markdown to the clipboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(appOptions{lock: true}, func(a *app) error {
				if err := a.controller.Copy(cmd.Context()); err != nil {
					return ignoreNoJob(cmd, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), workflow.CopyLabelCopied)
				return nil
			})
		},
	}
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the selected file name",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(appOptions{lock: true}, func(a *app) error {
				a.controller.ClearFile(cmd.Context())
				fmt.Fprintln(cmd.OutOrStdout(), "File selection cleared")
				return nil
			})
		},
	}
}

func newResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard the current job and start over",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(appOptions{lock: true}, func(a *app) error {
				if err := a.controller.Reset(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Ready for a new recording")
				return nil
			})
		},
	}
}
