package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"minutes/internal/config"
	"minutes/internal/intake"
	"minutes/internal/workflow"
)

type uploadOutput struct {
	workflow.Snapshot
	ExportPath string `json:"export_path,omitempty"`
	Copied     bool   `json:"copied,omitempty"`
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var (
		confirm    bool
		export     bool
		copyResult bool
		transcript bool
		jsonOut    bool
		outputDir  string
	)

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a recording and show the extracted minutes",
		Long: fmt.Sprintf("Upload an audio recording (%s, at most 25MB), wait for transcription\n"+
			"and extraction, then print the summary, decisions and action items.",
			strings.ToUpper(strings.Join(intake.AllowedExtensions, ", "))),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			file, err := intake.FromPath(path)
			if err != nil {
				return err
			}

			var presenter workflow.Presenter
			if !jsonOut {
				stderr := cmd.ErrOrStderr()
				presenter = newProgressPresenter(stderr, shouldColorize(stderr))
			}

			return ctx.withApp(appOptions{lock: true, presenter: presenter}, func(a *app) error {
				runCtx := cmd.Context()
				if err := a.controller.HandleFile(runCtx, file); err != nil {
					return err
				}
				if confirm {
					if err := a.controller.Confirm(runCtx); err != nil {
						return err
					}
				}
				result := uploadOutput{}
				if export {
					dir := outputDir
					if dir == "" {
						dir = a.cfg.Paths.ExportDir
					}
					exported, err := a.controller.Export(runCtx, fileSink{dir: dir})
					if err != nil {
						return err
					}
					result.ExportPath = exported.Location
				}
				if copyResult {
					if err := a.controller.Copy(runCtx); err != nil {
						return err
					}
					result.Copied = true
				}

				snap := a.controller.Snapshot()
				if jsonOut {
					result.Snapshot = snap
					return writeJSON(cmd, result)
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				if err := printResults(out, snap, transcript, colorize); err != nil {
					return err
				}
				if confirm {
					fmt.Fprintln(out, renderStatusLine("Minutes", statusOK, "confirmed", colorize))
				}
				if result.ExportPath != "" {
					fmt.Fprintln(out, renderStatusLine("Export", statusOK, result.ExportPath, colorize))
				}
				if result.Copied {
					fmt.Fprintln(out, workflow.CopyLabelCopied)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm the extracted minutes right away")
	cmd.Flags().BoolVar(&export, "export", false, "Export the markdown after processing")
	cmd.Flags().BoolVar(&copyResult, "copy", false, "Copy the markdown to the clipboard after processing")
	cmd.Flags().BoolVar(&transcript, "transcript", false, "Include the full transcript in the output")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for --export (defaults to paths.export_dir)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
