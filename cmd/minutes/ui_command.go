package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"minutes/internal/webui"
)

func newUICommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Serve the upload workflow as a local web page",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(appOptions{lock: true}, func(a *app) error {
				cfg := *a.cfg
				if b := strings.TrimSpace(bind); b != "" {
					cfg.UI.Bind = b
				}
				server, err := webui.New(&cfg, a.controller, a.logger)
				if err != nil {
					return err
				}
				runCtx := cmd.Context()
				if err := server.Start(runCtx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Minutes UI available at http://%s (Ctrl+C to stop)\n", server.Addr())
				<-runCtx.Done()
				server.Stop()
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to ui.bind)")
	return cmd
}
