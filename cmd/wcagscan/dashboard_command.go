package main

import (
	"time"

	"github.com/spf13/cobra"

	"wcagscan/internal/dashboard"
)

func newDashboardCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Live view of recent scans and projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}

			return dashboard.Run(dashboard.Options{
				Client:          client,
				RefreshInterval: time.Duration(cfg.Dashboard.RefreshInterval) * time.Second,
				ScanLimit:       cfg.Dashboard.ScanLimit,
				ProjectLimit:    cfg.Dashboard.ProjectLimit,
				Logger:          ctx.loggerValue(),
			})
		},
	}
}
