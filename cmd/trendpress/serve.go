package main

import (
	"github.com/spf13/cobra"

	"TrendPress/internal/app"
)

func newServeCmd(opts *cliOptions) *cobra.Command {
	var addr, schedule string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP trigger API and the optional cron schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if schedule != "" {
				cfg.Scheduler.CronExpression = schedule
			}

			logger, closer, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			return application.Serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from PORT or :8000)")
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron expression for recurring runs")
	return cmd
}
