package main

import (
	"github.com/spf13/cobra"

	"TrendPress/internal/app"
	"TrendPress/internal/infrastructure/simulated"
	"TrendPress/internal/report"
)

func newSimulateCmd(opts *cliOptions) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the pipeline against built-in fixtures without network access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, closer, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			application := app.NewSimulated(cfg, logger, outputDir, simulated.DefaultFixture())
			summary, err := application.Run(cmd.Context())
			if renderErr := report.WriteSummary(cmd.OutOrStdout(), summary); renderErr != nil {
				logger.Warn("summary table not printed", "error", renderErr)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&outputDir, "output", "test_output", "directory for simulated artifacts")
	return cmd
}
