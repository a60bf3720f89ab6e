package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"TrendPress/internal/app"
	"TrendPress/internal/config"
	"TrendPress/internal/logging"
	"TrendPress/internal/report"
)

type cliOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:   "trendpress",
		Short: "Publish rewritten news about trending searches to WordPress",
		Long: `trendpress fetches the current Google Trends, looks up related news,
rewrites each article through the OpenAI API and publishes it over XML-RPC.

Example usage:
  trendpress                   # Run the pipeline once
  trendpress simulate          # Run against built-in fixtures, no network
  trendpress serve             # Start the HTTP trigger API`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (default $TRENDPRESS_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override LOG_LEVEL")

	cmd.AddCommand(newSimulateCmd(opts), newServeCmd(opts))
	return cmd
}

func loadConfig(opts *cliOptions) (config.Config, error) {
	cfg := config.LoadFrom(opts.configPath)
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*slog.Logger, io.Closer, error) {
	logger, closer, err := logging.NewWithFile(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logger, closer, nil
}

func runOnce(cmd *cobra.Command, opts *cliOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
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

	summary, err := application.Run(cmd.Context())
	if renderErr := report.WriteSummary(cmd.OutOrStdout(), summary); renderErr != nil {
		logger.Warn("summary table not printed", "error", renderErr)
	}
	return err
}
