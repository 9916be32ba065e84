// Package cmd defines and implements the CLI commands for the linkvet executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/linkvet/linkvet/internal/checker"
	"github.com/linkvet/linkvet/internal/extract"
	"github.com/linkvet/linkvet/internal/logging"
	"github.com/linkvet/linkvet/internal/ratelimit"
	"github.com/linkvet/linkvet/internal/results"
	"github.com/linkvet/linkvet/internal/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// newCheckCmd creates and configures the 'check' subcommand. It runs one full
// verification pass over the configured document and exits non-zero when any
// URL ends the run in the failed set.
func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Checks every link in the configured document",
		Long: `Reads the configured markdown document, extracts every hyperlink and
image reference, and verifies each one concurrently. URLs recorded as
working by a previous run are skipped; failures are reported and the
process exits with an error.`,

		RunE: runCheckCommand,
	}
	return cmd
}

func runCheckCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := checker.LoadConfig(viper.GetViper())
	if err != nil {
		return fmt.Errorf("load checker config: %w", err)
	}

	logger := logging.L.With(zap.String("run_id", uuid.NewString()))

	if cfg.MetricsAddr != "" {
		telemetry.Serve(cmd.Context(), cfg.MetricsAddr, logger)
	}

	source, err := os.ReadFile(cfg.Input)
	if err != nil {
		return fmt.Errorf("read %s: %w", cfg.Input, err)
	}

	candidates, err := extract.FromMarkdown(source)
	if err != nil {
		return fmt.Errorf("extract candidates from %s: %w", cfg.Input, err)
	}
	logger.Debug("candidates extracted", zap.Int("count", len(candidates)))

	store := results.Load(cfg.ResultsPath, logger)
	pool := checker.NewPool(cfg.Concurrency)
	limiter := ratelimit.New(cfg.RateLimitPerHost)
	fetcher := checker.NewFetcher(cfg, pool, limiter, logger)
	engine := checker.NewEngine(fetcher, store, os.Stdout, logger)

	return engine.Run(cmd.Context(), candidates)
}
