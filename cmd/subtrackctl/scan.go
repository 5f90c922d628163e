package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/subtrackr/subtrackr/internal/app"
	"github.com/subtrackr/subtrackr/internal/cache"
	"github.com/subtrackr/subtrackr/internal/config"
	"github.com/subtrackr/subtrackr/internal/metrics"
	"github.com/subtrackr/subtrackr/internal/notify"
	"github.com/subtrackr/subtrackr/internal/recurrence"
	"github.com/subtrackr/subtrackr/internal/repository"
)

type scanOutput struct {
	Report  *notify.Report   `json:"report"`
	Metrics metrics.Snapshot `json:"metrics"`
}

func newScanCommand() *cobra.Command {
	var (
		dryRun  bool
		today   string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run the tomorrow-billing notification scan once",
		Long: `scan runs the same notification scan as the cron trigger and prints the
report with the run's counters. The report is also stored as the last scan
unless --dry-run is set, in which case reminders are logged instead of sent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := app.NewLogger(cfg, os.Stderr)

			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			now := time.Now()
			if today != "" {
				if now, err = recurrence.ParseDate(today, loc); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			repo, err := repository.New(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %s", app.SanitizeError(err, cfg.DatabaseURL))
			}
			defer repo.Close()

			sender := app.NewSender(cfg, logger)
			if dryRun {
				sender = notify.NewLogSender(logger, cfg.AppURL)
			}

			recorder := metrics.NewInMemory()
			scanner := notify.NewScanner(repo, repo, sender, logger, recorder, app.ScannerConfig(cfg))

			report, err := scanner.Run(ctx, recurrence.NewCalendar(now, loc))
			if err != nil {
				return err
			}

			if !dryRun {
				storeLastScan(cmd.Context(), cfg, logger, report)
			}

			return printJSON(cmd.OutOrStdout(), scanOutput{Report: report, Metrics: recorder.Snapshot()})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log reminders instead of sending them")
	cmd.Flags().StringVar(&today, "today", "", "reference day instead of the current date (YYYY-MM-DD)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "upper bound for the whole scan (0 disables)")

	return cmd
}

// storeLastScan records the report where the API's last-scan endpoint reads
// it. Redis being unavailable only costs the record.
func storeLastScan(ctx context.Context, cfg *config.Config, logger *slog.Logger, report *notify.Report) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("skipping last scan record", "error", app.SanitizeError(err, cfg.RedisURL))
		return
	}
	defer c.Close()

	if err := c.SetLastScan(ctx, report); err != nil {
		logger.Warn("failed to store scan report", "error", err)
	}
}
