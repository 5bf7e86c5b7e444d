package cmd

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ladderbot/metrics"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the cycle scheduler until interrupted",
	Long: `Run starts the batch scheduler: every interval it loads the accounts with
automated trading enabled and executes one trade cycle per account, capped at
the configured batch size.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		bus, err := buildBus(cfg)
		if err != nil {
			return err
		}
		run := buildRunner(cfg, store, bus)

		if cfg.Metrics.Addr != "" {
			go func() {
				if err := metrics.Serve(cfg.Metrics.Addr); err != nil {
					log.Error().Err(err).Msg("metrics server stopped")
				}
			}()
		}

		log.Info().Dur("interval", cfg.SchedulerInterval()).
			Int("batch", cfg.Scheduler.BatchSize).Msg("scheduler started")

		ticker := time.NewTicker(cfg.SchedulerInterval())
		defer ticker.Stop()

		for {
			if err := run.RunBatch(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("batch failed")
			}
			select {
			case <-ctx.Done():
				log.Info().Msg("scheduler stopped")
				return nil
			case <-ticker.C:
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
