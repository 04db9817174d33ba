package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the periodic sync loop",
	Long:  "Syncs the configured location on the configured interval, with jitter, until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		zap.L().Info("starting sync daemon",
			zap.String("location", cfg.Sync.Location),
			zap.Duration("interval", cfg.Sync.Interval()),
			zap.Duration("flex", cfg.Sync.Flex()),
		)

		if err := env.Orchestrator.RunPeriodic(ctx); err != nil {
			return eris.Wrap(err, "daemon")
		}

		zap.L().Info("sync daemon stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
