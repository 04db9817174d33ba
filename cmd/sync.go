package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var syncLocation string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch and cache the forecast once",
	Long:  "Runs a single immediate sync for the configured (or given) location and exits.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		location := syncLocation
		if location == "" {
			location = cfg.Sync.Location
		}

		if err := env.Orchestrator.SyncNow(ctx, location); err != nil {
			return eris.Wrap(err, "sync")
		}

		zap.L().Info("sync complete", zap.String("location", location))
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncLocation, "location", "", "location setting to sync (default from config)")
	rootCmd.AddCommand(syncCmd)
}
