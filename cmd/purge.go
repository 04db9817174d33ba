package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skycast-labs/forecast-cli/internal/contract"
	"github.com/skycast-labs/forecast-cli/internal/provider"
)

var purgeLocations bool

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete cached forecast data",
	Long:  "Deletes all cached forecast rows. With --locations, deletes the location table as well.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		n, err := env.Provider.Delete(ctx, contract.Weather(), provider.Query{})
		if err != nil {
			return eris.Wrap(err, "purge weather")
		}
		zap.L().Info("purged forecast rows", zap.Int64("rows", n))

		if purgeLocations {
			n, err = env.Provider.Delete(ctx, contract.Locations(), provider.Query{})
			if err != nil {
				return eris.Wrap(err, "purge locations")
			}
			zap.L().Info("purged locations", zap.Int64("rows", n))
		}

		fmt.Println("Cache purged.")
		return nil
	},
}

func init() {
	purgeCmd.Flags().BoolVar(&purgeLocations, "locations", false, "also delete the location table")
	rootCmd.AddCommand(purgeCmd)
}
