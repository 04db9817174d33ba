package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/skycast-labs/forecast-cli/internal/contract"
	"github.com/skycast-labs/forecast-cli/internal/model"
	"github.com/skycast-labs/forecast-cli/internal/provider"
)

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "List known locations",
	Long:  "Lists every location the cache has seen, with the city name and coordinates resolved during sync.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		locs, err := env.Provider.QueryLocations(ctx, contract.Locations(), provider.Query{OrderBy: "_id ASC"})
		if err != nil {
			return eris.Wrap(err, "locations")
		}

		if len(locs) == 0 {
			fmt.Fprintln(os.Stderr, "No locations cached yet.")
			return nil
		}

		formatLocations(os.Stdout, locs)
		return nil
	},
}

func formatLocations(out io.Writer, locs []model.Location) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSETTING\tCITY\tLAT\tLONG")
	_, _ = fmt.Fprintln(w, "--\t-------\t----\t---\t----")

	for _, l := range locs {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%.4f\t%.4f\n",
			l.ID, l.Setting, l.CityName, l.Latitude, l.Longitude)
	}

	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(locationsCmd)
}
