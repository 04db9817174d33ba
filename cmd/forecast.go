package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/skycast-labs/forecast-cli/internal/contract"
	"github.com/skycast-labs/forecast-cli/internal/display"
	"github.com/skycast-labs/forecast-cli/internal/model"
	"github.com/skycast-labs/forecast-cli/internal/provider"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast [location]",
	Short: "Show the cached forecast",
	Long:  "Lists the cached forecast for a location from today onward, earliest day first.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		location := cfg.Sync.Location
		if len(args) > 0 {
			location = args[0]
		}
		if location == "" {
			return eris.New("forecast: no location given and none configured")
		}

		now := time.Now().UnixMilli()
		addr := contract.WeatherForLocationFrom(location, now/1000)

		rows, err := env.Provider.QueryWeather(ctx, addr, provider.Query{OrderBy: "weather.date ASC"})
		if err != nil {
			return eris.Wrap(err, "forecast")
		}

		if len(rows) == 0 {
			fmt.Fprintln(os.Stderr, "No cached forecast. Run 'forecast-cli sync' first.")
			return nil
		}

		formatForecast(os.Stdout, rows, now, cfg.Display.Metric())
		return nil
	},
}

// formatForecast writes a tabular forecast list to w.
func formatForecast(out io.Writer, rows []model.ForecastRow, nowMs int64, metric bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DAY\tCONDITION\tHIGH\tLOW\tWIND")
	_, _ = fmt.Fprintln(w, "---\t---------\t----\t---\t----")

	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			display.FriendlyDay(r.Date, nowMs),
			r.Description,
			display.FormatTemperature(r.MaxTemp, metric),
			display.FormatTemperature(r.MinTemp, metric),
			display.FormatWind(r.WindSpeed, r.WindDegrees, metric),
		)
	}

	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(forecastCmd)
}
