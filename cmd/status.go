package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/skycast-labs/forecast-cli/internal/store"
)

type cacheStatus struct {
	Locations    int64
	ForecastDays int64
	OldestSec    int64
	NewestSec    int64
	LastNotified int64
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache status",
	Long:  "Displays row counts, the cached date range, and the last notification time.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		status, err := collectStatus(ctx, st)
		if err != nil {
			return eris.Wrap(err, "status")
		}

		formatStatus(os.Stdout, status)
		return nil
	},
}

func collectStatus(ctx context.Context, st *store.SQLiteStore) (cacheStatus, error) {
	var s cacheStatus

	rows, err := st.Query(ctx, `SELECT
		(SELECT COUNT(*) FROM location),
		(SELECT COUNT(*) FROM weather),
		COALESCE(MIN(date), 0), COALESCE(MAX(date), 0)
		FROM weather`)
	if err != nil {
		return s, err
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&s.Locations, &s.ForecastDays, &s.OldestSec, &s.NewestSec); err != nil {
			return s, err
		}
	}
	if err := rows.Err(); err != nil {
		return s, err
	}

	last, err := st.GetPrefInt64(ctx, store.PrefLastNotification)
	if err != nil {
		return s, err
	}
	s.LastNotified = last

	return s, nil
}

func formatStatus(out io.Writer, s cacheStatus) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	day := func(sec int64) string {
		if sec == 0 {
			return "-"
		}
		return time.Unix(sec, 0).UTC().Format("2006-01-02")
	}

	last := "-"
	if s.LastNotified > 0 {
		last = time.UnixMilli(s.LastNotified).UTC().Format(time.RFC3339)
	}

	_, _ = fmt.Fprintf(w, "Locations:\t%d\n", s.Locations)
	_, _ = fmt.Fprintf(w, "Forecast days:\t%d\n", s.ForecastDays)
	_, _ = fmt.Fprintf(w, "Oldest day:\t%s\n", day(s.OldestSec))
	_, _ = fmt.Fprintf(w, "Newest day:\t%s\n", day(s.NewestSec))
	_, _ = fmt.Fprintf(w, "Last notification:\t%s\n", last)

	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
