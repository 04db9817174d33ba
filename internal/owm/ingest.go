package owm

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/skycast-labs/forecast-cli/internal/contract"
	"github.com/skycast-labs/forecast-cli/internal/model"
	"github.com/skycast-labs/forecast-cli/internal/provider"
)

const dayMillis = int64(24 * time.Hour / time.Millisecond)

// BuildBatch turns a parsed response into write rows for the given location
// id. Date assignment is index-based: entry 0 is the start of today's UTC
// calendar day and entry i is today + i days. The remote entries carry no
// trustworthy per-entry date.
func BuildBatch(resp *ForecastResponse, locationID int64, now time.Time) ([]contract.Values, error) {
	today := contract.NormalizeDateMillis(now.UnixMilli())

	rows := make([]contract.Values, 0, len(resp.List))
	for i, entry := range resp.List {
		if len(entry.Weather) == 0 {
			return nil, eris.Errorf("owm: entry %d has no weather condition", i)
		}
		rows = append(rows, contract.WeatherValues(model.ForecastDay{
			LocationID:  locationID,
			Date:        today + int64(i)*dayMillis,
			ConditionID: entry.Weather[0].ID,
			Description: entry.Weather[0].Main,
			MinTemp:     entry.Temp.Min,
			MaxTemp:     entry.Temp.Max,
			Humidity:    entry.Humidity,
			Pressure:    entry.Pressure,
			WindSpeed:   entry.Speed,
			WindDegrees: entry.Deg,
		}))
	}
	return rows, nil
}

// Ingester runs one fetch-normalize-store cycle per call to Sync.
type Ingester struct {
	provider *provider.Provider
	client   *Client
	days     int

	// now is a test seam; defaults to time.Now.
	now func() time.Time
}

// NewIngester wires a client and the data-access layer together.
func NewIngester(p *provider.Provider, c *Client, days int) *Ingester {
	return &Ingester{provider: p, client: c, days: days, now: time.Now}
}

// Sync fetches the forecast window for the location setting and replaces the
// cached rows for that location with it. Any fetch or parse failure aborts
// before the first cache mutation, leaving the last-known-good data intact.
func (g *Ingester) Sync(ctx context.Context, locationSetting string) error {
	resp, err := g.client.FetchDaily(ctx, locationSetting, g.days)
	if err != nil {
		return err
	}
	if len(resp.List) == 0 {
		return eris.Errorf("owm: forecast for %s has no entries", locationSetting)
	}

	locationID, err := g.ensureLocation(ctx, locationSetting, resp)
	if err != nil {
		return err
	}

	batch, err := BuildBatch(resp, locationID, g.now())
	if err != nil {
		return err
	}

	// Replace the location's window: clear, then one transactional batch.
	if _, err := g.provider.Delete(ctx, contract.Weather(), provider.Query{
		Where: contract.ColLocKey + " = ?",
		Args:  []any{locationID},
	}); err != nil {
		return eris.Wrapf(err, "owm: clear forecast for %s", locationSetting)
	}

	n, err := g.provider.BulkInsert(ctx, contract.Weather(), batch)
	if err != nil {
		return eris.Wrapf(err, "owm: store forecast for %s", locationSetting)
	}

	zap.L().Info("forecast synced",
		zap.String("location", locationSetting),
		zap.Int("days", n),
	)
	return nil
}

// ensureLocation resolves the location row for the setting, creating it on
// first sight. Attributes of an existing row are left alone: the first write
// wins and later syncs only reuse its id. More than one match is a data
// anomaly; it is logged and the first row is used.
func (g *Ingester) ensureLocation(ctx context.Context, setting string, resp *ForecastResponse) (int64, error) {
	locs, err := g.provider.QueryLocations(ctx, contract.Locations(), provider.Query{
		Where:   contract.ColLocationSetting + " = ?",
		Args:    []any{setting},
		OrderBy: "_id ASC",
	})
	if err != nil {
		return 0, eris.Wrapf(err, "owm: look up location %s", setting)
	}
	if len(locs) > 1 {
		zap.L().Warn("location setting not unique",
			zap.String("location", setting),
			zap.Int("rows", len(locs)),
		)
	}
	if len(locs) > 0 {
		return locs[0].ID, nil
	}

	item, err := g.provider.Insert(ctx, contract.Locations(), contract.LocationValues(
		setting, resp.City.Name, resp.City.Coord.Lat, resp.City.Coord.Lon,
	))
	if err != nil {
		return 0, eris.Wrapf(err, "owm: create location %s", setting)
	}
	return item.RowID, nil
}
