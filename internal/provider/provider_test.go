package provider

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast-labs/forecast-cli/internal/contract"
	"github.com/skycast-labs/forecast-cli/internal/model"
	"github.com/skycast-labs/forecast-cli/internal/store"
)

const (
	daySec   = int64(1461715200) // 2016-04-27T00:00:00Z
	daySecMs = daySec * 1000
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "weather.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return New(st)
}

func addTestLocation(t *testing.T, p *Provider, setting string) int64 {
	t.Helper()
	item, err := p.Insert(context.Background(), contract.Locations(),
		contract.LocationValues(setting, "Mountain View", 37.39, -122.08))
	require.NoError(t, err)
	require.Equal(t, contract.KindLocationID, item.Kind)
	require.Positive(t, item.RowID)
	return item.RowID
}

func forecastValues(locID, dateMs int64, conditionID int, maxTemp float64) contract.Values {
	return contract.WeatherValues(model.ForecastDay{
		LocationID:  locID,
		Date:        dateMs,
		ConditionID: conditionID,
		Description: "clear",
		MinTemp:     11,
		MaxTemp:     maxTemp,
		Humidity:    40,
		Pressure:    1012,
		WindSpeed:   3.5,
		WindDegrees: 280,
	})
}

func TestInsertLocationReturnsItemAddress(t *testing.T) {
	p := newTestProvider(t)
	id := addTestLocation(t, p, "94043")

	locs, err := p.QueryLocations(context.Background(), contract.LocationByID(id), Query{})
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "94043", locs[0].Setting)
	assert.Equal(t, "Mountain View", locs[0].CityName)
}

func TestInsertWeatherReturnsLocationDateAddress(t *testing.T) {
	p := newTestProvider(t)
	locID := addTestLocation(t, p, "94043")

	item, err := p.Insert(context.Background(), contract.Weather(),
		forecastValues(locID, daySecMs+7_200_000, 800, 31))
	require.NoError(t, err)
	assert.Equal(t, contract.KindWeatherLocationDate, item.Kind)
	assert.Equal(t, "94043", item.LocationSetting)
	assert.Positive(t, item.RowID)
}

func TestInsertUnknownAddressRejected(t *testing.T) {
	p := newTestProvider(t)
	_, err := p.Insert(context.Background(), contract.LocationByID(1), contract.Values{"city_name": "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, contract.ErrUnknownAddress))
}

func TestUpsertIdempotence(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	locID := addTestLocation(t, p, "94043")

	_, err := p.Insert(ctx, contract.Weather(), forecastValues(locID, daySecMs, 800, 31))
	require.NoError(t, err)
	// Same (location, day), different payload and time-of-day.
	_, err = p.Insert(ctx, contract.Weather(), forecastValues(locID, daySecMs+3_600_000, 500, 20))
	require.NoError(t, err)

	rows, err := p.QueryWeather(ctx, contract.WeatherForLocation("94043"), Query{})
	require.NoError(t, err)
	require.Len(t, rows, 1, "second write replaces, never duplicates")
	assert.Equal(t, 500, rows[0].ConditionID)
	assert.Equal(t, 20.0, rows[0].MaxTemp)
	assert.Equal(t, daySecMs, rows[0].Date, "date normalized and reported in milliseconds")
}

func TestQueryWeatherJoinAndStartDate(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	locID := addTestLocation(t, p, "94043")
	otherID := addTestLocation(t, p, "60601")

	for i := range 3 {
		_, err := p.Insert(ctx, contract.Weather(),
			forecastValues(locID, daySecMs+int64(i)*86_400_000, 800, 31))
		require.NoError(t, err)
	}
	_, err := p.Insert(ctx, contract.Weather(), forecastValues(otherID, daySecMs, 300, 25))
	require.NoError(t, err)

	rows, err := p.QueryWeather(ctx, contract.WeatherForLocation("94043"),
		Query{OrderBy: "weather.date ASC"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Mountain View", rows[0].CityName, "join exposes location attributes")
	assert.Equal(t, 37.39, rows[0].Latitude)

	// Minimum-date bound excludes the first day; mid-day bound snaps down.
	from := contract.WeatherForLocationFrom("94043", daySec+86400+4000)
	rows, err = p.QueryWeather(ctx, from, Query{OrderBy: "weather.date ASC"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, daySecMs+86_400_000, rows[0].Date)
}

func TestQueryWeatherExactDateIgnoresTimeOfDay(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	locID := addTestLocation(t, p, "94043")
	_, err := p.Insert(ctx, contract.Weather(), forecastValues(locID, daySecMs, 800, 31))
	require.NoError(t, err)

	rows, err := p.QueryWeather(ctx,
		contract.WeatherForLocationDate("94043", daySec+50_000), Query{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 800, rows[0].ConditionID)
}

func TestQueryWeatherCallerFilterCombines(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	locID := addTestLocation(t, p, "94043")
	_, err := p.Insert(ctx, contract.Weather(), forecastValues(locID, daySecMs, 800, 31))
	require.NoError(t, err)
	_, err = p.Insert(ctx, contract.Weather(), forecastValues(locID, daySecMs+86_400_000, 500, 20))
	require.NoError(t, err)

	rows, err := p.QueryWeather(ctx, contract.WeatherForLocation("94043"), Query{
		Where: "weather.weather_id = ?",
		Args:  []any{500},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 20.0, rows[0].MaxTemp)
}

func TestBulkInsertAndReplaceEffect(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	locID := addTestLocation(t, p, "94043")

	var before []contract.Values
	for i := range 5 {
		before = append(before, forecastValues(locID, daySecMs+int64(i)*86_400_000, 800, 31))
	}
	n, err := p.BulkInsert(ctx, contract.Weather(), before)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	// A new sync window of 3 days replaces the full set for the location.
	deleted, err := p.Delete(ctx, contract.Weather(), Query{
		Where: "location_id = ?",
		Args:  []any{locID},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)

	var after []contract.Values
	for i := range 3 {
		after = append(after, forecastValues(locID, daySecMs+int64(i)*86_400_000, 500, 20))
	}
	n, err = p.BulkInsert(ctx, contract.Weather(), after)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rows, err := p.QueryWeather(ctx, contract.WeatherForLocation("94043"), Query{})
	require.NoError(t, err)
	assert.Len(t, rows, 3, "rows outside the new window are gone")
}

func TestBulkInsertLocationFallsBackToSingleInserts(t *testing.T) {
	p := newTestProvider(t)
	sub := p.Subscribe(contract.Locations())

	n, err := p.BulkInsert(context.Background(), contract.Locations(), []contract.Values{
		contract.LocationValues("94043", "Mountain View", 37.39, -122.08),
		contract.LocationValues("60601", "Chicago", 41.88, -87.62),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, sub.C, 2, "one notification per row on the fallback path")
}

func TestDeleteNilFilterClearsAndCounts(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	locID := addTestLocation(t, p, "94043")
	for i := range 4 {
		_, err := p.Insert(ctx, contract.Weather(), forecastValues(locID, daySecMs+int64(i)*86_400_000, 800, 31))
		require.NoError(t, err)
	}

	n, err := p.Delete(ctx, contract.Weather(), Query{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	rows, err := p.QueryWeather(ctx, contract.Weather(), Query{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDeleteUnknownAddressRejected(t *testing.T) {
	p := newTestProvider(t)
	_, err := p.Delete(context.Background(), contract.WeatherForLocation("94043"), Query{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, contract.ErrUnknownAddress))
}

func TestUpdateCountAndNormalization(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	locID := addTestLocation(t, p, "94043")
	_, err := p.Insert(ctx, contract.Weather(), forecastValues(locID, daySecMs, 800, 31))
	require.NoError(t, err)

	n, err := p.Update(ctx, contract.Weather(),
		contract.Values{contract.ColShortDesc: "hazy"},
		Query{Where: "location_id = ?", Args: []any{locID}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, err := p.QueryWeather(ctx, contract.WeatherForLocation("94043"), Query{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "hazy", rows[0].Description)
}

func TestLenientValidationWritesPartialRow(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	locID := addTestLocation(t, p, "94043")

	// Missing wind, degrees, pressure: flagged in the log, written anyway.
	item, err := p.Insert(ctx, contract.Weather(), contract.Values{
		contract.ColLocKey:    locID,
		contract.ColDate:      daySecMs,
		contract.ColWeatherID: 800,
		contract.ColShortDesc: "clear",
		contract.ColMinTemp:   11.0,
		contract.ColMaxTemp:   31.0,
		contract.ColHumidity:  40.0,
	})
	require.NoError(t, err)
	assert.Positive(t, item.RowID)

	rows, err := p.QueryWeather(ctx, contract.WeatherForLocation("94043"), Query{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].WindSpeed)
}

func TestTypeOf(t *testing.T) {
	p := newTestProvider(t)
	typ, err := p.TypeOf(contract.WeatherForLocationDate("94043", daySec))
	require.NoError(t, err)
	assert.Equal(t, contract.TypeWeatherItem, typ)
}
