package contract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast-labs/forecast-cli/internal/model"
)

func TestParse_Patterns(t *testing.T) {
	tests := []struct {
		in   string
		want Address
	}{
		{"weather", Weather()},
		{"weather/94043", WeatherForLocation("94043")},
		{"weather/94043?start=1461801600", Address{
			Kind: KindWeatherLocation, LocationSetting: "94043", StartDateSec: 1461801600,
		}},
		{"weather/94043/1461766000", WeatherForLocationDate("94043", 1461766000)},
		{"location", Locations()},
		{"location/7", LocationByID(7)},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	for _, addr := range []Address{
		Weather(),
		WeatherForLocation("London,uk"),
		WeatherForLocationFrom("94043", 1461766000),
		WeatherForLocationDate("94043", 1461715200),
		Locations(),
		LocationByID(42),
	} {
		parsed, err := Parse(addr.String())
		require.NoError(t, err, addr.String())
		assert.Equal(t, addr, parsed, addr.String())
	}
}

func TestParse_StartDateIsNormalized(t *testing.T) {
	// 1461766000 is mid-day; the bound must snap to that day's UTC midnight.
	addr, err := Parse("weather/94043?start=1461766000")
	require.NoError(t, err)
	assert.Equal(t, NormalizeDateSeconds(1461766000), addr.StartDateSec)
	assert.Equal(t, int64(1461715200), addr.StartDateSec)
}

func TestParse_Malformed(t *testing.T) {
	for _, in := range []string{
		"",
		"forecast",
		"weather/x/y/z",
		"weather/94043/notadate",
		"weather//1461715200",
		"location/abc",
		"location/1/2",
		"weather/94043?start=abc",
	} {
		_, err := Parse(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, ErrUnknownAddress), in)
	}
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		addr Address
		want string
	}{
		{Weather(), TypeWeatherDir},
		{WeatherForLocation("94043"), TypeWeatherDir},
		{WeatherForLocationDate("94043", 1461715200), TypeWeatherItem},
		{Locations(), TypeLocation},
		{LocationByID(3), TypeLocation},
	}
	for _, tt := range tests {
		got, err := TypeOf(tt.addr)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := TypeOf(Address{Kind: Kind(99)})
	assert.True(t, errors.Is(err, ErrUnknownAddress))
}

func TestCollectionOf(t *testing.T) {
	assert.Equal(t, Weather(), CollectionOf(WeatherForLocationDate("94043", 1)))
	assert.Equal(t, Weather(), CollectionOf(WeatherForLocation("94043")))
	assert.Equal(t, Locations(), CollectionOf(LocationByID(9)))
}

func TestNormalizeDate_Idempotent(t *testing.T) {
	for _, sec := range []int64{0, 1, 86399, 86400, 1461766000, -1, -86401} {
		once := NormalizeDateSeconds(sec)
		assert.Equal(t, once, NormalizeDateSeconds(once), "sec=%d", sec)
		assert.Zero(t, floorMod(once, secondsPerDay))
	}
}

func TestNormalizeDate_SameDayInvariant(t *testing.T) {
	day := int64(1461715200) // 2016-04-27T00:00:00Z
	for _, offset := range []int64{0, 1, 3600, 43200, 86399} {
		assert.Equal(t, day, NormalizeDateSeconds(day+offset))
	}
	assert.Equal(t, day+secondsPerDay, NormalizeDateSeconds(day+secondsPerDay))

	ms := day * 1000
	for _, offset := range []int64{0, 999, 3_600_000, 86_399_999} {
		assert.Equal(t, ms, NormalizeDateMillis(ms+offset))
	}
}

func TestToSeconds(t *testing.T) {
	assert.Equal(t, int64(1461766000), ToSeconds(1461766000))
	assert.Equal(t, int64(1461766000), ToSeconds(1461766000123))
	assert.Equal(t, int64(0), ToSeconds(0))
}

func TestWeatherValues_CarriesAllRequiredColumns(t *testing.T) {
	v := WeatherValues(model.ForecastDay{
		LocationID: 1, Date: 1461715200000, ConditionID: 800,
		Description: "clear", MinTemp: 11, MaxTemp: 31,
		Humidity: 40, Pressure: 1012, WindSpeed: 3.1, WindDegrees: 280,
	})
	for _, col := range WeatherRequired {
		_, ok := v[col]
		assert.True(t, ok, col)
	}

	loc := LocationValues("94043", "Mountain View", 37.4, -122.1)
	for _, col := range LocationRequired {
		_, ok := loc[col]
		assert.True(t, ok, col)
	}
}
