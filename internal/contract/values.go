package contract

import "github.com/skycast-labs/forecast-cli/internal/model"

// Column names of the location table.
const (
	ColLocationSetting = "location_setting"
	ColCityName        = "city_name"
	ColCoordLat        = "coord_lat"
	ColCoordLong       = "coord_long"
)

// Column names of the weather table.
const (
	ColLocKey    = "location_id"
	ColDate      = "date"
	ColWeatherID = "weather_id"
	ColShortDesc = "short_desc"
	ColMinTemp   = "min_temp"
	ColMaxTemp   = "max_temp"
	ColHumidity  = "humidity"
	ColPressure  = "pressure"
	ColWindSpeed = "wind"
	ColDegrees   = "degrees"
)

// LocationRequired lists the columns a location write row is expected to
// carry.
var LocationRequired = []string{
	ColLocationSetting, ColCityName, ColCoordLat, ColCoordLong,
}

// WeatherRequired lists the columns a weather write row is expected to carry.
var WeatherRequired = []string{
	ColLocKey, ColDate, ColWeatherID, ColShortDesc,
	ColMinTemp, ColMaxTemp, ColHumidity, ColPressure,
	ColWindSpeed, ColDegrees,
}

// Values is a write row keyed by column name. Missing keys are flagged but
// not rejected by the data layer, matching the lenient legacy contract.
type Values map[string]any

// LocationValues builds a location write row.
func LocationValues(setting, cityName string, lat, lon float64) Values {
	return Values{
		ColLocationSetting: setting,
		ColCityName:        cityName,
		ColCoordLat:        lat,
		ColCoordLong:       lon,
	}
}

// WeatherValues builds a weather write row from a ForecastDay. Date may be
// in seconds or milliseconds; the data layer converts and normalizes it.
func WeatherValues(d model.ForecastDay) Values {
	return Values{
		ColLocKey:    d.LocationID,
		ColDate:      d.Date,
		ColWeatherID: d.ConditionID,
		ColShortDesc: d.Description,
		ColMinTemp:   d.MinTemp,
		ColMaxTemp:   d.MaxTemp,
		ColHumidity:  d.Humidity,
		ColPressure:  d.Pressure,
		ColWindSpeed: d.WindSpeed,
		ColDegrees:   d.WindDegrees,
	}
}

// Int64 reads an integer-valued column, converting from the numeric types a
// Values row may carry.
func (v Values) Int64(col string) (int64, bool) {
	switch x := v[col].(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	}
	return 0, false
}
