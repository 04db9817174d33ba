package model

// Location is a place the user has asked for forecasts for, keyed by the
// opaque setting string (typically a postal code) supplied in preferences.
type Location struct {
	ID        int64   `json:"id"`
	Setting   string  `json:"location_setting"`
	CityName  string  `json:"city_name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ForecastDay is one cached day of forecast data for a location. Date is the
// start of the calendar day (UTC) in milliseconds since the epoch.
type ForecastDay struct {
	ID          int64   `json:"id"`
	LocationID  int64   `json:"location_id"`
	Date        int64   `json:"date"`
	ConditionID int     `json:"condition_id"`
	Description string  `json:"description"`
	MinTemp     float64 `json:"min_temp"`
	MaxTemp     float64 `json:"max_temp"`
	Humidity    float64 `json:"humidity"`
	Pressure    float64 `json:"pressure"`
	WindSpeed   float64 `json:"wind_speed"`
	WindDegrees float64 `json:"wind_degrees"`
}

// ForecastRow is a forecast day joined with its location, as returned by
// weather queries. The join spares callers a second lookup when they need
// location attributes alongside forecast attributes.
type ForecastRow struct {
	ForecastDay
	LocationSetting string  `json:"location_setting"`
	CityName        string  `json:"city_name"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
}
