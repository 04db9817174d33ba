// Package display holds the presentation mappings over cached forecast
// rows: temperature/wind formatting, friendly day names, and the condition
// code to icon name mapping. These are simple functions over the data
// layer's output and carry no state.
package display

import (
	"fmt"
	"time"

	"github.com/skycast-labs/forecast-cli/internal/contract"
)

// FormatTemperature renders a cached Celsius temperature for display,
// converting to Fahrenheit when metric is false.
func FormatTemperature(celsius float64, metric bool) string {
	temp := celsius
	if !metric {
		temp = celsius*9/5 + 32
	}
	return fmt.Sprintf("%.0f°", temp)
}

// FormatWind renders speed (stored in km/h) and direction for display.
func FormatWind(speedKmh, degrees float64, metric bool) string {
	speed := speedKmh
	unit := "km/h"
	if !metric {
		speed = speedKmh * 0.621371
		unit = "mph"
	}
	return fmt.Sprintf("Wind: %.0f %s %s", speed, unit, CompassDirection(degrees))
}

// CompassDirection maps wind degrees to a compass point.
func CompassDirection(degrees float64) string {
	dirs := []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	idx := int((degrees+22.5)/45) % len(dirs)
	if idx < 0 {
		idx += len(dirs)
	}
	return dirs[idx]
}

// FriendlyDay names a forecast day relative to now: "Today, June 8" for
// today, "Tomorrow", the weekday name for the rest of the week, and
// "Mon Jun 8" beyond that. Both timestamps are milliseconds.
func FriendlyDay(dateMs, nowMs int64) string {
	day := contract.NormalizeDateMillis(dateMs)
	today := contract.NormalizeDateMillis(nowMs)
	t := time.UnixMilli(day).UTC()

	switch diff := (day - today) / (24 * 60 * 60 * 1000); {
	case diff == 0:
		return "Today, " + t.Format("January 2")
	case diff == 1:
		return "Tomorrow"
	case diff > 1 && diff < 7:
		return t.Format("Monday")
	default:
		return t.Format("Mon Jan 2")
	}
}

// IconForCondition maps an OpenWeatherMap condition code to the icon name
// the UI layers key their assets on. Unknown codes return "".
func IconForCondition(conditionID int) string {
	switch {
	case conditionID >= 200 && conditionID <= 232:
		return "storm"
	case conditionID >= 300 && conditionID <= 321:
		return "light_rain"
	case conditionID >= 500 && conditionID <= 504:
		return "rain"
	case conditionID == 511:
		return "snow"
	case conditionID >= 520 && conditionID <= 531:
		return "rain"
	case conditionID >= 600 && conditionID <= 622:
		return "snow"
	case conditionID >= 701 && conditionID <= 761:
		return "fog"
	case conditionID == 781:
		return "storm"
	case conditionID == 800:
		return "clear"
	case conditionID == 801:
		return "light_clouds"
	case conditionID >= 802 && conditionID <= 804:
		return "clouds"
	}
	return ""
}
