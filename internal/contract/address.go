// Package contract defines the forecast cache's data contract: the two
// addressable resource families (weather, location), the address grammar used
// to refer to collections, filtered subsets and single items, the canonical
// calendar-day normalization, and the column vocabulary shared by the store
// and the data-access layer.
package contract

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Kind identifies which address pattern an Address matched.
type Kind int

const (
	// KindWeather addresses the whole weather table: "weather".
	KindWeather Kind = iota
	// KindWeatherLocation addresses all forecast days for one location
	// setting, optionally bounded below by a start date carried as the
	// "start" query parameter: "weather/{locationSetting}[?start={sec}]".
	KindWeatherLocation
	// KindWeatherLocationDate addresses the single forecast day for a
	// location setting and exact date: "weather/{locationSetting}/{sec}".
	KindWeatherLocationDate
	// KindLocation addresses the whole location table: "location".
	KindLocation
	// KindLocationID addresses a single location row: "location/{id}".
	KindLocationID
)

// MIME type strings returned by TypeOf, matching the legacy provider contract.
const (
	TypeWeatherDir  = "x-weather"
	TypeWeatherItem = "x-weather/x-location-date"
	TypeLocation    = "location"
)

// Path roots of the two resource families.
const (
	PathWeather  = "weather"
	PathLocation = "location"
)

// ErrUnknownAddress reports an address string that matches no recognized
// pattern. It is a caller bug and is never retried.
var ErrUnknownAddress = eris.New("unknown address")

// Address is a parsed reference to a cache resource. The zero value is not
// valid; build one with the constructors or Parse.
type Address struct {
	Kind            Kind
	LocationSetting string
	// DateSec is the exact-date segment in seconds for
	// KindWeatherLocationDate, unnormalized as given by the caller.
	DateSec int64
	// StartDateSec is the optional minimum-date bound for
	// KindWeatherLocation; zero means unbounded.
	StartDateSec int64
	// RowID is the location row id for KindLocationID, or the row id a
	// write reported back for item addresses built by the data layer.
	RowID int64
}

// Weather returns the weather collection address.
func Weather() Address { return Address{Kind: KindWeather} }

// WeatherForLocation returns the address of all forecast days for the given
// location setting.
func WeatherForLocation(setting string) Address {
	return Address{Kind: KindWeatherLocation, LocationSetting: setting}
}

// WeatherForLocationFrom returns the address of forecast days for the given
// location setting with date >= startSec. The bound is normalized to the
// start of its calendar day so callers may pass any time-of-day.
func WeatherForLocationFrom(setting string, startSec int64) Address {
	return Address{
		Kind:            KindWeatherLocation,
		LocationSetting: setting,
		StartDateSec:    NormalizeDateSeconds(startSec),
	}
}

// WeatherForLocationDate returns the item address for the forecast day of the
// given location setting containing the instant dateSec.
func WeatherForLocationDate(setting string, dateSec int64) Address {
	return Address{Kind: KindWeatherLocationDate, LocationSetting: setting, DateSec: dateSec}
}

// Locations returns the location collection address.
func Locations() Address { return Address{Kind: KindLocation} }

// LocationByID returns the address of a single location row.
func LocationByID(id int64) Address {
	return Address{Kind: KindLocationID, RowID: id}
}

// Parse resolves an address string against the grammar:
//
//	weather
//	weather/{locationSetting}[?start={seconds}]
//	weather/{locationSetting}/{dateInSeconds}
//	location
//	location/{rowId}
//
// Anything else returns ErrUnknownAddress. Matching is positional and
// case-sensitive, like the legacy URI matcher.
func Parse(s string) (Address, error) {
	path := s
	var query string
	if i := strings.IndexByte(s, '?'); i >= 0 {
		path, query = s[:i], s[i+1:]
	}
	path = strings.Trim(path, "/")
	segs := strings.Split(path, "/")

	switch segs[0] {
	case PathWeather:
		switch len(segs) {
		case 1:
			return Weather(), nil
		case 2:
			if segs[1] == "" {
				return Address{}, wrapUnknown(s)
			}
			addr := WeatherForLocation(segs[1])
			if query != "" {
				vals, err := url.ParseQuery(query)
				if err != nil {
					return Address{}, wrapUnknown(s)
				}
				if raw := vals.Get("start"); raw != "" {
					start, err := strconv.ParseInt(raw, 10, 64)
					if err != nil {
						return Address{}, wrapUnknown(s)
					}
					addr.StartDateSec = NormalizeDateSeconds(start)
				}
			}
			return addr, nil
		case 3:
			sec, err := strconv.ParseInt(segs[2], 10, 64)
			if err != nil || segs[1] == "" {
				return Address{}, wrapUnknown(s)
			}
			return WeatherForLocationDate(segs[1], sec), nil
		}
	case PathLocation:
		switch len(segs) {
		case 1:
			return Locations(), nil
		case 2:
			id, err := strconv.ParseInt(segs[1], 10, 64)
			if err != nil {
				return Address{}, wrapUnknown(s)
			}
			return LocationByID(id), nil
		}
	}
	return Address{}, wrapUnknown(s)
}

func wrapUnknown(s string) error {
	return eris.Wrapf(ErrUnknownAddress, "contract: parse %q", s)
}

// TypeOf maps an address to its MIME type string. Collection and filtered
// addresses map to the directory type of their family; the exact-date
// weather address is the only item type.
func TypeOf(a Address) (string, error) {
	switch a.Kind {
	case KindWeather, KindWeatherLocation:
		return TypeWeatherDir, nil
	case KindWeatherLocationDate:
		return TypeWeatherItem, nil
	case KindLocation, KindLocationID:
		return TypeLocation, nil
	}
	return "", eris.Wrapf(ErrUnknownAddress, "contract: type of kind %d", a.Kind)
}

// String renders the address back into its path form.
func (a Address) String() string {
	switch a.Kind {
	case KindWeather:
		return PathWeather
	case KindWeatherLocation:
		if a.StartDateSec != 0 {
			return fmt.Sprintf("%s/%s?start=%d", PathWeather, a.LocationSetting, a.StartDateSec)
		}
		return PathWeather + "/" + a.LocationSetting
	case KindWeatherLocationDate:
		return fmt.Sprintf("%s/%s/%d", PathWeather, a.LocationSetting, a.DateSec)
	case KindLocation:
		return PathLocation
	case KindLocationID:
		return fmt.Sprintf("%s/%d", PathLocation, a.RowID)
	}
	return ""
}

// CollectionOf returns the collection address of a's family. Change
// notifications are published at the collection address so that
// collection-level watchers wake on item writes.
func CollectionOf(a Address) Address {
	switch a.Kind {
	case KindWeather, KindWeatherLocation, KindWeatherLocationDate:
		return Weather()
	default:
		return Locations()
	}
}
