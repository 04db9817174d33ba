// Package provider is the data-access layer over the forecast cache. It
// resolves addresses (see contract) into queries and writes against the
// store, enforces the lenient validation and date-normalization rules, and
// publishes change events to registered observers after every mutation.
//
// Reads may run concurrently; mutating calls are serialized so a
// delete-then-bulk-insert sync cycle is never interleaved with another
// writer observing a partially cleared table.
package provider

import (
	"context"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/skycast-labs/forecast-cli/internal/contract"
	"github.com/skycast-labs/forecast-cli/internal/model"
	"github.com/skycast-labs/forecast-cli/internal/store"
)

// Query carries caller-supplied filtering on top of whatever filter the
// address itself implies. Where is a SQL fragment with ? placeholders.
type Query struct {
	Where   string
	Args    []any
	OrderBy string
}

// Provider is the façade all collaborators go through. It is long-lived;
// construct one at startup and pass it by reference.
type Provider struct {
	store *store.SQLiteStore

	// writeMu serializes mutating verbs. Readers go straight to the pool.
	writeMu sync.Mutex

	obsMu     sync.RWMutex
	observers map[string]*Subscription
}

// New wraps an opened, migrated store.
func New(st *store.SQLiteStore) *Provider {
	return &Provider{
		store:     st,
		observers: make(map[string]*Subscription),
	}
}

// TypeOf reports the MIME type string for an address, rejecting unknown
// address kinds.
func (p *Provider) TypeOf(addr contract.Address) (string, error) {
	return contract.TypeOf(addr)
}

const forecastColumns = `weather._id, weather.location_id, weather.date, weather.weather_id,
	weather.short_desc, weather.min_temp, weather.max_temp, weather.humidity,
	weather.pressure, weather.wind, weather.degrees,
	location.location_setting, location.city_name, location.coord_lat, location.coord_long`

const forecastJoin = `FROM weather INNER JOIN location ON weather.location_id = location._id`

// QueryWeather resolves a weather* address plus the caller's filter into
// joined forecast rows. Dates come back in milliseconds regardless of the
// coarser unit the store persists; the conversion happens here so every
// downstream consumer sees one unit. Location addresses are rejected.
func (p *Provider) QueryWeather(ctx context.Context, addr contract.Address, q Query) ([]model.ForecastRow, error) {
	where, args, err := weatherFilter(addr)
	if err != nil {
		return nil, err
	}
	if q.Where != "" {
		where = append(where, "("+q.Where+")")
		args = append(args, q.Args...)
	}

	sb := strings.Builder{}
	sb.WriteString("SELECT " + forecastColumns + "\n" + forecastJoin)
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	if q.OrderBy != "" {
		sb.WriteString(" ORDER BY " + q.OrderBy)
	}

	rows, err := p.store.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, eris.Wrapf(err, "provider: query %s", addr)
	}
	defer rows.Close()

	var out []model.ForecastRow
	for rows.Next() {
		var r model.ForecastRow
		if err := rows.Scan(
			&r.ID, &r.LocationID, &r.Date, &r.ConditionID,
			&r.Description, &r.MinTemp, &r.MaxTemp, &r.Humidity,
			&r.Pressure, &r.WindSpeed, &r.WindDegrees,
			&r.LocationSetting, &r.CityName, &r.Latitude, &r.Longitude,
		); err != nil {
			return nil, eris.Wrapf(err, "provider: scan %s", addr)
		}
		// The store keeps dates in seconds; milliseconds everywhere else.
		r.Date *= 1000
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "provider: rows %s", addr)
	}
	return out, nil
}

// QueryLocations resolves a location address plus the caller's filter into
// location rows. No join and no unit conversion apply here.
func (p *Provider) QueryLocations(ctx context.Context, addr contract.Address, q Query) ([]model.Location, error) {
	var where []string
	var args []any
	switch addr.Kind {
	case contract.KindLocation:
	case contract.KindLocationID:
		where = append(where, "_id = ?")
		args = append(args, addr.RowID)
	default:
		return nil, eris.Wrapf(contract.ErrUnknownAddress, "provider: query locations via %s", addr)
	}
	if q.Where != "" {
		where = append(where, "("+q.Where+")")
		args = append(args, q.Args...)
	}

	sb := strings.Builder{}
	sb.WriteString("SELECT _id, location_setting, city_name, coord_lat, coord_long FROM location")
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	if q.OrderBy != "" {
		sb.WriteString(" ORDER BY " + q.OrderBy)
	}

	rows, err := p.store.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, eris.Wrapf(err, "provider: query %s", addr)
	}
	defer rows.Close()

	var out []model.Location
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Setting, &l.CityName, &l.Latitude, &l.Longitude); err != nil {
			return nil, eris.Wrapf(err, "provider: scan %s", addr)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "provider: rows %s", addr)
	}
	return out, nil
}

func weatherFilter(addr contract.Address) ([]string, []any, error) {
	switch addr.Kind {
	case contract.KindWeather:
		return nil, nil, nil
	case contract.KindWeatherLocation:
		where := []string{"location.location_setting = ?"}
		args := []any{addr.LocationSetting}
		if addr.StartDateSec != 0 {
			where = append(where, "weather.date >= ?")
			args = append(args, addr.StartDateSec)
		}
		return where, args, nil
	case contract.KindWeatherLocationDate:
		// Exact-date lookups normalize the address date so callers may
		// pass any time-of-day.
		return []string{"location.location_setting = ?", "weather.date = ?"},
			[]any{addr.LocationSetting, contract.NormalizeDateSeconds(addr.DateSec)},
			nil
	}
	return nil, nil, eris.Wrapf(contract.ErrUnknownAddress, "provider: query weather via %s", addr)
}

// Insert writes one row at the given collection address and returns the
// address of the new item. Missing required columns are logged and the write
// proceeds; the store has the final word. A non-positive generated row id is
// a write failure.
func (p *Provider) Insert(ctx context.Context, addr contract.Address, values contract.Values) (contract.Address, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	item, err := p.insertLocked(ctx, addr, values)
	if err != nil {
		return contract.Address{}, err
	}
	p.publish(ChangeEvent{Address: contract.CollectionOf(addr), Kind: ChangeInsert, Rows: 1})
	return item, nil
}

func (p *Provider) insertLocked(ctx context.Context, addr contract.Address, values contract.Values) (contract.Address, error) {
	switch addr.Kind {
	case contract.KindWeather:
		validateValues(addr, values, contract.WeatherRequired)
		normalizeDateValue(values)
		id, err := p.store.Insert(ctx, "weather", values)
		if err != nil {
			return contract.Address{}, err
		}
		if id <= 0 {
			return contract.Address{}, eris.Errorf("provider: insert into %s returned row id %d", addr, id)
		}
		return p.weatherItemAddress(ctx, id, values), nil

	case contract.KindLocation:
		validateValues(addr, values, contract.LocationRequired)
		id, err := p.store.Insert(ctx, "location", values)
		if err != nil {
			return contract.Address{}, err
		}
		if id <= 0 {
			return contract.Address{}, eris.Errorf("provider: insert into %s returned row id %d", addr, id)
		}
		return contract.LocationByID(id), nil
	}
	return contract.Address{}, eris.Wrapf(contract.ErrUnknownAddress, "provider: insert into %s", addr)
}

// weatherItemAddress builds the item address for a freshly written weather
// row by resolving its location setting. Falls back to the collection
// address carrying the row id when the row is too incomplete to resolve.
func (p *Provider) weatherItemAddress(ctx context.Context, id int64, values contract.Values) contract.Address {
	locID, okLoc := values.Int64(contract.ColLocKey)
	dateSec, okDate := values.Int64(contract.ColDate)
	if okLoc && okDate {
		locs, err := p.QueryLocations(ctx, contract.LocationByID(locID), Query{})
		if err == nil && len(locs) == 1 {
			item := contract.WeatherForLocationDate(locs[0].Setting, dateSec)
			item.RowID = id
			return item
		}
	}
	fallback := contract.Weather()
	fallback.RowID = id
	return fallback
}

// BulkInsert writes a batch at the weather collection address inside one
// transaction and notifies observers once. Rows that fail to write are
// skipped; the returned count covers only rows that got an id. Any other
// collection address falls back to row-at-a-time Insert with individual
// notifications.
func (p *Provider) BulkInsert(ctx context.Context, addr contract.Address, rows []contract.Values) (int, error) {
	if addr.Kind != contract.KindWeather {
		if addr.Kind != contract.KindLocation {
			return 0, eris.Wrapf(contract.ErrUnknownAddress, "provider: bulk insert into %s", addr)
		}
		count := 0
		for _, values := range rows {
			if _, err := p.Insert(ctx, addr, values); err != nil {
				zap.L().Warn("bulk insert: row skipped",
					zap.String("address", addr.String()),
					zap.Error(err),
				)
				continue
			}
			count++
		}
		return count, nil
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	batch := make([]map[string]any, 0, len(rows))
	for _, values := range rows {
		validateValues(addr, values, contract.WeatherRequired)
		normalizeDateValue(values)
		batch = append(batch, values)
	}

	count, err := p.store.InsertBatch(ctx, "weather", batch)
	if err != nil {
		return 0, err
	}
	p.publish(ChangeEvent{Address: contract.Weather(), Kind: ChangeBulkInsert, Rows: int64(count)})
	return count, nil
}

// Delete removes rows at a collection address. A zero Query deletes the
// whole table and still reports an accurate count. Observers are notified
// when rows were removed, or unconditionally on a full clear.
func (p *Provider) Delete(ctx context.Context, addr contract.Address, q Query) (int64, error) {
	table, err := tableFor(addr)
	if err != nil {
		return 0, err
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	n, err := p.store.Delete(ctx, table, q.Where, q.Args...)
	if err != nil {
		return 0, err
	}
	if n > 0 || q.Where == "" {
		p.publish(ChangeEvent{Address: contract.CollectionOf(addr), Kind: ChangeDelete, Rows: n})
	}
	return n, nil
}

// Update applies values to rows at a collection address, same filter
// semantics as Delete. Observers are notified only on a positive count.
func (p *Provider) Update(ctx context.Context, addr contract.Address, values contract.Values, q Query) (int64, error) {
	table, err := tableFor(addr)
	if err != nil {
		return 0, err
	}
	if addr.Kind == contract.KindWeather {
		normalizeDateValue(values)
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	n, err := p.store.Update(ctx, table, values, q.Where, q.Args...)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		p.publish(ChangeEvent{Address: contract.CollectionOf(addr), Kind: ChangeUpdate, Rows: n})
	}
	return n, nil
}

func tableFor(addr contract.Address) (string, error) {
	switch addr.Kind {
	case contract.KindWeather:
		return "weather", nil
	case contract.KindLocation:
		return "location", nil
	}
	return "", eris.Wrapf(contract.ErrUnknownAddress, "provider: mutate via %s", addr)
}

// normalizeDateValue converts a write row's date to normalized seconds in
// place. Callers may supply seconds or milliseconds at any time-of-day; the
// store only ever holds day-aligned seconds.
func normalizeDateValue(values contract.Values) {
	ts, ok := values.Int64(contract.ColDate)
	if !ok {
		return
	}
	values[contract.ColDate] = contract.NormalizeDateSeconds(contract.ToSeconds(ts))
}

// validateValues logs a warning per missing required column and lets the
// write proceed. Writes are lenient; the store's constraints and defaults
// have the final word.
func validateValues(addr contract.Address, values contract.Values, required []string) {
	for _, col := range required {
		if _, ok := values[col]; !ok {
			zap.L().Warn("write row missing required column",
				zap.String("address", addr.String()),
				zap.String("column", col),
			)
		}
	}
}
