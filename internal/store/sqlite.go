// Package store owns the on-disk forecast cache: schema creation and
// versioning for the location and weather tables plus a small prefs table
// for runtime state. Everything above it goes through the provider package;
// nothing else touches these tables directly.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// schemaVersion is persisted via PRAGMA user_version. Any mismatch drops and
// recreates the tables: this is a cache, not a system of record, so data
// loss on upgrade is expected.
const schemaVersion = 2

// SQLiteStore implements the forecast cache on modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and configures WAL
// mode. Callers must Migrate before use.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const createTables = `
CREATE TABLE IF NOT EXISTS location (
	_id              INTEGER PRIMARY KEY AUTOINCREMENT,
	location_setting TEXT UNIQUE NOT NULL,
	city_name        TEXT NOT NULL DEFAULT '',
	coord_lat        REAL NOT NULL DEFAULT 0,
	coord_long       REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS weather (
	_id         INTEGER PRIMARY KEY AUTOINCREMENT,
	location_id INTEGER NOT NULL REFERENCES location(_id),
	date        INTEGER NOT NULL,
	weather_id  INTEGER NOT NULL DEFAULT 0,
	short_desc  TEXT NOT NULL DEFAULT '',
	min_temp    REAL NOT NULL DEFAULT 0,
	max_temp    REAL NOT NULL DEFAULT 0,
	humidity    REAL NOT NULL DEFAULT 0,
	pressure    REAL NOT NULL DEFAULT 0,
	wind        REAL NOT NULL DEFAULT 0,
	degrees     REAL NOT NULL DEFAULT 0,
	UNIQUE (date, location_id) ON CONFLICT REPLACE
);

CREATE TABLE IF NOT EXISTS prefs (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_weather_location_date ON weather(location_id, date);
`

// Migrate brings the schema to the current version. On a version mismatch
// the upgrade policy is destructive: drop both tables and recreate.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return eris.Wrap(err, "store: read user_version")
	}

	if version != 0 && version != schemaVersion {
		for _, table := range []string{"weather", "location", "prefs"} {
			if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
				return eris.Wrapf(err, "store: drop %s", table)
			}
		}
	}

	if _, err := s.db.ExecContext(ctx, createTables); err != nil {
		return eris.Wrap(err, "store: create tables")
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return eris.Wrap(err, "store: set user_version")
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Insert writes one row into table from a column->value map and returns the
// generated row id. Constraint handling is the table's business: the weather
// table's (date, location_id) key replaces on conflict, anything else
// surfaces as an error.
func (s *SQLiteStore) Insert(ctx context.Context, table string, values map[string]any) (int64, error) {
	if len(values) == 0 {
		return 0, eris.Errorf("store: insert into %s with no values", table)
	}

	cols := make([]string, 0, len(values))
	for col := range values {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	args := make([]any, 0, len(cols))
	for _, col := range cols {
		args = append(args, values[col])
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(cols, ", "),
		placeholders(len(cols)),
	)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, eris.Wrapf(err, "store: insert into %s", table)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrapf(err, "store: last insert id for %s", table)
	}
	return id, nil
}

// InsertBatch writes rows into table inside one transaction so concurrent
// readers see either none or all of the batch. It returns the number of rows
// that actually got an id; a failed row does not abort the rest.
func (s *SQLiteStore) InsertBatch(ctx context.Context, table string, rows []map[string]any) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "store: begin batch")
	}
	defer tx.Rollback()

	count := 0
	for _, values := range rows {
		cols := make([]string, 0, len(values))
		for col := range values {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		args := make([]any, 0, len(cols))
		for _, col := range cols {
			args = append(args, values[col])
		}
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(cols, ", "), placeholders(len(cols)))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			continue
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "store: commit batch")
	}
	return count, nil
}

// Delete removes rows matching where from table and returns the count. An
// empty where deletes every row; "WHERE 1" is used instead of a bare DELETE
// so the driver still reports an accurate count.
func (s *SQLiteStore) Delete(ctx context.Context, table, where string, args ...any) (int64, error) {
	clause := where
	if clause == "" {
		clause = "1"
	}
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE %s", table, clause), args...)
	if err != nil {
		return 0, eris.Wrapf(err, "store: delete from %s", table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrapf(err, "store: rows deleted from %s", table)
	}
	return n, nil
}

// Update applies the column->value assignments to rows matching where and
// returns the count. Empty where updates every row.
func (s *SQLiteStore) Update(ctx context.Context, table string, values map[string]any, where string, args ...any) (int64, error) {
	if len(values) == 0 {
		return 0, eris.Errorf("store: update %s with no values", table)
	}

	cols := make([]string, 0, len(values))
	for col := range values {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols))
	setArgs := make([]any, 0, len(cols)+len(args))
	for _, col := range cols {
		sets = append(sets, col+" = ?")
		setArgs = append(setArgs, values[col])
	}
	setArgs = append(setArgs, args...)

	clause := where
	if clause == "" {
		clause = "1"
	}
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(sets, ", "), clause),
		setArgs...)
	if err != nil {
		return 0, eris.Wrapf(err, "store: update %s", table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrapf(err, "store: rows updated in %s", table)
	}
	return n, nil
}

// Query runs a SELECT and hands the rows to the caller. It exists so the
// provider package can own SQL shape (joins, projections) without owning the
// connection.
func (s *SQLiteStore) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: query")
	}
	return rows, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
