package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/rotisserie/eris"
)

// Pref keys for runtime state the sync path needs to persist between runs.
const (
	PrefLastNotification = "last_notification"
)

// GetPref returns the stored value for key, or "" if it has never been set.
func (s *SQLiteStore) GetPref(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM prefs WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", eris.Wrapf(err, "store: get pref %s", key)
	}
	return value, nil
}

// SetPref stores value under key, replacing any previous value.
func (s *SQLiteStore) SetPref(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO prefs (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	return eris.Wrapf(err, "store: set pref %s", key)
}

// GetPrefInt64 reads an integer pref, returning 0 when unset.
func (s *SQLiteStore) GetPrefInt64(ctx context.Context, key string) (int64, error) {
	raw, err := s.GetPref(ctx, key)
	if err != nil || raw == "" {
		return 0, err
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "store: pref %s is not an integer", key)
	}
	return n, nil
}

// SetPrefInt64 stores an integer pref.
func (s *SQLiteStore) SetPrefInt64(ctx context.Context, key string, value int64) error {
	return s.SetPref(ctx, key, strconv.FormatInt(value, 10))
}
