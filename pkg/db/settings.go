package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const pairedKey = "bt_paired"

// Setting returns the value stored under key, or ("", false, nil) when the
// key has never been written.
func (db *DB) Setting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %q: %w", key, err)
	}
	return value, true, nil
}

// SetSetting upserts a key/value pair.
func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write setting %q: %w", key, err)
	}
	return nil
}

// Paired reports whether the soundbar bond has been recorded. An absent key
// means not paired.
func (db *DB) Paired(ctx context.Context) (bool, error) {
	value, ok, err := db.Setting(ctx, pairedKey)
	if err != nil {
		return false, err
	}
	return ok && value == "1", nil
}

// SetPaired records or clears the bonding flag.
func (db *DB) SetPaired(ctx context.Context, paired bool) error {
	value := "0"
	if paired {
		value = "1"
	}
	return db.SetSetting(ctx, pairedKey, value)
}
