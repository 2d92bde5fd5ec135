package state

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
)

const prefRepeatMode = "repeat_mode"

// SaveRepeatMode stores the repeat preference.
func (m *Manager) SaveRepeatMode(ctx context.Context, mode int) error {
	return m.setPreference(ctx, prefRepeatMode, strconv.Itoa(mode))
}

// RepeatMode returns the saved repeat preference, 0 when unset.
func (m *Manager) RepeatMode(ctx context.Context) (int, error) {
	v, ok, err := m.preference(ctx, prefRepeatMode)
	if err != nil || !ok {
		return 0, err
	}
	return strconv.Atoi(v)
}

func (m *Manager) setPreference(ctx context.Context, key, value string) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func (m *Manager) preference(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := m.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}
