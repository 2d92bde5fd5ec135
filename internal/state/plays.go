package state

import (
	"context"
	"time"

	"github.com/llehouerou/ripple/internal/playlist"
)

// RecordPlayEvent appends a play of t to the history.
func (m *Manager) RecordPlayEvent(ctx context.Context, t playlist.Track) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO play_events (track_id, path, played_at) VALUES (?, ?, ?)
	`, t.ID, t.Path, time.Now().Unix())
	return err
}

// PlayCount returns how many plays were recorded for a track.
func (m *Manager) PlayCount(ctx context.Context, trackID int64) (int, error) {
	var n int
	err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM play_events WHERE track_id = ?`, trackID).Scan(&n)
	return n, err
}
