package state

import (
	"context"
	"database/sql"
	"errors"
	"time"

	dbutil "github.com/llehouerou/ripple/internal/db"
)

// PlaybackSnapshot is what survives a restart: the queue as track ids, the
// current track and its position, and the play modes.
type PlaybackSnapshot struct {
	TrackID  *int64
	Position time.Duration
	QueueIDs []int64
	Repeat   int
	Shuffle  bool
}

// LoadPlayback returns the saved snapshot, or an empty one when nothing
// was saved yet.
func (m *Manager) LoadPlayback(ctx context.Context) (PlaybackSnapshot, error) {
	var snap PlaybackSnapshot
	var trackID sql.NullInt64
	var positionMs int64

	row := m.db.QueryRowContext(ctx, `
		SELECT track_id, position_ms, repeat_mode, shuffle FROM playback_state WHERE id = 1
	`)
	err := row.Scan(&trackID, &positionMs, &snap.Repeat, &snap.Shuffle)
	if errors.Is(err, sql.ErrNoRows) {
		return PlaybackSnapshot{}, nil
	}
	if err != nil {
		return PlaybackSnapshot{}, err
	}
	snap.TrackID = dbutil.NullInt64ToPtr(trackID)
	snap.Position = time.Duration(positionMs) * time.Millisecond

	rows, err := m.db.QueryContext(ctx, `SELECT track_id FROM playback_queue ORDER BY position`)
	if err != nil {
		return PlaybackSnapshot{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return PlaybackSnapshot{}, err
		}
		snap.QueueIDs = append(snap.QueueIDs, id)
	}
	return snap, rows.Err()
}

// SavePlayback replaces the saved snapshot.
func (m *Manager) SavePlayback(ctx context.Context, snap PlaybackSnapshot) error {
	return dbutil.WithTxContext(ctx, m.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO playback_state (id, track_id, position_ms, repeat_mode, shuffle, saved_at)
			VALUES (1, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				track_id = excluded.track_id,
				position_ms = excluded.position_ms,
				repeat_mode = excluded.repeat_mode,
				shuffle = excluded.shuffle,
				saved_at = excluded.saved_at
		`, dbutil.PtrToNullInt64(snap.TrackID), snap.Position.Milliseconds(),
			snap.Repeat, snap.Shuffle, time.Now().Unix())
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM playback_queue`); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO playback_queue (position, track_id) VALUES (?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, id := range snap.QueueIDs {
			if _, err := stmt.ExecContext(ctx, i, id); err != nil {
				return err
			}
		}
		return nil
	})
}
