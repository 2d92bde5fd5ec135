// Package library indexes local music files into the state database and
// serves the sorted track list the playback queue is built from.
package library

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	dbutil "github.com/llehouerou/ripple/internal/db"
	"github.com/llehouerou/ripple/internal/playlist"
)

// ErrTrackNotFound is returned by lookups of unknown tracks.
var ErrTrackNotFound = errors.New("track not found in library")

type Track struct {
	ID          int64
	Path        string
	Mtime       int64
	Artist      string
	Album       string
	Title       string
	DiscNumber  int
	TrackNumber int
	ArtPath     string
	Duration    time.Duration
	AddedAt     time.Time
}

// Playable converts t to the queue's track type.
func (t Track) Playable() playlist.Track {
	return playlist.Track{
		ID:        t.ID,
		Path:      t.Path,
		Title:     t.Title,
		Artist:    t.Artist,
		Album:     t.Album,
		ArtPath:   t.ArtPath,
		Duration:  t.Duration,
		DateAdded: t.AddedAt,
	}
}

type Library struct {
	db      *sql.DB
	logger  *log.Logger
	workers int
}

func New(db *sql.DB, logger *log.Logger) *Library {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Library{db: db, logger: logger, workers: numWorkers}
}

const trackColumns = `id, path, mtime, artist, album, title, disc_number, track_number, art_path, duration_ms, added_at`

// SortedTracks returns every track ordered by artist, album, disc, track
// number and title.
func (l *Library) SortedTracks(ctx context.Context) ([]playlist.Track, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT `+trackColumns+`
		FROM library_tracks
		ORDER BY artist COLLATE NOCASE, album COLLATE NOCASE,
			disc_number, track_number, title COLLATE NOCASE, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks := make([]playlist.Track, 0)
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t.Playable())
	}
	return tracks, rows.Err()
}

// TrackByID returns a track by its ID.
func (l *Library) TrackByID(ctx context.Context, id int64) (*Track, error) {
	row := l.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM library_tracks WHERE id = ?`, id)
	return scanOne(row)
}

// TrackByPath returns a track by its file path.
func (l *Library) TrackByPath(ctx context.Context, path string) (*Track, error) {
	row := l.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM library_tracks WHERE path = ?`, path)
	return scanOne(row)
}

func (l *Library) TrackCount(ctx context.Context) (int, error) {
	var count int
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM library_tracks`).Scan(&count)
	return count, err
}

// PurgeTrack drops a track that can no longer be played. Purging an
// unknown id is not an error.
func (l *Library) PurgeTrack(ctx context.Context, id int64) error {
	res, err := l.db.ExecContext(ctx, `DELETE FROM library_tracks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		l.logger.Info("purged track", "id", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrack(row rowScanner) (Track, error) {
	var t Track
	var disc, trackNum sql.NullInt64
	var artPath sql.NullString
	var durationMs, addedAt int64
	if err := row.Scan(&t.ID, &t.Path, &t.Mtime, &t.Artist, &t.Album, &t.Title,
		&disc, &trackNum, &artPath, &durationMs, &addedAt); err != nil {
		return Track{}, err
	}
	t.DiscNumber = int(dbutil.NullInt64Value(disc))
	t.TrackNumber = int(dbutil.NullInt64Value(trackNum))
	t.ArtPath = dbutil.NullStringValue(artPath)
	t.Duration = time.Duration(durationMs) * time.Millisecond
	t.AddedAt = time.Unix(addedAt, 0)
	return t, nil
}

func scanOne(row *sql.Row) (*Track, error) {
	t, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTrackNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
