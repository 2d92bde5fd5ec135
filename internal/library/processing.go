package library

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dhowden/tag"

	dbutil "github.com/llehouerou/ripple/internal/db"
	"github.com/llehouerou/ripple/internal/player"
)

const (
	unknownArtist = "Unknown Artist"
	unknownAlbum  = "Unknown Album"
)

// trackInfo is the metadata read from a music file.
type trackInfo struct {
	Title    string
	Artist   string
	Album    string
	Disc     int
	Track    int
	ArtPath  string
	Duration time.Duration
}

// executor is satisfied by *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// readTrackInfo reads tags and stream length. Files with unreadable tags
// are still indexed under their file name.
func readTrackInfo(path string) trackInfo {
	info := trackInfo{
		Title:  strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Artist: unknownArtist,
		Album:  unknownAlbum,
	}

	if f, err := os.Open(path); err == nil {
		if m, err := tag.ReadFrom(f); err == nil {
			if m.Title() != "" {
				info.Title = m.Title()
			}
			artist := m.AlbumArtist()
			if artist == "" {
				artist = m.Artist()
			}
			if artist != "" {
				info.Artist = artist
			}
			if m.Album() != "" {
				info.Album = m.Album()
			}
			info.Track, _ = m.Track()
			info.Disc, _ = m.Disc()
		}
		f.Close()
	}

	if d, err := player.ProbeDuration(path); err == nil {
		info.Duration = d
	}
	info.ArtPath = FindAlbumArt(path)
	return info
}

// processFiles reads files in parallel and writes them to the database
// from a single goroutine.
func (l *Library) processFiles(
	ctx context.Context,
	files []fileInfo,
	isNew map[string]bool,
	stats *ScanStats,
	report func(ScanProgress),
) error {
	total := len(files)
	var processed atomic.Int64

	workCh := make(chan fileInfo)
	resultCh := make(chan trackResult)

	var wg sync.WaitGroup
	for range max(1, l.workers) {
		wg.Go(func() {
			for f := range workCh {
				r := trackResult{file: f, info: readTrackInfo(f.path), isNew: isNew[f.path]}
				processed.Add(1)
				select {
				case resultCh <- r:
				case <-ctx.Done():
				}
			}
		})
	}

	go func() {
		defer close(workCh)
		for _, f := range files {
			select {
			case workCh <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	now := time.Now().Unix()
	last := time.Now()
	for r := range resultCh {
		if ctx.Err() != nil {
			continue
		}
		if err := upsertTrack(ctx, l.db, r.file, r.info, now); err != nil {
			l.logger.Warn("index track", "path", r.file.path, "err", err)
			continue
		}
		if s, ok := stats.BySource[r.file.source]; ok {
			rel := relativePath(r.file.source, r.file.path)
			if r.isNew {
				s.Added = append(s.Added, rel)
			} else {
				s.Updated = append(s.Updated, rel)
			}
		}
		if time.Since(last) >= 100*time.Millisecond {
			last = time.Now()
			report(ScanProgress{
				Phase:       "processing",
				Current:     int(processed.Load()),
				Total:       total,
				CurrentFile: r.file.path,
			})
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	report(ScanProgress{Phase: "processing", Current: total, Total: total})
	return nil
}

// existingTracks returns a map of path->mtime for all tracks in the given sources.
func (l *Library) existingTracks(ctx context.Context, sources []string) (map[string]int64, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT path, mtime FROM library_tracks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks := make(map[string]int64)
	for rows.Next() {
		var path string
		var mtime int64
		if err := rows.Scan(&path, &mtime); err != nil {
			return nil, err
		}
		for _, src := range sources {
			if strings.HasPrefix(path, src) {
				tracks[path] = mtime
				break
			}
		}
	}
	return tracks, rows.Err()
}

// upsertTrack inserts or updates a track. New tracks use the file mtime as
// added_at so the date survives copies.
func upsertTrack(ctx context.Context, ex executor, f fileInfo, info trackInfo, now int64) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO library_tracks (path, mtime, artist, album, title, disc_number, track_number, art_path, duration_ms, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			mtime = excluded.mtime,
			artist = excluded.artist,
			album = excluded.album,
			title = excluded.title,
			disc_number = excluded.disc_number,
			track_number = excluded.track_number,
			art_path = excluded.art_path,
			duration_ms = excluded.duration_ms,
			updated_at = excluded.updated_at
	`, f.path, f.mtime, info.Artist, info.Album, info.Title,
		nullInt(info.Disc), nullInt(info.Track), nullString(info.ArtPath), info.Duration.Milliseconds(), f.mtime, now)
	return err
}

func nullInt(n int) sql.NullInt64 {
	if n <= 0 {
		return sql.NullInt64{}
	}
	v := int64(n)
	return dbutil.PtrToNullInt64(&v)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// deleteTrackByPath removes a track from the library by its path.
func (l *Library) deleteTrackByPath(ctx context.Context, path string) error {
	_, err := l.db.ExecContext(ctx, `DELETE FROM library_tracks WHERE path = ?`, path)
	return err
}

// AddFile indexes a single file, as the watcher does for new files.
func (l *Library) AddFile(ctx context.Context, path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	f := fileInfo{path: path, mtime: st.ModTime().Unix()}
	return dbutil.WithTxContext(ctx, l.db, func(tx *sql.Tx) error {
		return upsertTrack(ctx, tx, f, readTrackInfo(path), time.Now().Unix())
	})
}
