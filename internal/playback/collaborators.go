package playback

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/llehouerou/ripple/internal/playlist"
	"github.com/llehouerou/ripple/internal/state"
)

// Settings persists the session between runs.
type Settings interface {
	SavePlayback(ctx context.Context, snap state.PlaybackSnapshot) error
	SaveRepeatMode(ctx context.Context, mode int) error
}

// PlayRecorder is told once per play instance that a track counts as played.
type PlayRecorder interface {
	RecordPlayEvent(ctx context.Context, t playlist.Track) error
}

// LibraryPurger drops a track that failed to play from the library.
type LibraryPurger interface {
	PurgeTrack(ctx context.Context, id int64) error
}

// AccessChecker verifies that a track's file can be opened before the
// engine is asked to play it.
type AccessChecker interface {
	Check(ctx context.Context, path string) error
}

// Recorders fans a play event out to several recorders. All are called;
// the errors are joined.
type Recorders []PlayRecorder

func (r Recorders) RecordPlayEvent(ctx context.Context, t playlist.Track) error {
	var errs []error
	for _, rec := range r {
		if err := rec.RecordPlayEvent(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FileChecker checks the local filesystem.
type FileChecker struct{}

func (FileChecker) Check(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &AccessError{Path: path, Reason: "file not found"}
	case errors.Is(err, fs.ErrPermission):
		return &AccessError{Path: path, Reason: "permission denied"}
	case err != nil:
		return &AccessError{Path: path, Reason: err.Error()}
	case info.IsDir():
		return &AccessError{Path: path, Reason: "is a directory"}
	}

	f, err := os.Open(path)
	if err != nil {
		return &AccessError{Path: path, Reason: "cannot open file"}
	}
	return f.Close()
}

type nopSettings struct{}

func (nopSettings) SavePlayback(context.Context, state.PlaybackSnapshot) error { return nil }
func (nopSettings) SaveRepeatMode(context.Context, int) error                  { return nil }

type nopRecorder struct{}

func (nopRecorder) RecordPlayEvent(context.Context, playlist.Track) error { return nil }

type nopPurger struct{}

func (nopPurger) PurgeTrack(context.Context, int64) error { return nil }
