package playback

import (
	"errors"
	"fmt"
)

var (
	// ErrEngineNotReady is returned when the engine cannot accept commands yet.
	ErrEngineNotReady = errors.New("playback engine not ready")
	// ErrEmptyQueue is returned when an operation needs a queued track.
	ErrEmptyQueue = errors.New("queue is empty")
	// ErrTrackNotInQueue is returned when the requested track is not queued.
	ErrTrackNotInQueue = errors.New("track not in queue")
	// ErrFileInaccessible is returned when a track's file cannot be read.
	ErrFileInaccessible = errors.New("file inaccessible")
	// ErrEngineQueue wraps failures of engine queue commands.
	ErrEngineQueue = errors.New("engine queue error")
	// ErrPlaybackFailure is surfaced when recovery from an engine fault gave up.
	ErrPlaybackFailure = errors.New("playback failure")
	// ErrNothingToPlay is reported when error recovery emptied the queue.
	ErrNothingToPlay = errors.New("nothing to play")
	// ErrClosed is returned by a session after Close.
	ErrClosed = errors.New("playback session closed")
)

// AccessError describes why a track's file could not be opened.
type AccessError struct {
	Path   string
	Reason string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

func (e *AccessError) Unwrap() error {
	return ErrFileInaccessible
}

func engineErr(err error) error {
	return fmt.Errorf("%w: %w", ErrEngineQueue, err)
}
