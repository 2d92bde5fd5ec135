// internal/player/interface.go
package player

import (
	"errors"
	"time"
)

// ErrIndexOutOfRange is returned by queue primitives given a bad index.
var ErrIndexOutOfRange = errors.New("index out of range")

// ErrClosed is returned by primitives called after Close.
var ErrClosed = errors.New("engine closed")

// Item is the engine's view of a queued track.
type Item struct {
	ID       int64
	Path     string
	Title    string
	Artist   string
	Album    string
	Duration time.Duration
}

// Engine is a stateful playback runtime with its own queue. It has no
// knowledge of the application's queue; callers keep the two in step.
//
// Index arguments always address the queue order returned by Items, never
// the shuffle order. Under shuffle the item played after an insert is
// chosen by the shuffle order, so an inserted item is not guaranteed to
// play next.
type Engine interface {
	// Ready reports whether the engine accepts commands.
	Ready() bool

	// Queue primitives.
	Items() []Item
	CurrentIndex() int
	SetItems(items []Item, startIndex int, startPos time.Duration) error
	Insert(index int, item Item) error
	Remove(index int) error
	Replace(index int, item Item) error
	Clear()

	// Transport.
	SeekTo(index int, pos time.Duration) error
	Next() error
	Previous() error
	Play() error
	Pause()
	Stop()

	// Modes.
	Shuffle() bool
	SetShuffle(enabled bool)
	RepeatMode() RepeatMode
	SetRepeatMode(mode RepeatMode)

	// Readings.
	State() State
	IsLoading() bool
	Position() time.Duration
	Duration() time.Duration
	Buffered() time.Duration
	Speed() float64

	// Events delivers engine events in order. It is closed by Close.
	Events() <-chan Event

	Close() error
}

// Verify Player implements Engine at compile time.
var _ Engine = (*Player)(nil)
