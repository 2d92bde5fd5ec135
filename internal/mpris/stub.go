//go:build !linux

package mpris

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/ripple/internal/playback"
	"github.com/llehouerou/ripple/internal/player"
)

// Controller is the part of a playback session driven over D-Bus.
type Controller interface {
	State() playback.State
	PlayPause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	SeekTo(ctx context.Context, pos time.Duration) error
	SetShuffle(ctx context.Context, enabled bool) error
	SetRepeatMode(ctx context.Context, mode player.RepeatMode) error
}

// Adapter is a no-op on non-Linux platforms.
type Adapter struct{}

// New returns a no-op adapter on non-Linux platforms.
func New(_ Controller, _ *log.Logger) (*Adapter, error) {
	return &Adapter{}, nil
}

// Close is a no-op on non-Linux platforms.
func (a *Adapter) Close() error {
	return nil
}
