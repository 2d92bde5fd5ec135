//go:build linux

package mpris

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/ripple/internal/library"
	"github.com/llehouerou/ripple/internal/playback"
	"github.com/llehouerou/ripple/internal/player"
)

// commandTimeout bounds how long a D-Bus call waits for the session.
const commandTimeout = 5 * time.Second

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

// Adapter connects a playback session to MPRIS over D-Bus.
type Adapter struct {
	server *server.Server
}

// New creates and starts a new MPRIS adapter.
func New(ctrl Controller, logger *log.Logger) (*Adapter, error) {
	a := &Adapter{
		server: server.NewServer("ripple", &rootAdapter{}, &playerAdapter{ctrl: ctrl}),
	}

	go func() {
		if err := a.server.Listen(); err != nil {
			logger.Warn("mpris server stopped", "err", err)
		}
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // the daemon exits on signals only
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "Ripple", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/mp3"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter and optional interfaces.
type playerAdapter struct {
	ctrl Controller
}

func (p *playerAdapter) call(fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return fn(ctx)
}

func (p *playerAdapter) Next() error {
	return p.call(p.ctrl.Next)
}

func (p *playerAdapter) Previous() error {
	return p.call(p.ctrl.Previous)
}

func (p *playerAdapter) Pause() error {
	if !p.ctrl.State().IsPlaying {
		return nil
	}
	return p.call(p.ctrl.PlayPause)
}

func (p *playerAdapter) PlayPause() error {
	return p.call(p.ctrl.PlayPause)
}

// Stop pauses; the session keeps its queue and position.
func (p *playerAdapter) Stop() error {
	return p.Pause()
}

func (p *playerAdapter) Play() error {
	if p.ctrl.State().IsPlaying {
		return nil
	}
	return p.call(p.ctrl.PlayPause)
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	st := p.ctrl.State()
	if st.Current == nil {
		return nil
	}
	pos := max(0, st.Position+time.Duration(offset)*time.Microsecond)
	if st.Duration > 0 && pos > st.Duration {
		return p.call(p.ctrl.Next)
	}
	return p.call(func(ctx context.Context) error { return p.ctrl.SeekTo(ctx, pos) })
}

func (p *playerAdapter) SetPosition(trackID string, position types.Microseconds) error {
	st := p.ctrl.State()
	if st.Current == nil || string(formatTrackID(st.Current.Path)) != trackID {
		return nil // stale request for another track
	}
	pos := time.Duration(position) * time.Microsecond
	if pos < 0 || (st.Duration > 0 && pos > st.Duration) {
		return nil
	}
	return p.call(func(ctx context.Context) error { return p.ctrl.SeekTo(ctx, pos) })
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // Not supported
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	st := p.ctrl.State()
	switch {
	case st.Current == nil:
		return types.PlaybackStatusStopped, nil
	case st.IsPlaying:
		return types.PlaybackStatusPlaying, nil
	default:
		return types.PlaybackStatusPaused, nil
	}
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	track := p.ctrl.State().Current
	if track == nil {
		return types.Metadata{}, nil
	}

	meta := types.Metadata{
		TrackId: formatTrackID(track.Path),
		Length:  types.Microseconds(track.Duration.Microseconds()),
		Title:   track.Title,
		Artist:  []string{track.Artist},
		Album:   track.Album,
	}

	artPath := track.ArtPath
	if artPath == "" {
		artPath = library.FindAlbumArt(track.Path)
	}
	if artPath != "" {
		meta.ArtUrl = "file://" + artPath
	}

	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetVolume(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Position() (int64, error) {
	return p.ctrl.State().Position.Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	st := p.ctrl.State()
	if st.Repeat != player.RepeatOff || st.Shuffle {
		return len(st.Queue) > 0, nil
	}
	return st.CurrentIndex >= 0 && st.CurrentIndex < len(st.Queue)-1, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return p.ctrl.State().CurrentIndex >= 0, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return len(p.ctrl.State().Queue) > 0, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return p.ctrl.State().Current != nil, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

// LoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	switch p.ctrl.State().Repeat {
	case player.RepeatOne:
		return types.LoopStatusTrack, nil
	case player.RepeatAll:
		return types.LoopStatusPlaylist, nil
	case player.RepeatOff:
		return types.LoopStatusNone, nil
	}
	return types.LoopStatusNone, nil
}

// SetLoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	mode, ok := repeatModes[status]
	if !ok {
		return fmt.Errorf("unknown loop status %v", status)
	}
	return p.call(func(ctx context.Context) error { return p.ctrl.SetRepeatMode(ctx, mode) })
}

var repeatModes = map[types.LoopStatus]player.RepeatMode{
	types.LoopStatusNone:     player.RepeatOff,
	types.LoopStatusTrack:    player.RepeatOne,
	types.LoopStatusPlaylist: player.RepeatAll,
}

// Shuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) Shuffle() (bool, error) {
	return p.ctrl.State().Shuffle, nil
}

// SetShuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) SetShuffle(shuffle bool) error {
	return p.call(func(ctx context.Context) error { return p.ctrl.SetShuffle(ctx, shuffle) })
}

func formatTrackID(path string) dbus.ObjectPath {
	h := fnv.New64a()
	h.Write([]byte(path))
	return dbus.ObjectPath(fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64()))
}
