//go:build linux

package mpris

import (
	"context"
	"testing"
	"time"

	"github.com/quarckster/go-mpris-server/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/ripple/internal/playback"
	"github.com/llehouerou/ripple/internal/player"
	"github.com/llehouerou/ripple/internal/playlist"
)

type fakeController struct {
	state   playback.State
	toggles int
	nexts   int
	seeks   []time.Duration
	repeat  []player.RepeatMode
	shuffle []bool
}

func (c *fakeController) State() playback.State { return c.state }

func (c *fakeController) PlayPause(context.Context) error {
	c.toggles++
	c.state.IsPlaying = !c.state.IsPlaying
	return nil
}

func (c *fakeController) Next(context.Context) error {
	c.nexts++
	return nil
}

func (c *fakeController) Previous(context.Context) error { return nil }

func (c *fakeController) SeekTo(_ context.Context, pos time.Duration) error {
	c.seeks = append(c.seeks, pos)
	return nil
}

func (c *fakeController) SetShuffle(_ context.Context, enabled bool) error {
	c.shuffle = append(c.shuffle, enabled)
	return nil
}

func (c *fakeController) SetRepeatMode(_ context.Context, mode player.RepeatMode) error {
	c.repeat = append(c.repeat, mode)
	return nil
}

func loaded(playing bool) *fakeController {
	cur := playlist.Track{ID: 1, Path: "/music/a.flac", Title: "A", Artist: "X", Album: "Y", Duration: 3 * time.Minute}
	return &fakeController{state: playback.State{
		Current:      &cur,
		IsPlaying:    playing,
		Position:     30 * time.Second,
		Duration:     3 * time.Minute,
		Queue:        []playlist.Track{cur, {ID: 2, Path: "/music/b.flac"}},
		CurrentIndex: 0,
	}}
}

func TestPlayPauseIdempotent(t *testing.T) {
	ctrl := loaded(true)
	p := &playerAdapter{ctrl: ctrl}

	require.NoError(t, p.Play())
	assert.Equal(t, 0, ctrl.toggles, "Play while playing toggles")

	require.NoError(t, p.Pause())
	require.NoError(t, p.Pause())
	require.NoError(t, p.Stop())
	assert.Equal(t, 1, ctrl.toggles)
	assert.False(t, ctrl.state.IsPlaying)

	require.NoError(t, p.Play())
	assert.True(t, ctrl.state.IsPlaying)
}

func TestPlaybackStatus(t *testing.T) {
	tests := []struct {
		name string
		ctrl *fakeController
		want types.PlaybackStatus
	}{
		{"nothing loaded", &fakeController{state: playback.State{CurrentIndex: -1}}, types.PlaybackStatusStopped},
		{"playing", loaded(true), types.PlaybackStatusPlaying},
		{"paused", loaded(false), types.PlaybackStatusPaused},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := (&playerAdapter{ctrl: tt.ctrl}).PlaybackStatus()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeekRelative(t *testing.T) {
	ctrl := loaded(true)
	p := &playerAdapter{ctrl: ctrl}

	require.NoError(t, p.Seek(types.Microseconds(10*time.Second/time.Microsecond)))
	require.NoError(t, p.Seek(types.Microseconds(-time.Minute/time.Microsecond)))
	assert.Equal(t, []time.Duration{40 * time.Second, 0}, ctrl.seeks)

	require.NoError(t, p.Seek(types.Microseconds(5*time.Minute/time.Microsecond)))
	assert.Equal(t, 1, ctrl.nexts, "seeking past the end skips")
}

func TestSetPositionIgnoresOtherTrack(t *testing.T) {
	ctrl := loaded(true)
	p := &playerAdapter{ctrl: ctrl}
	at := types.Microseconds(time.Minute / time.Microsecond)

	require.NoError(t, p.SetPosition("/org/mpris/MediaPlayer2/Track/0", at))
	assert.Empty(t, ctrl.seeks)

	require.NoError(t, p.SetPosition(string(formatTrackID("/music/a.flac")), at))
	assert.Equal(t, []time.Duration{time.Minute}, ctrl.seeks)
}

func TestLoopStatusRoundTrip(t *testing.T) {
	ctrl := loaded(false)
	p := &playerAdapter{ctrl: ctrl}

	require.NoError(t, p.SetLoopStatus(types.LoopStatusTrack))
	require.NoError(t, p.SetLoopStatus(types.LoopStatusPlaylist))
	require.NoError(t, p.SetLoopStatus(types.LoopStatusNone))
	assert.Equal(t, []player.RepeatMode{player.RepeatOne, player.RepeatAll, player.RepeatOff}, ctrl.repeat)

	ctrl.state.Repeat = player.RepeatOne
	got, err := p.LoopStatus()
	require.NoError(t, err)
	assert.Equal(t, types.LoopStatusTrack, got)
}

func TestCanGoNext(t *testing.T) {
	ctrl := loaded(true)
	p := &playerAdapter{ctrl: ctrl}

	ok, _ := p.CanGoNext()
	assert.True(t, ok)

	ctrl.state.CurrentIndex = 1
	ok, _ = p.CanGoNext()
	assert.False(t, ok, "last track without repeat")

	ctrl.state.Repeat = player.RepeatAll
	ok, _ = p.CanGoNext()
	assert.True(t, ok)
}

func TestMetadata(t *testing.T) {
	ctrl := loaded(true)
	ctrl.state.Current.ArtPath = "/art/front.jpg"
	p := &playerAdapter{ctrl: ctrl}

	meta, err := p.Metadata()
	require.NoError(t, err)
	assert.Equal(t, "A", meta.Title)
	assert.Equal(t, []string{"X"}, meta.Artist)
	assert.Equal(t, formatTrackID("/music/a.flac"), meta.TrackId)
	assert.Equal(t, "file:///art/front.jpg", meta.ArtUrl)
	assert.Equal(t, types.Microseconds(3*time.Minute/time.Microsecond), meta.Length)
}
