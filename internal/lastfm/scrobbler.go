package lastfm

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/llehouerou/ripple/internal/playlist"
	"github.com/llehouerou/ripple/internal/state"
)

const (
	// minScrobbleDuration: Last.fm ignores tracks shorter than this.
	minScrobbleDuration = 30 * time.Second
	// maxAttempts before a pending scrobble is dropped.
	maxAttempts = 10
	// maxPendingAge: Last.fm rejects scrobbles older than two weeks.
	maxPendingAge = 14 * 24 * time.Hour
)

// Submitter sends scrobbles to the service. *Client implements it.
type Submitter interface {
	IsAuthenticated() bool
	Scrobble(track ScrobbleTrack) error
	UpdateNowPlaying(track ScrobbleTrack) error
}

// PendingStore keeps scrobbles that could not be submitted. *state.Manager
// implements it.
type PendingStore interface {
	AddPendingScrobble(ctx context.Context, s state.PendingScrobble) error
	GetPendingScrobbles(ctx context.Context) ([]state.PendingScrobble, error)
	DeletePendingScrobble(ctx context.Context, id int64) error
	UpdatePendingScrobbleAttempt(ctx context.Context, id int64, errMsg string) error
	DeleteOldPendingScrobbles(ctx context.Context, maxAge time.Duration) error
}

// Scrobbler records plays on Last.fm. Failed submissions are queued and
// retried at a limited rate.
type Scrobbler struct {
	client    Submitter
	store     PendingStore
	limiter   *rate.Limiter
	logger    *log.Logger
	threshold float64
	now       func() time.Time
}

// NewScrobbler creates a scrobbler. threshold is the played fraction at
// which plays are reported; it dates each scrobble back to the track start.
func NewScrobbler(client Submitter, store PendingStore, threshold float64, logger *log.Logger) *Scrobbler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Scrobbler{
		client:    client,
		store:     store,
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
		logger:    logger,
		threshold: threshold,
		now:       time.Now,
	}
}

// RecordPlayEvent scrobbles t. A failed submission is queued for retry and
// is not reported as an error.
func (s *Scrobbler) RecordPlayEvent(ctx context.Context, t playlist.Track) error {
	if !s.client.IsAuthenticated() || t.Duration < minScrobbleDuration {
		return nil
	}
	played := time.Duration(float64(t.Duration) * s.threshold)
	track := FromTrack(t, s.now().Add(-played))

	err := s.client.Scrobble(track)
	if err == nil {
		s.logger.Debug("scrobbled", "artist", track.Artist, "track", track.Track)
		return nil
	}

	s.logger.Warn("scrobble failed, queued for retry", "track", track.Track, "err", err)
	return s.store.AddPendingScrobble(ctx, state.PendingScrobble{
		Artist:       track.Artist,
		Track:        track.Track,
		Album:        track.Album,
		DurationSecs: int(track.Duration.Seconds()),
		Timestamp:    track.Timestamp,
		LastError:    err.Error(),
	})
}

// NowPlaying announces t as the current track. Failures are only logged.
func (s *Scrobbler) NowPlaying(t playlist.Track) {
	if !s.client.IsAuthenticated() {
		return
	}
	if err := s.client.UpdateNowPlaying(FromTrack(t, s.now())); err != nil {
		s.logger.Debug("now playing update failed", "err", err)
	}
}

// RetryPending submits queued scrobbles, oldest first. It returns the
// number submitted.
func (s *Scrobbler) RetryPending(ctx context.Context) (int, error) {
	if !s.client.IsAuthenticated() {
		return 0, ErrNotAuthenticated
	}
	if err := s.store.DeleteOldPendingScrobbles(ctx, maxPendingAge); err != nil {
		return 0, err
	}
	pending, err := s.store.GetPendingScrobbles(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, p := range pending {
		if p.Attempts >= maxAttempts {
			if err := s.store.DeletePendingScrobble(ctx, p.ID); err != nil {
				return sent, err
			}
			s.logger.Warn("dropped scrobble after repeated failures", "track", p.Track, "err", p.LastError)
			continue
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return sent, err
		}
		track := ScrobbleTrack{
			Artist:    p.Artist,
			Track:     p.Track,
			Album:     p.Album,
			Duration:  time.Duration(p.DurationSecs) * time.Second,
			Timestamp: p.Timestamp,
		}
		if err := s.client.Scrobble(track); err != nil {
			if uerr := s.store.UpdatePendingScrobbleAttempt(ctx, p.ID, err.Error()); uerr != nil {
				return sent, uerr
			}
			continue
		}
		if err := s.store.DeletePendingScrobble(ctx, p.ID); err != nil {
			return sent, err
		}
		sent++
	}
	if sent > 0 {
		s.logger.Info("submitted pending scrobbles", "count", sent)
	}
	return sent, nil
}

// Run retries pending scrobbles every interval until ctx is done.
func (s *Scrobbler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RetryPending(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("retry pending scrobbles", "err", err)
			}
		}
	}
}
