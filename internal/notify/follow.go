package notify

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/ripple/internal/library"
	"github.com/llehouerou/ripple/internal/playback"
)

const (
	trackTimeout int32 = 4000
	errorTimeout int32 = -1
)

// Follow shows a notification for every track that starts playing and for
// every new playback error, until ctx is done or the subscription closes.
func Follow(ctx context.Context, sub *playback.Subscription, n Notifier, logger *log.Logger) {
	f := newFollower(n, library.FindAlbumArt)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case st := <-sub.State:
			if err := f.observe(st); err != nil {
				logger.Debug("notification failed", "err", err)
			}
		}
	}
}

// follower reuses one notification slot for tracks so a fast skip replaces
// the bubble instead of stacking them.
type follower struct {
	n         Notifier
	findArt   func(trackPath string) string
	lastTrack int64
	lastErr   string
	trackID   uint32
}

func newFollower(n Notifier, findArt func(string) string) *follower {
	return &follower{n: n, findArt: findArt, lastTrack: -1}
}

func (f *follower) observe(st playback.State) error {
	if st.Error != "" && st.Error != f.lastErr {
		f.lastErr = st.Error
		if _, err := f.n.Notify(Notification{
			Title:   "Playback error",
			Body:    st.Error,
			Timeout: errorTimeout,
			Urgency: UrgencyCritical,
		}); err != nil {
			return err
		}
	}
	if st.Error == "" {
		f.lastErr = ""
	}

	if st.Current == nil || !st.IsPlaying || st.Current.ID == f.lastTrack {
		return nil
	}
	t := st.Current
	f.lastTrack = t.ID

	icon := t.ArtPath
	if icon == "" {
		icon = f.findArt(t.Path)
	}
	id, err := f.n.Notify(Notification{
		Title:      t.Title,
		Body:       fmt.Sprintf("%s - %s", t.Artist, t.Album),
		Icon:       icon,
		Timeout:    trackTimeout,
		ReplacesID: f.trackID,
		Urgency:    UrgencyLow,
	})
	if err != nil {
		return err
	}
	f.trackID = id
	return nil
}
