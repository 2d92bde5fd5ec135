// Command ripple is a headless music player. It scans the configured
// library, restores the last session and exposes it over MPRIS.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/llehouerou/ripple/internal/config"
	"github.com/llehouerou/ripple/internal/lastfm"
	"github.com/llehouerou/ripple/internal/library"
	"github.com/llehouerou/ripple/internal/logging"
	"github.com/llehouerou/ripple/internal/mpris"
	"github.com/llehouerou/ripple/internal/notify"
	"github.com/llehouerou/ripple/internal/playback"
	"github.com/llehouerou/ripple/internal/player"
	"github.com/llehouerou/ripple/internal/playlist"
	"github.com/llehouerou/ripple/internal/state"
	"github.com/llehouerou/ripple/internal/stderr"
)

// scrobbleRetryInterval is how often queued scrobbles are resubmitted.
const scrobbleRetryInterval = 5 * time.Minute

func main() {
	app := &cli.Command{
		Name:      "ripple",
		Usage:     "Headless music player",
		ArgsUsage: "[file]",
		Action:    run,
	}

	if err := stderr.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not capture stderr: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.Run(ctx, os.Args)
	stop()
	stderr.Stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(stderr.Original(), cfg.GetLogLevel())

	go logging.Forward(ctx, logger.With("component", "audio"), stderr.Messages)

	stateMgr, err := state.Open(cfg.StatePath)
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer stateMgr.Close()

	lib := library.New(stateMgr.DB(), logger.With("component", "library"))
	if err := lib.Refresh(ctx, cfg.LibrarySources, nil); err != nil {
		return fmt.Errorf("scan library: %w", err)
	}
	tracks, err := lib.SortedTracks(ctx)
	if err != nil {
		return fmt.Errorf("load library: %w", err)
	}

	pbCfg := cfg.GetPlaybackConfig()
	recorders := playback.Recorders{stateMgr}

	scrobbler := newScrobbler(ctx, cfg, stateMgr, pbCfg.PlayThreshold, logger)
	if scrobbler != nil {
		recorders = append(recorders, scrobbler)
	}

	session := playback.New(playback.Options{
		Engine:   player.New(),
		Store:    playlist.NewStore(),
		Settings: stateMgr,
		Recorder: recorders,
		Purger:   lib,
		Logger:   logger.With("component", "playback"),
		Config:   pbCfg,
	})
	defer session.Close()

	if err := restore(ctx, session, stateMgr, tracks); err != nil {
		logger.Warn("restore playback", "err", err)
	}

	if cfg.MPRISEnabled() {
		adapter, err := mpris.New(session, logger.With("component", "mpris"))
		if err != nil {
			logger.Warn("mpris unavailable", "err", err)
		} else {
			defer adapter.Close()
		}
	}

	if cfg.WatchLibrary {
		watcher, err := lib.Watch(cfg.LibrarySources, session.OnExternalTrackRemoved)
		if err != nil {
			logger.Warn("library watch unavailable", "err", err)
		} else {
			defer watcher.Close()
			go func() {
				if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Warn("library watch stopped", "err", err)
				}
			}()
		}
	}

	if cfg.Notifications {
		notifier, err := notify.New()
		if err != nil {
			logger.Warn("notifications unavailable", "err", err)
		} else {
			go notify.Follow(ctx, session.Subscribe(), notifier, logger.With("component", "notify"))
		}
	}

	if scrobbler != nil {
		go scrobbler.Run(ctx, scrobbleRetryInterval)
		go announce(ctx, session.Subscribe(), scrobbler)
	}

	if path := cmd.Args().First(); path != "" {
		if err := session.InitiatePlayback(ctx, path, nil); err != nil {
			logger.Error("play", "path", path, "err", err)
		}
	}

	logger.Info("ready", "session", session.ID(), "tracks", len(tracks))
	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

// restore reloads the last saved queue. The stored repeat preference wins
// over the mode saved with the queue.
func restore(ctx context.Context, session *playback.Session, stateMgr *state.Manager, tracks []playlist.Track) error {
	snap, err := stateMgr.LoadPlayback(ctx)
	if err != nil {
		return err
	}
	if mode, err := stateMgr.RepeatMode(ctx); err == nil {
		snap.Repeat = mode
	}
	if len(tracks) == 0 {
		return nil
	}
	return session.Restore(ctx, snap, tracks)
}

// newScrobbler returns nil when Last.fm is not configured. A session key
// from the config file is stored so later runs can omit it.
func newScrobbler(
	ctx context.Context,
	cfg *config.Config,
	stateMgr *state.Manager,
	threshold float64,
	logger *log.Logger,
) *lastfm.Scrobbler {
	if cfg.Lastfm.APIKey == "" || cfg.Lastfm.APISecret == "" {
		return nil
	}

	client := lastfm.New(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret)
	if cfg.HasLastfmConfig() {
		client.SetSessionKey(cfg.Lastfm.SessionKey)
		if err := stateMgr.SaveLastfmSession(ctx, "", cfg.Lastfm.SessionKey); err != nil {
			logger.Warn("save lastfm session", "err", err)
		}
	} else if sess, err := stateMgr.GetLastfmSession(ctx); err == nil && sess != nil {
		client.SetSessionKey(sess.SessionKey)
	}
	if !client.IsAuthenticated() {
		logger.Info("lastfm configured without a session key, scrobbling disabled")
		return nil
	}

	return lastfm.NewScrobbler(client, stateMgr, threshold, logger.With("component", "lastfm"))
}

// announce sends a now-playing update whenever a new track starts.
func announce(ctx context.Context, sub *playback.Subscription, scrobbler *lastfm.Scrobbler) {
	var last int64 = -1
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case st := <-sub.State:
			if st.Current == nil || !st.IsPlaying {
				continue
			}
			if st.Current.ID == last {
				continue
			}
			last = st.Current.ID
			scrobbler.NowPlaying(*st.Current)
		}
	}
}
