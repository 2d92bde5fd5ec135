package playback

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/ripple/internal/player"
)

// eventRouter reacts to engine events on the playback context.
type eventRouter struct {
	queue    *queueManager
	engine   player.Engine
	debounce *debouncer
	logger   *log.Logger

	// purge is called with the id of a track the engine failed to play.
	// It must not block.
	purge func(id int64)

	stopAfterCurrent bool
}

// routeResult tells the session what an event changed beyond the engine
// state it re-reads anyway.
type routeResult struct {
	newInstance bool  // playback restarted on a fresh play instance
	emptied     bool  // the queue ran empty
	err         error // non-nil replaces the session error
	clearErr    bool  // recovery succeeded, drop the session error
}

func (r *eventRouter) handle(e player.Event) routeResult {
	switch e.Kind {
	case player.EventTransitioned, player.EventEnded:
		if r.debounce.duplicate() {
			r.logger.Debug("debounced engine event", "kind", e.Kind, "reason", e.Reason)
			return routeResult{}
		}
		if e.Kind == player.EventTransitioned && r.queue.confirmMarker() {
			r.logger.Debug("insert-next confirmed, shuffle restored")
		}
		automatic := e.Kind == player.EventEnded || e.Reason.Automatic()
		if automatic && r.stopAfterCurrent {
			r.stopAfterCurrent = false
			r.engine.Pause()
		}
	case player.EventError:
		return r.recoverFrom(e.Err)
	case player.EventDiscontinuity, player.EventIsPlayingChanged:
	}
	return routeResult{}
}

// recoverFrom drops the item the engine failed on and resumes with the
// item that took its place. The resume is retried once from the top of the
// queue before giving up.
func (r *eventRouter) recoverFrom(cause error) routeResult {
	items := r.engine.Items()
	failed := r.engine.CurrentIndex()
	if failed < 0 || failed >= len(items) {
		r.engine.Stop()
		return routeResult{err: fmt.Errorf("%w: %w", ErrPlaybackFailure, cause)}
	}
	item := items[failed]
	r.logger.Warn("playback failed, skipping track", "id", item.ID, "path", item.Path, "err", cause)

	if err := r.engine.Remove(failed); err != nil {
		r.engine.Stop()
		return routeResult{err: fmt.Errorf("%w: %w", ErrPlaybackFailure, err)}
	}
	r.queue.store.Remove(item.ID)
	if r.queue.marker != nil && *r.queue.marker == item.ID {
		r.queue.clearMarker()
	}
	r.purge(item.ID)

	n := len(r.engine.Items())
	if n == 0 {
		r.engine.Stop()
		r.engine.Clear()
		return routeResult{emptied: true, err: ErrNothingToPlay}
	}

	if err := r.resume(min(failed, n-1)); err != nil {
		r.logger.Warn("resume after failure failed, retrying from start", "err", err)
		if err := r.resume(0); err != nil {
			r.engine.Stop()
			return routeResult{err: fmt.Errorf("%w: %w", ErrPlaybackFailure, err)}
		}
	}
	return routeResult{newInstance: true, clearErr: true}
}

func (r *eventRouter) resume(index int) error {
	if err := r.queue.seek(index, 0); err != nil {
		return err
	}
	if err := r.engine.Play(); err != nil {
		return engineErr(err)
	}
	return nil
}
