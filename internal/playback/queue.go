package playback

import (
	"slices"
	"time"

	"github.com/llehouerou/ripple/internal/player"
	"github.com/llehouerou/ripple/internal/playlist"
)

// positionTolerance is how far the engine may be from a requested start
// position for a repeated play request to be ignored.
const positionTolerance = time.Second

// queueManager applies queue mutations to the engine and mirrors them into
// the store. All methods run on the playback context.
//
// Index seeks under shuffle do not land on the requested item, and an item
// inserted under shuffle is not played next. Seeks therefore run with
// shuffle forced off, and an insert-next under shuffle keeps shuffle off
// until the engine actually moves into the inserted item. The id of that
// item is the pending marker.
type queueManager struct {
	engine player.Engine
	store  *playlist.Store
	marker *int64
}

// shuffleIntent is the shuffle mode the user asked for, which the engine
// does not reflect while a marker is pending.
func (q *queueManager) shuffleIntent() bool {
	return q.marker != nil || q.engine.Shuffle()
}

func (q *queueManager) setMarker(id int64) {
	q.marker = &id
}

// clearMarker drops a pending marker and gives shuffle back.
func (q *queueManager) clearMarker() {
	if q.marker == nil {
		return
	}
	q.marker = nil
	q.engine.SetShuffle(true)
}

// confirmMarker clears the marker once the engine plays the marked item.
func (q *queueManager) confirmMarker() bool {
	if q.marker == nil {
		return false
	}
	items := q.engine.Items()
	idx := q.engine.CurrentIndex()
	if idx < 0 || idx >= len(items) || items[idx].ID != *q.marker {
		return false
	}
	q.clearMarker()
	return true
}

func (q *queueManager) inSync() bool {
	return slices.Equal(itemIDs(q.engine.Items()), q.store.IDs())
}

// resolve checks the preconditions of a play request.
func (q *queueManager) resolve(find func(*playlist.Store) (playlist.Track, bool)) (playlist.Track, error) {
	if !q.engine.Ready() {
		return playlist.Track{}, ErrEngineNotReady
	}
	if q.store.IsEmpty() {
		return playlist.Track{}, ErrEmptyQueue
	}
	t, ok := find(q.store)
	if !ok {
		return playlist.Track{}, ErrTrackNotInQueue
	}
	return t, nil
}

// alreadyPlaying reports whether t is the current, playing item and the
// engine is close enough to the requested position.
func (q *queueManager) alreadyPlaying(t playlist.Track, startPos *time.Duration) bool {
	if q.engine.State() != player.Playing {
		return false
	}
	items := q.engine.Items()
	idx := q.engine.CurrentIndex()
	if idx < 0 || idx >= len(items) || items[idx].ID != t.ID {
		return false
	}
	if startPos == nil {
		return true
	}
	diff := q.engine.Position() - *startPos
	return diff.Abs() <= positionTolerance
}

// startAt plays t from startPos. When the engine already holds the store's
// queue only the position changes; otherwise the engine queue is rebuilt
// from the store, which resets the engine's repeat mode to off.
func (q *queueManager) startAt(t playlist.Track, startPos *time.Duration, repeat player.RepeatMode) error {
	if !q.engine.Ready() {
		return ErrEngineNotReady
	}
	idx := q.store.IndexOf(t.ID)
	if idx < 0 {
		return ErrTrackNotInQueue
	}
	var pos time.Duration
	if startPos != nil {
		pos = max(0, *startPos)
	}

	// A new play request supersedes any pending insert-next
	q.clearMarker()

	if q.inSync() {
		if err := q.seek(idx, pos); err != nil {
			return err
		}
	} else {
		if err := q.engine.SetItems(itemsFromTracks(q.store.Tracks()), idx, pos); err != nil {
			return engineErr(err)
		}
		q.engine.SetRepeatMode(repeat)
	}

	if err := q.engine.Play(); err != nil {
		return engineErr(err)
	}
	return nil
}

// seek moves to index with shuffle forced off, then restores shuffle.
func (q *queueManager) seek(index int, pos time.Duration) error {
	shuffle := q.engine.Shuffle()
	if shuffle {
		q.engine.SetShuffle(false)
		defer q.engine.SetShuffle(true)
	}
	if err := q.engine.SeekTo(index, pos); err != nil {
		return engineErr(err)
	}
	return nil
}

// addNext places t right after the current item in both queues. It
// reports whether the engine was idle and has been started.
func (q *queueManager) addNext(t playlist.Track) (bool, error) {
	if !q.engine.Ready() {
		return false, ErrEngineNotReady
	}

	items := q.engine.Items()
	cur := q.engine.CurrentIndex()
	if cur >= 0 && cur < len(items) && items[cur].ID == t.ID {
		return false, nil
	}
	idle := len(items) == 0

	var curID *int64
	if cur >= 0 && cur < len(items) {
		id := items[cur].ID
		curID = &id
	}

	forced := q.engine.Shuffle()
	if forced {
		q.engine.SetShuffle(false)
	}
	rollback := func() {
		if forced {
			q.engine.SetShuffle(true)
		} else {
			q.clearMarker()
		}
		q.marker = nil
	}

	if old := itemIndex(items, t.ID); old >= 0 {
		if err := q.engine.Remove(old); err != nil {
			rollback()
			return false, engineErr(err)
		}
		if old < cur {
			cur--
		}
	}

	if err := q.engine.Insert(cur+1, itemFromTrack(t)); err != nil {
		rollback()
		// The engine no longer holds t if the old occurrence was removed
		if itemIndex(q.engine.Items(), t.ID) < 0 {
			q.store.Remove(t.ID)
		}
		return false, engineErr(err)
	}

	if forced || q.marker != nil {
		q.setMarker(t.ID)
	}

	at := cur + 1
	if curID != nil {
		if i := q.store.IndexOf(*curID); i >= 0 {
			at = i + 1
		}
	}
	q.store.MoveTo(at, t)

	if !idle {
		return false, nil
	}
	if err := q.engine.SeekTo(0, 0); err != nil {
		return false, engineErr(err)
	}
	q.confirmMarker()
	if err := q.engine.Play(); err != nil {
		return false, engineErr(err)
	}
	return true, nil
}

// remove drops the track with id from both queues. It reports whether the
// engine queue is now empty.
func (q *queueManager) remove(id int64) (bool, error) {
	items := q.engine.Items()
	idx := itemIndex(items, id)
	if idx < 0 {
		if q.store.Remove(id) {
			return false, nil
		}
		return false, ErrTrackNotInQueue
	}

	if err := q.engine.Remove(idx); err != nil {
		return false, engineErr(err)
	}
	q.store.Remove(id)

	if q.marker != nil && *q.marker == id {
		q.clearMarker()
	}

	if len(q.engine.Items()) > 0 {
		return false, nil
	}
	q.engine.Stop()
	q.engine.Clear()
	return true, nil
}

// update swaps metadata in place without touching playback. It reports
// whether t is the current item.
func (q *queueManager) update(t playlist.Track) (bool, error) {
	q.store.Update(t)

	idx := itemIndex(q.engine.Items(), t.ID)
	if idx < 0 {
		return false, nil
	}
	if err := q.engine.Replace(idx, itemFromTrack(t)); err != nil {
		return false, engineErr(err)
	}
	return idx == q.engine.CurrentIndex(), nil
}

// setShuffle applies an explicit user choice, which ends any pending
// insert-next.
func (q *queueManager) setShuffle(enabled bool) {
	q.marker = nil
	q.engine.SetShuffle(enabled)
}

// load prepares the engine with the store's queue at index without
// starting playback.
func (q *queueManager) load(index int, pos time.Duration, repeat player.RepeatMode, shuffle bool) error {
	q.marker = nil
	if q.store.IsEmpty() {
		q.engine.Stop()
		q.engine.Clear()
		return nil
	}
	if !q.engine.Ready() {
		return ErrEngineNotReady
	}
	if err := q.engine.SetItems(itemsFromTracks(q.store.Tracks()), index, pos); err != nil {
		return engineErr(err)
	}
	q.engine.SetRepeatMode(repeat)
	q.engine.SetShuffle(shuffle)
	return nil
}
