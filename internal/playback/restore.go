package playback

import (
	"github.com/samber/lo"

	"github.com/llehouerou/ripple/internal/playlist"
	"github.com/llehouerou/ripple/internal/state"
)

// RestoreQueue rebuilds the queue saved in snap against a freshly scanned,
// sorted library. If any saved id no longer exists, or nothing was saved,
// the whole library becomes the queue. current is the saved track when it
// is still queued.
func RestoreQueue(snap state.PlaybackSnapshot, library []playlist.Track) (queue []playlist.Track, current *playlist.Track) {
	byID := lo.KeyBy(library, func(t playlist.Track) int64 { return t.ID })

	queue = make([]playlist.Track, 0, len(snap.QueueIDs))
	for _, id := range snap.QueueIDs {
		t, ok := byID[id]
		if !ok {
			queue = nil
			break
		}
		queue = append(queue, t)
	}
	if len(queue) == 0 {
		queue = append([]playlist.Track(nil), library...)
	}
	queue = playlist.Dedupe(queue)

	if snap.TrackID != nil {
		if t, ok := lo.Find(queue, func(t playlist.Track) bool { return t.ID == *snap.TrackID }); ok {
			current = &t
		}
	}
	return queue, current
}
