package playback

import (
	"github.com/llehouerou/ripple/internal/errmsg"
	"github.com/llehouerou/ripple/internal/player"
	"github.com/llehouerou/ripple/internal/playlist"
)

// projector derives State and Progress from the engine and the store. It
// holds no state of its own.
type projector struct {
	engine player.Engine
	store  *playlist.Store
}

// current resolves the engine's current item against the store: by id,
// then by path, and finally as a display-only track built from the
// engine's own metadata.
func (p projector) current() (playlist.Track, bool) {
	items := p.engine.Items()
	idx := p.engine.CurrentIndex()
	if idx < 0 || idx >= len(items) {
		return playlist.Track{}, false
	}
	item := items[idx]
	if t, ok := p.store.Find(item.ID); ok {
		return t, true
	}
	if t, ok := p.store.FindByPath(item.Path); ok {
		return t, true
	}
	return trackFromItem(item), true
}

// project builds a full snapshot. shuffle is the user's shuffle intent,
// which differs from the engine's while an insert-next is pending.
func (p projector) project(shuffle bool, lastErr error, op errmsg.Op) State {
	st := State{
		IsPlaying:    p.engine.State() == player.Playing,
		Position:     p.engine.Position(),
		Duration:     p.engine.Duration(),
		Buffered:     p.engine.Buffered(),
		Repeat:       p.engine.RepeatMode(),
		Shuffle:      shuffle,
		Speed:        p.engine.Speed(),
		Queue:        p.store.Tracks(),
		CurrentIndex: -1,
		IsLoading:    p.engine.IsLoading(),
		Err:          lastErr,
		Error:        errmsg.Format(op, lastErr),
	}
	if t, ok := p.current(); ok {
		st.Current = &t
		st.CurrentIndex = p.store.IndexOf(t.ID)
		if st.Duration <= 0 {
			st.Duration = t.Duration
		}
	}
	return st
}

func (p projector) progress() Progress {
	t, ok := p.current()
	if !ok {
		return Progress{}
	}
	id := t.ID
	pr := Progress{
		TrackID:  &id,
		Position: p.engine.Position(),
		Duration: p.engine.Duration(),
	}
	if pr.Duration <= 0 {
		pr.Duration = t.Duration
	}
	return pr
}

func trackFromItem(item player.Item) playlist.Track {
	return playlist.Track{
		ID:       item.ID,
		Path:     item.Path,
		Title:    item.Title,
		Artist:   item.Artist,
		Album:    item.Album,
		Duration: item.Duration,
	}
}

func itemFromTrack(t playlist.Track) player.Item {
	return player.Item{
		ID:       t.ID,
		Path:     t.Path,
		Title:    t.Title,
		Artist:   t.Artist,
		Album:    t.Album,
		Duration: t.Duration,
	}
}

func itemsFromTracks(tracks []playlist.Track) []player.Item {
	items := make([]player.Item, len(tracks))
	for i, t := range tracks {
		items[i] = itemFromTrack(t)
	}
	return items
}

func itemIndex(items []player.Item, id int64) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func itemIDs(items []player.Item) []int64 {
	ids := make([]int64, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	return ids
}
