// Package playlist holds the canonical track queue shared by the playback
// session and its observers.
package playlist

import (
	"time"

	"github.com/samber/lo"
)

// Track is an immutable playable track. Two tracks are the same track when
// their IDs match, regardless of metadata.
type Track struct {
	ID        int64  // stable library id
	Path      string // locator used to open the audio data
	Title     string
	Artist    string
	Album     string
	ArtPath   string // album art reference, empty if unknown
	Duration  time.Duration
	DateAdded time.Time
}

// Same reports whether t and other identify the same track.
func (t Track) Same(other Track) bool {
	return t.ID == other.ID
}

// IDs returns the ids of tracks in order.
func IDs(tracks []Track) []int64 {
	return lo.Map(tracks, func(t Track, _ int) int64 { return t.ID })
}

// Dedupe returns tracks with later duplicates (by id) dropped.
func Dedupe(tracks []Track) []Track {
	return lo.UniqBy(tracks, func(t Track) int64 { return t.ID })
}

func indexOf(tracks []Track, id int64) int {
	for i := range tracks {
		if tracks[i].ID == id {
			return i
		}
	}
	return -1
}

func removeAt(tracks []Track, index int) []Track {
	return append(tracks[:index], tracks[index+1:]...)
}

func insertAt(tracks []Track, index int, t Track) []Track {
	index = max(0, min(index, len(tracks)))
	tracks = append(tracks, Track{})
	copy(tracks[index+1:], tracks[index:])
	tracks[index] = t
	return tracks
}
