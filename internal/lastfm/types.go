package lastfm

import (
	"time"

	"github.com/llehouerou/ripple/internal/playlist"
)

// ScrobbleTrack contains track metadata for scrobbling.
type ScrobbleTrack struct {
	Artist        string
	Track         string
	Album         string
	AlbumArtist   string
	Duration      time.Duration
	Timestamp     time.Time // When playback started
	MBRecordingID string    // Optional MusicBrainz recording ID
}

// FromTrack builds the scrobble of a queue track started at startedAt.
func FromTrack(t playlist.Track, startedAt time.Time) ScrobbleTrack {
	return ScrobbleTrack{
		Artist:    t.Artist,
		Track:     t.Title,
		Album:     t.Album,
		Duration:  t.Duration,
		Timestamp: startedAt,
	}
}
