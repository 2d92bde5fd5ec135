// internal/playback/state.go
package playback

import (
	"slices"
	"time"

	"github.com/llehouerou/ripple/internal/player"
	"github.com/llehouerou/ripple/internal/playlist"
)

// State is an immutable snapshot of the session. A new State is built from
// scratch on every refresh; subscribers never see a partially updated one.
type State struct {
	Current      *playlist.Track // nil when nothing is loaded
	IsPlaying    bool
	Position     time.Duration
	Duration     time.Duration
	Buffered     time.Duration
	Repeat       player.RepeatMode
	Shuffle      bool
	Speed        float64
	Queue        []playlist.Track
	CurrentIndex int // index of Current in Queue, -1 if absent
	IsLoading    bool

	// StopAfterCurrent pauses playback when the current track ends.
	StopAfterCurrent bool

	// Err is the last failed operation, cleared by the next success.
	Err   error
	Error string // user-facing form of Err
}

// Progress is the lightweight position report published on every tick.
type Progress struct {
	TrackID  *int64 // nil when nothing is loaded
	Position time.Duration
	Duration time.Duration
}

// Fraction returns the played share of the track in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Duration <= 0 {
		return 0
	}
	return min(1, max(0, float64(p.Position)/float64(p.Duration)))
}

func (s State) clone() State {
	s.Queue = slices.Clone(s.Queue)
	if s.Current != nil {
		c := *s.Current
		s.Current = &c
	}
	return s
}
