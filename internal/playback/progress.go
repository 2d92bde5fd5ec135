package playback

import "time"

// progressTracker decides when the current play instance counts as a play.
// It fires at most once per instance. A new instance starts when the track
// changes, when playback wraps from the last seconds of a track back to its
// first seconds (restart or repeat-one), or when the session starts the
// track from its beginning.
type progressTracker struct {
	threshold float64       // fraction of the duration
	nearEdge  time.Duration // size of the start/end windows used for wrap detection

	id       *int64
	lastPos  time.Duration
	recorded bool
}

func newProgressTracker(threshold float64, nearEdge time.Duration) *progressTracker {
	return &progressTracker{threshold: threshold, nearEdge: nearEdge}
}

// observe feeds one progress reading and reports whether the play event
// should fire now.
func (t *progressTracker) observe(p Progress, playing bool) bool {
	if p.TrackID == nil {
		t.reset()
		return false
	}

	switch {
	case t.id == nil || *t.id != *p.TrackID:
		id := *p.TrackID
		t.id = &id
		t.recorded = false
	case t.wrapped(p):
		t.recorded = false
	}
	t.lastPos = p.Position

	if !playing || t.recorded || p.Duration <= 0 {
		return false
	}
	if p.Fraction() >= t.threshold {
		t.recorded = true
		return true
	}
	return false
}

// wrapped reports a jump from near the end back to near the start.
func (t *progressTracker) wrapped(p Progress) bool {
	return p.Position < t.lastPos &&
		t.lastPos >= p.Duration-t.nearEdge &&
		p.Position <= t.nearEdge
}

// started notes that the session started id at pos. A different track or
// a start within nearEdge of zero is a new instance; resuming the same
// track mid-way is not.
func (t *progressTracker) started(id int64, pos time.Duration) {
	if t.id != nil && *t.id == id && pos > t.nearEdge {
		return
	}
	t.newInstance()
}

// newInstance makes the current track eligible again.
func (t *progressTracker) newInstance() {
	t.recorded = false
	t.lastPos = 0
}

func (t *progressTracker) reset() {
	t.id = nil
	t.lastPos = 0
	t.recorded = false
}
