package playback

import "time"

// Clock is the monotonic time source used for event debouncing.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// debouncer flags engine events arriving within window of the previous one.
type debouncer struct {
	clock  Clock
	window time.Duration
	last   time.Time
	seen   bool
}

// duplicate records an event and reports whether it belongs to the burst
// started by the previous event.
func (d *debouncer) duplicate() bool {
	now := d.clock.Now()
	dup := d.seen && now.Sub(d.last) < d.window
	d.last = now
	d.seen = true
	return dup
}
