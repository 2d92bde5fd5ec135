package playback

// Subscription delivers session updates. Both channels hold only the latest
// value: a slow reader skips intermediate states instead of blocking the
// session.
type Subscription struct {
	State    <-chan State
	Progress <-chan Progress
	Done     <-chan struct{}

	// Internal write channels
	stateCh    chan State
	progressCh chan Progress
	doneCh     chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		stateCh:    make(chan State, 1),
		progressCh: make(chan Progress, 1),
		doneCh:     make(chan struct{}),
	}
	s.State = s.stateCh
	s.Progress = s.progressCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

// sendState replaces any unread state (non-blocking).
func (s *Subscription) sendState(st State) {
	sendLatest(s.stateCh, st)
}

// sendProgress replaces any unread progress (non-blocking).
func (s *Subscription) sendProgress(p Progress) {
	sendLatest(s.progressCh, p)
}

func sendLatest[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	// Drop the stale value
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
