package playlist

// Subscription delivers queue snapshots to one observer. Only the most
// recent snapshot is kept; slow readers skip intermediate states.
type Subscription struct {
	Changes <-chan []Track
	Done    <-chan struct{}

	changesCh chan []Track
	doneCh    chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		changesCh: make(chan []Track, 1),
		doneCh:    make(chan struct{}),
	}
	s.Changes = s.changesCh
	s.Done = s.doneCh
	return s
}

func (s *Subscription) send(tracks []Track) {
	select {
	case s.changesCh <- tracks:
		return
	default:
	}
	// Replace the stale snapshot.
	select {
	case <-s.changesCh:
	default:
	}
	select {
	case s.changesCh <- tracks:
	default:
	}
}

func (s *Subscription) close() {
	close(s.doneCh)
}
