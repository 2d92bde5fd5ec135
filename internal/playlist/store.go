package playlist

import "sync"

// Store owns the canonical ordered queue of tracks. It never holds two
// tracks with the same id.
//
// Reads are safe from any goroutine. Mutations are expected to come from a
// single owner (the playback session), which keeps the store in step with
// the engine queue.
type Store struct {
	mu     sync.RWMutex
	tracks []Track
	subs   []*Subscription
	closed bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{tracks: make([]Track, 0)}
}

// Replace swaps the whole queue. Duplicate ids are dropped, keeping the
// first occurrence.
func (s *Store) Replace(tracks []Track) {
	s.mu.Lock()
	s.tracks = Dedupe(append([]Track(nil), tracks...))
	s.mu.Unlock()
	s.notify()
}

// InsertAt inserts t at index, clamped to the queue bounds. Returns false
// if a track with the same id is already queued.
func (s *Store) InsertAt(index int, t Track) bool {
	s.mu.Lock()
	if indexOf(s.tracks, t.ID) >= 0 {
		s.mu.Unlock()
		return false
	}
	s.tracks = insertAt(s.tracks, index, t)
	s.mu.Unlock()
	s.notify()
	return true
}

// MoveTo removes any existing occurrence of t and inserts it at index.
// The index refers to the queue before removal; it is shifted down when the
// old occurrence sat before it. Returns the final index of t.
func (s *Store) MoveTo(index int, t Track) int {
	s.mu.Lock()
	if old := indexOf(s.tracks, t.ID); old >= 0 {
		s.tracks = removeAt(s.tracks, old)
		if old < index {
			index--
		}
	}
	index = max(0, min(index, len(s.tracks)))
	s.tracks = insertAt(s.tracks, index, t)
	s.mu.Unlock()
	s.notify()
	return index
}

// Remove removes the track with the given id. Returns false if absent.
func (s *Store) Remove(id int64) bool {
	s.mu.Lock()
	i := indexOf(s.tracks, id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.tracks = removeAt(s.tracks, i)
	s.mu.Unlock()
	s.notify()
	return true
}

// Update replaces the metadata of the track with t's id in place.
// Returns false if absent.
func (s *Store) Update(t Track) bool {
	s.mu.Lock()
	i := indexOf(s.tracks, t.ID)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.tracks[i] = t
	s.mu.Unlock()
	s.notify()
	return true
}

// Clear empties the queue.
func (s *Store) Clear() {
	s.Replace(nil)
}

// Tracks returns a copy of the queue.
func (s *Store) Tracks() []Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]Track, len(s.tracks))
	copy(result, s.tracks)
	return result
}

// IDs returns the queued ids in order.
func (s *Store) IDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return IDs(s.tracks)
}

// IndexOf returns the index of id, or -1.
func (s *Store) IndexOf(id int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexOf(s.tracks, id)
}

// IndexOfPath returns the index of the first track with the given locator,
// or -1.
func (s *Store) IndexOfPath(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.tracks {
		if s.tracks[i].Path == path {
			return i
		}
	}
	return -1
}

// Find returns the track with the given id.
func (s *Store) Find(id int64) (Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.tracks, id); i >= 0 {
		return s.tracks[i], true
	}
	return Track{}, false
}

// FindByPath returns the first track with the given locator.
func (s *Store) FindByPath(path string) (Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.tracks {
		if s.tracks[i].Path == path {
			return s.tracks[i], true
		}
	}
	return Track{}, false
}

// Len returns the number of queued tracks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

// IsEmpty returns true if the queue has no tracks.
func (s *Store) IsEmpty() bool {
	return s.Len() == 0
}

// Subscribe registers an observer. The subscription immediately receives
// the current queue.
func (s *Store) Subscribe() *Subscription {
	sub := newSubscription()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sub.close()
		return sub
	}
	s.subs = append(s.subs, sub)
	sub.send(append([]Track(nil), s.tracks...))
	s.mu.Unlock()
	return sub
}

// Close ends the store's lifecycle and releases all subscribers.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
}

func (s *Store) notify() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.subs) == 0 {
		return
	}
	snapshot := append([]Track(nil), s.tracks...)
	for _, sub := range s.subs {
		sub.send(snapshot)
	}
}
