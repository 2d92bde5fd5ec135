// internal/player/mock.go
package player

import (
	"sync"
	"time"
)

// SeekCall records one SeekTo invocation.
type SeekCall struct {
	Index   int
	Pos     time.Duration
	Shuffle bool // shuffle state at the time of the seek
}

// Mock is a test double for Engine. It keeps a real engine queue with a
// deterministic shuffle: the initial order is queue order and items
// inserted under shuffle go to the end of the order.
//
// Mock never emits events on its own; tests drive them with the Simulate
// helpers.
type Mock struct {
	mu       sync.Mutex
	queue    *engineQueue
	repeat   RepeatMode
	state    State
	ready    bool
	loading  bool
	position time.Duration
	duration time.Duration
	events   chan Event
	closed   bool

	seekCalls     []SeekCall
	setItemsCalls int
	insertCalls   []int
	removeCalls   []int
	replaceCalls  []int
	playCalls     int

	seekErrs  []error
	playErrs  []error
	insertErr error
	removeErr error
}

// NewMock creates a ready mock engine.
func NewMock() *Mock {
	return &Mock{
		queue:  newEngineQueue(func(n int) int { return n - 1 }),
		state:  Stopped,
		ready:  true,
		events: make(chan Event, 64),
	}
}

func (m *Mock) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready && !m.closed
}

func (m *Mock) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Item(nil), m.queue.items...)
}

func (m *Mock) CurrentIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.index
}

func (m *Mock) SetItems(items []Item, startIndex int, startPos time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setItemsCalls++
	if err := m.queue.set(items, startIndex); err != nil {
		return err
	}
	m.repeat = RepeatOff
	m.position = startPos
	if len(items) == 0 {
		m.state = Stopped
	}
	return nil
}

func (m *Mock) Insert(i int, item Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertCalls = append(m.insertCalls, i)
	if m.insertErr != nil {
		return m.insertErr
	}
	return m.queue.insert(i, item)
}

func (m *Mock) Remove(i int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeCalls = append(m.removeCalls, i)
	if m.removeErr != nil {
		return m.removeErr
	}
	wasCurrent, err := m.queue.remove(i)
	if err != nil {
		return err
	}
	if wasCurrent {
		m.position = 0
	}
	if m.queue.index < 0 || (wasCurrent && i == len(m.queue.items)) {
		m.state = Stopped
	}
	return nil
}

func (m *Mock) Replace(i int, item Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceCalls = append(m.replaceCalls, i)
	return m.queue.replace(i, item)
}

func (m *Mock) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue.clear()
	m.state = Stopped
	m.position = 0
}

func (m *Mock) SeekTo(i int, pos time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekCalls = append(m.seekCalls, SeekCall{Index: i, Pos: pos, Shuffle: m.queue.shuffle})
	if len(m.seekErrs) > 0 {
		err := m.seekErrs[0]
		m.seekErrs = m.seekErrs[1:]
		if err != nil {
			return err
		}
	}
	if i < 0 || i >= len(m.queue.items) {
		return ErrIndexOutOfRange
	}
	m.queue.index = i
	m.position = pos
	return nil
}

func (m *Mock) Next() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n := m.queue.next(RepeatAll); n >= 0 {
		m.queue.index = n
		m.position = 0
	}
	return nil
}

func (m *Mock) Previous() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n := m.queue.previous(); n >= 0 {
		m.queue.index = n
	}
	m.position = 0
	return nil
}

func (m *Mock) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playCalls++
	if len(m.playErrs) > 0 {
		err := m.playErrs[0]
		m.playErrs = m.playErrs[1:]
		if err != nil {
			return err
		}
	}
	if m.queue.index < 0 {
		return ErrIndexOutOfRange
	}
	m.state = Playing
	return nil
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Playing {
		m.state = Paused
	}
}

func (m *Mock) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Stopped
	m.position = 0
}

func (m *Mock) Shuffle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.shuffle
}

func (m *Mock) SetShuffle(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue.setShuffle(enabled)
}

func (m *Mock) RepeatMode() RepeatMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.repeat
}

func (m *Mock) SetRepeatMode(mode RepeatMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repeat = mode
}

func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mock) IsLoading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.duration > 0 {
		return m.duration
	}
	if item, ok := m.queue.current(); ok {
		return item.Duration
	}
	return 0
}

func (m *Mock) Buffered() time.Duration { return m.Duration() }

func (m *Mock) Speed() float64 { return 1.0 }

func (m *Mock) Events() <-chan Event { return m.events }

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.events)
	}
	return nil
}

// Test helpers

func (m *Mock) SetReady(ready bool) {
	m.mu.Lock()
	m.ready = ready
	m.mu.Unlock()
}

func (m *Mock) SetState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Mock) SetLoading(loading bool) {
	m.mu.Lock()
	m.loading = loading
	m.mu.Unlock()
}

func (m *Mock) SetPosition(d time.Duration) {
	m.mu.Lock()
	m.position = d
	m.mu.Unlock()
}

// SetDuration overrides the duration reported for every item.
func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	m.duration = d
	m.mu.Unlock()
}

// FailSeeks makes the next SeekTo calls return errs in order; nil entries
// let a call through.
func (m *Mock) FailSeeks(errs ...error) {
	m.mu.Lock()
	m.seekErrs = append(m.seekErrs, errs...)
	m.mu.Unlock()
}

// FailPlays makes the next Play calls return errs in order.
func (m *Mock) FailPlays(errs ...error) {
	m.mu.Lock()
	m.playErrs = append(m.playErrs, errs...)
	m.mu.Unlock()
}

func (m *Mock) SetInsertError(err error) {
	m.mu.Lock()
	m.insertErr = err
	m.mu.Unlock()
}

func (m *Mock) SetRemoveError(err error) {
	m.mu.Lock()
	m.removeErr = err
	m.mu.Unlock()
}

func (m *Mock) SeekCalls() []SeekCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SeekCall(nil), m.seekCalls...)
}

func (m *Mock) SetItemsCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setItemsCalls
}

func (m *Mock) InsertCalls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.insertCalls...)
}

func (m *Mock) RemoveCalls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.removeCalls...)
}

func (m *Mock) ReplaceCalls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.replaceCalls...)
}

func (m *Mock) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

// IDs returns the ids of the engine queue in order.
func (m *Mock) IDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, len(m.queue.items))
	for i, it := range m.queue.items {
		ids[i] = it.ID
	}
	return ids
}

// SimulateTransition advances to the next item in play order, as the
// engine does when an item finishes, and emits the matching event.
// Returns false (and emits EventEnded) when nothing follows.
func (m *Mock) SimulateTransition() bool {
	m.mu.Lock()
	n := m.queue.next(m.repeat)
	if n < 0 {
		m.state = Stopped
		m.mu.Unlock()
		m.Emit(Event{Kind: EventEnded})
		return false
	}
	reason := TransitionAuto
	if n == m.queue.index {
		reason = TransitionRepeat
	}
	m.queue.index = n
	m.position = 0
	m.mu.Unlock()
	m.Emit(Event{Kind: EventTransitioned, Reason: reason})
	return true
}

// SimulateSkip moves to index i as a user seek would and emits the event.
func (m *Mock) SimulateSkip(i int) {
	m.mu.Lock()
	m.queue.index = i
	m.position = 0
	m.mu.Unlock()
	m.Emit(Event{Kind: EventTransitioned, Reason: TransitionSeek})
}

// SimulateError stops the engine on the current item and emits EventError.
func (m *Mock) SimulateError(err error) {
	m.mu.Lock()
	m.state = Stopped
	m.mu.Unlock()
	m.Emit(Event{Kind: EventError, Err: err})
}

// Emit pushes an arbitrary event.
func (m *Mock) Emit(e Event) {
	m.events <- e
}

// Verify Mock implements Engine at compile time.
var _ Engine = (*Mock)(nil)
