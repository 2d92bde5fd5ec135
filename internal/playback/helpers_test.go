package playback

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/llehouerou/ripple/internal/config"
	"github.com/llehouerou/ripple/internal/player"
	"github.com/llehouerou/ripple/internal/playlist"
	"github.com/llehouerou/ripple/internal/state"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeChecker struct {
	mu    sync.Mutex
	fail  map[string]error
	calls []string
}

func (c *fakeChecker) Check(_ context.Context, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, path)
	return c.fail[path]
}

func (c *fakeChecker) Fail(path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail == nil {
		c.fail = make(map[string]error)
	}
	c.fail[path] = err
}

type fakeRecorder struct {
	mu     sync.Mutex
	played []int64
	err    error
}

func (r *fakeRecorder) RecordPlayEvent(_ context.Context, t playlist.Track) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.played = append(r.played, t.ID)
	return r.err
}

func (r *fakeRecorder) Played() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.played...)
}

type fakePurger struct {
	mu     sync.Mutex
	purged []int64
}

func (p *fakePurger) PurgeTrack(_ context.Context, id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.purged = append(p.purged, id)
	return nil
}

func (p *fakePurger) Purged() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int64(nil), p.purged...)
}

type fakeSettings struct {
	mu     sync.Mutex
	saves  []state.PlaybackSnapshot
	repeat []int
}

func (s *fakeSettings) SavePlayback(_ context.Context, snap state.PlaybackSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves = append(s.saves, snap)
	return nil
}

func (s *fakeSettings) SaveRepeatMode(_ context.Context, mode int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repeat = append(s.repeat, mode)
	return nil
}

func (s *fakeSettings) LastSave() (state.PlaybackSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saves) == 0 {
		return state.PlaybackSnapshot{}, false
	}
	return s.saves[len(s.saves)-1], true
}

type harness struct {
	session  *Session
	engine   *player.Mock
	store    *playlist.Store
	clock    *fakeClock
	checker  *fakeChecker
	recorder *fakeRecorder
	purger   *fakePurger
	settings *fakeSettings
}

// newHarness builds a session over a mock engine. The background loops
// tick once an hour so tests drive progress explicitly.
func newHarness(t *testing.T, queued ...playlist.Track) *harness {
	t.Helper()
	h := &harness{
		engine:   player.NewMock(),
		store:    playlist.NewStore(),
		clock:    newFakeClock(),
		checker:  &fakeChecker{},
		recorder: &fakeRecorder{},
		purger:   &fakePurger{},
		settings: &fakeSettings{},
	}
	h.store.Replace(queued)
	h.session = New(Options{
		Engine:   h.engine,
		Store:    h.store,
		Settings: h.settings,
		Recorder: h.recorder,
		Purger:   h.purger,
		Checker:  h.checker,
		Clock:    h.clock,
		Config: config.Playback{
			ProgressInterval: time.Hour,
			PersistInterval:  time.Hour,
			Debounce:         100 * time.Millisecond,
			PlayThreshold:    0.5,
			NearEdge:         5 * time.Second,
			AccessWorkers:    2,
		},
	})
	t.Cleanup(func() { _ = h.session.Close() })
	return h
}

// settle waits until the session has handled every event emitted so far.
func (h *harness) settle(t *testing.T) {
	t.Helper()
	require.NoError(t, h.session.do(context.Background(), func() error { return nil }))
}

// tick runs one progress poll and waits for its side effects.
func (h *harness) tick(t *testing.T) {
	t.Helper()
	require.NoError(t, h.session.do(context.Background(), func() error {
		h.session.tick()
		return nil
	}))
	h.session.bg.Wait()
}

func (h *harness) marker(t *testing.T) *int64 {
	t.Helper()
	var m *int64
	h.settle(t)
	require.NoError(t, h.session.do(context.Background(), func() error {
		if h.session.queue.marker != nil {
			id := *h.session.queue.marker
			m = &id
		}
		return nil
	}))
	return m
}

func track(id int64) playlist.Track {
	return playlist.Track{
		ID:       id,
		Path:     fmt.Sprintf("/music/%02d.flac", id),
		Title:    fmt.Sprintf("Track %d", id),
		Artist:   "Artist",
		Album:    "Album",
		Duration: 3 * time.Minute,
	}
}

func tracks(ids ...int64) []playlist.Track {
	out := make([]playlist.Track, len(ids))
	for i, id := range ids {
		out[i] = track(id)
	}
	return out
}

func currentID(e *player.Mock) int64 {
	items := e.Items()
	idx := e.CurrentIndex()
	if idx < 0 || idx >= len(items) {
		return -1
	}
	return items[idx].ID
}

func ptr[T any](v T) *T { return &v }
