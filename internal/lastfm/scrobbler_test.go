package lastfm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"golang.org/x/time/rate"

	"github.com/llehouerou/ripple/internal/playlist"
	"github.com/llehouerou/ripple/internal/state"
)

type fakeSubmitter struct {
	mu         sync.Mutex
	authed     bool
	err        error
	scrobbled  []ScrobbleTrack
	nowPlaying []ScrobbleTrack
}

func (f *fakeSubmitter) IsAuthenticated() bool { return f.authed }

func (f *fakeSubmitter) Scrobble(t ScrobbleTrack) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.scrobbled = append(f.scrobbled, t)
	return nil
}

func (f *fakeSubmitter) UpdateNowPlaying(t ScrobbleTrack) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nowPlaying = append(f.nowPlaying, t)
	return f.err
}

type fakeStore struct {
	mu      sync.Mutex
	nextID  int64
	pending []state.PendingScrobble
}

func (f *fakeStore) AddPendingScrobble(_ context.Context, s state.PendingScrobble) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	s.ID = f.nextID
	f.pending = append(f.pending, s)
	return nil
}

func (f *fakeStore) GetPendingScrobbles(context.Context) ([]state.PendingScrobble, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]state.PendingScrobble(nil), f.pending...), nil
}

func (f *fakeStore) DeletePendingScrobble(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.pending {
		if p.ID == id {
			f.pending = append(f.pending[:i], f.pending[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeStore) UpdatePendingScrobbleAttempt(_ context.Context, id int64, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.pending {
		if f.pending[i].ID == id {
			f.pending[i].Attempts++
			f.pending[i].LastError = errMsg
		}
	}
	return nil
}

func (f *fakeStore) DeleteOldPendingScrobbles(context.Context, time.Duration) error { return nil }

func (f *fakeStore) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

func testTrack() playlist.Track {
	return playlist.Track{ID: 1, Title: "Song", Artist: "Band", Album: "Record", Duration: 4 * time.Minute}
}

func newTestScrobbler(client Submitter, store PendingStore) *Scrobbler {
	s := NewScrobbler(client, store, 0.5, nil)
	s.limiter = rate.NewLimiter(rate.Inf, 1)
	return s
}

func TestRecordPlayEvent(t *testing.T) {
	client := &fakeSubmitter{authed: true}
	store := &fakeStore{}
	s := newTestScrobbler(client, store)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if err := s.RecordPlayEvent(context.Background(), testTrack()); err != nil {
		t.Fatalf("RecordPlayEvent() error = %v", err)
	}

	if len(client.scrobbled) != 1 {
		t.Fatalf("scrobbled %d tracks, want 1", len(client.scrobbled))
	}
	got := client.scrobbled[0]
	if got.Artist != "Band" || got.Track != "Song" || got.Album != "Record" {
		t.Errorf("scrobble = %+v", got)
	}
	if want := now.Add(-2 * time.Minute); !got.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, want)
	}
	if store.len() != 0 {
		t.Error("successful scrobble should not be queued")
	}
}

func TestRecordPlayEvent_Skipped(t *testing.T) {
	tests := []struct {
		name   string
		authed bool
		track  playlist.Track
	}{
		{"not authenticated", false, testTrack()},
		{"too short", true, playlist.Track{ID: 2, Title: "Intro", Artist: "Band", Duration: 20 * time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeSubmitter{authed: tt.authed}
			store := &fakeStore{}
			s := newTestScrobbler(client, store)

			if err := s.RecordPlayEvent(context.Background(), tt.track); err != nil {
				t.Fatalf("RecordPlayEvent() error = %v", err)
			}
			if len(client.scrobbled) != 0 || store.len() != 0 {
				t.Error("expected nothing submitted or queued")
			}
		})
	}
}

func TestRecordPlayEvent_QueuesOnFailure(t *testing.T) {
	client := &fakeSubmitter{authed: true, err: errors.New("service unavailable")}
	store := &fakeStore{}
	s := newTestScrobbler(client, store)

	if err := s.RecordPlayEvent(context.Background(), testTrack()); err != nil {
		t.Fatalf("RecordPlayEvent() error = %v", err)
	}

	pending, _ := store.GetPendingScrobbles(context.Background())
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	if pending[0].LastError != "service unavailable" {
		t.Errorf("LastError = %q", pending[0].LastError)
	}
	if pending[0].DurationSecs != 240 {
		t.Errorf("DurationSecs = %d, want 240", pending[0].DurationSecs)
	}
}

func TestRetryPending(t *testing.T) {
	ctx := context.Background()
	client := &fakeSubmitter{authed: true}
	store := &fakeStore{}
	s := newTestScrobbler(client, store)
	_ = store.AddPendingScrobble(ctx, state.PendingScrobble{Artist: "A", Track: "One"})
	_ = store.AddPendingScrobble(ctx, state.PendingScrobble{Artist: "A", Track: "Two"})
	_ = store.AddPendingScrobble(ctx, state.PendingScrobble{Artist: "A", Track: "Stale", Attempts: maxAttempts})

	sent, err := s.RetryPending(ctx)
	if err != nil {
		t.Fatalf("RetryPending() error = %v", err)
	}
	if sent != 2 {
		t.Errorf("sent = %d, want 2", sent)
	}
	if store.len() != 0 {
		t.Errorf("pending left = %d, want 0", store.len())
	}
	if len(client.scrobbled) != 2 || client.scrobbled[0].Track != "One" {
		t.Errorf("scrobbled = %+v", client.scrobbled)
	}
}

func TestRetryPending_FailureCountsAttempt(t *testing.T) {
	ctx := context.Background()
	client := &fakeSubmitter{authed: true, err: errors.New("timeout")}
	store := &fakeStore{}
	s := newTestScrobbler(client, store)
	_ = store.AddPendingScrobble(ctx, state.PendingScrobble{Artist: "A", Track: "One"})

	sent, err := s.RetryPending(ctx)
	if err != nil {
		t.Fatalf("RetryPending() error = %v", err)
	}
	if sent != 0 {
		t.Errorf("sent = %d, want 0", sent)
	}
	pending, _ := store.GetPendingScrobbles(ctx)
	if len(pending) != 1 || pending[0].Attempts != 1 || pending[0].LastError != "timeout" {
		t.Errorf("pending = %+v", pending)
	}
}

func TestRetryPending_NotAuthenticated(t *testing.T) {
	s := newTestScrobbler(&fakeSubmitter{}, &fakeStore{})

	if _, err := s.RetryPending(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("err = %v, want ErrNotAuthenticated", err)
	}
}

func TestRetryPending_IsPaced(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		client := &fakeSubmitter{authed: true}
		store := &fakeStore{}
		s := NewScrobbler(client, store, 0.5, nil)
		for range 3 {
			_ = store.AddPendingScrobble(ctx, state.PendingScrobble{Artist: "A", Track: "T"})
		}

		start := time.Now()
		sent, err := s.RetryPending(ctx)
		if err != nil {
			t.Fatalf("RetryPending() error = %v", err)
		}
		if sent != 3 {
			t.Errorf("sent = %d, want 3", sent)
		}
		if elapsed := time.Since(start); elapsed < 2*time.Second {
			t.Errorf("elapsed = %v, want at least 2s between three submissions", elapsed)
		}
	})
}

func TestRun(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		client := &fakeSubmitter{authed: true}
		store := &fakeStore{}
		s := NewScrobbler(client, store, 0.5, nil)
		_ = store.AddPendingScrobble(ctx, state.PendingScrobble{Artist: "A", Track: "T"})

		done := make(chan struct{})
		go func() {
			s.Run(ctx, time.Minute)
			close(done)
		}()

		time.Sleep(time.Minute + time.Second)
		synctest.Wait()
		if store.len() != 0 {
			t.Error("expected pending scrobble submitted on first tick")
		}

		cancel()
		<-done
	})
}

func TestNowPlaying(t *testing.T) {
	client := &fakeSubmitter{authed: true}
	s := newTestScrobbler(client, &fakeStore{})

	s.NowPlaying(testTrack())

	if len(client.nowPlaying) != 1 || client.nowPlaying[0].Track != "Song" {
		t.Errorf("nowPlaying = %+v", client.nowPlaying)
	}
}
