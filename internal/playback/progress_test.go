package playback

import (
	"testing"
	"time"
)

func progressAt(id int64, pos time.Duration) Progress {
	return Progress{TrackID: &id, Position: pos, Duration: 100 * time.Second}
}

func TestProgressFraction(t *testing.T) {
	tests := []struct {
		name string
		p    Progress
		want float64
	}{
		{"unknown duration", Progress{Position: time.Second}, 0},
		{"half", Progress{Position: 50 * time.Second, Duration: 100 * time.Second}, 0.5},
		{"past end", Progress{Position: 120 * time.Second, Duration: 100 * time.Second}, 1},
		{"negative", Progress{Position: -time.Second, Duration: 100 * time.Second}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Fraction(); got != tt.want {
				t.Errorf("Fraction() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgressTracker_FiresOncePerInstance(t *testing.T) {
	tr := newProgressTracker(0.5, 5*time.Second)

	steps := []struct {
		pos  time.Duration
		want bool
	}{
		{10 * time.Second, false},
		{49 * time.Second, false},
		{50 * time.Second, true},
		{51 * time.Second, false},
		{20 * time.Second, false}, // backward seek, same instance
		{90 * time.Second, false},
	}
	for i, s := range steps {
		if got := tr.observe(progressAt(1, s.pos), true); got != s.want {
			t.Errorf("step %d at %v: observe() = %v, want %v", i, s.pos, got, s.want)
		}
	}
}

func TestProgressTracker_WrapResetsEligibility(t *testing.T) {
	tr := newProgressTracker(0.5, 5*time.Second)

	if !tr.observe(progressAt(1, 60*time.Second), true) {
		t.Fatal("expected first play to fire")
	}
	tr.observe(progressAt(1, 97*time.Second), true)
	if tr.observe(progressAt(1, 2*time.Second), true) {
		t.Error("wrap to start should not fire by itself")
	}
	if !tr.observe(progressAt(1, 50*time.Second), true) {
		t.Error("expected repeat play to fire after wrap")
	}
}

func TestProgressTracker_BackwardSeekFromMiddleIsNotWrap(t *testing.T) {
	tr := newProgressTracker(0.5, 5*time.Second)

	tr.observe(progressAt(1, 80*time.Second), true)
	tr.observe(progressAt(1, 2*time.Second), true)
	if tr.observe(progressAt(1, 60*time.Second), true) {
		t.Error("seek back from the middle must not start a new play")
	}
}

func TestProgressTracker_TrackChange(t *testing.T) {
	tr := newProgressTracker(0.5, 5*time.Second)

	if !tr.observe(progressAt(1, 60*time.Second), true) {
		t.Fatal("expected track 1 to fire")
	}
	if !tr.observe(progressAt(2, 60*time.Second), true) {
		t.Error("expected track 2 to fire")
	}
}

func TestProgressTracker_NotPlaying(t *testing.T) {
	tr := newProgressTracker(0.5, 5*time.Second)

	if tr.observe(progressAt(1, 60*time.Second), false) {
		t.Error("paused playback must not fire")
	}
	if !tr.observe(progressAt(1, 61*time.Second), true) {
		t.Error("expected fire once playing resumes")
	}
}

func TestProgressTracker_NewInstanceAndReset(t *testing.T) {
	tr := newProgressTracker(0.5, 5*time.Second)

	tr.observe(progressAt(1, 60*time.Second), true)
	tr.newInstance()
	if !tr.observe(progressAt(1, 60*time.Second), true) {
		t.Error("expected fire after newInstance")
	}

	if tr.observe(Progress{}, true) {
		t.Error("nothing loaded must not fire")
	}
	if tr.id != nil {
		t.Error("expected tracker reset when nothing is loaded")
	}
}

func TestProgressTracker_Started(t *testing.T) {
	tests := []struct {
		name     string
		id       int64
		pos      time.Duration
		wantFire bool
	}{
		{"resume same track mid-way", 1, 60 * time.Second, false},
		{"restart same track from zero", 1, 0, true},
		{"start within the first seconds", 1, 3 * time.Second, true},
		{"start another track", 2, 60 * time.Second, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newProgressTracker(0.5, 5*time.Second)
			if !tr.observe(progressAt(1, 60*time.Second), true) {
				t.Fatal("expected first fire")
			}

			tr.started(tt.id, tt.pos)

			if got := tr.observe(progressAt(tt.id, 61*time.Second), true); got != tt.wantFire {
				t.Errorf("observe after started(%d, %v) = %v, want %v", tt.id, tt.pos, got, tt.wantFire)
			}
		})
	}
}
