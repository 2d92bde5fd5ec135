package notify

import (
	"testing"

	"github.com/llehouerou/ripple/internal/playback"
	"github.com/llehouerou/ripple/internal/playlist"
)

type recordingNotifier struct {
	sent []Notification
}

func (r *recordingNotifier) Notify(n Notification) (uint32, error) {
	r.sent = append(r.sent, n)
	return uint32(len(r.sent)), nil
}

func (r *recordingNotifier) Close(uint32) error { return nil }

func playing(t playlist.Track) playback.State {
	return playback.State{Current: &t, IsPlaying: true}
}

func TestFollowerAnnouncesEachTrackOnce(t *testing.T) {
	rec := &recordingNotifier{}
	f := newFollower(rec, func(string) string { return "/art/cover.jpg" })

	a := playlist.Track{ID: 1, Path: "/m/a.flac", Title: "A", Artist: "X", Album: "Y"}
	b := playlist.Track{ID: 2, Path: "/m/b.flac", Title: "B", Artist: "X", Album: "Y", ArtPath: "/m/b.jpg"}

	for _, st := range []playback.State{playing(a), playing(a), playing(b)} {
		if err := f.observe(st); err != nil {
			t.Fatalf("observe() error: %v", err)
		}
	}

	if len(rec.sent) != 2 {
		t.Fatalf("sent %d notifications, want 2", len(rec.sent))
	}
	if rec.sent[0].Title != "A" || rec.sent[0].Body != "X - Y" || rec.sent[0].Icon != "/art/cover.jpg" {
		t.Errorf("first notification = %+v", rec.sent[0])
	}
	if rec.sent[1].ReplacesID != 1 {
		t.Errorf("second notification replaces %d, want 1", rec.sent[1].ReplacesID)
	}
	if rec.sent[1].Icon != "/m/b.jpg" {
		t.Errorf("second icon = %q, want track art", rec.sent[1].Icon)
	}
}

func TestFollowerSkipsPaused(t *testing.T) {
	rec := &recordingNotifier{}
	f := newFollower(rec, func(string) string { return "" })

	tr := playlist.Track{ID: 1, Title: "A"}
	if err := f.observe(playback.State{Current: &tr}); err != nil {
		t.Fatal(err)
	}
	if len(rec.sent) != 0 {
		t.Errorf("sent %d notifications for a paused track", len(rec.sent))
	}
}

func TestFollowerReportsErrorsOnce(t *testing.T) {
	rec := &recordingNotifier{}
	f := newFollower(rec, func(string) string { return "" })

	failed := playback.State{Error: "Failed to start playback: file missing"}
	for _, st := range []playback.State{failed, failed, {}, failed} {
		if err := f.observe(st); err != nil {
			t.Fatal(err)
		}
	}

	if len(rec.sent) != 2 {
		t.Fatalf("sent %d notifications, want 2", len(rec.sent))
	}
	if rec.sent[0].Urgency != UrgencyCritical {
		t.Errorf("urgency = %d, want critical", rec.sent[0].Urgency)
	}
}
