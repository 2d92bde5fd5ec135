//go:build linux

package notify

import (
	"os"
	"testing"
)

func TestHints(t *testing.T) {
	h := hints(Notification{Urgency: UrgencyCritical})
	if got := h["urgency"].Value(); got != byte(2) {
		t.Errorf("urgency hint = %v, want 2", got)
	}
	if _, ok := h["image-path"]; ok {
		t.Error("image-path hint set without an icon")
	}

	h = hints(Notification{Icon: "/music/album/cover.jpg"})
	if got := h["image-path"].Value(); got != "file:///music/album/cover.jpg" {
		t.Errorf("image-path hint = %v", got)
	}
}

func TestNotifyReplacesExisting(t *testing.T) {
	if os.Getenv("DBUS_SESSION_BUS_ADDRESS") == "" {
		t.Skip("no D-Bus session available")
	}

	notifier, err := New()
	if err != nil {
		t.Skipf("notification service unavailable: %v", err)
	}

	id1, err := notifier.Notify(Notification{Title: "Track 1", Body: "Artist - Album", Timeout: 2000})
	if err != nil {
		t.Skipf("no notification server: %v", err)
	}
	id2, err := notifier.Notify(Notification{Title: "Track 2", Body: "Artist - Album", Timeout: 1000, ReplacesID: id1})
	if err != nil {
		t.Fatalf("second Notify() error: %v", err)
	}
	if id2 != id1 {
		t.Errorf("replacing notification got id=%d, want id=%d", id2, id1)
	}
	if err := notifier.Close(id2); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}
