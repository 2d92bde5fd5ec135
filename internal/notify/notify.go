// Package notify shows desktop notifications for the playback session.
package notify

import "errors"

// ErrUnavailable is returned by New when no notification service can be
// reached.
var ErrUnavailable = errors.New("desktop notifications unavailable")

const appName = "Ripple"

// Urgency is the freedesktop notification urgency level.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notification is one bubble.
type Notification struct {
	Title      string
	Body       string
	Icon       string  // image file path, empty for none
	Timeout    int32   // ms, -1 = server default, 0 = never expire
	ReplacesID uint32  // id of a bubble to replace, 0 for a new one
	Urgency    Urgency
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify shows n and returns its id.
	Notify(n Notification) (uint32, error)
	// Close dismisses the notification with the given id.
	Close(id uint32) error
}
