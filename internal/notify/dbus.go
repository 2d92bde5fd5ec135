//go:build linux

package notify

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notifyDest  = "org.freedesktop.Notifications"
	notifyPath  = "/org/freedesktop/Notifications"
	notifyIface = "org.freedesktop.Notifications"
)

type dbusNotifier struct {
	obj dbus.BusObject
}

// New connects to the session bus notification service.
func New() (Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return &dbusNotifier{obj: conn.Object(notifyDest, notifyPath)}, nil
}

func (n *dbusNotifier) Notify(notif Notification) (uint32, error) {
	call := n.obj.Call(notifyIface+".Notify", 0,
		appName,
		notif.ReplacesID,
		"",
		notif.Title,
		notif.Body,
		[]string{},
		hints(notif),
		notif.Timeout,
	)
	if call.Err != nil {
		return 0, call.Err
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (n *dbusNotifier) Close(id uint32) error {
	return n.obj.Call(notifyIface+".CloseNotification", 0, id).Err
}

// hints carries the urgency and, when known, the cover image. The image
// goes in the image-path hint so servers show it as the bubble picture.
func hints(notif Notification) map[string]dbus.Variant {
	h := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(notif.Urgency)),
		"desktop-entry": dbus.MakeVariant("ripple"),
	}
	if notif.Icon != "" {
		h["image-path"] = dbus.MakeVariant("file://" + notif.Icon)
	}
	return h
}
