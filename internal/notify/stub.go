//go:build !linux

package notify

// New reports ErrUnavailable on platforms without a session bus.
func New() (Notifier, error) {
	return nil, ErrUnavailable
}
