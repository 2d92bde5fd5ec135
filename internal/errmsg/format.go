// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Library operations
	OpLibraryScan  Op = "scan library"
	OpLibraryLoad  Op = "load library"
	OpLibraryPurge Op = "remove track from library"
	OpLibraryWatch Op = "watch library"

	// Queue operations
	OpQueueLoad    Op = "load queue"
	OpQueueSave    Op = "save queue"
	OpQueueAdd     Op = "add to queue"
	OpQueueRemove  Op = "remove from queue"
	OpQueueUpdate  Op = "update queued track"
	OpQueueRestore Op = "restore queue"

	// Playback operations
	OpPlaybackStart   Op = "start playback"
	OpPlaybackToggle  Op = "toggle playback"
	OpPlaybackSkip    Op = "skip track"
	OpPlaybackSeek    Op = "seek"
	OpPlaybackMode    Op = "change play mode"
	OpPlaybackRecover Op = "recover playback"

	// Scrobbling
	OpScrobble Op = "scrobble"

	// Initialization
	OpInitialize Op = "initialize player"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
