// internal/player/state.go
package player

// State represents the engine's transport state.
//
// The state machine has three states with the following valid transitions:
//
//	┌──────────┐      play       ┌──────────┐
//	│  Stopped │ ───────────────▶│  Playing │
//	└──────────┘                 └──────────┘
//	     ▲                            │ │
//	     │ stop                 pause │ │ stop
//	     │                            ▼ │
//	     │                       ┌──────────┐
//	     └───────────────────────│  Paused  │
//	                  stop       └──────────┘
//	                                  │
//	                             play │
//	                                  ▼
//	                             Playing
//
// Stopped keeps the queue and current index; only Clear empties them.
// Seeking while Paused or Stopped loads the item without starting audio.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if playback is active (Playing or Paused).
func (s State) IsActive() bool {
	return s == Playing || s == Paused
}

// RepeatMode defines what the engine does when an item ends.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatAll
	RepeatOne
)

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "Off"
	case RepeatAll:
		return "All"
	case RepeatOne:
		return "One"
	default:
		return "Unknown"
	}
}

// Valid reports whether m is a known repeat mode.
func (m RepeatMode) Valid() bool {
	return m >= RepeatOff && m <= RepeatOne
}
