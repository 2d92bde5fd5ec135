package player

import "sync"

// EventKind identifies an engine event.
type EventKind int

const (
	// EventTransitioned: the engine moved to a different item, or restarted
	// the same item under RepeatOne.
	EventTransitioned EventKind = iota
	// EventEnded: the last item ended and nothing follows.
	EventEnded
	// EventDiscontinuity: the position jumped within the current item.
	EventDiscontinuity
	// EventError: the current item failed to load or play.
	EventError
	// EventIsPlayingChanged: playback started or stopped producing audio.
	EventIsPlayingChanged
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventTransitioned:
		return "Transitioned"
	case EventEnded:
		return "Ended"
	case EventDiscontinuity:
		return "Discontinuity"
	case EventError:
		return "Error"
	case EventIsPlayingChanged:
		return "IsPlayingChanged"
	default:
		return "Unknown"
	}
}

// TransitionReason says why the current item changed.
type TransitionReason int

const (
	// TransitionAuto: the previous item finished naturally.
	TransitionAuto TransitionReason = iota
	// TransitionRepeat: the item restarted under RepeatOne.
	TransitionRepeat
	// TransitionSeek: an explicit seek, skip or rebuild.
	TransitionSeek
	// TransitionRemoved: the current item was removed from the queue.
	TransitionRemoved
)

// String returns the reason name.
func (r TransitionReason) String() string {
	switch r {
	case TransitionAuto:
		return "Auto"
	case TransitionRepeat:
		return "Repeat"
	case TransitionSeek:
		return "Seek"
	case TransitionRemoved:
		return "Removed"
	default:
		return "Unknown"
	}
}

// Automatic reports whether the transition happened without user action.
func (r TransitionReason) Automatic() bool {
	return r == TransitionAuto || r == TransitionRepeat
}

// Event is emitted on Engine.Events.
type Event struct {
	Kind    EventKind
	Reason  TransitionReason // EventTransitioned only
	Playing bool             // EventIsPlayingChanged only
	Err     error            // EventError only
}

// eventPump delivers events in order to a single consumer without ever
// blocking the producer. The audio callback path must not block.
type eventPump struct {
	mu      sync.Mutex
	pending []Event
	signal  chan struct{}
	out     chan Event
	done    chan struct{}
	once    sync.Once
}

func newEventPump() *eventPump {
	p := &eventPump{
		signal: make(chan struct{}, 1),
		out:    make(chan Event),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *eventPump) push(e Event) {
	p.mu.Lock()
	p.pending = append(p.pending, e)
	p.mu.Unlock()
	select {
	case p.signal <- struct{}{}:
	default:
	}
}

func (p *eventPump) run() {
	defer close(p.out)
	for {
		select {
		case <-p.done:
			return
		case <-p.signal:
		}
		p.mu.Lock()
		batch := p.pending
		p.pending = nil
		p.mu.Unlock()
		for _, e := range batch {
			select {
			case p.out <- e:
			case <-p.done:
				return
			}
		}
	}
}

func (p *eventPump) close() {
	p.once.Do(func() { close(p.done) })
}
