package player

import (
	"fmt"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// previousRestartThreshold: Previous restarts the current item when played
// past this point instead of moving back.
const previousRestartThreshold = 3 * time.Second

// Player is the beep-backed Engine. Items are decoded lazily: only the
// current item holds an open file.
type Player struct {
	mu      sync.Mutex
	queue   *engineQueue
	repeat  RepeatMode
	state   State
	loading bool
	closed  bool
	cuePos  time.Duration // position used when nothing is loaded

	file     *os.File
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	gen      uint64 // bumped on every unload, stale finish callbacks compare against it

	events *eventPump
}

// New creates a stopped player with an empty queue.
func New() *Player {
	return &Player{
		queue:  newEngineQueue(rand.IntN),
		state:  Stopped,
		events: newEventPump(),
	}
}

// Ready reports whether the player accepts commands.
func (p *Player) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed
}

// Items returns a copy of the engine queue.
func (p *Player) Items() []Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Item(nil), p.queue.items...)
}

// CurrentIndex returns the current item index, or -1.
func (p *Player) CurrentIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.index
}

// SetItems rebuilds the queue. Rebuilding resets the repeat mode to
// RepeatOff; callers that want another mode set it again afterwards.
func (p *Player) SetItems(items []Item, startIndex int, startPos time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	wasPlaying := p.state == Playing
	p.unloadLocked()
	if err := p.queue.set(items, startIndex); err != nil {
		return err
	}
	p.repeat = RepeatOff
	p.cuePos = startPos
	if len(items) == 0 {
		p.setStateLocked(Stopped)
		return nil
	}
	p.events.push(Event{Kind: EventTransitioned, Reason: TransitionSeek})
	if wasPlaying {
		p.loadLocked()
	}
	return nil
}

// Insert adds item at queue index i.
func (p *Player) Insert(i int, item Item) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	return p.queue.insert(i, item)
}

// Remove deletes the item at i. Removing the current item moves playback
// to the item that followed it. When nothing followed, playback ends.
func (p *Player) Remove(i int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	wasCurrent, err := p.queue.remove(i)
	if err != nil || !wasCurrent {
		return err
	}
	wasPlaying := p.state == Playing
	p.unloadLocked()
	p.cuePos = 0
	if p.queue.index < 0 {
		p.setStateLocked(Stopped)
		return nil
	}
	if i == len(p.queue.items) {
		p.setStateLocked(Stopped)
		if wasPlaying {
			p.events.push(Event{Kind: EventEnded})
		}
		return nil
	}
	p.events.push(Event{Kind: EventTransitioned, Reason: TransitionRemoved})
	if wasPlaying {
		p.loadLocked()
	}
	return nil
}

// Replace swaps the metadata of the item at i without touching playback.
func (p *Player) Replace(i int, item Item) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	return p.queue.replace(i, item)
}

// Clear stops playback and empties the queue.
func (p *Player) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unloadLocked()
	p.queue.clear()
	p.cuePos = 0
	p.setStateLocked(Stopped)
}

// SeekTo moves to queue index i at pos. Within the current item this is a
// plain position seek.
func (p *Player) SeekTo(i int, pos time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if i < 0 || i >= len(p.queue.items) {
		return ErrIndexOutOfRange
	}
	if i == p.queue.index && p.streamer != nil {
		p.seekStreamerLocked(pos)
		p.events.push(Event{Kind: EventDiscontinuity})
		return nil
	}
	p.moveToLocked(i, pos, TransitionSeek)
	return nil
}

// Next skips to the following item in play order. RepeatOne does not trap
// an explicit skip.
func (p *Player) Next() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	mode := p.repeat
	if mode == RepeatOne {
		mode = RepeatAll
	}
	n := p.queue.next(mode)
	if n < 0 {
		return nil
	}
	p.moveToLocked(n, 0, TransitionSeek)
	return nil
}

// Previous restarts the current item, or moves to the preceding one when
// near the start.
func (p *Player) Previous() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if p.queue.index < 0 {
		return nil
	}
	prev := p.queue.previous()
	if prev < 0 || p.positionLocked() > previousRestartThreshold {
		if p.streamer != nil {
			p.seekStreamerLocked(0)
		} else {
			p.cuePos = 0
		}
		p.events.push(Event{Kind: EventDiscontinuity})
		return nil
	}
	p.moveToLocked(prev, 0, TransitionSeek)
	return nil
}

// Play starts or resumes the current item. Load failures are reported as
// EventError, not returned.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if p.queue.index < 0 {
		return ErrIndexOutOfRange
	}
	if p.streamer == nil {
		p.loadLocked()
		return nil
	}
	if p.state == Playing {
		return nil
	}
	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	p.setStateLocked(Playing)
	return nil
}

// Pause pauses playback.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Playing || p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	p.setStateLocked(Paused)
}

// Stop releases the current file. The queue and index are kept.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unloadLocked()
	p.cuePos = 0
	p.setStateLocked(Stopped)
}

// Shuffle returns whether shuffle order is active.
func (p *Player) Shuffle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.shuffle
}

// SetShuffle toggles shuffle order. Enabling it draws a new order.
func (p *Player) SetShuffle(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue.setShuffle(enabled)
}

// RepeatMode returns the repeat mode.
func (p *Player) RepeatMode() RepeatMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.repeat
}

// SetRepeatMode sets the repeat mode.
func (p *Player) SetRepeatMode(mode RepeatMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.repeat = mode
}

// State returns the transport state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// IsLoading reports whether the current item is being decoded.
func (p *Player) IsLoading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Position returns the playback position in the current item.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

// Duration returns the length of the current item.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer != nil {
		return p.format.SampleRate.D(p.streamer.Len())
	}
	if item, ok := p.queue.current(); ok {
		return item.Duration
	}
	return 0
}

// Buffered returns how much of the current item is available. Local files
// are always fully available.
func (p *Player) Buffered() time.Duration {
	return p.Duration()
}

// Speed returns the playback speed.
func (p *Player) Speed() float64 {
	return 1.0
}

// Events returns the engine event stream.
func (p *Player) Events() <-chan Event {
	return p.events.out
}

// Close stops playback and closes the event stream.
func (p *Player) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.unloadLocked()
	p.state = Stopped
	p.mu.Unlock()
	p.events.close()
	return nil
}

func (p *Player) positionLocked() time.Duration {
	if p.streamer == nil {
		return p.cuePos
	}
	speaker.Lock()
	pos := p.format.SampleRate.D(p.streamer.Position())
	speaker.Unlock()
	return pos
}

func (p *Player) moveToLocked(i int, pos time.Duration, reason TransitionReason) {
	wasPlaying := p.state == Playing
	p.unloadLocked()
	p.queue.index = i
	p.cuePos = pos
	p.events.push(Event{Kind: EventTransitioned, Reason: reason})
	if wasPlaying {
		p.loadLocked()
	}
}

func (p *Player) seekStreamerLocked(pos time.Duration) {
	speaker.Lock()
	n := p.format.SampleRate.N(pos)
	n = max(0, min(n, p.streamer.Len()-1))
	_ = p.streamer.Seek(n)
	speaker.Unlock()
}

// loadLocked decodes the current item at cuePos and starts it on the
// speaker. Failures leave the player stopped on the failing item.
func (p *Player) loadLocked() {
	item, ok := p.queue.current()
	if !ok {
		return
	}
	p.loading = true
	defer func() { p.loading = false }()

	streamer, format, f, err := decodeFile(item.Path)
	if err != nil {
		p.failLocked(item, err)
		return
	}
	rate, err := ensureSpeaker(format.SampleRate)
	if err != nil {
		streamer.Close()
		f.Close()
		p.failLocked(item, err)
		return
	}

	if p.cuePos > 0 {
		n := format.SampleRate.N(p.cuePos)
		_ = streamer.Seek(max(0, min(n, streamer.Len()-1)))
	}

	var playStreamer beep.Streamer = streamer
	if format.SampleRate != rate {
		playStreamer = beep.Resample(4, format.SampleRate, rate, streamer)
	}

	p.file = f
	p.streamer = streamer
	p.format = format
	p.ctrl = &beep.Ctrl{Streamer: playStreamer}
	p.volume = &effects.Volume{Streamer: p.ctrl, Base: 2}

	gen := p.gen
	speaker.Play(beep.Seq(p.volume, beep.Callback(func() {
		// Runs under the speaker lock: hand off before touching the player.
		go p.handleFinished(gen)
	})))

	p.setStateLocked(Playing)
}

func (p *Player) failLocked(item Item, err error) {
	p.setStateLocked(Stopped)
	p.events.push(Event{Kind: EventError, Err: fmt.Errorf("load %s: %w", item.Path, err)})
}

func (p *Player) handleFinished(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || gen != p.gen {
		return
	}
	n := p.queue.next(p.repeat)
	p.unloadLocked()
	p.cuePos = 0
	if n < 0 {
		p.setStateLocked(Stopped)
		p.events.push(Event{Kind: EventEnded})
		return
	}
	reason := TransitionAuto
	if n == p.queue.index {
		reason = TransitionRepeat
	}
	p.queue.index = n
	p.events.push(Event{Kind: EventTransitioned, Reason: reason})
	p.loadLocked()
}

func (p *Player) unloadLocked() {
	p.gen++
	if p.streamer == nil {
		return
	}
	speaker.Clear()
	p.streamer.Close()
	p.streamer = nil
	if p.file != nil {
		p.file.Close()
		p.file = nil
	}
	p.ctrl = nil
	p.volume = nil
}

func (p *Player) setStateLocked(s State) {
	if p.state == s {
		return
	}
	wasPlaying := p.state == Playing
	p.state = s
	if wasPlaying != (s == Playing) {
		p.events.push(Event{Kind: EventIsPlayingChanged, Playing: s == Playing})
	}
}
