// Package playback keeps the playback engine's queue in step with the
// application's track queue.
//
// All engine commands and state refreshes run on a single goroutine, the
// playback context, owned by a Session. Public methods hand their work to
// that goroutine and wait for it. File checks run on a separate worker pool
// so a slow disk never stalls engine event handling.
package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/llehouerou/ripple/internal/config"
	"github.com/llehouerou/ripple/internal/errmsg"
	"github.com/llehouerou/ripple/internal/player"
	"github.com/llehouerou/ripple/internal/playlist"
	"github.com/llehouerou/ripple/internal/state"
)

const closeSaveTimeout = 5 * time.Second

// Options configures a Session. Engine is required; everything else has a
// usable default.
type Options struct {
	Engine   player.Engine
	Store    *playlist.Store
	Settings Settings
	Recorder PlayRecorder
	Purger   LibraryPurger
	Checker  AccessChecker
	Clock    Clock
	Logger   *log.Logger
	Config   config.Playback
}

type task struct {
	fn   func() error
	done chan error
}

// Session is one playback session: an engine, the track queue it plays and
// the background loops that watch them.
type Session struct {
	id       string
	engine   player.Engine
	store    *playlist.Store
	settings Settings
	recorder PlayRecorder
	purger   LibraryPurger
	cfg      config.Playback
	logger   *log.Logger

	checks *checkPool
	tasks  chan task

	// Owned by the playback context
	queue   *queueManager
	router  *eventRouter
	tracker *progressTracker
	proj    projector
	repeat  player.RepeatMode
	lastErr error
	lastOp  errmsg.Op

	lifeMu  sync.RWMutex
	closing bool

	quit     chan struct{} // stops the tickers
	stop     chan struct{} // stops the playback context
	stopped  chan struct{} // closed once the playback context has exited
	loops    sync.WaitGroup
	bg       sync.WaitGroup
	bgCtx    context.Context //nolint:containedctx // lifetime of background side effects
	bgCancel context.CancelFunc
	once     sync.Once

	subsMu     sync.RWMutex
	subs       []*Subscription
	subsClosed bool
	current    State
}

// New creates a session and starts its playback context and loops.
func New(opts Options) *Session {
	cfg := opts.Config
	if cfg == (config.Playback{}) {
		cfg = config.DefaultPlayback()
	}

	s := &Session{
		id:       uuid.NewString(),
		engine:   opts.Engine,
		store:    opts.Store,
		settings: opts.Settings,
		recorder: opts.Recorder,
		purger:   opts.Purger,
		cfg:      cfg,
		logger:   opts.Logger,
		tasks:    make(chan task),
		quit:     make(chan struct{}),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	if s.store == nil {
		s.store = playlist.NewStore()
	}
	if s.settings == nil {
		s.settings = nopSettings{}
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.purger == nil {
		s.purger = nopPurger{}
	}
	checker := opts.Checker
	if checker == nil {
		checker = FileChecker{}
	}
	clock := opts.Clock
	if clock == nil {
		clock = realClock{}
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	s.logger = s.logger.With("session", s.id)
	s.bgCtx, s.bgCancel = context.WithCancel(context.Background())

	s.checks = newCheckPool(checker, cfg.AccessWorkers)
	s.queue = &queueManager{engine: s.engine, store: s.store}
	s.router = &eventRouter{
		queue:    s.queue,
		engine:   s.engine,
		debounce: &debouncer{clock: clock, window: cfg.Debounce},
		logger:   s.logger.With("component", "router"),
		purge:    s.purgeAsync,
	}
	s.tracker = newProgressTracker(cfg.PlayThreshold, cfg.NearEdge)
	s.proj = projector{engine: s.engine, store: s.store}
	s.current = s.project()

	go s.run()
	s.loops.Add(2)
	go s.loop(cfg.ProgressInterval, s.pollProgress)
	go s.loop(cfg.PersistInterval, func() { s.persist(s.bgCtx) })

	return s
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// Subscribe registers an observer. The State channel immediately holds the
// current state.
func (s *Session) Subscribe() *Subscription {
	sub := newSubscription()
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if s.subsClosed {
		sub.close()
		return sub
	}
	s.subs = append(s.subs, sub)
	sub.sendState(s.current)
	return sub
}

// State returns the latest published state.
func (s *Session) State() State {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	return s.current.clone()
}

// InitiatePlayback plays the queued track at locator from startPos, or
// from the start when startPos is nil.
func (s *Session) InitiatePlayback(ctx context.Context, locator string, startPos *time.Duration) error {
	leave, err := s.enter()
	if err != nil {
		return err
	}
	defer leave()
	return s.initiate(ctx, func(st *playlist.Store) (playlist.Track, bool) {
		return st.FindByPath(locator)
	}, startPos)
}

// PlayTrack plays the queued track t from startPos.
func (s *Session) PlayTrack(ctx context.Context, t playlist.Track, startPos *time.Duration) error {
	leave, err := s.enter()
	if err != nil {
		return err
	}
	defer leave()
	return s.initiate(ctx, func(st *playlist.Store) (playlist.Track, bool) {
		return st.Find(t.ID)
	}, startPos)
}

func (s *Session) initiate(
	ctx context.Context,
	find func(*playlist.Store) (playlist.Track, bool),
	startPos *time.Duration,
) error {
	var target playlist.Track
	var skip bool
	err := s.do(ctx, func() error {
		t, err := s.queue.resolve(find)
		if err != nil {
			return s.fail(errmsg.OpPlaybackStart, err)
		}
		target = t
		skip = s.queue.alreadyPlaying(t, startPos)
		return nil
	})
	if err != nil || skip {
		return err
	}

	if err := s.checks.check(ctx, target.Path, s.stopped); err != nil {
		return s.failFromOutside(ctx, errmsg.OpPlaybackStart, err)
	}

	return s.do(ctx, func() error {
		if err := s.queue.startAt(target, startPos, s.repeat); err != nil {
			return s.fail(errmsg.OpPlaybackStart, err)
		}
		var pos time.Duration
		if startPos != nil {
			pos = *startPos
		}
		s.tracker.started(target.ID, pos)
		s.succeed()
		return nil
	})
}

// PlayPause pauses when playing and plays otherwise. With nothing loaded
// in the engine it starts the queue from its first track.
func (s *Session) PlayPause(ctx context.Context) error {
	leave, err := s.enter()
	if err != nil {
		return err
	}
	defer leave()

	var first *playlist.Track
	err = s.do(ctx, func() error {
		if !s.engine.Ready() {
			return s.fail(errmsg.OpPlaybackToggle, ErrEngineNotReady)
		}
		if s.engine.State() == player.Playing {
			s.engine.Pause()
			s.succeed()
			return nil
		}
		if len(s.engine.Items()) > 0 {
			if err := s.engine.Play(); err != nil {
				return s.fail(errmsg.OpPlaybackToggle, engineErr(err))
			}
			s.succeed()
			return nil
		}
		tracks := s.store.Tracks()
		if len(tracks) == 0 {
			return s.fail(errmsg.OpPlaybackToggle, ErrEmptyQueue)
		}
		first = &tracks[0]
		return nil
	})
	if err != nil || first == nil {
		return err
	}
	id := first.ID
	return s.initiate(ctx, func(st *playlist.Store) (playlist.Track, bool) {
		return st.Find(id)
	}, nil)
}

// AddToQueueNext queues t to play right after the current track, moving it
// if it is already queued.
func (s *Session) AddToQueueNext(ctx context.Context, t playlist.Track) error {
	leave, err := s.enter()
	if err != nil {
		return err
	}
	defer leave()

	if err := s.checks.check(ctx, t.Path, s.stopped); err != nil {
		return s.failFromOutside(ctx, errmsg.OpQueueAdd, err)
	}

	return s.do(ctx, func() error {
		started, err := s.queue.addNext(t)
		if err != nil {
			return s.fail(errmsg.OpQueueAdd, err)
		}
		if started {
			s.tracker.newInstance()
		}
		s.succeed()
		return nil
	})
}

// RemoveFromQueue removes t at the user's request. Removing a track that
// is not queued changes nothing and reports ErrTrackNotInQueue.
func (s *Session) RemoveFromQueue(ctx context.Context, t playlist.Track) error {
	return s.remove(ctx, t, false)
}

// OnExternalTrackRemoved drops t after it disappeared from the library.
// Tracks that are not queued are ignored.
func (s *Session) OnExternalTrackRemoved(ctx context.Context, t playlist.Track) error {
	return s.remove(ctx, t, true)
}

func (s *Session) remove(ctx context.Context, t playlist.Track, external bool) error {
	leave, err := s.enter()
	if err != nil {
		return err
	}
	defer leave()

	return s.do(ctx, func() error {
		emptied, err := s.queue.remove(t.ID)
		if external && errors.Is(err, ErrTrackNotInQueue) {
			return nil
		}
		if err != nil {
			return s.fail(errmsg.OpQueueRemove, err)
		}
		if emptied {
			s.tracker.reset()
		}
		s.succeed()
		return nil
	})
}

// UpdateTrackInQueue replaces the metadata of a queued track without
// interrupting playback.
func (s *Session) UpdateTrackInQueue(ctx context.Context, t playlist.Track) error {
	return s.exec(ctx, errmsg.OpQueueUpdate, func() error {
		current, err := s.queue.update(t)
		if err != nil {
			return err
		}
		if current {
			s.logger.Debug("current track metadata updated", "id", t.ID)
		}
		return nil
	})
}

// Next skips to the next track in play order.
func (s *Session) Next(ctx context.Context) error {
	return s.exec(ctx, errmsg.OpPlaybackSkip, func() error {
		if !s.engine.Ready() {
			return ErrEngineNotReady
		}
		if err := s.engine.Next(); err != nil {
			return engineErr(err)
		}
		return nil
	})
}

// Previous restarts the current track, or goes back one track near its start.
func (s *Session) Previous(ctx context.Context) error {
	return s.exec(ctx, errmsg.OpPlaybackSkip, func() error {
		if !s.engine.Ready() {
			return ErrEngineNotReady
		}
		if err := s.engine.Previous(); err != nil {
			return engineErr(err)
		}
		s.tracker.newInstance()
		return nil
	})
}

// SeekTo moves within the current track.
func (s *Session) SeekTo(ctx context.Context, pos time.Duration) error {
	return s.exec(ctx, errmsg.OpPlaybackSeek, func() error {
		if !s.engine.Ready() {
			return ErrEngineNotReady
		}
		idx := s.engine.CurrentIndex()
		if idx < 0 {
			return ErrEmptyQueue
		}
		return s.queue.seek(idx, max(0, pos))
	})
}

// SetShuffle applies the user's shuffle choice.
func (s *Session) SetShuffle(ctx context.Context, enabled bool) error {
	return s.exec(ctx, errmsg.OpPlaybackMode, func() error {
		s.queue.setShuffle(enabled)
		return nil
	})
}

// SetRepeatMode applies and saves the repeat preference.
func (s *Session) SetRepeatMode(ctx context.Context, mode player.RepeatMode) error {
	err := s.exec(ctx, errmsg.OpPlaybackMode, func() error {
		if !mode.Valid() {
			return fmt.Errorf("invalid repeat mode %d", mode)
		}
		s.repeat = mode
		s.engine.SetRepeatMode(mode)
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.settings.SaveRepeatMode(ctx, int(mode)); err != nil {
		s.logger.Warn("save repeat mode failed", "err", err)
	}
	return nil
}

// SetStopAfterCurrent pauses playback the next time a track ends on its own.
func (s *Session) SetStopAfterCurrent(ctx context.Context, enabled bool) error {
	return s.exec(ctx, errmsg.OpPlaybackMode, func() error {
		s.router.stopAfterCurrent = enabled
		return nil
	})
}

// ReplaceQueue swaps the whole track queue, as loading, filtering or
// searching does. The engine keeps playing its own queue until the next
// play request rebuilds it.
func (s *Session) ReplaceQueue(ctx context.Context, tracks []playlist.Track) error {
	return s.exec(ctx, errmsg.OpQueueLoad, func() error {
		s.store.Replace(tracks)
		return nil
	})
}

// Restore loads a saved session against the freshly scanned library. The
// engine is prepared at the saved track and position but not started.
func (s *Session) Restore(ctx context.Context, snap state.PlaybackSnapshot, library []playlist.Track) error {
	queue, current := RestoreQueue(snap, library)
	mode := player.RepeatMode(snap.Repeat)
	if !mode.Valid() {
		mode = player.RepeatOff
	}
	if len(snap.QueueIDs) > 0 && len(queue) != len(snap.QueueIDs) {
		s.logger.Info("saved queue is stale, restoring full library", "saved", len(snap.QueueIDs), "library", len(library))
	}

	return s.exec(ctx, errmsg.OpQueueRestore, func() error {
		s.store.Replace(queue)
		s.repeat = mode
		index, pos := 0, time.Duration(0)
		if current != nil {
			index = s.store.IndexOf(current.ID)
			pos = max(0, snap.Position)
		}
		s.tracker.reset()
		return s.queue.load(index, pos, mode, snap.Shuffle)
	})
}

// Close stops the loops, saves the session one last time and releases the
// engine. It is safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.once.Do(func() {
		// Wait for in-flight calls and refuse new ones
		s.lifeMu.Lock()
		s.closing = true
		s.lifeMu.Unlock()

		close(s.quit)
		s.loops.Wait()

		ctx, cancel := context.WithTimeout(context.Background(), closeSaveTimeout)
		defer cancel()
		snap, snapErr := s.snapshot(ctx)

		close(s.stop)
		<-s.stopped
		s.checks.stop()
		s.bg.Wait()

		if snapErr == nil {
			if err := s.settings.SavePlayback(ctx, snap); err != nil {
				s.logger.Warn("final save failed", "err", err)
			}
		}
		s.bgCancel()

		err = s.engine.Close()

		s.subsMu.Lock()
		s.subsClosed = true
		for _, sub := range s.subs {
			sub.close()
		}
		s.subs = nil
		s.subsMu.Unlock()

		s.store.Close()
	})
	return err
}

// enter guards a public call against a concurrent Close.
func (s *Session) enter() (func(), error) {
	s.lifeMu.RLock()
	if s.closing {
		s.lifeMu.RUnlock()
		return nil, ErrClosed
	}
	return s.lifeMu.RUnlock, nil
}

// exec runs fn on the playback context, recording its outcome in State.
func (s *Session) exec(ctx context.Context, op errmsg.Op, fn func() error) error {
	leave, err := s.enter()
	if err != nil {
		return err
	}
	defer leave()

	return s.do(ctx, func() error {
		if err := fn(); err != nil {
			return s.fail(op, err)
		}
		s.succeed()
		return nil
	})
}

// do hands fn to the playback context and waits for it to finish.
func (s *Session) do(ctx context.Context, fn func() error) error {
	t := task{fn: fn, done: make(chan error, 1)}
	select {
	case s.tasks <- t:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return ErrClosed
	}
	return <-t.done
}

// run is the playback context.
func (s *Session) run() {
	defer close(s.stopped)
	events := s.engine.Events()
	for {
		select {
		case <-s.stop:
			return
		case e, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.handleEvent(e)
		case t := <-s.tasks:
			// Callers observe every event the engine sent before their call
			events = s.drain(events)
			t.done <- t.fn()
		}
	}
}

func (s *Session) drain(events <-chan player.Event) <-chan player.Event {
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return nil
			}
			s.handleEvent(e)
		default:
			return events
		}
	}
}

func (s *Session) handleEvent(e player.Event) {
	res := s.router.handle(e)
	if res.newInstance {
		s.tracker.newInstance()
	}
	if res.emptied {
		s.tracker.reset()
	}
	switch {
	case res.err != nil:
		s.logger.Error("playback recovery", "err", res.err)
		s.lastErr, s.lastOp = res.err, errmsg.OpPlaybackRecover
	case res.clearErr:
		s.lastErr = nil
	}
	s.refresh()
	s.publishProgress(s.proj.progress())
}

func (s *Session) loop(interval time.Duration, fn func()) {
	defer s.loops.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.quit:
			return
		case <-ticker.C:
			fn()
		}
	}
}

func (s *Session) pollProgress() {
	_ = s.do(s.bgCtx, func() error {
		s.tick()
		return nil
	})
}

// tick is one progress poll on the playback context.
func (s *Session) tick() {
	// A confirming transition swallowed by the debounce must not leave
	// shuffle off for good
	if s.queue.confirmMarker() {
		s.logger.Debug("insert-next confirmed by progress poll")
		s.refresh()
	}

	p := s.proj.progress()
	if s.tracker.observe(p, s.engine.State() == player.Playing) {
		if t, ok := s.proj.current(); ok {
			s.recordPlay(t)
		}
	}

	s.publishProgress(p)
}

func (s *Session) publishProgress(p Progress) {
	s.subsMu.RLock()
	for _, sub := range s.subs {
		sub.sendProgress(p)
	}
	s.subsMu.RUnlock()
}

func (s *Session) snapshot(ctx context.Context) (state.PlaybackSnapshot, error) {
	var snap state.PlaybackSnapshot
	err := s.do(ctx, func() error {
		snap = state.PlaybackSnapshot{
			QueueIDs: s.store.IDs(),
			Repeat:   int(s.repeat),
			Shuffle:  s.queue.shuffleIntent(),
		}
		if t, ok := s.proj.current(); ok && s.store.IndexOf(t.ID) >= 0 {
			id := t.ID
			snap.TrackID = &id
			snap.Position = s.engine.Position()
		}
		return nil
	})
	return snap, err
}

func (s *Session) persist(ctx context.Context) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return
	}
	if err := s.settings.SavePlayback(ctx, snap); err != nil {
		s.logger.Warn("save playback failed", "err", err)
	}
}

// background runs fn off the playback context. Close waits for it.
// Only called from the playback context.
func (s *Session) background(fn func(ctx context.Context)) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		fn(s.bgCtx)
	}()
}

func (s *Session) recordPlay(t playlist.Track) {
	s.logger.Debug("play threshold reached", "id", t.ID, "title", t.Title)
	s.background(func(ctx context.Context) {
		if err := s.recorder.RecordPlayEvent(ctx, t); err != nil {
			s.logger.Warn("record play event failed", "id", t.ID, "err", err)
		}
	})
}

func (s *Session) purgeAsync(id int64) {
	s.background(func(ctx context.Context) {
		if err := s.purger.PurgeTrack(ctx, id); err != nil {
			s.logger.Warn("purge failed track", "id", id, "err", err)
		}
	})
}

// fail records err as the session error and publishes it.
func (s *Session) fail(op errmsg.Op, err error) error {
	s.lastErr, s.lastOp = err, op
	s.logger.Warn(string(op), "err", err)
	s.refresh()
	return err
}

// failFromOutside records an error found off the playback context.
func (s *Session) failFromOutside(ctx context.Context, op errmsg.Op, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrClosed) {
		return err
	}
	_ = s.do(ctx, func() error { return s.fail(op, err) })
	return err
}

func (s *Session) succeed() {
	s.lastErr = nil
	s.refresh()
}

func (s *Session) project() State {
	st := s.proj.project(s.queue.shuffleIntent(), s.lastErr, s.lastOp)
	st.StopAfterCurrent = s.router.stopAfterCurrent
	return st
}

// refresh rebuilds State and publishes it.
func (s *Session) refresh() {
	st := s.project()
	s.subsMu.Lock()
	s.current = st
	for _, sub := range s.subs {
		sub.sendState(st)
	}
	s.subsMu.Unlock()
}
