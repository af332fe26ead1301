package stepseq

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sequencer drives runs of a Sequence. All run state is owned by a single loop
// goroutine; timers and narration only post events into it.
type Sequencer struct {
	seq      *Sequence
	narrator Narrator
	data     any
	logger   *slog.Logger
	observer func(Snapshot)

	events   chan event
	requests chan request
	closed   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	// Published view, readable from any goroutine
	mu      sync.RWMutex
	snap    Snapshot
	changed chan struct{}

	// Loop-owned
	status Status
	index  int
	cur    *run
}

// run is one execution of the sequence
type run struct {
	id        string
	pending   *Registry
	scheduled map[int]Handle // Step index -> pending handle
	logger    *slog.Logger

	speaking      Handle // Narration wait we still own on the narrator, 0 if none
	speakingIndex int
}

// Option is a functional option for configuring a Sequencer
type Option func(*Sequencer)

// WithEventQueueSize sets the event queue buffer size
func WithEventQueueSize(size int) Option {
	return func(s *Sequencer) {
		s.events = make(chan event, size)
	}
}

// WithLogger sets the logger for the sequencer
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sequencer) {
		s.logger = logger
	}
}

// WithData sets the application data accessible via Context
func WithData(data any) Option {
	return func(s *Sequencer) {
		s.data = data
	}
}

// WithNarrator sets the speech capability used by narration steps. Without one,
// narration steps fire as zero delays.
func WithNarrator(n Narrator) Option {
	return func(s *Sequencer) {
		s.narrator = n
	}
}

// WithObserver sets a callback invoked on the loop after every state or index change.
// It must not call blocking Sequencer methods.
func WithObserver(fn func(Snapshot)) Option {
	return func(s *Sequencer) {
		s.observer = fn
	}
}

// New creates an idle sequencer for seq and starts its loop. Cancelling ctx tears
// it down exactly like Close.
func New(ctx context.Context, seq *Sequence, opts ...Option) *Sequencer {
	if seq == nil {
		seq = &Sequence{}
	}

	s := &Sequencer{
		seq:      seq,
		events:   make(chan event, 64),
		requests: make(chan request),
		closed:   make(chan struct{}),
		changed:  make(chan struct{}),
		logger:   Logger,
		status:   StatusIdle,
		index:    -1,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.snap = Snapshot{Status: StatusIdle, Index: -1, Total: seq.Len()}
	s.ctx, s.cancel = context.WithCancel(ctx)

	go s.loop()

	return s
}

// Start begins a new run. No-op unless idle, complete or cancelled.
func (s *Sequencer) Start() { s.do(cmdStart) }

// Pause cancels pending steps and freezes the cursor. No-op unless running.
func (s *Sequencer) Pause() { s.do(cmdPause) }

// Resume reschedules the steps after the cursor, timing them from now. No-op unless paused.
func (s *Sequencer) Resume() { s.do(cmdResume) }

// Reset cancels the run and rewinds the cursor. It does not restart.
func (s *Sequencer) Reset() { s.do(cmdReset) }

// Cancel cancels the run; no further effects fire until the next Start.
func (s *Sequencer) Cancel() { s.do(cmdCancel) }

// Close tears the sequencer down: the run is cancelled and the loop stops.
// Every command after Close is a no-op.
func (s *Sequencer) Close() error {
	s.cancel()
	<-s.closed
	return nil
}

// Snapshot returns the current published state
func (s *Sequencer) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Status returns the current run status
func (s *Sequencer) Status() Status {
	return s.Snapshot().Status
}

// Index returns the last fired step, -1 before the first
func (s *Sequencer) Index() int {
	return s.Snapshot().Index
}

// Wait blocks until the run is complete or cancelled, or ctx is done
func (s *Sequencer) Wait(ctx context.Context) (Snapshot, error) {
	for {
		s.mu.RLock()
		snap, changed := s.snap, s.changed
		s.mu.RUnlock()

		if snap.Status.Terminal() {
			return snap, nil
		}

		select {
		case <-changed:
		case <-s.closed:
		case <-ctx.Done():
			return snap, ctx.Err()
		}
	}
}

// do hands a command to the loop and waits until it has been applied
func (s *Sequencer) do(cmd command) {
	req := request{cmd: cmd, done: make(chan struct{})}
	select {
	case s.requests <- req:
	case <-s.closed:
		return
	}
	<-req.done
}

// post queues an event from a timer or narration callback. It never blocks the
// caller, which may be the loop itself when a narrator completes synchronously.
func (s *Sequencer) post(ev event) {
	select {
	case s.events <- ev:
	default:
		go func() {
			select {
			case s.events <- ev:
			case <-s.closed:
			}
		}()
	}
}

// loop processes commands and callbacks until the sequencer is torn down
func (s *Sequencer) loop() {
	defer close(s.closed)
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debug("sequencer teardown")
			s.apply(cmdCancel)
			return
		case req := <-s.requests:
			s.apply(req.cmd)
			close(req.done)
		case ev := <-s.events:
			s.handle(ev)
		}
	}
}

// apply runs a command on the loop
func (s *Sequencer) apply(cmd command) {
	t, ok := findTransition(s.status, cmd)
	if !ok {
		s.logger.Debug("command ignored", "command", cmd, "status", s.status)
		return
	}

	s.logger.Debug("applying command", "command", cmd, "from", s.status, "to", t.To)

	switch t.Cmd {
	case cmdStart:
		s.begin()
	case cmdPause:
		s.pause()
	case cmdResume:
		s.resume()
	case cmdReset, cmdCancel:
		s.halt(t.To)
	}
}

// begin creates a fresh run and schedules it from step 0
func (s *Sequencer) begin() {
	id := uuid.NewString()
	logger := s.logger.With("run", id)
	s.cur = &run{
		id:            id,
		pending:       NewRegistry(logger),
		scheduled:     make(map[int]Handle),
		logger:        logger,
		speakingIndex: -1,
	}
	s.index = -1

	if s.seq.Len() == 0 {
		s.status = StatusComplete
		s.publish()
		return
	}

	s.status = StatusRunning
	s.publish()
	s.schedule(0)
}

// pause cancels everything pending and parks any narration in flight
func (s *Sequencer) pause() {
	r := s.cur
	n := r.pending.CancelAll()
	clear(r.scheduled)

	if r.speaking != 0 && s.narrator != nil {
		r.logger.Debug("narration paused", "index", r.speakingIndex)
		s.narrator.Pause()
	}

	s.status = StatusPaused
	r.logger.Debug("run paused", "index", s.index, "cancelled", n)
	s.publish()
}

// resume restarts the remaining steps with delays counted from now
func (s *Sequencer) resume() {
	s.status = StatusRunning
	s.cur.logger.Debug("run resumed", "index", s.index)
	s.publish()
	s.schedule(s.index + 1)
}

// halt cancels the run and moves to idle (rewinding) or cancelled
func (s *Sequencer) halt(to Status) {
	if r := s.cur; r != nil {
		n := r.pending.CancelAll()
		clear(r.scheduled)
		if r.speaking != 0 && s.narrator != nil {
			s.narrator.Stop()
		}
		r.speaking = 0
		r.speakingIndex = -1
		r.logger.Debug("run halted", "to", to, "cancelled", n)
	}

	s.status = to
	if to == StatusIdle {
		s.index = -1
	}
	s.publish()
}

// schedule arms the steps starting at from. Consecutive delay steps are scheduled
// at once with cumulative delays; a narration step is only started once it is the
// next step to fire.
func (s *Sequencer) schedule(from int) {
	r := s.cur
	n := s.seq.Len()
	if from >= n {
		s.complete()
		return
	}

	var cumulative time.Duration
	for i := from; i < n; i++ {
		step := s.seq.steps[i]
		if step.Trigger.Kind == TriggerNarration {
			if i == from {
				s.speak(i)
			}
			return
		}

		cumulative += step.Trigger.Delay
		index := i
		r.scheduled[i] = r.pending.Schedule(cumulative, func(h Handle) {
			s.post(fired{run: r, index: index, handle: h})
		})
	}
}

// speak starts the narration of step i and waits for its completion
func (s *Sequencer) speak(i int) {
	r := s.cur
	if s.narrator == nil {
		r.scheduled[i] = r.pending.Schedule(0, func(h Handle) {
			s.post(fired{run: r, index: i, handle: h})
		})
		return
	}

	h := r.pending.Hold(nil)
	r.scheduled[i] = h
	r.speaking = h
	r.speakingIndex = i

	r.logger.Debug("narration started", "step", s.seq.label(i))
	s.narrator.Speak(s.seq.steps[i].Trigger.Text, func(err error) {
		s.post(narrated{run: r, index: i, handle: h, err: err})
	})
}

// handle reacts to a timer or narration callback
func (s *Sequencer) handle(ev event) {
	switch ev := ev.(type) {
	case fired:
		s.fire(ev.run, ev.index, ev.handle)
	case narrated:
		if ev.run.speaking == ev.handle {
			ev.run.speaking = 0
			ev.run.speakingIndex = -1
		}
		if ev.err != nil {
			ev.run.logger.Debug("narration ended early, continuing", "index", ev.index, "error", ev.err)
		}
		s.fire(ev.run, ev.index, ev.handle)
	}
}

// fire advances the run up to index if the callback is still current
func (s *Sequencer) fire(r *run, index int, h Handle) {
	if r != s.cur || !r.pending.Settle(h) {
		r.logger.Debug("stale callback ignored", "index", index)
		return
	}
	if s.status != StatusRunning {
		r.logger.Debug("callback suppressed", "index", index, "status", s.status)
		return
	}

	// Earlier steps of the same batch have earlier or equal deadlines, so they are due too.
	for i := s.index + 1; i <= index; i++ {
		if i < index {
			if eh, ok := r.scheduled[i]; ok {
				r.pending.Settle(eh)
			}
		}
		delete(r.scheduled, i)

		s.advanceTo(i)
		if s.cur != r || s.status != StatusRunning {
			// The effect paused, reset or cancelled the run
			return
		}
	}

	next := index + 1
	if next >= s.seq.Len() {
		s.complete()
		return
	}
	if _, ok := r.scheduled[next]; !ok {
		s.schedule(next)
	}
}

// advanceTo moves the cursor and runs the step effect. It is the only writer of index.
func (s *Sequencer) advanceTo(i int) {
	s.index = i
	s.cur.logger.Debug("step fired", "step", s.seq.label(i), "index", i)
	s.publish()

	if effect := s.seq.steps[i].Effect; effect != nil {
		effect(s.makeContext(i))
	}
}

// complete finishes the run
func (s *Sequencer) complete() {
	s.cur.pending.CancelAll()
	s.status = StatusComplete
	s.cur.logger.Debug("run complete", "steps", s.seq.Len())
	s.publish()
}

// publish updates the readable snapshot and notifies waiters and the observer
func (s *Sequencer) publish() {
	snap := Snapshot{
		Status: s.status,
		Index:  s.index,
		Total:  s.seq.Len(),
	}
	if s.cur != nil {
		snap.RunID = s.cur.id
	}

	s.mu.Lock()
	s.snap = snap
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()

	if s.observer != nil {
		s.observer(snap)
	}
}

// makeContext creates a context for an effect
func (s *Sequencer) makeContext(i int) *Context {
	return &Context{
		Index:  i,
		Step:   s.seq.steps[i],
		RunID:  s.cur.id,
		Data:   s.data,
		Logger: s.cur.logger,
		seq:    s,
	}
}
