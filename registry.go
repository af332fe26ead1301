package stepseq

import (
	"log/slog"
	"sync"
	"time"
)

// Handle identifies one pending deferred callback in a Registry
type Handle uint64

// pendingEntry tracks a scheduled callback or an externally completed wait
type pendingEntry struct {
	timer   *time.Timer
	release func() // Optional, called when the entry is cancelled
	delay   time.Duration
}

// Registry tracks the outstanding deferred callbacks of one run so they can be
// cancelled together. It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	next    Handle
	pending map[Handle]*pendingEntry
	logger  *slog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = Logger
	}
	return &Registry{
		pending: make(map[Handle]*pendingEntry),
		logger:  logger,
	}
}

// Schedule runs fn after delay and returns its handle. fn receives the handle so it
// can settle it. A negative delay is a programmer error and panics.
func (r *Registry) Schedule(delay time.Duration, fn func(Handle)) Handle {
	if delay < 0 {
		panic("stepseq: negative schedule delay " + delay.String())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	h := r.next
	entry := &pendingEntry{delay: delay}
	r.pending[h] = entry

	// The callback only reads h; registration finishes under the lock before it can matter.
	entry.timer = time.AfterFunc(delay, func() {
		fn(h)
	})

	r.logger.Debug("timer scheduled", "handle", h, "delay", delay)
	return h
}

// Hold registers a wait completed by something other than a timer, such as
// narration. release is called if the handle is cancelled before it settles.
func (r *Registry) Hold(release func()) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	h := r.next
	r.pending[h] = &pendingEntry{release: release}
	r.logger.Debug("wait held", "handle", h)
	return h
}

// Settle removes a handle whose callback has fired. It reports false if the handle
// was already cancelled or settled, in which case the callback is stale.
func (r *Registry) Settle(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.pending[h]
	if !ok {
		return false
	}
	if entry.timer != nil {
		entry.timer.Stop()
	}
	delete(r.pending, h)
	return true
}

// Cancel stops a single pending handle. No-op if it is not pending.
func (r *Registry) Cancel(h Handle) bool {
	r.mu.Lock()
	entry, ok := r.pending[h]
	if ok {
		delete(r.pending, h)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	r.stop(h, entry)
	return true
}

// CancelAll stops every pending handle and clears the set. Returns how many were pending.
func (r *Registry) CancelAll() int {
	r.mu.Lock()
	pending := r.pending
	r.pending = make(map[Handle]*pendingEntry)
	r.mu.Unlock()

	for h, entry := range pending {
		r.stop(h, entry)
	}
	return len(pending)
}

func (r *Registry) stop(h Handle, entry *pendingEntry) {
	if entry.timer != nil {
		entry.timer.Stop()
	}
	// release runs outside the lock; it may call back into code that schedules.
	if entry.release != nil {
		entry.release()
	}
	r.logger.Debug("handle cancelled", "handle", h)
}

// Pending returns the number of outstanding handles
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Active checks if a handle is still pending
func (r *Registry) Active(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[h]
	return ok
}
