package narration

import (
	"strings"
	"sync"
	"time"
)

// DefaultWordsPerSecond is the pace of an unhurried narrator
const DefaultWordsPerSecond = 2.5

// Reading is a silent engine that takes as long as reading the text aloud would.
// It gives narration steps a natural pace on hosts without a synthesizer.
type Reading struct {
	WordsPerSecond float64
	OnSpeak        func(Utterance) // Optional, e.g. to show the text as a caption

	mu  sync.Mutex
	cur *reading
}

// reading is one utterance in progress
type reading struct {
	timer     *time.Timer
	remaining time.Duration
	started   time.Time
	paused    bool
	once      sync.Once
	done      func(error)
}

func (r *reading) finish(err error) {
	r.once.Do(func() {
		r.done(err)
	})
}

// NewReading creates a reading engine at the given pace; wps <= 0 uses the default
func NewReading(wps float64) *Reading {
	if wps <= 0 {
		wps = DefaultWordsPerSecond
	}
	return &Reading{WordsPerSecond: wps}
}

// Duration estimates how long u takes to read at its rate
func (e *Reading) Duration(u Utterance) time.Duration {
	wps := e.WordsPerSecond
	if wps <= 0 {
		wps = DefaultWordsPerSecond
	}
	rate := u.Rate
	if rate <= 0 {
		rate = 1
	}
	words := len(strings.Fields(u.Text))
	return time.Duration(float64(words) / (wps * rate) * float64(time.Second))
}

func (e *Reading) Available() bool { return true }

func (e *Reading) Voices() []Voice {
	return []Voice{{Name: "reading", Lang: "en", Default: true}}
}

func (e *Reading) Speak(u Utterance, done func(error)) {
	e.Cancel()

	rd := &reading{
		remaining: e.Duration(u),
		started:   time.Now(),
		done:      done,
	}

	e.mu.Lock()
	e.cur = rd
	rd.timer = time.AfterFunc(rd.remaining, func() { e.fire(rd) })
	e.mu.Unlock()

	if e.OnSpeak != nil {
		e.OnSpeak(u)
	}
}

func (e *Reading) fire(rd *reading) {
	e.mu.Lock()
	if e.cur == rd {
		e.cur = nil
	}
	e.mu.Unlock()
	rd.finish(nil)
}

func (e *Reading) Cancel() {
	e.mu.Lock()
	rd := e.cur
	e.cur = nil
	if rd != nil {
		rd.timer.Stop()
	}
	e.mu.Unlock()

	if rd != nil {
		go rd.finish(ErrInterrupted)
	}
}

func (e *Reading) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	rd := e.cur
	if rd == nil || rd.paused {
		return
	}
	if !rd.timer.Stop() {
		// Already finishing
		return
	}
	rd.remaining -= time.Since(rd.started)
	if rd.remaining < 0 {
		rd.remaining = 0
	}
	rd.paused = true
}

func (e *Reading) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()

	rd := e.cur
	if rd == nil || !rd.paused {
		return
	}
	rd.paused = false
	rd.started = time.Now()
	rd.timer = time.AfterFunc(rd.remaining, func() { e.fire(rd) })
}
