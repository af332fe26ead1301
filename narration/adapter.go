package narration

import (
	"log/slog"
	"strings"
	"sync"
)

// utterance tracks one Speak call until it completes
type utterance struct {
	text string
	once sync.Once
	done func(error)
}

func (u *utterance) finish(err error) {
	u.once.Do(func() {
		u.done(err)
	})
}

// Adapter wraps an Engine with single-utterance semantics and voice preferences.
// It satisfies stepseq.Narrator.
type Adapter struct {
	engine Engine
	prefs  Preferences
	logger *slog.Logger

	mu           sync.Mutex
	current      *utterance
	paused       bool
	voice        Voice
	voiceOK      bool
	voicesLoaded bool
}

// Option is a functional option for configuring an Adapter
type Option func(*Adapter)

// WithLogger sets the logger for the adapter
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// WithPreferences replaces the default voice preferences and speech settings
func WithPreferences(p Preferences) Option {
	return func(a *Adapter) {
		a.prefs = p
	}
}

// New creates an adapter over engine. A nil engine behaves like Unavailable.
func New(engine Engine, opts ...Option) *Adapter {
	if engine == nil {
		engine = Unavailable{}
	}
	a := &Adapter{
		engine: engine,
		prefs:  DefaultPreferences(),
		logger: Logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Speak cancels any utterance in progress and speaks text. done is called exactly
// once: nil when speech ended, ErrInterrupted when preempted or stopped,
// ErrUnavailable when there is no engine, or the engine's error.
func (a *Adapter) Speak(text string, done func(error)) {
	if done == nil {
		done = func(error) {}
	}
	u := &utterance{text: text, done: done}

	a.mu.Lock()
	prev := a.current
	a.current = nil
	a.paused = false
	a.mu.Unlock()

	if prev != nil {
		a.logger.Debug("preempting utterance", "text", prev.text)
		prev.finish(ErrInterrupted)
		a.engine.Cancel()
	}

	if strings.TrimSpace(text) == "" {
		u.finish(nil)
		return
	}

	if !a.engine.Available() {
		a.logger.Debug("speech engine unavailable, skipping narration")
		u.finish(ErrUnavailable)
		return
	}

	a.mu.Lock()
	a.current = u
	voice, _ := a.selectVoiceLocked()
	a.mu.Unlock()

	a.engine.Speak(Utterance{
		Text:   text,
		Voice:  voice,
		Rate:   a.prefs.Rate,
		Pitch:  a.prefs.Pitch,
		Volume: a.prefs.Volume,
	}, func(err error) {
		a.complete(u, err)
	})
}

// complete records the end of u and reports it to its caller
func (a *Adapter) complete(u *utterance, err error) {
	a.mu.Lock()
	if a.current == u {
		a.current = nil
		a.paused = false
	}
	a.mu.Unlock()

	if err != nil {
		a.logger.Debug("utterance ended with error", "error", err)
	}
	u.finish(err)
}

// Stop cancels the current utterance. Safe to call when idle.
func (a *Adapter) Stop() {
	a.mu.Lock()
	u := a.current
	a.current = nil
	a.paused = false
	a.mu.Unlock()

	if u == nil {
		return
	}
	u.finish(ErrInterrupted)
	a.engine.Cancel()
}

// Pause pauses the current utterance. No-op when idle or already paused.
func (a *Adapter) Pause() {
	a.mu.Lock()
	if a.current == nil || a.paused {
		a.mu.Unlock()
		return
	}
	a.paused = true
	a.mu.Unlock()

	a.engine.Pause()
}

// Resume continues a paused utterance. No-op unless paused.
func (a *Adapter) Resume() {
	a.mu.Lock()
	if a.current == nil || !a.paused {
		a.mu.Unlock()
		return
	}
	a.paused = false
	a.mu.Unlock()

	a.engine.Resume()
}

// TogglePause pauses a speaking utterance or resumes a paused one
func (a *Adapter) TogglePause() {
	if a.IsPaused() {
		a.Resume()
	} else {
		a.Pause()
	}
}

// IsSpeaking reports whether an utterance is in progress (paused or not)
func (a *Adapter) IsSpeaking() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current != nil
}

// IsPaused reports whether the current utterance is paused
func (a *Adapter) IsPaused() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.paused
}

// Available reports whether narration will actually be spoken
func (a *Adapter) Available() bool {
	return a.engine.Available()
}

// Voice returns the voice chosen for this adapter, if any
func (a *Adapter) Voice() (Voice, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selectVoiceLocked()
}

// selectVoiceLocked picks a voice once the engine reports any. Engines may load
// their voice list late, so an empty list is asked for again next time.
func (a *Adapter) selectVoiceLocked() (Voice, bool) {
	if !a.voicesLoaded {
		voices := a.engine.Voices()
		if len(voices) > 0 {
			a.voice, a.voiceOK = SelectVoice(voices, a.prefs)
			a.voicesLoaded = true
			a.logger.Debug("voice selected", "voice", a.voice.Name, "lang", a.voice.Lang, "matched", a.voiceOK)
		}
	}
	return a.voice, a.voiceOK
}
