// Package narration speaks step narration through a pluggable text-to-speech engine.
//
// The Adapter is a single shared resource: at most one utterance is active per
// Adapter, and a new Speak preempts whatever was speaking, including narration
// started by another sequencer. Preempted utterances complete with ErrInterrupted.
package narration

import (
	"errors"
	"log/slog"
)

var (
	// ErrUnavailable is reported when the host has no usable speech engine
	ErrUnavailable = errors.New("narration: speech engine unavailable")
	// ErrInterrupted is reported for an utterance cancelled before it finished
	ErrInterrupted = errors.New("narration: utterance interrupted")
)

// Voice is one voice offered by an engine
type Voice struct {
	Name    string
	Lang    string // BCP 47 style tag such as "en-US"
	Gender  string // "F", "M" or empty when unknown
	Default bool
}

// Utterance is a piece of text with its speech settings
type Utterance struct {
	Text   string
	Voice  Voice   // Zero value means engine default
	Rate   float64 // 1.0 is normal speed
	Pitch  float64 // 1.0 is normal pitch
	Volume float64 // 0.0 - 1.0
}

// Engine is a platform speech capability. Speak must call done exactly once,
// asynchronously, when the utterance ends, fails or is cancelled.
// Implementations must be safe for concurrent use.
type Engine interface {
	Available() bool
	Voices() []Voice
	Speak(u Utterance, done func(error))
	Cancel()
	Pause()
	Resume()
}

// Logger is the default logger used when none is provided
var Logger = slog.Default()
