package stepseq

import (
	"log/slog"
	"time"
)

// TriggerKind classifies what makes a step fire
type TriggerKind int

const (
	// TriggerDelay fires the step after a fixed delay
	TriggerDelay TriggerKind = iota + 1
	// TriggerNarration fires the step when its narration finishes
	TriggerNarration
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerDelay:
		return "delay"
	case TriggerNarration:
		return "narration"
	}
	return "invalid"
}

// Trigger describes when a step fires relative to the previous one
type Trigger struct {
	Kind  TriggerKind
	Delay time.Duration // For TriggerDelay
	Text  string        // For TriggerNarration
}

// After returns a delay trigger. A negative delay is a programmer error and panics.
func After(d time.Duration) Trigger {
	if d < 0 {
		panic("stepseq: negative step delay " + d.String())
	}
	return Trigger{Kind: TriggerDelay, Delay: d}
}

// Narrate returns a trigger that fires once text has been spoken
func Narrate(text string) Trigger {
	return Trigger{Kind: TriggerNarration, Text: text}
}

// Narrator is the speech capability a Sequencer consumes for narration steps.
// done must be called exactly once per Speak, whether speech ended, failed or was preempted.
type Narrator interface {
	Speak(text string, done func(error))
	Pause()
	Stop()
}

// Logger is the default logger used when none is provided
var Logger = slog.Default()
