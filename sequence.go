package stepseq

import (
	"fmt"
	"strings"
)

// Effect runs when a step fires. It executes on the sequencer's loop.
type Effect func(ctx *Context)

// Step is one timed unit of a sequence
type Step struct {
	Name    string
	Trigger Trigger
	Effect  Effect
}

// StepOption is a functional option for configuring a Step
type StepOption func(*Step)

// WithName sets a label used in logs
func WithName(name string) StepOption {
	return func(s *Step) {
		s.Name = name
	}
}

// WithEffect sets the action invoked when the step fires
func WithEffect(fn Effect) StepOption {
	return func(s *Step) {
		s.Effect = fn
	}
}

// NewStep builds a step from a trigger and options
func NewStep(trigger Trigger, opts ...StepOption) Step {
	s := Step{Trigger: trigger}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Sequence is an immutable, validated list of steps
type Sequence struct {
	steps []Step
}

// NewSequence validates steps and returns a sequence holding its own copy of them
func NewSequence(steps ...Step) (*Sequence, error) {
	for i, s := range steps {
		if err := validateStep(s); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	owned := make([]Step, len(steps))
	copy(owned, steps)
	return &Sequence{steps: owned}, nil
}

// MustSequence is like NewSequence but panics on an invalid step list
func MustSequence(steps ...Step) *Sequence {
	seq, err := NewSequence(steps...)
	if err != nil {
		panic("stepseq: " + err.Error())
	}
	return seq
}

func validateStep(s Step) error {
	switch s.Trigger.Kind {
	case TriggerDelay:
		if s.Trigger.Delay < 0 {
			return fmt.Errorf("negative delay %s", s.Trigger.Delay)
		}
	case TriggerNarration:
		if strings.TrimSpace(s.Trigger.Text) == "" {
			return fmt.Errorf("narration trigger has no text")
		}
	default:
		return fmt.Errorf("no trigger kind set")
	}
	return nil
}

// Len returns the number of steps
func (q *Sequence) Len() int {
	if q == nil {
		return 0
	}
	return len(q.steps)
}

// Step returns the step at index i
func (q *Sequence) Step(i int) Step {
	return q.steps[i]
}

// label names a step for logs
func (q *Sequence) label(i int) string {
	if name := q.steps[i].Name; name != "" {
		return name
	}
	return fmt.Sprintf("#%d", i)
}
