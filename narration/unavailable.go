package narration

// Unavailable is the engine for hosts without speech synthesis. Every utterance
// completes immediately with ErrUnavailable.
type Unavailable struct{}

func (Unavailable) Available() bool { return false }
func (Unavailable) Voices() []Voice { return nil }
func (Unavailable) Cancel()         {}
func (Unavailable) Pause()          {}
func (Unavailable) Resume()         {}

func (Unavailable) Speak(_ Utterance, done func(error)) {
	go done(ErrUnavailable)
}
