package stepseq

import (
	"log/slog"
)

// Context is passed to step effects and provides access to sequencer operations.
// Its methods act immediately because effects already run on the sequencer's loop;
// effects must use them instead of the blocking Sequencer methods.
type Context struct {
	Index  int    // Step that fired
	Step   Step   // The fired step
	RunID  string // Run the step belongs to
	Data   any    // User-provided application data
	Logger *slog.Logger

	seq *Sequencer
}

// Snapshot returns the sequencer state as of this step
func (c *Context) Snapshot() Snapshot {
	return c.seq.Snapshot()
}

// Pause pauses the run after this effect returns control
func (c *Context) Pause() {
	c.seq.apply(cmdPause)
}

// Reset cancels the run and rewinds it to before the first step
func (c *Context) Reset() {
	c.seq.apply(cmdReset)
}

// Cancel cancels the run
func (c *Context) Cancel() {
	c.seq.apply(cmdCancel)
}
