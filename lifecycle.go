package stepseq

// command is an operation requested by a caller or an effect
type command int

const (
	cmdStart command = iota
	cmdPause
	cmdResume
	cmdReset
	cmdCancel
)

func (c command) String() string {
	switch c {
	case cmdStart:
		return "start"
	case cmdPause:
		return "pause"
	case cmdResume:
		return "resume"
	case cmdReset:
		return "reset"
	case cmdCancel:
		return "cancel"
	}
	return "unknown"
}

// transition defines a status change rule
type transition struct {
	From []Status // Accepted source statuses; nil matches any status
	Cmd  command
	To   Status
}

// lifecycle is the run state machine. Commands with no matching rule are no-ops.
var lifecycle = []transition{
	{From: []Status{StatusIdle, StatusComplete, StatusCancelled}, Cmd: cmdStart, To: StatusRunning},
	{From: []Status{StatusRunning}, Cmd: cmdPause, To: StatusPaused},
	{From: []Status{StatusPaused}, Cmd: cmdResume, To: StatusRunning},
	{Cmd: cmdReset, To: StatusIdle},
	{Cmd: cmdCancel, To: StatusCancelled},
}

// findTransition returns the rule for cmd from the given status
func findTransition(from Status, cmd command) (transition, bool) {
	for _, t := range lifecycle {
		if t.Cmd != cmd {
			continue
		}
		if t.From == nil {
			return t, true
		}
		for _, s := range t.From {
			if s == from {
				return t, true
			}
		}
	}
	return transition{}, false
}
