package stepseq

// Status is the lifecycle state of a Run
type Status int

const (
	// StatusIdle means no run is scheduled; the cursor is before the first step
	StatusIdle Status = iota
	// StatusRunning means steps are scheduled and firing
	StatusRunning
	// StatusPaused means pending steps were cancelled and the cursor is frozen
	StatusPaused
	// StatusComplete means every step fired
	StatusComplete
	// StatusCancelled is terminal for the run; a later Start begins a new one
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	case StatusComplete:
		return "complete"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Terminal reports whether a run in this status will not change without a command
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusCancelled
}

// Snapshot is the read-only view a presenter renders from
type Snapshot struct {
	RunID  string
	Status Status
	Index  int // Last fired step, -1 before the first
	Total  int
}

// Done reports whether every step of the sequence has fired
func (s Snapshot) Done() bool {
	return s.Index >= s.Total-1
}
