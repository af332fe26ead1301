package stepseq

// event is something the loop has to react to
type event interface {
	isEvent()
}

// fired is posted by a step timer
type fired struct {
	run    *run
	index  int
	handle Handle
}

// narrated is posted when a narration step's speech ended (or failed)
type narrated struct {
	run    *run
	index  int
	handle Handle
	err    error
}

// request is a synchronous command from a caller outside the loop
type request struct {
	cmd  command
	done chan struct{}
}

func (fired) isEvent()    {}
func (narrated) isEvent() {}
