//go:build unix

package narration

import (
	"os"

	"golang.org/x/sys/unix"
)

func suspendProcess(p *os.Process) error {
	return unix.Kill(p.Pid, unix.SIGSTOP)
}

func continueProcess(p *os.Process) error {
	return unix.Kill(p.Pid, unix.SIGCONT)
}
