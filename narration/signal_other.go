//go:build !unix

package narration

import (
	"errors"
	"os"
)

func suspendProcess(*os.Process) error {
	return errors.ErrUnsupported
}

func continueProcess(*os.Process) error {
	return errors.ErrUnsupported
}
