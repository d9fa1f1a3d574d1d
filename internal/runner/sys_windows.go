//go:build windows

package runner

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// ErrUnsupported is returned for operations the harness cannot provide on
// Windows. The supervised daemons (bitcoind and friends) are driven on
// Unix-like CI hosts; the Windows build keeps a reduced surface.
var ErrUnsupported = errors.New("runner: not supported on windows")

func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

// killGroup terminates the process. Windows has no POSIX signals; every
// signal degrades to a hard kill.
func killGroup(pid int, _ syscall.Signal) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

func tryWait(_ int) (*ExitStatus, error) {
	return nil, ErrUnsupported
}
