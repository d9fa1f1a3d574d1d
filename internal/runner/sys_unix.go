//go:build !windows

package runner

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr places the daemon in a new process group so signals
// reach the daemon and everything it forks.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killGroup sends a signal to the daemon's process group.
func killGroup(pid int, sig syscall.Signal) error {
	return syscall.Kill(-pid, sig)
}

// tryWait reaps the process without blocking. It returns nil while the
// process is still running.
func tryWait(pid int) (*ExitStatus, error) {
	var ws syscall.WaitStatus
	wpid, err := syscall.Wait4(pid, &ws, syscall.WNOHANG, nil)
	for err == syscall.EINTR {
		wpid, err = syscall.Wait4(pid, &ws, syscall.WNOHANG, nil)
	}
	if err != nil {
		return nil, err
	}
	if wpid == 0 {
		return nil, nil
	}
	// Wait4 also reports stop/continue events for traced children; only an
	// exit or a signal termination ends the process.
	if !ws.Exited() && !ws.Signaled() {
		return nil, nil
	}
	if ws.Signaled() {
		return &ExitStatus{Code: -1, Signal: ws.Signal(), Signaled: true}, nil
	}
	return &ExitStatus{Code: ws.ExitStatus()}, nil
}
