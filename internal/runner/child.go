package runner

import (
	"os/exec"
	"runtime"
	"sync"
	"syscall"
)

// Child owns a spawned daemon process. Closing the handle kills the
// daemon's process group; so does garbage collection of an unclosed handle,
// so an abandoned harness cannot leak daemons.
type Child struct {
	mu   sync.Mutex
	pid  int
	exit *ExitStatus // cached after the first successful reap

	cleanup runtime.Cleanup
}

// newChild wraps a successfully started command. The command must have been
// placed in its own process group (see configureSysProcAttr).
func newChild(cmd *exec.Cmd) *Child {
	c := &Child{pid: cmd.Process.Pid}
	// The cleanup closes over the pid, not the handle, or the handle would
	// never become unreachable.
	c.cleanup = runtime.AddCleanup(c, func(pid int) {
		_ = killGroup(pid, syscall.SIGKILL)
	}, c.pid)
	return c
}

// PID returns the OS process id of the daemon.
func (c *Child) PID() int { return c.pid }

// Signal sends sig to the daemon's process group.
func (c *Child) Signal(sig syscall.Signal) error {
	return killGroup(c.pid, sig)
}

// TryWait polls the daemon without blocking. It returns nil while the
// process is still running and the exit status once it has terminated. The
// first successful reap is cached, so later calls keep returning the same
// status.
func (c *Child) TryWait() (*ExitStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exit != nil {
		return c.exit, nil
	}
	st, err := tryWait(c.pid)
	if err != nil || st == nil {
		return nil, err
	}
	c.exit = st
	return st, nil
}

// Close kills the daemon's process group, ignoring errors: the common case
// is that the process already exited.
func (c *Child) Close() {
	c.cleanup.Stop()
	_ = killGroup(c.pid, syscall.SIGKILL)
}
