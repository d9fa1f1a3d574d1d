package runner

import (
	"fmt"
	"syscall"
)

// State is the coarse lifecycle state of a supervised daemon.
type State int

const (
	// StateInit means no process has ever been spawned.
	StateInit State = iota
	// StateRunning means a process was spawned and was alive at the last poll.
	StateRunning
	// StateStopped means the spawned process has exited.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ExitStatus describes how a stopped daemon terminated.
type ExitStatus struct {
	Code     int            // exit code; -1 when terminated by a signal
	Signal   syscall.Signal // terminating signal, valid when Signaled
	Signaled bool
}

// Success reports whether the daemon exited normally with code 0.
func (e ExitStatus) Success() bool { return !e.Signaled && e.Code == 0 }

func (e ExitStatus) String() string {
	if e.Signaled {
		return "signal: " + e.Signal.String()
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

// Status is the lifecycle status reported by Runner.Status.
type Status struct {
	State State
	// Exit is set only when State is StateStopped.
	Exit *ExitStatus
}

func (s Status) String() string {
	if s.State == StateStopped && s.Exit != nil {
		return fmt.Sprintf("stopped (%s)", s.Exit)
	}
	return s.State.String()
}
