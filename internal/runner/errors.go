package runner

import (
	"fmt"
	"strings"
)

// InvalidStateError is returned when an operation is attempted from a
// lifecycle state that forbids it. The message names both the operation and
// the current status so API misuse is diagnosable without inspecting the
// runner.
type InvalidStateError struct {
	Op     string
	Status Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s: daemon is %s", e.Op, e.Status)
}

// SpawnError is returned when the OS refuses to create the daemon process.
// It carries the attempted command for diagnostics.
type SpawnError struct {
	Path string
	Args []string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawning %q: %v", strings.Join(e.Args, " "), e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }
