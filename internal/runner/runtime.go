package runner

import "sync"

// runtimeData is the record shared between the supervisor and its two
// reader loops. It is created once per Start and reused across restarts so
// the daemon-defined state survives a restart.
//
// Every field is guarded by mu. Line handlers run with the write lock held,
// so stdout and stderr mutations serialize against each other and against
// State() reads.
type runtimeData[S any] struct {
	mu    sync.RWMutex
	state S

	// child is nil only before the first successful spawn within this
	// record's lifetime. It is kept after exit so the exit status stays
	// retrievable.
	child *Child

	// Reader-loop completion channels, replaced on every restart. The loops
	// have no cancellation signal; they retire when their pipe closes.
	stdoutDone chan struct{}
	stderrDone chan struct{}

	// exitSeen flips once Status first observes the process gone, so the
	// exit is recorded to the history sink exactly once per spawn.
	exitSeen bool
}
