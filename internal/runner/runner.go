// Package runner supervises one external long-running daemon process: it
// spawns the daemon, drains its stdout and stderr into daemon-defined state,
// exposes a small lifecycle state machine, and guarantees the process is
// killed when the supervisor handle is discarded. Daemon specifics (config
// preparation, command construction, log-line interpretation) are supplied
// through the Adapter interface.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/nodeharness/nodeharness/internal/history"
	"github.com/nodeharness/nodeharness/internal/logger"
)

// defaultStartupDelay is how long each reader loop waits before its first
// read. Some daemons take a moment to produce output right after spawn; the
// delay is an empirical accommodation, tunable through WithStartupDelay,
// not a correctness requirement.
const defaultStartupDelay = time.Second

// historySendTimeout bounds a single best-effort sink write.
const historySendTimeout = 5 * time.Second

// Adapter supplies the daemon-specific pieces of a supervised daemon. The
// line handlers are invoked with the runtime record's lock held and must be
// quick, non-blocking state mutations; lines they do not recognize should
// simply be ignored. No error propagation from the handlers is supported.
type Adapter[S any] interface {
	// Prepare performs setup before the first spawn, such as creating a
	// data directory and writing a config file. It must be idempotent.
	Prepare() error
	// Command builds the command used to launch the daemon. It is called on
	// every start-up, initial and restart.
	Command() *exec.Cmd
	// InitialState returns the zero-value daemon state.
	InitialState() S
	// HandleStdout consumes one line of daemon stdout.
	HandleStdout(state *S, line string)
	// HandleStderr consumes one line of daemon stderr.
	HandleStderr(state *S, line string)
}

// Runner drives one daemon through its lifecycle. Create one with New; the
// zero value is not usable. A Runner is safe for concurrent use, though the
// usual pattern is a single test goroutine plus the two reader loops the
// Runner itself spawns.
type Runner[S any] struct {
	adapter Adapter[S]
	name    string
	runID   string
	log     *slog.Logger

	startupDelay time.Duration
	stopSignal   syscall.Signal
	mirror       logger.Mirror
	sink         history.Sink

	mu sync.RWMutex // guards rt
	rt *runtimeData[S]
}

type options struct {
	log          *slog.Logger
	startupDelay time.Duration
	stopSignal   syscall.Signal
	mirror       logger.Mirror
	sink         history.Sink
}

// Option customizes a Runner.
type Option func(*options)

// WithLogger routes the runner's operational logging to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithStartupDelay overrides the delay before a reader loop's first read.
// Zero disables the delay; tests use this to observe output immediately.
func WithStartupDelay(d time.Duration) Option {
	return func(o *options) { o.startupDelay = d }
}

// WithStopSignal overrides the signal Stop sends, SIGTERM by default.
func WithStopSignal(sig syscall.Signal) Option {
	return func(o *options) { o.stopSignal = sig }
}

// WithMirror copies every raw daemon output line to rotating log files.
func WithMirror(m logger.Mirror) Option {
	return func(o *options) { o.mirror = m }
}

// WithHistory records lifecycle events to sink, best-effort: sink errors
// are logged and never fail an operation.
func WithHistory(sink history.Sink) Option {
	return func(o *options) { o.sink = sink }
}

// New creates a supervisor for the daemon described by adapter. Nothing is
// spawned until Start.
func New[S any](name string, adapter Adapter[S], opts ...Option) *Runner[S] {
	o := options{
		log:          slog.Default(),
		startupDelay: defaultStartupDelay,
		stopSignal:   syscall.SIGTERM,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Runner[S]{
		adapter:      adapter,
		name:         name,
		runID:        uuid.NewString(),
		log:          o.log.With("daemon", name),
		startupDelay: o.startupDelay,
		stopSignal:   o.stopSignal,
		mirror:       o.mirror,
		sink:         o.sink,
	}
}

// Name returns the daemon's name as used in logs and history events.
func (r *Runner[S]) Name() string { return r.name }

// Start launches the daemon for the first time. It is valid only while the
// status is init; use Restart to relaunch after a stop. On return the
// process and both reader loops run concurrently with the caller.
func (r *Runner[S]) Start() error {
	st, err := r.Status()
	if err != nil {
		return err
	}
	if st.State != StateInit {
		return &InvalidStateError{Op: "start", Status: st}
	}

	if err := r.adapter.Prepare(); err != nil {
		return fmt.Errorf("prepare %s: %w", r.name, err)
	}

	rt := &runtimeData[S]{state: r.adapter.InitialState()}
	if err := r.startUp(rt); err != nil {
		return err
	}

	// Publish the record only after a successful spawn so a failed Start
	// leaves the runner in init and retryable.
	r.mu.Lock()
	r.rt = rt
	r.mu.Unlock()
	return nil
}

// Restart relaunches the daemon reusing the existing runtime record: state
// accumulated by the line handlers survives, only the process and the two
// reader loops are replaced. A running daemon is stopped first.
func (r *Runner[S]) Restart() error {
	st, err := r.Status()
	if err != nil {
		return err
	}
	switch st.State {
	case StateInit:
		return &InvalidStateError{Op: "restart", Status: st}
	case StateRunning:
		if err := r.Stop(); err != nil {
			return err
		}
	case StateStopped:
	}

	r.mu.RLock()
	rt := r.rt
	r.mu.RUnlock()
	return r.startUp(rt)
}

// Stop sends the stop signal to the daemon's process group and returns once
// the signal is issued; it does not wait for the process to exit (poll
// Status for that). Stopping an already stopped daemon is a no-op. The
// runtime record is retained, so state stays readable and Restart remains
// possible.
func (r *Runner[S]) Stop() error {
	st, err := r.Status()
	if err != nil {
		return err
	}
	switch st.State {
	case StateInit:
		return &InvalidStateError{Op: "stop", Status: st}
	case StateStopped:
		return nil
	}

	r.mu.RLock()
	rt := r.rt
	r.mu.RUnlock()

	rt.mu.RLock()
	child := rt.child
	rt.mu.RUnlock()

	r.log.Info("stopping daemon", "pid", child.PID(), "signal", r.stopSignal.String())
	if err := child.Signal(r.stopSignal); err != nil {
		// The process can exit between the liveness check and the signal; a
		// vanished process group is the already-stopped no-op.
		if !errors.Is(err, syscall.ESRCH) {
			return fmt.Errorf("signal %s: %w", r.name, err)
		}
	}
	r.record(history.EventStop, child.PID(), r.stopSignal.String())
	return nil
}

// Status reports the daemon's lifecycle state. It performs a non-blocking
// liveness poll on the process; this is the only operation that observes
// the running-to-stopped transition.
func (r *Runner[S]) Status() (Status, error) {
	r.mu.RLock()
	rt := r.rt
	r.mu.RUnlock()
	if rt == nil {
		return Status{State: StateInit}, nil
	}

	rt.mu.Lock()
	if rt.child == nil {
		rt.mu.Unlock()
		return Status{State: StateInit}, nil
	}
	exit, err := rt.child.TryWait()
	if err != nil {
		rt.mu.Unlock()
		return Status{}, fmt.Errorf("poll %s: %w", r.name, err)
	}
	if exit == nil {
		rt.mu.Unlock()
		return Status{State: StateRunning}, nil
	}
	firstExit := !rt.exitSeen
	rt.exitSeen = true
	pid := rt.child.PID()
	rt.mu.Unlock()

	// The sink write happens outside the record lock so a slow sink cannot
	// stall the reader loops or State readers.
	if firstExit {
		r.record(history.EventExit, pid, exit.String())
	}
	return Status{State: StateStopped, Exit: exit}, nil
}

// PID returns the daemon's OS process id, or false when nothing was ever
// spawned.
func (r *Runner[S]) PID() (int, bool) {
	r.mu.RLock()
	rt := r.rt
	r.mu.RUnlock()
	if rt == nil {
		return 0, false
	}
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	if rt.child == nil {
		return 0, false
	}
	return rt.child.PID(), true
}

// State runs fn on the daemon state blob under the runtime record's lock,
// serialized against the line handlers. It is a no-op when the daemon was
// never started.
func (r *Runner[S]) State(fn func(*S)) {
	r.mu.RLock()
	rt := r.rt
	r.mu.RUnlock()
	if rt == nil {
		return
	}
	rt.mu.Lock()
	fn(&rt.state)
	rt.mu.Unlock()
}

// startUp performs the spawn protocol shared by Start and Restart: build
// the command, wire both output streams to pipes, spawn, store the child in
// the record, then launch the two reader loops bound to the same record.
func (r *Runner[S]) startUp(rt *runtimeData[S]) error {
	r.log.Info("starting daemon")

	cmd := r.adapter.Command()
	configureSysProcAttr(cmd)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe for %s: %w", r.name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe for %s: %w", r.name, err)
	}

	r.log.Debug("launching daemon", "path", cmd.Path, "args", cmd.Args)
	if err := cmd.Start(); err != nil {
		return &SpawnError{Path: cmd.Path, Args: cmd.Args, Err: err}
	}
	child := newChild(cmd)
	pid := child.PID()

	var outMirror, errMirror io.WriteCloser
	if r.mirror.Enabled() {
		outMirror, errMirror = r.mirror.Writers(r.name)
	}

	rt.mu.Lock()
	if rt.child != nil {
		// Replacing the handle on restart kills whatever is left of the
		// previous process, mirroring kill-on-discard.
		rt.child.Close()
	}
	rt.child = child
	rt.exitSeen = false
	rt.stdoutDone = make(chan struct{})
	rt.stderrDone = make(chan struct{})
	outDone, errDone := rt.stdoutDone, rt.stderrDone
	rt.mu.Unlock()

	go r.readLines(rt, stdout, "stdout", r.adapter.HandleStdout, outMirror, outDone)
	go r.readLines(rt, stderr, "stderr", r.adapter.HandleStderr, errMirror, errDone)

	r.record(history.EventStart, pid, "")
	r.log.Info("daemon started", "pid", pid)
	return nil
}

func (r *Runner[S]) record(t history.EventType, pid int, detail string) {
	if r.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), historySendTimeout)
	defer cancel()
	e := history.Event{
		RunID:      r.runID,
		Daemon:     r.name,
		Type:       t,
		PID:        pid,
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	}
	if err := r.sink.Send(ctx, e); err != nil {
		r.log.Warn("history sink rejected event", "type", string(t), "error", err)
	}
}
