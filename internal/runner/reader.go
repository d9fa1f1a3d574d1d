package runner

import (
	"bufio"
	"io"
	"time"
	"unicode/utf8"
)

// maxLineBytes bounds a single daemon output line. bitcoind log lines are
// well under this; anything larger aborts the scan.
const maxLineBytes = 1 << 20

// readLines drains one output pipe line by line into the shared state,
// invoking handle under the runtime record's write lock. The loop has no
// cancellation signal: it retires when the pipe reaches end-of-stream,
// normally because the daemon exited and closed its end.
//
// The loop sleeps for the configured startup delay before the first read to
// tolerate daemons that are slow to produce output right after spawn. A
// line that is not valid UTF-8 is treated as corruption of the daemon's own
// output and retires this loop only; the process and the other loop are
// unaffected. Lines above maxLineBytes are handled the same way: the scan
// fails with bufio.ErrTooLong, the failure is logged and the loop retires.
// Raise the cap if a supervised daemon legitimately logs longer lines.
func (r *Runner[S]) readLines(rt *runtimeData[S], pipe io.ReadCloser, stream string, handle func(*S, string), mirror io.WriteCloser, done chan struct{}) {
	defer close(done)
	defer func() {
		_ = pipe.Close()
		if mirror != nil {
			_ = mirror.Close()
		}
	}()

	if r.startupDelay > 0 {
		time.Sleep(r.startupDelay)
	}

	sc := bufio.NewScanner(pipe)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	for sc.Scan() {
		line := sc.Text()
		if !utf8.ValidString(line) {
			r.log.Error("non-UTF-8 data on daemon output, retiring reader", "stream", stream)
			return
		}
		if mirror != nil {
			_, _ = io.WriteString(mirror, line+"\n")
		}
		rt.mu.Lock()
		handle(&rt.state, line)
		rt.mu.Unlock()
	}
	if err := sc.Err(); err != nil {
		r.log.Error("daemon output read failed", "stream", stream, "error", err)
		return
	}
	r.log.Debug("daemon output drained", "stream", stream)
}
