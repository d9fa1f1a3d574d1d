package bitcoind

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/nodeharness/nodeharness/internal/runner"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("unix-only test")
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDatadirMustBeAbsolute(t *testing.T) {
	if _, err := New("/usr/bin/bitcoind", Config{Datadir: "relative/dir"}); err == nil {
		t.Fatal("relative datadir accepted")
	}
}

func TestPrepareWritesConfigOnce(t *testing.T) {
	dir := t.TempDir()
	n, err := New("/usr/bin/bitcoind", Config{Datadir: dir, Network: NetworkRegtest})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := n.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	path := filepath.Join(dir, ConfigFilename)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	// A second Prepare must not rewrite the file.
	if err := os.WriteFile(path, []byte("sentinel"), 0o644); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := n.Prepare(); err != nil {
		t.Fatalf("second Prepare: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "sentinel" {
		t.Fatal("Prepare rewrote the config file")
	}
}

func TestRPCInfo(t *testing.T) {
	mk := func(c Config) *Node {
		c.Datadir = "/data"
		n, err := New("/usr/bin/bitcoind", c)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return n
	}

	if _, _, ok := mk(Config{}).RPCInfo(); ok {
		t.Fatal("RPCInfo without rpcport should not be available")
	}
	if _, _, ok := mk(Config{RPCPort: 18443}).RPCInfo(); ok {
		t.Fatal("RPCInfo without credentials should not be available")
	}

	url, auth, ok := mk(Config{RPCPort: 18443, RPCCookie: "/data/.cookie"}).RPCInfo()
	if !ok || url != "http://127.0.0.1:18443" || auth.CookieFile != "/data/.cookie" {
		t.Fatalf("cookie RPCInfo = %q %+v %v", url, auth, ok)
	}

	url, auth, ok = mk(Config{RPCPort: 18443, RPCUser: "u", RPCPass: "p"}).RPCInfo()
	if !ok || url != "http://127.0.0.1:18443" || auth.User != "u" || auth.Pass != "p" {
		t.Fatalf("userpass RPCInfo = %q %+v %v", url, auth, ok)
	}
}

// fakeDaemonScript writes an executable standing in for bitcoind: it dumps a
// line on each stream and waits to be terminated.
func fakeDaemonScript(t *testing.T) string {
	t.Helper()
	script := `#!/bin/sh
echo "fake bitcoind started"
echo "fake warning" 1>&2
trap 'exit 0' TERM
while true; do sleep 0.1; done
`
	path := filepath.Join(t.TempDir(), "fake-bitcoind")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestNodeLifecycleWithFakeDaemon(t *testing.T) {
	requireUnix(t)
	n, err := Named("btc-test", fakeDaemonScript(t), Config{
		Datadir: t.TempDir(),
		Network: NetworkRegtest,
	}, runner.WithLogger(quietLogger()), runner.WithStartupDelay(0))
	if err != nil {
		t.Fatalf("Named: %v", err)
	}

	if err := n.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		if s := n.TakeStderr(); s != "" {
			if s != "fake warning\n" {
				t.Fatalf("stderr = %q", s)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for stderr capture")
		}
		time.Sleep(10 * time.Millisecond)
	}
	// TakeStderr drains the buffer.
	if s := n.TakeStderr(); s != "" {
		t.Fatalf("second TakeStderr = %q, want empty", s)
	}

	if err := n.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	for {
		st, err := n.Status()
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if st.State == runner.StateStopped {
			if st.Exit == nil || !st.Exit.Success() {
				t.Fatalf("exit = %v, want clean exit via trap", st.Exit)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for daemon to stop")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
