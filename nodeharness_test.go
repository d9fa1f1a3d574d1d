package nodeharness

import (
	"io"
	"log/slog"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// echoAdapter is a minimal custom daemon driven through the public API.
type echoAdapter struct{ line string }

type echoState struct{ lines []string }

func (a *echoAdapter) Prepare() error { return nil }
func (a *echoAdapter) Command() *exec.Cmd {
	return exec.Command("/bin/sh", "-c", "echo "+a.line)
}
func (a *echoAdapter) InitialState() echoState { return echoState{} }
func (a *echoAdapter) HandleStdout(s *echoState, line string) {
	s.lines = append(s.lines, line)
}
func (a *echoAdapter) HandleStderr(*echoState, string) {}

func TestCustomAdapterThroughFacade(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix-only test")
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewRunner[echoState]("echo-test", &echoAdapter{line: "hello"},
		WithLogger(quiet), WithStartupDelay(0))

	st, err := r.Status()
	require.NoError(t, err)
	require.Equal(t, StateInit, st.State)

	require.NoError(t, r.Start())

	deadline := time.Now().Add(10 * time.Second)
	for {
		st, err := r.Status()
		require.NoError(t, err)
		if st.State == StateStopped {
			require.NotNil(t, st.Exit)
			require.True(t, st.Exit.Success())
			break
		}
		require.False(t, time.Now().After(deadline), "timed out waiting for exit")
		time.Sleep(10 * time.Millisecond)
	}

	var lines []string
	r.State(func(s *echoState) { lines = s.lines })
	require.Equal(t, []string{"hello"}, lines)
}

func TestFreePortRange(t *testing.T) {
	port := FreePort()
	require.GreaterOrEqual(t, port, 49152)
	require.Less(t, port, 65535)
}

func TestHistorySinkFromDSN(t *testing.T) {
	sink, err := NewHistorySinkFromDSN(t.TempDir() + "/h.db")
	require.NoError(t, err)
	require.NotNil(t, sink)
	if c, ok := sink.(io.Closer); ok {
		require.NoError(t, c.Close())
	}

	_, err = NewHistorySinkFromDSN("redis://nope")
	require.Error(t, err)
}
