package bitcoind

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nodeharness/nodeharness/internal/runner"
)

// State is the runtime state accumulated from the daemon's output. bitcoind
// logs to stdout are not interpreted; stderr is kept verbatim so tests can
// inspect startup failures.
type State struct {
	Stderr strings.Builder
}

// Node is a supervised bitcoind instance. It implements runner.Adapter and
// embeds its own supervisor, so lifecycle methods (Start, Stop, Restart,
// Status) come from the embedded Runner.
type Node struct {
	*runner.Runner[State]

	executable string
	config     Config

	// confPath is set once Prepare has written the config file.
	confPath string
}

// New creates an unnamed bitcoind node. Nothing is spawned until Start.
func New(executable string, config Config, opts ...runner.Option) (*Node, error) {
	return Named("bitcoind", executable, config, opts...)
}

// Named creates a bitcoind node with a name used in logs and history.
func Named(name, executable string, config Config, opts ...runner.Option) (*Node, error) {
	if !filepath.IsAbs(config.Datadir) {
		return nil, errors.New("datadir should be an absolute path")
	}
	n := &Node{executable: executable, config: config}
	n.Runner = runner.New[State](name, n, opts...)
	return n, nil
}

// Datadir returns the node's data directory.
func (n *Node) Datadir() string { return n.config.Datadir }

// Config returns a copy of the node's configuration.
func (n *Node) Config() Config { return n.config }

// Prepare creates the datadir and writes bitcoin.conf. The file is written
// exactly once; later calls (and restarts) reuse it.
func (n *Node) Prepare() error {
	if n.confPath != "" {
		return nil
	}
	if err := os.MkdirAll(n.config.Datadir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(n.config.Datadir, ConfigFilename)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	_, werr := n.config.WriteTo(f)
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	if cerr != nil {
		return cerr
	}
	n.confPath = path
	return nil
}

func (n *Node) Command() *exec.Cmd {
	return exec.Command(n.executable, "-conf="+n.confPath, "-printtoconsole=1")
}

func (n *Node) InitialState() State { return State{} }

func (n *Node) HandleStdout(_ *State, _ string) {}

func (n *Node) HandleStderr(state *State, line string) {
	state.Stderr.WriteString(line)
	state.Stderr.WriteByte('\n')
}

// TakeStderr returns all stderr output captured so far and clears the
// buffer. It returns "" before the first Start.
func (n *Node) TakeStderr() string {
	var out string
	n.State(func(s *State) {
		out = s.Stderr.String()
		s.Stderr.Reset()
	})
	return out
}

// Auth is how an RPC client should authenticate: either through a cookie
// file or a user/password pair.
type Auth struct {
	CookieFile string
	User       string
	Pass       string
}

// RPCInfo returns the node's RPC endpoint and credentials, when the config
// exposes RPC. The RPC transport itself is up to the caller.
func (n *Node) RPCInfo() (url string, auth Auth, ok bool) {
	if n.config.RPCPort == 0 {
		return "", Auth{}, false
	}
	url = "http://127.0.0.1:" + strconv.Itoa(n.config.RPCPort)
	switch {
	case n.config.RPCCookie != "":
		return url, Auth{CookieFile: n.config.RPCCookie}, true
	case n.config.RPCUser != "" && n.config.RPCPass != "":
		return url, Auth{User: n.config.RPCUser, Pass: n.config.RPCPass}, true
	}
	return "", Auth{}, false
}
