// Package nodeharness supervises external long-running daemons for
// integration testing, with bitcoind and elementsd as the shipped adapters.
// The supervisor core is generic; any daemon can be driven by implementing
// the Adapter interface.
package nodeharness

import (
	"github.com/nodeharness/nodeharness/internal/bitcoind"
	cfg "github.com/nodeharness/nodeharness/internal/config"
	"github.com/nodeharness/nodeharness/internal/elementsd"
	"github.com/nodeharness/nodeharness/internal/history"
	"github.com/nodeharness/nodeharness/internal/history/factory"
	"github.com/nodeharness/nodeharness/internal/logger"
	"github.com/nodeharness/nodeharness/internal/netutil"
	"github.com/nodeharness/nodeharness/internal/runner"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type State = runner.State

const (
	StateInit    = runner.StateInit
	StateRunning = runner.StateRunning
	StateStopped = runner.StateStopped
)

type Status = runner.Status

type ExitStatus = runner.ExitStatus

type InvalidStateError = runner.InvalidStateError

type SpawnError = runner.SpawnError

// Runner is the generic daemon supervisor; Adapter is what a daemon type
// implements to be supervised.

type Runner[S any] = runner.Runner[S]

type Adapter[S any] = runner.Adapter[S]

type Option = runner.Option

// NewRunner creates a supervisor for a custom daemon type.
func NewRunner[S any](name string, adapter Adapter[S], opts ...Option) *Runner[S] {
	return runner.New[S](name, adapter, opts...)
}

var (
	WithLogger       = runner.WithLogger
	WithStartupDelay = runner.WithStartupDelay
	WithStopSignal   = runner.WithStopSignal
	WithMirror       = runner.WithMirror
	WithHistory      = runner.WithHistory
)

// Shipped daemon adapters.

type Bitcoind = bitcoind.Node

type BitcoindConfig = bitcoind.Config

type Elementsd = elementsd.Node

type ElementsdConfig = elementsd.Config

type Tip = elementsd.Tip

// NewBitcoind creates a supervised bitcoind node.
func NewBitcoind(executable string, config BitcoindConfig, opts ...Option) (*Bitcoind, error) {
	return bitcoind.New(executable, config, opts...)
}

// NewNamedBitcoind creates a supervised bitcoind node with a name used in
// logs and history.
func NewNamedBitcoind(name, executable string, config BitcoindConfig, opts ...Option) (*Bitcoind, error) {
	return bitcoind.Named(name, executable, config, opts...)
}

// NewElementsd creates a supervised elementsd node.
func NewElementsd(executable string, config ElementsdConfig, opts ...Option) (*Elementsd, error) {
	return elementsd.New(executable, config, opts...)
}

// NewNamedElementsd creates a supervised elementsd node with a name used in
// logs and history.
func NewNamedElementsd(name, executable string, config ElementsdConfig, opts ...Option) (*Elementsd, error) {
	return elementsd.Named(name, executable, config, opts...)
}

// Ambient pieces.

type LogConfig = logger.Config

type Mirror = logger.Mirror

type HistoryEvent = history.Event

type HistorySink = history.Sink

// NewHistorySinkFromDSN creates a lifecycle-event sink from a DSN
// (postgres://..., sqlite://... or a bare SQLite path).
func NewHistorySinkFromDSN(dsn string) (HistorySink, error) {
	return factory.NewSinkFromDSN(dsn)
}

type FileConfig = cfg.FileConfig

// LoadConfig reads and validates a harness TOML config file.
func LoadConfig(path string) (*FileConfig, error) { return cfg.Load(path) }

// FreePort picks a currently free port in the dynamic range.
func FreePort() int { return netutil.FreePort() }
