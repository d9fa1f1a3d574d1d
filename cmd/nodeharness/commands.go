package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nodeharness/nodeharness/internal/bitcoind"
	"github.com/nodeharness/nodeharness/internal/config"
	"github.com/nodeharness/nodeharness/internal/elementsd"
	"github.com/nodeharness/nodeharness/internal/history"
	"github.com/nodeharness/nodeharness/internal/history/factory"
	"github.com/nodeharness/nodeharness/internal/runner"
)

// stopWait bounds how long the run command waits for a daemon to exit after
// the stop signal before giving up on it.
const stopWait = 30 * time.Second

// daemon is the common surface of the supported node types.
type daemon interface {
	Name() string
	Start() error
	Stop() error
	Status() (runner.Status, error)
	TakeStderr() string
}

func buildRoot() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "nodeharness",
		Short:         "Supervise blockchain node daemons for integration testing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "nodeharness.toml", "path to harness config file")

	root.AddCommand(newRunCmd(&configPath))
	root.AddCommand(newConfCmd(&configPath))
	return root
}

// newRunCmd starts every daemon declared in the config, waits for an
// interrupt and shuts them down.
func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start all configured daemons and supervise them until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fc, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := fc.Log.NewLogger(os.Stderr)

			var sink history.Sink
			if fc.History.DSN != "" {
				sink, err = factory.NewSinkFromDSN(fc.History.DSN)
				if err != nil {
					return fmt.Errorf("history sink: %w", err)
				}
				defer func() {
					if c, ok := sink.(io.Closer); ok {
						_ = c.Close()
					}
				}()
			}

			daemons, err := buildDaemons(fc, log, sink)
			if err != nil {
				return err
			}
			if len(daemons) == 0 {
				return fmt.Errorf("no daemons configured in %s", *configPath)
			}

			var started []daemon
			for _, d := range daemons {
				if err := d.Start(); err != nil {
					stopAll(started, log)
					return fmt.Errorf("start %s: %w", d.Name(), err)
				}
				started = append(started, d)
			}
			log.Info("all daemons running", "count", len(started))

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			log.Info("shutting down", "signal", sig.String())

			stopAll(started, log)
			return nil
		},
	}
}

// stopAll signals every daemon and waits for each to exit, logging stderr
// remnants of daemons that died badly.
func stopAll(daemons []daemon, log *slog.Logger) {
	for _, d := range daemons {
		if err := d.Stop(); err != nil {
			log.Error("stop failed", "daemon", d.Name(), "error", err)
		}
	}
	deadline := time.Now().Add(stopWait)
	for _, d := range daemons {
		for {
			st, err := d.Status()
			if err != nil {
				log.Error("status poll failed", "daemon", d.Name(), "error", err)
				break
			}
			if st.State == runner.StateStopped {
				if st.Exit != nil && !st.Exit.Success() {
					log.Warn("daemon exited abnormally",
						"daemon", d.Name(), "exit", st.Exit.String(), "stderr", d.TakeStderr())
				}
				break
			}
			if time.Now().After(deadline) {
				log.Error("daemon did not exit in time", "daemon", d.Name())
				break
			}
			time.Sleep(100 * time.Millisecond)
		}
	}
}

func buildDaemons(fc *config.FileConfig, log *slog.Logger, sink history.Sink) ([]daemon, error) {
	opts := []runner.Option{runner.WithLogger(log)}
	if fc.Mirror.Enabled() {
		opts = append(opts, runner.WithMirror(fc.Mirror))
	}
	if sink != nil {
		opts = append(opts, runner.WithHistory(sink))
	}
	if fc.StartupDelay > 0 {
		opts = append(opts, runner.WithStartupDelay(fc.StartupDelay))
	}

	var daemons []daemon
	for _, dc := range fc.Bitcoind {
		n, err := bitcoind.Named(dc.Name, dc.Exec, dc.Config, opts...)
		if err != nil {
			return nil, fmt.Errorf("bitcoind %q: %w", dc.Name, err)
		}
		daemons = append(daemons, n)
	}
	for _, dc := range fc.Elementsd {
		n, err := elementsd.Named(dc.Name, dc.Exec, dc.Config, opts...)
		if err != nil {
			return nil, fmt.Errorf("elementsd %q: %w", dc.Name, err)
		}
		daemons = append(daemons, n)
	}
	return daemons, nil
}

// newConfCmd renders the daemon config file that run would generate, for
// checking configs without spawning anything.
func newConfCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "conf <daemon-name>",
		Short: "Print the generated daemon config file for one configured daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			name := args[0]
			for _, dc := range fc.Bitcoind {
				if dc.Name == name {
					_, err := dc.Config.WriteTo(cmd.OutOrStdout())
					return err
				}
			}
			for _, dc := range fc.Elementsd {
				if dc.Name == name {
					_, err := dc.Config.WriteTo(cmd.OutOrStdout())
					return err
				}
			}
			return fmt.Errorf("no daemon named %q in %s", name, *configPath)
		},
	}
}
