// Package config loads the TOML harness configuration used by the CLI.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/nodeharness/nodeharness/internal/bitcoind"
	"github.com/nodeharness/nodeharness/internal/elementsd"
	"github.com/nodeharness/nodeharness/internal/logger"
)

// FileConfig represents the top-level TOML structure:
//
//	[log]
//	level = "debug"
//
//	[mirror]
//	dir = "/tmp/harness-logs"
//
//	[history]
//	dsn = "sqlite:///tmp/harness.db"
//
//	[[bitcoind]]
//	name = "btc1"
//	exec = "/usr/local/bin/bitcoind"
//	datadir = "/tmp/btc1"
//	network = "regtest"
type FileConfig struct {
	Log     logger.Config `toml:"log" mapstructure:"log"`
	Mirror  logger.Mirror `toml:"mirror" mapstructure:"mirror"`
	History HistoryConfig `toml:"history" mapstructure:"history"`

	// StartupDelay overrides the reader-loop startup delay for all daemons.
	StartupDelay time.Duration `toml:"startup_delay" mapstructure:"startup_delay"`

	Bitcoind  []BitcoindConfig  `toml:"bitcoind" mapstructure:"bitcoind"`
	Elementsd []ElementsdConfig `toml:"elementsd" mapstructure:"elementsd"`
}

type HistoryConfig struct {
	DSN string `toml:"dsn" mapstructure:"dsn"`
}

type BitcoindConfig struct {
	Name string `toml:"name" mapstructure:"name"`
	Exec string `toml:"exec" mapstructure:"exec"`

	bitcoind.Config `mapstructure:",squash"`
}

type ElementsdConfig struct {
	Name string `toml:"name" mapstructure:"name"`
	Exec string `toml:"exec" mapstructure:"exec"`

	elementsd.Config `mapstructure:",squash"`
}

// Load reads and validates a harness config file.
func Load(path string) (*FileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, err
	}
	if err := fc.Validate(); err != nil {
		return nil, err
	}
	return &fc, nil
}

// Validate fills default daemon names and rejects duplicates and missing
// executables.
func (fc *FileConfig) Validate() error {
	seen := make(map[string]bool)
	for i := range fc.Bitcoind {
		d := &fc.Bitcoind[i]
		if d.Name == "" {
			d.Name = fmt.Sprintf("bitcoind-%d", i)
		}
		if d.Exec == "" {
			return fmt.Errorf("bitcoind %q: exec is required", d.Name)
		}
		if seen[d.Name] {
			return fmt.Errorf("duplicate daemon name %q", d.Name)
		}
		seen[d.Name] = true
	}
	for i := range fc.Elementsd {
		d := &fc.Elementsd[i]
		if d.Name == "" {
			d.Name = fmt.Sprintf("elementsd-%d", i)
		}
		if d.Exec == "" {
			return fmt.Errorf("elementsd %q: exec is required", d.Name)
		}
		if seen[d.Name] {
			return fmt.Errorf("duplicate daemon name %q", d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}
