package logger

import (
	"fmt"
	"io"
	"path/filepath"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation settings for mirrored daemon output.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

// Mirror describes where raw daemon output lines are copied for post-run
// forensics. When only Dir is set, files are Dir/<name>.stdout.log and
// Dir/<name>.stderr.log. Rotation parameters follow lumberjack semantics.
type Mirror struct {
	Dir        string `json:"dir" mapstructure:"dir"`
	StdoutPath string `json:"stdout" mapstructure:"stdout"` // explicit stdout path overrides Dir
	StderrPath string `json:"stderr" mapstructure:"stderr"` // explicit stderr path overrides Dir
	MaxSizeMB  int    `json:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `json:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `json:"compress" mapstructure:"compress"`
}

// Enabled reports whether the mirror has any destination configured.
func (m Mirror) Enabled() bool {
	return m.Dir != "" || m.StdoutPath != "" || m.StderrPath != ""
}

// Writers returns rotating write-closers for the two output streams of the
// named daemon. Either writer may be nil when that stream has no
// destination.
func (m Mirror) Writers(name string) (stdout, stderr io.WriteCloser) {
	outPath := m.StdoutPath
	errPath := m.StderrPath
	if outPath == "" && m.Dir != "" {
		outPath = filepath.Join(m.Dir, fmt.Sprintf("%s.stdout.log", name))
	}
	if errPath == "" && m.Dir != "" {
		errPath = filepath.Join(m.Dir, fmt.Sprintf("%s.stderr.log", name))
	}
	if outPath != "" {
		stdout = m.newLogger(outPath)
	}
	if errPath != "" {
		stderr = m.newLogger(errPath)
	}
	return stdout, stderr
}

func (m Mirror) newLogger(path string) *lj.Logger {
	return &lj.Logger{
		Filename:   path,
		MaxSize:    valOr(m.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(m.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(m.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   m.Compress,
	}
}

func valOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
