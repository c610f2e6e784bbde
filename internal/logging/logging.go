// Package logging wraps github.com/decred/slog the same way the reference
// engine's logging.LogBackend does: one backend writing to stderr (and
// optionally a log file), handing out subsystem-tagged loggers at a shared
// debug level.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/decred/slog"
)

// Config mirrors the reference engine's logging.LogConfig.
type Config struct {
	DebugLevel string // trace, debug, info, warn, error, critical
	LogFile    string // optional; empty disables file logging
}

// Backend owns the slog.Backend and every subsystem logger created from it.
type Backend struct {
	backend *slog.Backend
	file    *os.File
	level   slog.Level
}

// New constructs a Backend per cfg. Writes always include stderr; LogFile,
// if set, is opened in append mode (never truncated) and also written to.
func New(cfg Config) (*Backend, error) {
	level, ok := slog.LevelFromString(cfg.DebugLevel)
	if !ok {
		level = slog.LevelInfo
	}

	var w io.Writer = os.Stderr
	var f *os.File
	if cfg.LogFile != "" {
		var err error
		f, err = os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("logging: open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
	}

	return &Backend{
		backend: slog.NewBackend(w),
		file:    f,
		level:   level,
	}, nil
}

// Logger returns a subsystem logger (e.g. "DLR", "NET", "MCH", "ROL", "STO"),
// following the reference engine's short subsystem tag convention.
func (b *Backend) Logger(subsystem string) slog.Logger {
	l := b.backend.Logger(subsystem)
	l.SetLevel(b.level)
	return l
}

// Close releases the underlying log file, if any.
func (b *Backend) Close() error {
	if b.file != nil {
		return b.file.Close()
	}
	return nil
}
