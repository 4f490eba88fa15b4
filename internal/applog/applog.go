// Package applog builds the process-wide slog.Logger used by the
// supervisor daemon and its CLI, adapted from loykin-provisr's
// internal/logger package: the same ColorTextHandler-over-lumberjack
// approach, generalized from per-managed-process stdout/stderr capture to
// a single structured application log (the supervisor's own operational
// log, not a managed service's output — services are opaque and never
// hand the supervisor a stream to capture).
package applog

import (
	"io"
	"log/slog"
	"os"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation parameters.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

// Config controls where and how the supervisor's own log lines go.
type Config struct {
	// FilePath, when set, rotates application logs through lumberjack
	// instead of (or in addition to) stdout.
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// AlsoStdout tees output to stdout even when FilePath is set.
	AlsoStdout bool
	// Color enables ANSI level coloring; only sensible for a terminal.
	Color bool
	Level slog.Level
}

// New builds a *slog.Logger per cfg, grounded on
// internal/logger/color_text_handler.go's ColorTextHandler.
func New(cfg Config) *slog.Logger {
	var w io.Writer = os.Stdout
	if cfg.FilePath != "" {
		rotated := &lj.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    valOr(cfg.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: valOr(cfg.MaxBackups, DefaultMaxBackups),
			MaxAge:     valOr(cfg.MaxAgeDays, DefaultMaxAgeDays),
			Compress:   cfg.Compress,
		}
		if cfg.AlsoStdout {
			w = io.MultiWriter(rotated, os.Stdout)
		} else {
			w = rotated
		}
	}

	opts := &slog.HandlerOptions{Level: cfg.Level}
	var handler slog.Handler
	if cfg.Color {
		handler = NewColorTextHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func valOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
