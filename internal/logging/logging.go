// Package logging wires up the shared zerolog logger for all three
// binaries, following the context-carried logger pattern the teacher uses
// in pkg/connector/logger_util.go (loggerFromContext).
package logging

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/eludris-go/eludris/internal/config"
)

// New builds the root logger for a service ("oprish", "pandemonium", "effis").
func New(service string, cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var writer zerolog.ConsoleWriter
	var logger zerolog.Logger
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}
		logger = zerolog.New(rotator)
	} else if cfg.Pretty {
		writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
		logger = zerolog.New(writer)
	} else {
		logger = zerolog.New(os.Stderr)
	}

	return logger.Level(level).With().Timestamp().Str("service", service).Logger()
}

// WithContext attaches a logger to ctx, mirroring zerolog.Ctx/WithContext.
func WithContext(ctx context.Context, l zerolog.Logger) context.Context {
	return l.WithContext(ctx)
}

// FromContext returns the contextual logger, falling back to a disabled
// logger so callers never need a nil check — same shape as the teacher's
// loggerFromContext, but self-contained (no fallback parameter needed
// since zerolog.Ctx already returns a no-op logger for a bare context).
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
