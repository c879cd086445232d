package logger

import (
	"io"
	"os"
	"time"

	"github.com/JavaNood/record-log/internal/config"
	"github.com/rs/zerolog"
)

// New creates a zerolog logger honoring the configured level and format
func New(cfg config.LogConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	var level zerolog.Level
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}

	// Pretty console output for development, JSON otherwise
	var out io.Writer = os.Stdout
	if cfg.Format == "pretty" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if cfg.Format == "pretty" {
		ctx = ctx.Caller()
	}
	return ctx.Str("service", "record-log").Logger()
}
