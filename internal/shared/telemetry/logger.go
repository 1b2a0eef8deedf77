package telemetry

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var base atomic.Pointer[zerolog.Logger]

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.MessageFieldName = "msg"
	zerolog.TimestampFieldName = "ts"
	Configure(os.Stdout, "info")
}

// Configure replaces the process logger. Output is JSON, one event per line.
func Configure(out io.Writer, level string) {
	l := zerolog.New(out).With().Timestamp().Str("service", "compliance-api").Logger().Level(parseLevel(level))
	base.Store(&l)
}

// Logger returns the process logger for callers that want zerolog directly.
func Logger() zerolog.Logger {
	return *base.Load()
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	l := base.Load()
	l.Info().Fields(fields).Msg(msg)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	l := base.Load()
	l.Warn().Fields(fields).Msg(msg)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	l := base.Load()
	l.Error().Fields(fields).Msg(msg)
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
