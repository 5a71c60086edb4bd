package telemetry

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	output io.Writer = os.Stdout
)

func init() {
	zerolog.TimestampFieldName = "ts"
	zerolog.MessageFieldName = "msg"
	zerolog.TimeFieldFormat = time.RFC3339
}

// SetOutput redirects log lines, returning a func that restores the previous writer.
func SetOutput(w io.Writer) func() {
	mu.Lock()
	prev := output
	output = w
	mu.Unlock()
	return func() {
		mu.Lock()
		output = prev
		mu.Unlock()
	}
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	l := logger()
	l.Info().Fields(fields).Msg(msg)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	l := logger()
	l.Warn().Fields(fields).Msg(msg)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	l := logger()
	l.Error().Fields(fields).Msg(msg)
}

func logger() zerolog.Logger {
	mu.RLock()
	w := output
	mu.RUnlock()
	return zerolog.New(w).With().Timestamp().Logger()
}
