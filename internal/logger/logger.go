// Package logger initializes the process-wide zerolog logger used by the CLI
// and the inference server.
package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Mode selects the output style.
type Mode string

const (
	// ModePretty writes colored console output for interactive use.
	ModePretty Mode = "pretty"
	// ModeJSON writes structured JSON lines.
	ModeJSON Mode = "json"
	// ModeDisabled discards all output.
	ModeDisabled Mode = "disabled"
)

var (
	log zerolog.Logger = zerolog.Nop()
	mu  sync.RWMutex
)

// InitWithMode configures the shared logger. Unknown modes fall back to
// pretty console output.
func InitWithMode(mode Mode, level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()

	zerolog.SetGlobalLevel(level)

	switch mode {
	case ModeDisabled:
		log = zerolog.New(io.Discard)
	case ModeJSON:
		log = zerolog.New(os.Stdout).With().Timestamp().Logger()
	default:
		out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
		log = zerolog.New(out).With().Timestamp().Logger()
	}
}

// Get returns the shared logger.
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// WithComponent returns the shared logger tagged with a component field.
func WithComponent(component string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log.With().Str("component", component).Logger()
}
