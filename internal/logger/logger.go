// Package logger provides the zerolog constructor used across the service.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns a JSON logger writing to stdout with a service field and
// timestamps on every entry.
func New(service string) zerolog.Logger {
	return zerolog.New(os.Stdout).With().
		Str("service", service).
		Timestamp().
		Logger()
}

// Nop returns a logger that discards all output. Intended for tests.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
