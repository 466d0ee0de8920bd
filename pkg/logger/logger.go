package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds the process-wide structured logger. Output is JSON on
// stdout with a service tag so log lines from co-deployed services
// stay distinguishable.
func New(service string) zerolog.Logger {
	return zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}
