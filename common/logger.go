package common

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// loggerPtr stores the active logger. Accessed atomically so SetLogger can be called while
// mixers are being updated from worker goroutines.
var loggerPtr atomic.Pointer[zerolog.Logger]

func init() {
	l := zerolog.Nop()
	loggerPtr.Store(&l)
}

// SetLogger configures the logger used by the engine and all of its sub-packages.
// By default nothing is logged. Pass a disabled logger (zerolog.Nop()) to silence output again.
//
// Levels used:
//   - Debug: cache and pool lifecycle (bindings created, actions evicted)
//   - Info: asset and library operations, profiler reports
//   - Warn: property paths that could not be bound, malformed assets skipped by the loader
//
// Parameters:
//   - l: the logger to use
func SetLogger(l zerolog.Logger) {
	loggerPtr.Store(&l)
}

// Logger returns the current engine logger.
//
// Returns:
//   - *zerolog.Logger: the active logger, never nil
func Logger() *zerolog.Logger {
	return loggerPtr.Load()
}
