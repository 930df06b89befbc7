package core

import (
	"log"
	"sync/atomic"
)

var debug atomic.Bool

// SetDebug turns debug logging on or off for every component.
func SetDebug(enabled bool) {
	debug.Store(enabled)
}

// DebugEnabled reports whether debug logging is on.
func DebugEnabled() bool {
	return debug.Load()
}

// Debugf logs like log.Printf when debug logging is on.
func Debugf(format string, args ...interface{}) {
	if debug.Load() {
		log.Printf(format, args...)
	}
}
