// Package debug provides conditional debug logging for canopy.
//
// Debug logging is enabled by setting the CANOPY_DEBUG environment variable:
//
//	CANOPY_DEBUG=1 canopy --find "node label"
//
// When enabled, debug messages are written to stderr with timestamps.
// When disabled (default), all debug functions are no-ops with zero overhead.
//
// Assert and AssertNoError exist for programmer-error preconditions inside
// the search engine and the UI: they panic when debugging is enabled and do
// nothing in normal runs, so a bad internal call never takes down a user
// session but fails loudly under test.
package debug

import (
	"fmt"
	"log"
	"os"
	"time"
)

var (
	// enabled is true when CANOPY_DEBUG env var is set
	enabled bool
	// logger writes to stderr with [CANOPY] prefix
	logger *log.Logger
)

func init() {
	if os.Getenv("CANOPY_DEBUG") != "" {
		enabled = true
		logger = log.New(os.Stderr, "[CANOPY] ", log.Ltime|log.Lmicroseconds)
	}
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled
}

// SetEnabled allows programmatic control of debug logging, mainly from tests.
func SetEnabled(e bool) {
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, "[CANOPY] ", log.Ltime|log.Lmicroseconds)
	}
}

// Log writes a debug message if debug logging is enabled.
// Uses printf-style formatting.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Printf(format, args...)
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if !enabled {
		return
	}
	logger.Printf("%s took %v", name, d)
}

// LogEnterExit logs function entry and exit with timing.
// Usage:
//
//	func rebuild() {
//	    defer debug.LogEnterExit("rebuild")()
//	    // ...
//	}
func LogEnterExit(name string) func() {
	if !enabled {
		return func() {}
	}
	logger.Printf("-> %s", name)
	start := time.Now()
	return func() {
		logger.Printf("<- %s (%v)", name, time.Since(start))
	}
}

// Dump logs a value with its type for debugging complex structures.
func Dump(name string, v any) {
	if !enabled {
		return
	}
	logger.Printf("%s: %T = %+v", name, v, v)
}

// Assert logs a message and panics if the condition is false.
// Only active when debug is enabled.
func Assert(cond bool, msg string) {
	if !enabled {
		return
	}
	if !cond {
		logger.Printf("ASSERTION FAILED: %s", msg)
		panic(fmt.Sprintf("debug assertion failed: %s", msg))
	}
}

// AssertNoError logs and panics if err is not nil.
// Only active when debug is enabled.
func AssertNoError(err error, context string) {
	if !enabled {
		return
	}
	if err != nil {
		logger.Printf("ASSERTION FAILED: %s: %v", context, err)
		panic(fmt.Sprintf("debug assertion failed: %s: %v", context, err))
	}
}
