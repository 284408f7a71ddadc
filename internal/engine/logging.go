package engine

import (
	"log"
	"strings"
	"sync/atomic"
)

// Log levels for the FFI surface (matches the mobile shell contract).
const (
	LevelError = 0
	LevelWarn  = 1
	LevelInfo  = 2
	LevelDebug = 3
)

var logLevel atomic.Int32

func init() {
	logLevel.Store(LevelInfo)
}

// InitLogging sets the verbosity gate. Idempotent; safe to call from any
// goroutine.
func InitLogging(level int) {
	if level < LevelError {
		level = LevelError
	}
	if level > LevelDebug {
		level = LevelDebug
	}
	logLevel.Store(int32(level))
	infof("logging initialized at level %d", level)
}

// InitLoggingNamed accepts the KTV_LOG_LEVEL string form.
func InitLoggingNamed(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		InitLogging(LevelError)
	case "warn", "warning":
		InitLogging(LevelWarn)
	case "debug":
		InitLogging(LevelDebug)
	default:
		InitLogging(LevelInfo)
	}
}

func errorf(format string, args ...any) {
	if logLevel.Load() >= LevelError {
		log.Printf("ERROR "+format, args...)
	}
}

func warnf(format string, args ...any) {
	if logLevel.Load() >= LevelWarn {
		log.Printf("WARN "+format, args...)
	}
}

func infof(format string, args ...any) {
	if logLevel.Load() >= LevelInfo {
		log.Printf("INFO "+format, args...)
	}
}

func debugf(format string, args ...any) {
	if logLevel.Load() >= LevelDebug {
		log.Printf("DEBUG "+format, args...)
	}
}
