// Package logging provides the leveled, env-var-gated logger every stage of
// the update pipeline writes through, in the same "[LEVEL] message" style
// the teacher's own HTTP client logs ("[TRACE] HTTP client %s request to
// %s", internal/httpclient/useragent.go) rather than pulling in a structured
// logging library for plain operator-facing lines.
package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Level is the ordered set of log levels, least to most severe.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	// levelOff disables logging entirely.
	levelOff
)

// EnvVar is the environment variable that selects the minimum level logged,
// e.g. "OLU_LOG=debug". Unset or unrecognized disables logging, matching the
// teacher's own opt-in TF_LOG-style behavior.
const EnvVar = "OLU_LOG"

func levelFromString(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return levelOff
	}
}

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "OFF"
	}
}

var threshold = levelFromString(os.Getenv(EnvVar))

// SetLevel overrides the level read from the environment, for callers that
// accept an explicit --log-level flag (spec.md §6).
func SetLevel(l Level) {
	threshold = l
}

func enabled(l Level) bool {
	return threshold != levelOff && l >= threshold
}

func logf(l Level, format string, args ...any) {
	if !enabled(l) {
		return
	}
	log.Printf("[%s] %s", l, fmt.Sprintf(format, args...))
}

func Trace(format string, args ...any) { logf(LevelTrace, format, args...) }
func Debug(format string, args ...any) { logf(LevelDebug, format, args...) }
func Info(format string, args ...any)  { logf(LevelInfo, format, args...) }
func Warn(format string, args ...any)  { logf(LevelWarn, format, args...) }
func Error(format string, args ...any) { logf(LevelError, format, args...) }
