// Package netlog is a thin structured-logging wrapper around zerolog for
// the netsim core: continuity-break warnings, rollback events, and
// lifecycle messages all go through a Logger so a host can redirect or
// silence them without the core depending on a concrete writer.
package netlog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger with a small key-value surface so callers
// in internal/netsim don't need to import zerolog directly.
type Logger struct {
	z zerolog.Logger
}

// Discard returns a Logger that drops every event, the default for a
// freshly constructed Orchestrator.
func Discard() Logger {
	return Logger{z: zerolog.Nop()}
}

// New returns a Logger writing JSON lines to w at the given level name
// ("debug", "info", "warn", "error"; unrecognized values default to info).
func New(w io.Writer, level string) Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return Logger{z: zerolog.New(w).Level(lvl).With().Timestamp().Logger()}
}

// Console returns a Logger writing human-readable lines to stderr, handy
// for cmd/rayman and cmd/rayserver.
func Console() Logger {
	cw := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return Logger{z: zerolog.New(cw).With().Timestamp().Logger()}
}

func (l Logger) event(ev *zerolog.Event, msg string, kv []interface{}) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		if key == "" {
			continue
		}
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}

// Trace logs at trace level with alternating key/value pairs.
func (l Logger) Trace(msg string, kv ...interface{}) { l.event(l.z.Trace(), msg, kv) }

// Debug logs at debug level with alternating key/value pairs.
func (l Logger) Debug(msg string, kv ...interface{}) { l.event(l.z.Debug(), msg, kv) }

// Warn logs at warn level with alternating key/value pairs.
func (l Logger) Warn(msg string, kv ...interface{}) { l.event(l.z.Warn(), msg, kv) }

// Error logs at error level with alternating key/value pairs.
func (l Logger) Error(msg string, kv ...interface{}) { l.event(l.z.Error(), msg, kv) }

// With returns a Logger with name attached to every subsequent event,
// following zerolog's sub-logger idiom.
func (l Logger) With(name string) Logger {
	return Logger{z: l.z.With().Str("component", name).Logger()}
}
