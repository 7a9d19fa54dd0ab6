// Package logging configures structured logging for the server process.
//
// Grounded on brennhill's own "lifecycle event" logging
// (server.logLifecycle(event, port, fields) in main_connection_mcp.go),
// re-expressed through zerolog's chained-field API rather than a hand-rolled
// map[string]any + JSONL-append helper. Logs always go to stderr or a
// --log-file path, never stdout: stdout is reserved for JSON-RPC frames
// (internal/rpcserver's line invariant).
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with the level-swap needed for config hot
// reload (internal/config watches the config file and calls SetLevel).
type Logger struct {
	mu sync.RWMutex
	lvl zerolog.Level
	out io.Writer
	zl zerolog.Logger
}

// New builds a Logger writing to w at the given level name ("debug",
// "info", "warn", "error"; unrecognized names fall back to "info").
func New(w io.Writer, levelName string) *Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl := parseLevel(levelName)
	l := &Logger{out: w, lvl: lvl}
	l.zl = zerolog.New(w).With().Timestamp().Logger().Level(lvl)
	return l
}

func parseLevel(name string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// SetLevel changes the active log level without recreating the logger,
// used by the config hot-reload watcher (internal/config).
func (l *Logger) SetLevel(levelName string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lvl = parseLevel(levelName)
	l.zl = l.zl.Level(l.lvl)
}

// SetOutput redirects log output. The config-reload path does not call it:
// a changed log file takes effect only on restart.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
	l.zl = zerolog.New(w).With().Timestamp().Logger().Level(l.lvl)
}

func (l *Logger) snapshot() zerolog.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.zl
}

// Lifecycle logs a named lifecycle event with structured fields, the direct
// analogue of brennhill's server.logLifecycle.
func (l *Logger) Lifecycle(event string, fields map[string]any) {
	ev := l.snapshot().Info().Str("event", event)
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg("lifecycle")
}

func (l *Logger) Debug() *zerolog.Event { zl := l.snapshot(); return zl.Debug() }
func (l *Logger) Info() *zerolog.Event { zl := l.snapshot(); return zl.Info() }
func (l *Logger) Warn() *zerolog.Event { zl := l.snapshot(); return zl.Warn() }
func (l *Logger) Error() *zerolog.Event { zl := l.snapshot(); return zl.Error() }
