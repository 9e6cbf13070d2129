// Package logging configures the process-wide structured logger. Components
// get child loggers tagged with their name so log lines are attributable.
package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu   sync.RWMutex
	root *slog.Logger
)

// Init installs the root logger. Level accepts debug|info|warn|error
// (default info); format accepts text|json (default text). Safe to call
// once at startup; later New calls inherit the configuration.
func Init(level, format string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	mu.Lock()
	root = slog.New(handler)
	mu.Unlock()
}

// New returns a logger tagged with the component name. Falls back to the
// default slog logger when Init has not run.
func New(component string) *slog.Logger {
	mu.RLock()
	l := root
	mu.RUnlock()
	if l == nil {
		l = slog.Default()
	}
	return l.With("component", component)
}
