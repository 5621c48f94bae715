// Package logger holds the process-wide slog instance. Components derive
// their loggers from L() via With, so handler choice and level live in one
// place.
package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/hilo-match/hilo/internal/config"
)

// defaultComponent tags log lines when no component is configured.
const defaultComponent = "hilo"

type Options struct {
	Level     string
	Format    string // "text" or "json"
	Component string
	AddSource bool
}

var (
	mu     sync.RWMutex
	global *slog.Logger
)

// InitFromConfig builds the global logger from the app config.
func InitFromConfig(c *config.Config) {
	if c == nil {
		Init(Options{})
		return
	}
	Init(Options{
		Level:     c.Log.Level,
		Format:    c.Log.Format,
		Component: c.Log.Component,
		AddSource: c.Log.Source,
	})
}

// Init replaces the global logger. Callers may re-init at any time.
func Init(o Options) {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(o.Level),
		AddSource: o.AddSource,
	}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(o.Format)) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	component := o.Component
	if component == "" {
		component = defaultComponent
	}

	mu.Lock()
	global = slog.New(handler).With("component", component)
	mu.Unlock()
}

// L returns the global logger, initializing a default one on first use.
func L() *slog.Logger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l != nil {
		return l
	}

	Init(Options{})

	mu.RLock()
	defer mu.RUnlock()
	return global
}

// With derives a child logger from the global one.
func With(args ...any) *slog.Logger { return L().With(args...) }

func Debug(msg string, args ...any) { L().Debug(msg, args...) }
func Info(msg string, args ...any)  { L().Info(msg, args...) }
func Warn(msg string, args ...any)  { L().Warn(msg, args...) }
func Error(msg string, args ...any) { L().Error(msg, args...) }

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
