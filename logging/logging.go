package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ctxKey struct{}

const ginKey = "logger"

var (
	mu   sync.RWMutex
	base *slog.Logger
)

type Options struct {
	Component string
	Level     string
	// FilePath enables a rotated log file next to stdout. Empty means stdout only.
	FilePath string
}

// Init configures the global logger. Later calls replace it.
func Init(opts Options) *slog.Logger {
	var w io.Writer = os.Stdout
	if opts.FilePath != "" {
		_ = os.MkdirAll(filepath.Dir(opts.FilePath), 0o755)
		rot := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    50, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
		}
		w = io.MultiWriter(os.Stdout, rot)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(opts.Level)})
	l := slog.New(h)
	if opts.Component != "" {
		l = l.With("component", opts.Component)
	}

	mu.Lock()
	base = l
	mu.Unlock()
	return l
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// Base returns the global logger, falling back to slog's default before Init.
func Base() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if base == nil {
		return slog.Default()
	}
	return base
}

// New returns a child logger of the global one.
func New(component string) *slog.Logger {
	return Base().With("component", component)
}

func WithCtx(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromCtx fetches a logger from ctx or falls back to the global one.
func FromCtx(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return Base()
}

// With stores the logger in the gin context and in the request context, so
// code that only sees a context.Context finds it too.
func With(c *gin.Context, l *slog.Logger) {
	c.Set(ginKey, l)
	c.Request = c.Request.WithContext(WithCtx(c.Request.Context(), l))
}

// From returns the request-scoped logger from gin.Context, or the global one.
func From(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(ginKey); ok {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return Base()
}
