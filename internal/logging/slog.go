// file: internal/logging/slog.go
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Log levels, re-exported so callers don't need to import log/slog.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// requestIDKey is the context key under which transports store the request ID.
type requestIDKey struct{}

// level is shared by every handler created in this package so SetLevel
// takes effect on loggers that already exist.
var level = new(slog.LevelVar)

// slogLogger adapts *slog.Logger to the Logger interface.
type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps an existing slog logger.
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		return GetNoopLogger()
	}
	return &slogLogger{l: l}
}

func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

// WithContext attaches the request ID and the active trace/span IDs, when present.
func (s *slogLogger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return s
	}
	l := s.l
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		l = l.With("request_id", id)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		l = l.With("trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
	}
	return &slogLogger{l: l}
}

func (s *slogLogger) WithField(key string, value any) Logger {
	return &slogLogger{l: s.l.With(key, value)}
}

// ContextWithRequestID returns a context carrying a request ID for WithContext.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID stored by ContextWithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// InitLogging installs a JSON slog logger writing to w as the default logger.
func InitLogging(lvl slog.Level, w io.Writer) {
	level.Set(lvl)
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	SetDefaultLogger(NewSlogLogger(slog.New(h)))
}

// SetupDefaultLogger configures the default logger from config values.
// format is "json" or "text"; output goes to stderr so stdio transports
// keep stdout for protocol traffic.
func SetupDefaultLogger(levelName, format string) {
	level.Set(ParseLevel(levelName))
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(os.Stderr, opts)
	} else {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	SetDefaultLogger(NewSlogLogger(slog.New(h)))
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// SetLevel changes the level of every logger created by this package.
func SetLevel(lvl slog.Level) {
	level.Set(lvl)
}

// IsDebugEnabled reports whether debug messages are currently emitted.
func IsDebugEnabled() bool {
	return level.Level() <= LevelDebug
}
