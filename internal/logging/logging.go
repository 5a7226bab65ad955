// Package logging provides context-aware logging utilities.
package logging

import (
	"context"
	"log/slog"
	"os"
)

// Setup configures the default slog logger with a JSON handler at the given
// level and returns it.
func Setup(level string) *slog.Logger {
	logLevel := slog.LevelInfo
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// SurfaceIDKey is the context key for the browsed-surface identifier.
type SurfaceIDKey struct{}

// WithSurface returns a context carrying the surface identifier.
func WithSurface(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, SurfaceIDKey{}, id)
}

// Logger returns a logger with the surface_id from the context, if present.
func Logger(ctx context.Context) *slog.Logger {
	if id, ok := ctx.Value(SurfaceIDKey{}).(string); ok && id != "" {
		return slog.Default().With("surface_id", id)
	}
	return slog.Default()
}
