package swego

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with swego-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// LogPartition logs a block partition construction.
func (l *Logger) LogPartition(ctx context.Context, obs, numBlocks int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "partition failed",
			"observations", obs,
			"blocks", numBlocks,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "partition built",
			"observations", obs,
			"blocks", numBlocks,
		)
	}
}

// LogCompute logs a covariance computation.
func (l *Logger) LogCompute(ctx context.Context, pred, obs, feat int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "covariance computation failed",
			"predictors", pred,
			"observations", obs,
			"features", feat,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "covariance computation completed",
			"predictors", pred,
			"observations", obs,
			"features", feat,
			"elapsed", elapsed,
		)
	}
}
