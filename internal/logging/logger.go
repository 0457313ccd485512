package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

type ctxKey string

const ctxKeyConversationID ctxKey = "conversation_id"

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
}

// Logger returns the process logger.
func Logger() *slog.Logger {
	return logger.Load()
}

// Setup replaces the process logger. format is "json" or "text".
func Setup(w io.Writer, format string, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	l := slog.New(handler)
	logger.Store(l)
	return l
}

// WithFields returns a logger with additional fields.
func WithFields(kv ...any) *slog.Logger {
	return Logger().With(kv...)
}

func WithConversationID(ctx context.Context, conversationID int64) context.Context {
	return context.WithValue(ctx, ctxKeyConversationID, conversationID)
}

// FromContext adds conversation_id if present.
func FromContext(ctx context.Context) *slog.Logger {
	id, ok := ctx.Value(ctxKeyConversationID).(int64)
	if !ok {
		return Logger()
	}
	return Logger().With("conversation_id", id)
}

func ParseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
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
