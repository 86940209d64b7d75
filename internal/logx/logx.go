// Package logx holds the slog setup and the attribute keys shared by the services.
package logx

import (
	"io"
	"log/slog"
	"strings"
)

const (
	KeyRequestID = "request_id"
	KeyUserID    = "user_id"
	KeyOrderID   = "order_id"
	KeyProductID = "product_id"
	KeyEventID   = "event_id"
	KeyError     = "error"
	KeyAttempt   = "attempt"
)

func New(w io.Writer, level, service string) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(h).With(slog.String("service", service))
}

func ParseLevel(s string) slog.Level {
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

func Err(err error) slog.Attr { return slog.Any(KeyError, err) }
