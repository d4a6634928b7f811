package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewJSONLogger writes JSON records to w, stderr when w is nil, so command
// output on stdout stays clean. Level "off" (or "none") drops every record.
func NewJSONLogger(w io.Writer, service, level string) *slog.Logger {
	lvl, enabled := parseLevel(level)
	if !enabled {
		return slog.New(slog.DiscardHandler)
	}
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler).With("service", service)
}

func parseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "off", "none":
		return 0, false
	case "debug":
		return slog.LevelDebug, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, true
	}
}
