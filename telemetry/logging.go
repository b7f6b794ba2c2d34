package telemetry

import (
	"io"
	"log/slog"
	"strings"
)

// SetupLogger installs the default slog logger. level is debug|info|warn|error
// (unknown values fall back to info), format is text|json.
func SetupLogger(w io.Writer, level, format string) *slog.Logger {
	lvl := slog.LevelInfo
	unknown := false
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
	default:
		unknown = true
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	if unknown {
		logger.Warn("unknown LOG_LEVEL, using info", slog.String("value", level))
	}
	return logger
}
