package program

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger creates the structured logger of the driver. level is one of debug, info, warn or
// error; format is text or json.
func NewLogger(level, format string, dest io.Writer) *slog.Logger {
	if dest == nil {
		dest = os.Stderr
	}

	logLevel, err := ParseLogLevel(level)
	if err != nil {
		logLevel = slog.LevelInfo
	}

	options := &slog.HandlerOptions{
		Level: logLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "timestamp"
			}
			return a
		},
	}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(dest, options))
	}
	return slog.New(slog.NewTextHandler(dest, options))
}

// ParseLogLevel maps debug, info, warn or error to a slog level. Empty means info.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q, expected debug, info, warn or error", level)
}

// discardLogger drops every record
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
