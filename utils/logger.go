package utils

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
)

// LogLevels are the accepted values of ParseLogLevel.
var LogLevels = []string{"none", "error", "warn", "info", "debug"}

// ParseLogLevel returns the slog level for a log level name. The level
// "none" is reported with ok = false.
func ParseLogLevel(name string) (level slog.Level, ok bool, err error) {
	switch name {
	case "none":
		return 0, false, nil
	case "error":
		return slog.LevelError, true, nil
	case "warn":
		return slog.LevelWarn, true, nil
	case "info":
		return slog.LevelInfo, true, nil
	case "debug":
		return slog.LevelDebug, true, nil
	}
	return 0, false, fmt.Errorf("unexpected log level %q", name)
}

// NewLogger returns a logger with the given level writing text to w, or
// JSON to logFile if it is not empty. The returned file (nil when writing
// to w) must be closed by the caller.
func NewLogger(logLevel, logFile string, w io.Writer) (*slog.Logger, *os.File, error) {
	level, ok, err := ParseLogLevel(logLevel)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		off := &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}
		return slog.New(slog.NewTextHandler(io.Discard, off)), nil, nil
	}

	opts := &slog.HandlerOptions{Level: level}

	if logFile == "" {
		return slog.New(slog.NewTextHandler(w, opts)), nil, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(slog.NewJSONHandler(f, opts)), f, nil
}

// ConfigureDefaultLogger sets the slog default logger. Text is written to
// stdout unless logFile is set. The returned file may be nil.
func ConfigureDefaultLogger(logLevel, logFile string) (*os.File, error) {
	logger, f, err := NewLogger(logLevel, logFile, os.Stdout)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return f, nil
}
