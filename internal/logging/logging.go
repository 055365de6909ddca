// Package logging builds the process-wide slog.Logger.
// Output is always JSON on stdout; when a file path is configured the same
// lines are also written to a size-rotated file.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/natefinch/lumberjack"
)

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string
	// File, when non-empty, adds a rotated log file sink.
	File string
	// Stdout overrides the console sink. Defaults to os.Stdout.
	Stdout io.Writer
}

// New returns a JSON logger for opts and a closer for the file sink.
// The closer is a no-op when no file is configured.
func New(opts Options) (*slog.Logger, io.Closer) {
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		fw := FileWriter(opts.File)
		out = io.MultiWriter(out, fw)
		closer = fw
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: ParseLevel(opts.Level),
	}))
	return logger, closer
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// FileWriter returns a file writer with rotation.
func FileWriter(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
