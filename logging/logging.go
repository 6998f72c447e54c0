// Package logging builds the structured logger used by poolctl.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for file output.
const (
	MaxSizeMB  = 50
	MaxBackups = 5
	MaxAgeDays = 28
)

// Options selects the level, format and destination.
type Options struct {
	Level string
	// File, when set, receives JSON lines through a rotating writer.
	File string
	// Stderr is used when File is empty; nil means os.Stderr.
	Stderr io.Writer
}

// ParseLevel maps debug|info|warn|error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging: invalid level %q", s)
	}
	return level, nil
}

// New returns a logger for opts and a closer for any file it opened.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	if opts.File == "" {
		out := opts.Stderr
		if out == nil {
			out = os.Stderr
		}
		return slog.New(slog.NewTextHandler(out, handlerOpts)), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("logging: create log dir: %w", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    MaxSizeMB,
		MaxBackups: MaxBackups,
		MaxAge:     MaxAgeDays,
		Compress:   true,
	}
	handlerOpts.ReplaceAttr = func(_ []string, attr slog.Attr) slog.Attr {
		if attr.Key == slog.TimeKey {
			return slog.Attr{Key: "timestamp", Value: attr.Value}
		}
		return attr
	}
	return slog.New(slog.NewJSONHandler(rotator, handlerOpts)), rotator, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
