// Package logger wraps zerolog with the few constructors pixgrab needs.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a thin wrapper so callers do not depend on zerolog directly
// for construction.
type Logger struct {
	logger *zerolog.Logger
}

// ParseLevel maps config level names to zerolog levels. Unknown names map to info.
func ParseLevel(name string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// New returns a JSON logger writing to w.
func New(w io.Writer, level string) *Logger {
	l := zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
	return &Logger{logger: &l}
}

// NewConsole returns a human-readable logger on stderr tagged with a surface name.
func NewConsole(level, tag string, noColor bool) *Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
	}
	l := zerolog.New(output).Level(ParseLevel(level)).With().
		Timestamp().
		Str("s", tag).
		Logger()
	return &Logger{logger: &l}
}

// NewFile opens (appending) a JSON log file, creating parent directories.
// The returned closer must be called on shutdown.
func NewFile(path, level string) (*Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return New(f, level), f, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	l := zerolog.Nop()
	return &Logger{logger: &l}
}

// With creates a child logger context.
func (l *Logger) With() zerolog.Context { return l.logger.With() }

// Extend returns a logger built from ctx.
func (l *Logger) Extend(ctx zerolog.Context) *Logger {
	logger := ctx.Logger()
	return &Logger{logger: &logger}
}

// Debug starts a debug event. Call Msg to send it.
func (l *Logger) Debug() *zerolog.Event { return l.logger.Debug() }

// Info starts an info event. Call Msg to send it.
func (l *Logger) Info() *zerolog.Event { return l.logger.Info() }

// Warn starts a warn event. Call Msg to send it.
func (l *Logger) Warn() *zerolog.Event { return l.logger.Warn() }

// Error starts an error event. Call Msg to send it.
func (l *Logger) Error() *zerolog.Event { return l.logger.Error() }

// Since is a small helper for duration fields.
func Since(t time.Time) time.Duration { return time.Since(t).Round(time.Millisecond) }
