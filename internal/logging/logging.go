// Package logging provides structured logging with slog for eyetalk.
//
// The live screen owns the terminal, so log records go to a file under the XDG state directory.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Level represents a logging level.
type Level = slog.Level

// Log levels.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Config holds the logging configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level Level

	// FilePath is the log file. Empty means discard.
	FilePath string

	// Component is attached to every record.
	Component string
}

// Logger wraps slog.Logger and owns the underlying file.
type Logger struct {
	*slog.Logger
	base *slog.Logger
	mu   sync.Mutex
	file *os.File
}

// New opens the log file and returns a text logger writing to it.
func New(cfg Config) (*Logger, error) {
	if cfg.FilePath == "" {
		return Discard(), nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}
	file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := newLogger(file, cfg)
	logger.file = file
	return logger, nil
}

// NewWriter returns a text logger writing to w. The caller owns w.
func NewWriter(w io.Writer, cfg Config) *Logger {
	return newLogger(w, cfg)
}

// Discard returns a logger that drops every record.
func Discard() *Logger {
	base := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &Logger{Logger: base, base: base}
}

func newLogger(w io.Writer, cfg Config) *Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Level})
	base := slog.New(handler)
	tagged := base
	if cfg.Component != "" {
		tagged = base.With(slog.String("component", cfg.Component))
	}
	return &Logger{Logger: tagged, base: base}
}

// WithComponent returns a logger tagged with a component name in place of l's own. The file
// stays owned by l.
func (l *Logger) WithComponent(name string) *slog.Logger {
	return l.base.With(slog.String("component", name))
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// ParseLevel converts a level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}
