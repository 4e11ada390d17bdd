// Package log provides category-tagged structured logging for gitglance.
//
// The terminal UI owns stdout, so logging is discarded until Init or InitFile
// is called (usually from the --debug flag).
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Category tags a log line with the subsystem that produced it.
type Category string

const (
	CatConfig  Category = "config"
	CatGateway Category = "gateway"
	CatHost    Category = "host"
	CatGit     Category = "git"
	CatQuery   Category = "query"
	CatControl Category = "controller"
	CatWatch   Category = "watch"
	CatUI      Category = "ui"
	CatTrace   Category = "trace"
)

var (
	mu      sync.RWMutex
	logger  = slog.New(slog.NewTextHandler(io.Discard, nil))
	closeFn = func() error { return nil }
)

// Init routes log output to w at the given level.
func Init(w io.Writer, level slog.Level) {
	mu.Lock()
	defer mu.Unlock()
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	closeFn = func() error { return nil }
}

// InitFile appends log output to the file at path, creating parent directories.
// The returned function closes the file.
func InitFile(path string, level slog.Level) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) //nolint:gosec // G304: path comes from user config
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	mu.Lock()
	logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	closeFn = f.Close
	mu.Unlock()

	return Close, nil
}

// Close releases the current log sink and reverts to discarding output.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	err := closeFn()
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	closeFn = func() error { return nil }
	return err
}

// ParseLevel maps a config string to a slog level. Unknown values mean info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func withCategory(cat Category, kv []any) []any {
	return append([]any{"cat", string(cat)}, kv...)
}

// Debug logs at debug level.
func Debug(cat Category, msg string, kv ...any) {
	current().Debug(msg, withCategory(cat, kv)...)
}

// Info logs at info level.
func Info(cat Category, msg string, kv ...any) {
	current().Info(msg, withCategory(cat, kv)...)
}

// Warn logs at warn level.
func Warn(cat Category, msg string, kv ...any) {
	current().Warn(msg, withCategory(cat, kv)...)
}

// Error logs at error level.
func Error(cat Category, msg string, kv ...any) {
	current().Error(msg, withCategory(cat, kv)...)
}

// ErrorErr logs err at error level under the "error" key.
func ErrorErr(cat Category, msg string, err error, kv ...any) {
	current().Error(msg, withCategory(cat, append([]any{"error", err}, kv...))...)
}
