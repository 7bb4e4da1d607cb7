// Package logging builds the process logger and hands it to every package
// that registered a setter.
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

// SetLoggerFunc receives the process logger.
type SetLoggerFunc func(*slog.Logger)

var (
	mu      sync.Mutex
	setters []SetLoggerFunc
	current *slog.Logger
)

// Register adds fn to the setters called by SetLogger. Packages call it from
// init. If a logger is already set, fn receives it immediately.
func Register(fn SetLoggerFunc) {
	mu.Lock()
	defer mu.Unlock()
	setters = append(setters, fn)
	if current != nil {
		fn(current)
	}
}

// SetLogger passes l to every registered setter.
func SetLogger(l *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	current = l
	for _, fn := range setters {
		fn(l)
	}
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Options selects the level and destination of the logger built by New.
type Options struct {
	Level string
	// File is the log file path. "-" selects stderr; empty selects
	// DefaultFile.
	File string
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// DefaultFile returns the log file under the user cache directory.
func DefaultFile() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	return filepath.Join(dir, "ncattr", "ncattr.log"), nil
}

// New builds a text logger. The returned closer releases the log file and is
// a no-op for stderr.
func New(o Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(o.Level)
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if o.File != "-" {
		path := o.File
		if path == "" {
			if path, err = DefaultFile(); err != nil {
				return nil, nil, err
			}
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("mkdir log dir: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}

	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
