// Package obslog is the rotating, structured run logger. It writes the
// persisted run log artifact (logs/run_<timestamp>.log, spec §6) in
// addition to stdout, and is independent of the colored CLI status output
// in internal/cli, which uses fatih/color.
package obslog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Config controls where and how the run log is written.
type Config struct {
	Verbose    bool   // human-readable text instead of JSON
	OutputFile string // path to the run log artifact; empty disables file output
	MaxSize    int64  // bytes before rotation, default 10MB
	MaxBackups int    // rotated backups to keep, default 3
}

// Logger wraps slog.Logger with file rotation.
type Logger struct {
	slog *slog.Logger
	cfg  Config
	file *os.File
	mu   sync.Mutex
}

// New creates a run logger per cfg. The output directory is created if
// missing.
func New(cfg Config) (*Logger, error) {
	if cfg.MaxSize == 0 {
		cfg.MaxSize = 10 * 1024 * 1024
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = 3
	}

	l := &Logger{cfg: cfg}

	writers := []io.Writer{os.Stdout}

	if cfg.OutputFile != "" {
		dir := filepath.Dir(cfg.OutputFile)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory %s: %w", dir, err)
		}
		if err := l.rotateIfNeeded(); err != nil {
			return nil, fmt.Errorf("rotate run log: %w", err)
		}
		f, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open run log %s: %w", cfg.OutputFile, err)
		}
		l.file = f
		writers = append(writers, f)
	}

	mw := io.MultiWriter(writers...)
	opts := &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: cfg.Verbose,
	}
	if cfg.Verbose {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Verbose {
		handler = slog.NewTextHandler(mw, opts)
	} else {
		handler = slog.NewJSONHandler(mw, opts)
	}

	l.slog = slog.New(handler)
	return l, nil
}

func (l *Logger) rotateIfNeeded() error {
	info, err := os.Stat(l.cfg.OutputFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat run log: %w", err)
	}
	if info.Size() < l.cfg.MaxSize {
		return nil
	}

	for i := l.cfg.MaxBackups - 1; i >= 1; i-- {
		old := fmt.Sprintf("%s.%d", l.cfg.OutputFile, i)
		next := fmt.Sprintf("%s.%d", l.cfg.OutputFile, i+1)
		if _, err := os.Stat(old); err == nil {
			os.Rename(old, next)
		}
	}
	backup := l.cfg.OutputFile + ".1"
	return os.Rename(l.cfg.OutputFile, backup)
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// With returns a derived logger carrying additional structured fields.
func (l *Logger) With(args ...any) *Logger {
	cp := *l
	cp.slog = l.slog.With(args...)
	return &cp
}

// Close closes the underlying log file, if one is open.
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

// DefaultPath returns the conventional run log artifact path for the
// given run timestamp (spec §6: logs/run_<YYYYMMDD_HHMMSS>.log).
func DefaultPath(runTimestamp string) string {
	return filepath.Join("logs", fmt.Sprintf("run_%s.log", runTimestamp))
}
