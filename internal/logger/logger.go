// Package logger provides the process-wide structured logger used by every
// dbflow component.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a leveled key/value logger
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// Options configures the process logger
type Options struct {
	Level  string // debug, info, warn, error
	File   string // optional log file, written in addition to stderr
	Format string // console or json
}

var (
	mu   sync.RWMutex
	base = newDefault()
)

func newDefault() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// Setup replaces the process logger according to opts
func Setup(opts Options) error {
	level := zapcore.WarnLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	var cfg zap.Config
	switch strings.ToLower(opts.Format) {
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return fmt.Errorf("invalid log format %q", opts.Format)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	cfg.Sampling = nil
	cfg.OutputPaths = []string{"stderr"}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		cfg.OutputPaths = append(cfg.OutputPaths, opts.File)
	}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	SetLogger(l)
	return nil
}

// SetLogger installs l as the process logger and returns a function that
// restores the previous one.
func SetLogger(l *zap.Logger) func() {
	mu.Lock()
	prev := base
	base = l
	mu.Unlock()

	return func() {
		mu.Lock()
		base = prev
		mu.Unlock()
	}
}

// Sync flushes buffered log entries
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return base.Sync()
}

func current() *zapLogger {
	mu.RLock()
	defer mu.RUnlock()
	return &zapLogger{s: base.Sugar()}
}

type zapLogger struct {
	s *zap.SugaredLogger
}

func (l *zapLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l *zapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Infow(msg, keysAndValues...)
}

func (l *zapLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.s.Warnw(msg, keysAndValues...)
}

func (l *zapLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, keysAndValues...)
}

func (l *zapLogger) WithField(key string, value interface{}) Logger {
	return &zapLogger{s: l.s.With(key, value)}
}

func (l *zapLogger) WithFields(fields map[string]interface{}) Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &zapLogger{s: l.s.With(args...)}
}

// Package level helpers

func Debug(msg string, keysAndValues ...interface{}) {
	current().Debug(msg, keysAndValues...)
}

func Info(msg string, keysAndValues ...interface{}) {
	current().Info(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...interface{}) {
	current().Warn(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...interface{}) {
	current().Error(msg, keysAndValues...)
}

// WithField returns the process logger with one extra field
func WithField(key string, value interface{}) Logger {
	return current().WithField(key, value)
}

// WithFields returns the process logger with extra fields
func WithFields(fields map[string]interface{}) Logger {
	return current().WithFields(fields)
}
