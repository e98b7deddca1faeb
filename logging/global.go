package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/giygas/drugcatalog-api/config"
)

type LoggingService struct {
	Logger   *slog.Logger
	rotating *RotatingLogger
}

var (
	DefaultLoggingService *LoggingService
	mu                    sync.Mutex
)

// parseLogLevel maps a LOG_LEVEL value to a slog level, defaulting to info
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetConsoleLogLevel returns the console level for an environment. An explicit
// LOG_LEVEL overrides the environment default, except under test where the
// console stays quiet unless verbose is set.
func GetConsoleLogLevel(env config.Environment, logLevel string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}

	if logLevel != "" {
		return parseLogLevel(logLevel)
	}

	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel returns the file level; files always keep debug output
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

// InitLogger initializes the global logger instance
func InitLogger(logDir string, env config.Environment, logLevel string, retentionDays int, maxFileSize int64) {
	verbose := testing.Testing() && testing.Verbose()
	logger, rotating := newLogger(logDir, GetConsoleLogLevel(env, logLevel, verbose), GetFileLogLevel(), retentionDays, maxFileSize)

	mu.Lock()
	previous := DefaultLoggingService
	DefaultLoggingService = &LoggingService{Logger: logger, rotating: rotating}
	mu.Unlock()

	if previous != nil && previous.rotating != nil {
		_ = previous.rotating.Close()
	}

	slog.SetDefault(logger)
}

// Close flushes and closes the log file of the global logger
func Close() error {
	mu.Lock()
	service := DefaultLoggingService
	mu.Unlock()

	if service == nil || service.rotating == nil {
		return nil
	}
	return service.rotating.Close()
}

// ResetForTest installs a fresh global logger writing to dir and closes it when the test ends
func ResetForTest(t testing.TB, dir string, env config.Environment, logLevel string, retentionDays int, maxFileSize int64) {
	t.Helper()
	InitLogger(dir, env, logLevel, retentionDays, maxFileSize)
	t.Cleanup(func() {
		_ = Close()
		mu.Lock()
		DefaultLoggingService = nil
		mu.Unlock()
	})
}

func current() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if DefaultLoggingService == nil {
		return nil
	}
	return DefaultLoggingService.Logger
}

// Logger returns the global logger, or slog's default when it is not initialized
func Logger() *slog.Logger {
	if logger := current(); logger != nil {
		return logger
	}
	return slog.Default()
}

func fallback(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	logger := current()
	if logger == nil {
		// Fallback to console logger if not initialized
		fallback(slog.LevelInfo).Info(msg, args...)
		return
	}
	logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	logger := current()
	if logger == nil {
		fallback(slog.LevelError).Error(msg, args...)
		return
	}
	logger.Error(msg, args...)
}

func Warn(msg string, args ...any) {
	logger := current()
	if logger == nil {
		fallback(slog.LevelWarn).Warn(msg, args...)
		return
	}
	logger.Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	logger := current()
	if logger == nil {
		fallback(slog.LevelDebug).Debug(msg, args...)
		return
	}
	logger.Debug(msg, args...)
}
