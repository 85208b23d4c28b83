package logging

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

type LoggingService struct {
	Logger *slog.Logger
	closer io.Closer
}

var defaultService atomic.Pointer[LoggingService]

// Used until InitLogger runs. Debug output is dropped.
var fallbackLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

// InitLogger initializes the global logger instance and makes it the slog default.
// Any previous logger is closed.
func InitLogger(opts Options) *LoggingService {
	logger, closer := NewLogger(opts)
	svc := &LoggingService{Logger: logger, closer: closer}

	if prev := defaultService.Swap(svc); prev != nil {
		_ = prev.closer.Close()
	}
	slog.SetDefault(logger)
	return svc
}

// Close flushes and closes the global log file.
func Close() error {
	svc := defaultService.Swap(nil)
	if svc == nil {
		return nil
	}
	slog.SetDefault(fallbackLogger)
	return svc.closer.Close()
}

// Logger returns the global logger, or the console fallback before InitLogger.
func Logger() *slog.Logger {
	if svc := defaultService.Load(); svc != nil {
		return svc.Logger
	}
	return fallbackLogger
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}
