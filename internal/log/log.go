// Package log provides centralized logging functionality using zap logger.
package log

import (
	"fmt"

	"go.uber.org/zap"
)

var log *zap.SugaredLogger

// Init initializes the package-level logger
func Init(debug bool) error {
	var zapLogger *zap.Logger
	var err error

	if debug {
		zapLogger, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	} else {
		zapLogger, err = zap.NewProduction(zap.AddCallerSkip(1))
	}
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %v", err)
	}

	log = zapLogger.Sugar()
	return nil
}

// GetSugaredLogger returns the sugared logger instance, falling back to a
// production logger when Init was not called (tests).
func GetSugaredLogger() *zap.SugaredLogger {
	if log == nil {
		zapLogger, err := zap.NewProduction(zap.AddCallerSkip(1))
		if err != nil {
			zapLogger = zap.NewNop()
		}
		log = zapLogger.Sugar()
	}
	return log
}

// Sync flushes any buffered log entries
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

func Debugf(template string, args ...any) {
	GetSugaredLogger().Debugf(template, args...)
}

func Info(args ...any) {
	GetSugaredLogger().Info(args...)
}

// Infow logs a message with structured key/value pairs.
func Infow(msg string, keysAndValues ...any) {
	GetSugaredLogger().Infow(msg, keysAndValues...)
}

func Warn(args ...any) {
	GetSugaredLogger().Warn(args...)
}

func Warnf(template string, args ...any) {
	GetSugaredLogger().Warnf(template, args...)
}

func Errorf(template string, args ...any) {
	GetSugaredLogger().Errorf(template, args...)
}
