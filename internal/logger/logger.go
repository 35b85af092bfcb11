// Package logger provides leveled logging for the service.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Level represents a logging level.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

type Logger struct {
	level  Level
	logger *log.Logger
}

var defaultLogger *Logger

// Init initializes the default logger with the specified level and format.
// Unknown levels fall back to info.
func Init(level string, format string) {
	var l Level
	switch strings.ToLower(level) {
	case "debug":
		l = DebugLevel
	case "info":
		l = InfoLevel
	case "warn":
		l = WarnLevel
	case "error":
		l = ErrorLevel
	default:
		l = InfoLevel
	}

	flags := log.LstdFlags | log.Lmicroseconds
	if strings.ToLower(format) == "text" {
		flags |= log.Lshortfile
	}

	defaultLogger = &Logger{
		level:  l,
		logger: log.New(os.Stderr, "", flags),
	}
}

func Debug(format string, args ...interface{}) {
	if defaultLogger != nil && defaultLogger.level <= DebugLevel {
		_ = defaultLogger.logger.Output(2, fmt.Sprintf("[DEBUG] "+format, args...))
	}
}

func Info(format string, args ...interface{}) {
	if defaultLogger != nil && defaultLogger.level <= InfoLevel {
		_ = defaultLogger.logger.Output(2, fmt.Sprintf("[INFO] "+format, args...))
	}
}

func Warn(format string, args ...interface{}) {
	if defaultLogger != nil && defaultLogger.level <= WarnLevel {
		_ = defaultLogger.logger.Output(2, fmt.Sprintf("[WARN] "+format, args...))
	}
}

func Error(format string, args ...interface{}) {
	if defaultLogger != nil && defaultLogger.level <= ErrorLevel {
		_ = defaultLogger.logger.Output(2, fmt.Sprintf("[ERROR] "+format, args...))
	}
}

func Fatal(format string, args ...interface{}) {
	if defaultLogger != nil {
		_ = defaultLogger.logger.Output(2, fmt.Sprintf("[FATAL] "+format, args...))
	}
	os.Exit(1)
}
