// Package logging provides structured logging for the serial console client.
// It wraps log/slog with the four verbosity levels used by the console
// (0 = errors only … 3 = everything) and hands out component loggers.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of log messages
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// DefaultVerbosity shows warnings and errors only.
const DefaultVerbosity = 1

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LevelFromVerbosity maps the operator-facing verbosity (0-3) to a LogLevel.
// Out-of-range values fall back to DefaultVerbosity.
func LevelFromVerbosity(verbosity int) LogLevel {
	switch verbosity {
	case 0:
		return ErrorLevel
	case 1:
		return WarnLevel
	case 2:
		return InfoLevel
	case 3:
		return DebugLevel
	default:
		return LevelFromVerbosity(DefaultVerbosity)
	}
}

// ValidVerbosity reports whether v is one of the four verbosity levels.
func ValidVerbosity(v int) bool {
	return v >= 0 && v <= 3
}

// Logger provides structured logging with context support
type Logger struct {
	logger    *slog.Logger
	level     LogLevel
	component string
}

// Config represents logging configuration
type Config struct {
	Level     LogLevel
	Format    string // "json" or "text"
	Output    string // "stdout", "stderr", "discard", or file path
	Component string

	// Writer overrides Output when set
	Writer io.Writer
}

// DefaultConfig returns the default logging configuration
func DefaultConfig() Config {
	return Config{
		Level:     LevelFromVerbosity(DefaultVerbosity),
		Format:    "text",
		Output:    "stderr",
		Component: "console",
	}
}

// NewLogger creates a new logger with the specified configuration
func NewLogger(config Config) (*Logger, error) {
	var handler slog.Handler

	output := config.Writer
	if output == nil {
		switch config.Output {
		case "stdout":
			output = os.Stdout
		case "stderr", "":
			output = os.Stderr
		case "discard":
			output = io.Discard
		default:
			file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return nil, fmt.Errorf("failed to open log file %s: %w", config.Output, err)
			}
			output = file
		}
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel(config.Level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Raw operator input never reaches the log verbatim
			if a.Key == "payload" || strings.Contains(strings.ToLower(a.Key), "password") {
				return slog.String(a.Key, "[REDACTED]")
			}
			return a
		},
	}

	switch config.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return &Logger{
		logger:    slog.New(handler),
		level:     config.Level,
		component: config.Component,
	}, nil
}

// NewDiscardLogger returns a logger that drops everything. Tests use it.
func NewDiscardLogger() *Logger {
	l, _ := NewLogger(Config{Level: ErrorLevel, Writer: io.Discard})
	return l
}

// slogLevel converts our LogLevel to slog.Level
func slogLevel(level LogLevel) slog.Level {
	switch level {
	case DebugLevel:
		return slog.LevelDebug
	case InfoLevel:
		return slog.LevelInfo
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Level returns the minimum level this logger emits
func (l *Logger) Level() LogLevel {
	return l.level
}

// WithContext creates a new logger with additional context
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return &Logger{
		logger:    l.logger.With(slog.String("component", l.component)),
		level:     l.level,
		component: l.component,
	}
}

// WithComponent creates a new logger for a specific component
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		logger:    l.logger.With(slog.String("component", component)),
		level:     l.level,
		component: component,
	}
}

// WithField adds a field to the logger context
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		logger:    l.logger.With(slog.Any(key, value)),
		level:     l.level,
		component: l.component,
	}
}

// WithFields adds multiple fields to the logger context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{
		logger:    l.logger.With(args...),
		level:     l.level,
		component: l.component,
	}
}

// Debug logs a debug level message
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.level <= DebugLevel {
		l.logger.Debug(msg, args...)
	}
}

// Info logs an info level message
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.level <= InfoLevel {
		l.logger.Info(msg, args...)
	}
}

// Warn logs a warning level message
func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.level <= WarnLevel {
		l.logger.Warn(msg, args...)
	}
}

// Error logs an error level message
func (l *Logger) Error(msg string, args ...interface{}) {
	if l.level <= ErrorLevel {
		l.logger.Error(msg, args...)
	}
}

// LogOperation logs the start and end of an operation with duration
func (l *Logger) LogOperation(operation string, fn func() error) error {
	start := time.Now()
	opLogger := l.WithField("operation", operation)

	opLogger.Debug("Operation starting")

	err := fn()
	duration := time.Since(start)

	if err != nil {
		opLogger.Error("Operation failed",
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return err
	}

	opLogger.Debug("Operation completed",
		slog.Duration("duration", duration))
	return nil
}

// LogConnectionAttempt logs the start of a dial
func (l *Logger) LogConnectionAttempt(url string, connID string, attempt int) {
	l.Info("Attempting connection",
		slog.String("url", url),
		slog.String("conn_id", connID),
		slog.Int("attempt", attempt))
}

// LogConnectionOpen logs a handle that reached the open state
func (l *Logger) LogConnectionOpen(url string, connID string, duration time.Duration) {
	l.Info("Connection established",
		slog.String("url", url),
		slog.String("conn_id", connID),
		slog.Duration("connect_duration", duration))
}

// LogConnectionClosed logs the end of a handle
func (l *Logger) LogConnectionClosed(connID string, code int, reason string, manual bool) {
	fields := []interface{}{
		slog.String("conn_id", connID),
		slog.Int("code", code),
		slog.String("reason", reason),
		slog.Bool("manual", manual),
	}
	if manual {
		l.Info("Connection closed", fields...)
	} else {
		l.Warn("Connection lost", fields...)
	}
}

// LogStateChange logs a session state transition
func (l *Logger) LogStateChange(from string, to string) {
	l.Debug("Session state change",
		slog.String("from", from),
		slog.String("to", to))
}

// LogReconnectScheduled logs an armed reconnect timer
func (l *Logger) LogReconnectScheduled(attempt int, maxAttempts int, delay time.Duration) {
	l.Info("Reconnect scheduled",
		slog.Int("attempt", attempt),
		slog.Int("max_attempts", maxAttempts),
		slog.Duration("delay", delay))
}

// LogProbe logs a completed heartbeat round trip
func (l *Logger) LogProbe(rtt time.Duration, quality string) {
	l.Debug("Heartbeat round trip",
		slog.Duration("rtt", rtt),
		slog.String("quality", quality))
}

// LogConfigLoad logs configuration loading operations
func (l *Logger) LogConfigLoad(configPath string, profileName string) {
	l.Debug("Loading configuration",
		slog.String("config_path", configPath),
		slog.String("profile", profileName))
}

// LogConfigError logs configuration-related errors
func (l *Logger) LogConfigError(operation string, err error) {
	l.Error("Configuration error",
		slog.String("operation", operation),
		slog.String("error", err.Error()))
}

// LogUIStateChange logs user interface state transitions
func (l *Logger) LogUIStateChange(from string, to string, reason string) {
	l.Debug("UI state change",
		slog.String("from", from),
		slog.String("to", to),
		slog.String("reason", reason))
}

var (
	globalLogger *Logger
	globalMu     sync.RWMutex
)

// InitGlobalLogger initializes the global logger with the specified configuration
func InitGlobalLogger(config Config) error {
	logger, err := NewLogger(config)
	if err != nil {
		return fmt.Errorf("failed to initialize global logger: %w", err)
	}
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
	return nil
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	logger := globalLogger
	globalMu.RUnlock()
	if logger != nil {
		return logger
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger, _ = NewLogger(DefaultConfig())
	}
	return globalLogger
}

// Component-specific logger creators
func GetSessionLogger() *Logger {
	return GetGlobalLogger().WithComponent("session")
}

func GetTransportLogger() *Logger {
	return GetGlobalLogger().WithComponent("transport")
}

func GetProtocolLogger() *Logger {
	return GetGlobalLogger().WithComponent("protocol")
}

func GetConfigLogger() *Logger {
	return GetGlobalLogger().WithComponent("config")
}

func GetRenderLogger() *Logger {
	return GetGlobalLogger().WithComponent("render")
}

func GetUILogger() *Logger {
	return GetGlobalLogger().WithComponent("ui")
}

func GetAppLogger() *Logger {
	return GetGlobalLogger().WithComponent("app")
}
