package logging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pyra-labs/logger/alerts"
	"github.com/pyra-labs/logger/alerts/email"
)

// LogLevel represents the severity of a log entry
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Config holds logger configuration
type Config struct {
	// Name is the application name, included in every outbound email
	// subject. Required.
	Name string

	// DailyErrorCacheTime is the notification window: repeated errors
	// with the same signature inside the window are batched into a
	// single summarized email. Zero or negative disables batching.
	DailyErrorCacheTime time.Duration

	// LogPath, when set, additionally appends every console line to a
	// file under this base path.
	LogPath string

	// EnableRotation rotates the log file daily when LogPath is set.
	EnableRotation bool
}

// Logger combines the console sink with the email alert dispatcher under
// one leveled-logging interface. Error-level entries go to the console
// unconditionally and to the dispatcher, which decides whether an email
// goes out. Construction installs process-wide crash capture; only one
// Logger per process should exist, or crash events will be reported by
// whichever instance registered first.
type Logger struct {
	config     *Config
	console    *consoleSink
	file       *dailyWriter
	dispatcher *alerts.Dispatcher
}

/**
 * New creates a logger whose mail transport is configured from the
 * process environment (EMAIL_HOST, EMAIL_PORT, EMAIL_USER,
 * EMAIL_PASSWORD, EMAIL_FROM, EMAIL_TO). Environment validation failures
 * are returned as errors and must be treated as fatal: no logger is
 * constructed, no alerting channel exists.
 *
 * @param config Logger configuration; Name is required
 * @return *Logger Ready-to-use logger
 * @return error Non-nil on invalid configuration or environment
 */
func New(config *Config) (*Logger, error) {
	mailConfig, err := email.ConfigFromEnv()
	if err != nil {
		return nil, err
	}

	return NewWithMailer(config, email.NewSender(mailConfig), mailConfig.To)
}

/**
 * NewWithMailer creates a logger with an explicit mail transport and
 * recipient list, bypassing the environment. Intended for custom
 * transports and tests.
 *
 * @param config Logger configuration; Name is required
 * @param mailer Transport for per-recipient delivery
 * @param recipients Addresses that receive every send decision
 * @return *Logger Ready-to-use logger
 * @return error Non-nil on invalid configuration
 */
func NewWithMailer(config *Config, mailer alerts.Mailer, recipients []string) (*Logger, error) {
	if config == nil || strings.TrimSpace(config.Name) == "" {
		return nil, errors.New("logging: config with a non-empty Name is required")
	}

	window := config.DailyErrorCacheTime
	if window < 0 {
		window = 0
	}

	var file *dailyWriter
	if config.LogPath != "" {
		var err error
		if file, err = newDailyWriter(config.LogPath, config.EnableRotation); err != nil {
			return nil, fmt.Errorf("logging: open log file: %w", err)
		}
	}

	l := &Logger{
		config:  config,
		console: newConsoleSink(),
		file:    file,
		dispatcher: alerts.NewDispatcher(alerts.Config{
			Name:       config.Name,
			Window:     window,
			Recipients: recipients,
		}, mailer),
	}

	installCrashTarget(l)

	return l, nil
}

// Log writes a leveled entry. Error-level entries additionally route
// through the alert dispatcher; the call never blocks on mail delivery.
func (l *Logger) Log(level LogLevel, message string) {
	l.log(level, message, nil)
}

// Debug logs a debug message
func (l *Logger) Debug(message string) {
	l.log(LevelDebug, message, nil)
}

// Info logs an info message
func (l *Logger) Info(message string) {
	l.log(LevelInfo, message, nil)
}

// Warn logs a warning message
func (l *Logger) Warn(message string) {
	l.log(LevelWarn, message, nil)
}

// Error logs an error message and routes it to the alerting channel,
// subject to the dedup/rate-limit policy.
func (l *Logger) Error(message string) {
	l.log(LevelError, message, nil)
}

// Errorf logs a formatted error message. Formatted-in dynamic data makes
// the resulting signature distinct for dedup purposes.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(LevelError, fmt.Sprintf(format, args...), nil)
}

// ErrorWithContext logs an error together with any request metadata
// carried on the context. Metadata lands in the email body but never in
// the dedup signature.
func (l *Logger) ErrorWithContext(ctx context.Context, err error) {
	if err == nil {
		return
	}

	var attrs map[string]string
	if meta, ok := FromContext(ctx); ok {
		attrs = meta.attrs()
	}
	l.log(LevelError, err.Error(), attrs)
}

// Notice sends a one-off administrative email to all recipients,
// bypassing the dedup cache. The subject is prefixed with the
// application name; the body is the message as plain text.
func (l *Logger) Notice(message string) {
	l.log(LevelInfo, message, nil)
	l.dispatcher.Notify(fmt.Sprintf("%s Notice", l.config.Name), message)
}

// Name returns the configured application name.
func (l *Logger) Name() string {
	return l.config.Name
}

// Close stops the dispatcher's cache-clear schedule, waits for in-flight
// sends and closes the file sink if one was configured.
func (l *Logger) Close() error {
	l.dispatcher.Close()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) log(level LogLevel, message string, meta map[string]string) {
	now := time.Now()

	l.console.write(now, level, message)
	if l.file != nil {
		l.file.writeLine(formatLine(now, level, message))
	}

	if level == LevelError {
		l.dispatcher.Dispatch(alerts.Record{
			Time:    now,
			Level:   string(level),
			Message: message,
			Meta:    meta,
		})
	}
}
