// Package logger provides leveled loggers for funnel activity.
//
// Every logger writes "[HH:MM:SS] [LEVEL] message" lines, filters by level
// (trace, debug, info, warn, error) and is safe for concurrent use.
package logger

import (
	"strings"
	"time"

	"github.com/harrison/labourcheck/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// Logger is implemented by every logger in this package.
type Logger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)

	LogSessionStart(sessionID, email string)
	LogAnswer(sessionID string, questionID int, progress models.Progress)
	LogComplete(sessionID string, report models.Report)
	LogDelivery(sessionID, step string, err error)
}

// normalizeLogLevel lowercases and validates a level, defaulting to "info".
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

// IsValidLevel reports whether level names a known log level.
func IsValidLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "error":
		return true
	}
	return false
}

func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func shouldLog(configured, message string) bool {
	return logLevelToInt(message) >= logLevelToInt(configured)
}

// timestamp returns the current time as HH:MM:SS.
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// shortID trims a session ID for log lines.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// MultiLogger fans every call out to several loggers.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger combines loggers; nil entries are skipped.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

func (m *MultiLogger) each(fn func(Logger)) {
	for _, l := range m.loggers {
		fn(l)
	}
}

func (m *MultiLogger) LogTrace(message string) { m.each(func(l Logger) { l.LogTrace(message) }) }
func (m *MultiLogger) LogDebug(message string) { m.each(func(l Logger) { l.LogDebug(message) }) }
func (m *MultiLogger) LogInfo(message string)  { m.each(func(l Logger) { l.LogInfo(message) }) }
func (m *MultiLogger) LogWarn(message string)  { m.each(func(l Logger) { l.LogWarn(message) }) }
func (m *MultiLogger) LogError(message string) { m.each(func(l Logger) { l.LogError(message) }) }

func (m *MultiLogger) LogSessionStart(sessionID, email string) {
	m.each(func(l Logger) { l.LogSessionStart(sessionID, email) })
}

func (m *MultiLogger) LogAnswer(sessionID string, questionID int, progress models.Progress) {
	m.each(func(l Logger) { l.LogAnswer(sessionID, questionID, progress) })
}

func (m *MultiLogger) LogComplete(sessionID string, report models.Report) {
	m.each(func(l Logger) { l.LogComplete(sessionID, report) })
}

func (m *MultiLogger) LogDelivery(sessionID, step string, err error) {
	m.each(func(l Logger) { l.LogDelivery(sessionID, step, err) })
}

// NoOpLogger discards everything. Useful for tests.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogTrace(string)                        {}
func (n *NoOpLogger) LogDebug(string)                        {}
func (n *NoOpLogger) LogInfo(string)                         {}
func (n *NoOpLogger) LogWarn(string)                         {}
func (n *NoOpLogger) LogError(string)                        {}
func (n *NoOpLogger) LogSessionStart(string, string)         {}
func (n *NoOpLogger) LogAnswer(string, int, models.Progress) {}
func (n *NoOpLogger) LogComplete(string, models.Report)      {}
func (n *NoOpLogger) LogDelivery(string, string, error)      {}
