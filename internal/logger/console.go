package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/harrison/labourcheck/internal/models"
)

// ConsoleLogger writes leveled, timestamped lines to a writer.
// Color is enabled when the writer is os.Stdout or os.Stderr and color is not disabled.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger. A nil writer discards all output.
// Unknown levels fall back to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}
	if w == os.Stdout || w == os.Stderr {
		// color.NoColor honours NO_COLOR and non-TTY output
		return !color.NoColor
	}
	return false
}

// LogTrace logs a trace-level message.
func (cl *ConsoleLogger) LogTrace(message string) { cl.logWithLevel("TRACE", message) }

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) { cl.logWithLevel("DEBUG", message) }

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) { cl.logWithLevel("INFO", message) }

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) { cl.logWithLevel("WARN", message) }

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) { cl.logWithLevel("ERROR", message) }

// LogSessionStart logs a new funnel session at INFO.
// Format: "[HH:MM:SS] [INFO] session 1a2b3c4d started for owner@acme.test"
func (cl *ConsoleLogger) LogSessionStart(sessionID, email string) {
	cl.LogInfo(fmt.Sprintf("session %s started for %s", shortID(sessionID), email))
}

// LogAnswer logs an accepted answer at DEBUG.
func (cl *ConsoleLogger) LogAnswer(sessionID string, questionID int, progress models.Progress) {
	cl.LogDebug(fmt.Sprintf("session %s answered q%d [%d/%d]", shortID(sessionID), questionID, progress.Answered, progress.Total))
}

// LogComplete logs a finished diagnostic at INFO with a colored score band.
func (cl *ConsoleLogger) LogComplete(sessionID string, report models.Report) {
	band := strings.ToUpper(string(report.ScoreColor))
	if cl.colorOutput {
		band = bandColor(report.ScoreColor).Sprint(band)
	}
	cl.LogInfo(fmt.Sprintf("session %s complete: %d/100 (%s)", shortID(sessionID), report.OverallScore, band))
}

// LogDelivery logs a delivery step, at WARN when it failed.
func (cl *ConsoleLogger) LogDelivery(sessionID, step string, err error) {
	if err != nil {
		cl.LogWarn(fmt.Sprintf("session %s %s failed: %v", shortID(sessionID), step, err))
		return
	}
	cl.LogInfo(fmt.Sprintf("session %s %s ok", shortID(sessionID), step))
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}
	if !shouldLog(cl.logLevel, strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string
	if cl.colorOutput {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, levelColor(level).Sprint(level), message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}
	cl.writer.Write([]byte(formatted))
}

func levelColor(level string) *color.Color {
	switch level {
	case "TRACE":
		return color.New(color.FgHiBlack)
	case "DEBUG":
		return color.New(color.FgCyan)
	case "WARN":
		return color.New(color.FgYellow)
	case "ERROR":
		return color.New(color.FgRed)
	default:
		return color.New(color.FgBlue)
	}
}

func bandColor(c models.Color) *color.Color {
	switch c {
	case models.ColorGreen:
		return color.New(color.FgGreen, color.Bold)
	case models.ColorAmber:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}
