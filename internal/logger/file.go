package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/harrison/labourcheck/internal/models"
)

// FileLogger writes plain log lines to <logDir>/labourcheck.log, rotating
// the file once it grows past the configured size.
type FileLogger struct {
	out      *lumberjack.Logger
	logLevel string
	mu       sync.Mutex
}

// FileOptions controls rotation. Zero values use the defaults below.
type FileOptions struct {
	MaxSizeMB  int // default 20
	MaxBackups int // default 5
	MaxAgeDays int // default 30
	Compress   bool
}

// NewFileLogger creates a FileLogger writing under logDir.
func NewFileLogger(logDir, logLevel string, opts FileOptions) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 20
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 5
	}
	if opts.MaxAgeDays <= 0 {
		opts.MaxAgeDays = 30
	}

	fl := &FileLogger{
		out: &lumberjack.Logger{
			Filename:   filepath.Join(logDir, "labourcheck.log"),
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
			LocalTime:  true,
		},
		logLevel: normalizeLogLevel(logLevel),
	}
	fl.write(fmt.Sprintf("=== labourcheck started at %s ===\n", time.Now().Format(time.RFC3339)))
	return fl, nil
}

// Path returns the active log file path.
func (fl *FileLogger) Path() string {
	return fl.out.Filename
}

func (fl *FileLogger) LogTrace(message string) { fl.logWithLevel("TRACE", message) }
func (fl *FileLogger) LogDebug(message string) { fl.logWithLevel("DEBUG", message) }
func (fl *FileLogger) LogInfo(message string)  { fl.logWithLevel("INFO", message) }
func (fl *FileLogger) LogWarn(message string)  { fl.logWithLevel("WARN", message) }
func (fl *FileLogger) LogError(message string) { fl.logWithLevel("ERROR", message) }

// LogSessionStart records the full session ID and email.
func (fl *FileLogger) LogSessionStart(sessionID, email string) {
	fl.LogInfo(fmt.Sprintf("session_start id=%s email=%s", sessionID, email))
}

// LogAnswer records an accepted answer.
func (fl *FileLogger) LogAnswer(sessionID string, questionID int, progress models.Progress) {
	fl.LogDebug(fmt.Sprintf("answer id=%s question=%d answered=%d total=%d", sessionID, questionID, progress.Answered, progress.Total))
}

// LogComplete records the overall and per-section scores.
func (fl *FileLogger) LogComplete(sessionID string, report models.Report) {
	var sections []string
	for _, s := range report.OrderedSections() {
		sections = append(sections, fmt.Sprintf("%s=%d", s.Section, s.Score))
	}
	fl.LogInfo(fmt.Sprintf("complete id=%s overall=%d color=%s %s",
		sessionID, report.OverallScore, report.ScoreColor, strings.Join(sections, " ")))
}

// LogDelivery records a delivery step result.
func (fl *FileLogger) LogDelivery(sessionID, step string, err error) {
	if err != nil {
		fl.LogWarn(fmt.Sprintf("delivery id=%s step=%s error=%q", sessionID, step, err.Error()))
		return
	}
	fl.LogInfo(fmt.Sprintf("delivery id=%s step=%s ok", sessionID, step))
}

// Close closes the underlying file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if err := fl.out.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

func (fl *FileLogger) logWithLevel(level, message string) {
	if !shouldLog(fl.logLevel, strings.ToLower(level)) {
		return
	}
	fl.write(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
}

func (fl *FileLogger) write(line string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	fl.out.Write([]byte(line))
}
