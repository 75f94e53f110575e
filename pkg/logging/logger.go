/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logger.go
Description: Structured logging for the agent demo. Wraps logrus with text, JSON and
custom formats, optional timestamped log files with pruning, and helpers for each
instrumentation call the demo screen makes (crash, HTTP transaction, event, metric,
interaction).
*/

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warn"
	LogLevelError   LogLevel = "error"
)

// LogFormat represents the logging format
type LogFormat string

const (
	LogFormatJSON   LogFormat = "json"
	LogFormatText   LogFormat = "text"
	LogFormatCustom LogFormat = "custom"
)

const logFilePrefix = "agentdemo_"

// LoggerConfig holds the configuration for the logger.
// An empty OutputDir logs to the console only.
type LoggerConfig struct {
	Level     LogLevel  `json:"level" mapstructure:"level"`
	Format    LogFormat `json:"format" mapstructure:"format"`
	OutputDir string    `json:"output_dir" mapstructure:"output_dir"`
	MaxFiles  int       `json:"max_files" mapstructure:"max_files"`
	Timestamp bool      `json:"timestamp" mapstructure:"timestamp"`
	Caller    bool      `json:"caller" mapstructure:"caller"`
	Colors    bool      `json:"colors" mapstructure:"colors"`
}

// DefaultLoggerConfig returns a console-only text configuration
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:     LogLevelInfo,
		Format:    LogFormatText,
		MaxFiles:  10,
		Timestamp: true,
		Colors:    true,
	}
}

// Validate checks the LoggerConfig for invalid values.
func (c *LoggerConfig) Validate() error {
	if c.OutputDir != "" && c.MaxFiles <= 0 {
		return fmt.Errorf("max_files must be positive when output_dir is set")
	}
	switch c.Format {
	case LogFormatJSON, LogFormatText, LogFormatCustom:
	default:
		return fmt.Errorf("unsupported log format: %s", c.Format)
	}
	switch c.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
	default:
		return fmt.Errorf("unsupported log level: %s", c.Level)
	}
	return nil
}

// Logger provides structured logging for instrumentation calls
type Logger struct {
	config     *LoggerConfig
	logger     *logrus.Logger
	console    io.Writer
	fileHandle *os.File
	filePath   string
	startTime  time.Time
}

// NewLogger creates a logger writing to stdout and, if OutputDir is set, a
// timestamped file in that directory.
func NewLogger(config *LoggerConfig) (*Logger, error) {
	if config == nil {
		config = DefaultLoggerConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	l := &Logger{
		config:    config,
		logger:    logrus.New(),
		startTime: time.Now(),
	}
	if err := l.setup(os.Stdout); err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	return l, nil
}

// NewLoggerWithWriter creates a logger that writes only to w
func NewLoggerWithWriter(config *LoggerConfig, w io.Writer) (*Logger, error) {
	if config == nil {
		config = DefaultLoggerConfig()
	}
	cfg := *config
	cfg.OutputDir = ""
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	l := &Logger{
		config:    &cfg,
		logger:    logrus.New(),
		startTime: time.Now(),
	}
	if err := l.setup(w); err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	return l, nil
}

func (l *Logger) setup(console io.Writer) error {
	level, err := logrus.ParseLevel(string(l.config.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.logger.SetLevel(level)
	l.logger.SetReportCaller(l.config.Caller)
	l.logger.SetOutput(console)
	l.console = console

	if err := l.setFormatter(); err != nil {
		return err
	}
	return l.setupFileOutput(console)
}

// setFormatter configures the log formatter
func (l *Logger) setFormatter() error {
	callerPrettyfier := func(f *runtime.Frame) (string, string) {
		return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
	}

	switch l.config.Format {
	case LogFormatJSON:
		l.logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: callerPrettyfier,
		})
	case LogFormatText:
		l.logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    l.config.Timestamp,
			TimestampFormat:  time.RFC3339,
			ForceColors:      l.config.Colors,
			DisableColors:    !l.config.Colors,
			CallerPrettyfier: callerPrettyfier,
		})
	case LogFormatCustom:
		l.logger.SetFormatter(&CustomFormatter{
			Timestamp: l.config.Timestamp,
			Caller:    l.config.Caller,
			Colors:    l.config.Colors,
		})
	default:
		return fmt.Errorf("unsupported log format: %s", l.config.Format)
	}
	return nil
}

// setupFileOutput adds a timestamped log file next to the console output
func (l *Logger) setupFileOutput(console io.Writer) error {
	if l.config.OutputDir == "" {
		return nil
	}

	if err := os.MkdirAll(l.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	name := fmt.Sprintf("%s%s.log", logFilePrefix, time.Now().Format("2006-01-02_15-04-05.000000"))
	path := filepath.Join(l.config.OutputDir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	l.fileHandle = file
	l.filePath = path
	l.logger.SetOutput(io.MultiWriter(console, file))

	l.logger.WithFields(logrus.Fields{
		"start_time": l.startTime.Format(time.RFC3339),
		"log_file":   path,
		"level":      l.config.Level,
		"format":     l.config.Format,
	}).Debug("Logging initialized")

	return nil
}

// cleanup removes the oldest log files beyond MaxFiles
func (l *Logger) cleanup() error {
	if l.config.OutputDir == "" {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(l.config.OutputDir, logFilePrefix+"*.log"))
	if err != nil {
		return err
	}
	if len(files) <= l.config.MaxFiles {
		return nil
	}

	// Names embed the creation timestamp, so lexical order is age order.
	sort.Strings(files)
	for _, f := range files[:len(files)-l.config.MaxFiles] {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (l *Logger) entry(call string, fields map[string]interface{}) *logrus.Entry {
	e := l.logger.WithField(tagField, call)
	if len(fields) > 0 {
		e = e.WithFields(fields)
	}
	return e
}

// LogCrash logs a crash report handed to the agent
func (l *Logger) LogCrash(reportID, message string, fields map[string]interface{}) {
	l.entry("CRASH", fields).WithFields(logrus.Fields{
		"report_id": reportID,
		"message":   message,
	}).Error("Crash reported")
}

// LogTransaction logs a completed HTTP transaction
func (l *Logger) LogTransaction(method, url string, status int, duration time.Duration, fields map[string]interface{}) {
	l.entry("HTTP", fields).WithFields(logrus.Fields{
		"method":   method,
		"url":      url,
		"status":   status,
		"duration": duration,
	}).Info("HTTP transaction")
}

// LogNetworkFailure logs an HTTP request that never produced a response
func (l *Logger) LogNetworkFailure(method, url string, err error, fields map[string]interface{}) {
	l.entry("HTTP", fields).WithFields(logrus.Fields{
		"method": method,
		"url":    url,
		"error":  err,
	}).Warn("Network failure")
}

// LogEvent logs a custom event
func (l *Logger) LogEvent(eventType, name string, fields map[string]interface{}) {
	l.entry("EVENT", fields).WithFields(logrus.Fields{
		"event_type": eventType,
		"name":       name,
	}).Info("Custom event recorded")
}

// LogMetric logs a custom metric sample
func (l *Logger) LogMetric(name, category string, value float64) {
	l.entry("METRIC", nil).WithFields(logrus.Fields{
		"name":     name,
		"category": category,
		"value":    value,
	}).Info("Metric recorded")
}

// LogInteraction logs an interaction lifecycle step (start, rename, end)
func (l *Logger) LogInteraction(id, name, action string, duration time.Duration) {
	fields := logrus.Fields{
		"interaction_id": id,
		"name":           name,
		"action":         action,
	}
	if duration > 0 {
		fields["duration"] = duration
	}
	l.entry("INTERACTION", nil).WithFields(fields).Info("Interaction " + action)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.logger.WithFields(fields).Debug(msg)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.logger.WithFields(fields).Info(msg)
}

// Warning logs a warning message
func (l *Logger) Warning(msg string, fields map[string]interface{}) {
	l.logger.WithFields(fields).Warn(msg)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.logger.WithFields(fields).Error(msg)
}

// FilePath returns the current log file path, or "" when logging to console only
func (l *Logger) FilePath() string {
	return l.filePath
}

// GetLogger returns the underlying logrus logger
func (l *Logger) GetLogger() *logrus.Logger {
	return l.logger
}

// Close closes the log file and prunes old files
func (l *Logger) Close() error {
	if l.fileHandle != nil {
		if err := l.fileHandle.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
		l.fileHandle = nil
		l.logger.SetOutput(l.console)
	}
	if err := l.cleanup(); err != nil {
		return fmt.Errorf("failed to cleanup log files: %w", err)
	}
	return nil
}
