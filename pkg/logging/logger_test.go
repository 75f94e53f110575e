/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logger_test.go
Description: Tests for the logging system. Covers config validation, formats, file
output with pruning, and the instrumentation helpers.
*/

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainConfig(format LogFormat) *LoggerConfig {
	return &LoggerConfig{
		Level:    LogLevelDebug,
		Format:   format,
		MaxFiles: 3,
	}
}

// TestLoggerConfigValidate tests validation of the logger configuration
func TestLoggerConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultLoggerConfig().Validate())

	bad := []*LoggerConfig{
		{Level: LogLevelInfo, Format: "xml"},
		{Level: "loud", Format: LogFormatText},
		{Level: LogLevelInfo, Format: LogFormatText, OutputDir: "./x", MaxFiles: 0},
	}
	for _, c := range bad {
		assert.Error(t, c.Validate(), "%+v", c)
	}
}

func TestNewLoggerDefaults(t *testing.T) {
	logger, err := NewLogger(nil)
	require.NoError(t, err)
	defer logger.Close()

	assert.Equal(t, logrus.InfoLevel, logger.GetLogger().GetLevel())
	assert.Empty(t, logger.FilePath())
}

func TestNewLoggerRejectsInvalidConfig(t *testing.T) {
	_, err := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "yaml"})
	assert.Error(t, err)
}

// TestLogFormats tests that each format renders the instrumentation helpers
func TestLogFormats(t *testing.T) {
	for _, format := range []LogFormat{LogFormatText, LogFormatJSON, LogFormatCustom} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := NewLoggerWithWriter(plainConfig(format), &buf)
			require.NoError(t, err)

			logger.LogCrash("abc", "Haha", map[string]interface{}{"app": "demo"})
			out := buf.String()
			assert.Contains(t, out, "Crash reported")
			assert.Contains(t, out, "Haha")
			assert.Contains(t, out, "abc")
		})
	}
}

func TestJSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLoggerWithWriter(plainConfig(LogFormatJSON), &buf)
	require.NoError(t, err)

	logger.LogTransaction("GET", "http://example.test/", 200, 15*time.Millisecond, nil)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "HTTP transaction", entry["msg"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, float64(200), entry["status"])
	assert.Equal(t, "HTTP", entry[tagField])
}

func TestCustomFormatterTagAndSortedFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLoggerWithWriter(plainConfig(LogFormatCustom), &buf)
	require.NoError(t, err)

	logger.LogEvent("Demo", "button_pressed", map[string]interface{}{"zeta": 1, "alpha": 2})
	line := buf.String()

	assert.True(t, strings.HasPrefix(line, "INFO [EVENT] Custom event recorded"), line)
	assert.NotContains(t, line, tagField)
	assert.Less(t, strings.Index(line, "alpha=2"), strings.Index(line, "zeta=1"))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "1.5s", formatValue(1500*time.Millisecond))
	assert.Equal(t, "0.250", formatValue(0.25))
	assert.Equal(t, "boom", formatValue(errors.New("boom")))
	assert.Equal(t, strings.Repeat("a", 80)+"...", formatValue(strings.Repeat("a", 100)))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	cfg := plainConfig(LogFormatText)
	cfg.Level = LogLevelWarning
	logger, err := NewLoggerWithWriter(cfg, &buf)
	require.NoError(t, err)

	logger.LogMetric("latency", "Custom", 1.0)
	logger.Info("hidden", nil)
	assert.Empty(t, buf.String())

	logger.LogNetworkFailure("GET", "http://nowhere.test", errors.New("refused"), nil)
	assert.Contains(t, buf.String(), "Network failure")
}

func TestInteractionLog(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLoggerWithWriter(plainConfig(LogFormatCustom), &buf)
	require.NoError(t, err)

	logger.LogInteraction("id-1", "MainScreen", "end", 2*time.Second)
	assert.Contains(t, buf.String(), "Interaction end")
	assert.Contains(t, buf.String(), "duration=2s")
}

// TestFileOutputAndCleanup tests log file creation and pruning on close
func TestFileOutputAndCleanup(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2001-01-01_00-00-00.000000", "2002-01-01_00-00-00.000000", "2003-01-01_00-00-00.000000"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, logFilePrefix+name+".log"), []byte("old\n"), 0644))
	}

	cfg := plainConfig(LogFormatText)
	cfg.OutputDir = dir
	cfg.MaxFiles = 2
	cfg.Colors = false

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	require.NotEmpty(t, logger.FilePath())

	logger.Info("written to file", map[string]interface{}{"k": "v"})
	path := logger.FilePath()
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")

	files, err := filepath.Glob(filepath.Join(dir, logFilePrefix+"*.log"))
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.Contains(t, files, path)
}
