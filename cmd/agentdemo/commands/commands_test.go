/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: commands_test.go
Description: Tests for the agent demo commands: attribute parsing, the message and
button commands, and the self-check.
*/

package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kleascm/agent-demo/pkg/agent"
	"github.com/kleascm/agent-demo/pkg/config"
	"github.com/kleascm/agent-demo/pkg/demo"
	"github.com/kleascm/agent-demo/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// newTestCommand resets the global viper and points it at a config file in a temp dir
func newTestCommand(t *testing.T, yaml string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	path := filepath.Join(dir, "agentdemo.yaml")
	yaml += "\ncrash:\n  dir: " + filepath.Join(dir, "crashes") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	viper.Set("config", path)

	var out bytes.Buffer
	cmd := &cobra.Command{Use: "test"}
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.Flags().String("category", "Custom", "")
	cmd.Flags().Bool("no-panic", true, "")
	cmd.Flags().StringSlice("attr", nil, "")
	return cmd, &out
}

func TestParseAttributes(t *testing.T) {
	attrs, err := parseAttributes([]string{"button=event", "count=3", "ok=true", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"button": "event",
		"count":  float64(3),
		"ok":     true,
		"empty":  "",
	}, attrs)

	_, err = parseAttributes([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseAttributes([]string{"=x"})
	assert.Error(t, err)
}

func TestRunMessage(t *testing.T) {
	cmd, out := newTestCommand(t, "")
	require.NoError(t, RunMessage(cmd, nil))
	assert.Equal(t, "Haha\n", out.String())
}

func TestRunEventAndMetric(t *testing.T) {
	cmd, out := newTestCommand(t, "logging:\n  level: error\n")

	require.NoError(t, RunEvent(cmd, []string{"button_pressed", "button=event"}))
	assert.Contains(t, out.String(), `event "button_pressed" recorded with 1 attributes`)

	require.NoError(t, RunMetric(cmd, []string{"latency", "2.5"}))
	assert.Contains(t, out.String(), "metric latency=2.5 recorded")

	assert.Error(t, RunMetric(cmd, []string{"latency", "fast"}))
	require.NoError(t, RunMetric(cmd, []string{"Custom Metric Name", "1"}))
	assert.Error(t, RunMetric(cmd, []string{" ", "1"}))
}

func TestRunInteraction(t *testing.T) {
	cmd, out := newTestCommand(t, "logging:\n  level: error\n")

	require.NoError(t, RunInteraction(cmd, []string{"MainActivity"}))
	assert.Contains(t, out.String(), `interaction "MainActivity"`)
}

func TestRunCrashWithoutPanic(t *testing.T) {
	cmd, out := newTestCommand(t, "logging:\n  level: error\n")

	require.NoError(t, RunCrash(cmd, nil))
	assert.Contains(t, out.String(), `reported: "Haha"`)
	assert.Contains(t, out.String(), "file:")
	assert.Contains(t, out.String(), "via FileCrashReporter: Writes each crash report")
}

func TestRunCrashWithAttributes(t *testing.T) {
	cmd, out := newTestCommand(t, "logging:\n  level: error\n")
	require.NoError(t, cmd.Flags().Set("attr", "My Custom Attribute=7"))

	require.NoError(t, RunCrash(cmd, nil))

	path := strings.TrimSpace(strings.SplitN(strings.SplitN(out.String(), "file:", 2)[1], "\n", 2)[0])
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "My Custom Attribute=7")
}

func TestRunCrashRejectsBadAttribute(t *testing.T) {
	cmd, _ := newTestCommand(t, "")
	require.NoError(t, cmd.Flags().Set("attr", "novalue"))

	assert.Error(t, RunCrash(cmd, nil))
}

// stuckProcessor is a span processor whose shutdown always fails
type stuckProcessor struct{}

func (stuckProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}
func (stuckProcessor) OnEnd(sdktrace.ReadOnlySpan)                     {}
func (stuckProcessor) ForceFlush(context.Context) error                { return nil }
func (stuckProcessor) Shutdown(context.Context) error {
	return errors.New("exporter unreachable")
}

func TestCloseWarnsOnFlushError(t *testing.T) {
	cmd, out := newTestCommand(t, "")
	cfg, err := LoadConfig()
	require.NoError(t, err)

	var logs bytes.Buffer
	logger, err := logging.NewLoggerWithWriter(&cfg.Logging, &logs)
	require.NoError(t, err)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(stuckProcessor{}))
	a, err := agent.New(context.Background(), cfg, logger, agent.WithTracerProvider(tp))
	require.NoError(t, err)

	s := &session{cfg: cfg, logger: logger, agent: a, screen: demo.NewScreen(a, cfg, logger)}
	s.closeAndWarn(context.Background(), cmd)

	assert.Contains(t, out.String(), "warning:")
	assert.Contains(t, out.String(), "exporter unreachable")
}

func TestLoadConfigJSONLogsOverride(t *testing.T) {
	newTestCommand(t, "logging:\n  format: text\n")
	viper.Set("json_logs", true)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.EqualValues(t, "json", cfg.Logging.Format)
}

func TestPerformSelfCheck(t *testing.T) {
	cmd, out := newTestCommand(t, "http:\n  sample_urls: [\"https://example.com/\"]\n")

	require.NoError(t, PerformSelfCheck(cmd, nil))
	assert.Contains(t, out.String(), "Results: 3/3 checks passed")
}

func TestPerformSelfCheckFailures(t *testing.T) {
	cmd, out := newTestCommand(t, "http:\n  sample_urls: [\"ftp://example.com/\"]\nsentry:\n  dsn: not-a-dsn\n")

	err := PerformSelfCheck(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, out.String(), "Results: 1/3 checks passed")
}

func TestCheckSampleURLs(t *testing.T) {
	tests := []struct {
		name    string
		urls    []string
		wantErr bool
	}{
		{"valid", []string{"https://example.com/", "http://localhost:8080/x"}, false},
		{"empty", nil, true},
		{"scheme", []string{"file:///etc/passwd"}, true},
		{"no host", []string{"https:///path"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{HTTP: config.HTTPConfig{SampleURLs: tt.urls}}
			err := checkSampleURLs(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckCrashDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "crashes")
	cfg := &config.Config{Crash: config.CrashConfig{Dir: dir}}

	require.NoError(t, checkCrashDir(cfg))
	assert.DirExists(t, dir)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
