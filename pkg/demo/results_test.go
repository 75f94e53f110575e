/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: results_test.go
Description: Tests for writing tour results to disk.
*/

package demo

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kleascm/agent-demo/pkg/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTourResult(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	result := &TourResult{
		Message:  "Haha",
		Pages:    []*PageSummary{{URL: "https://example.com/", StatusCode: 200, Title: "Example", LinkCount: 1, Bytes: 10, Attempts: 1}},
		Report:   &agent.CrashReport{ID: "abc", Path: "/tmp/crash_abc.txt"},
		Duration: 1500 * time.Millisecond,
	}

	path, err := WriteTourResult(dir, "1.2.3", result)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_tour_v1.2.3.json"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Haha", decoded["message"])
	assert.Equal(t, "abc", decoded["crash_id"])
	assert.EqualValues(t, 1500, decoded["duration_ms"])
	assert.NotContains(t, decoded, "sentry_event_id")

	pages := decoded["pages"].([]interface{})
	require.Len(t, pages, 1)
	assert.Equal(t, "Example", pages[0].(map[string]interface{})["title"])
}

func TestWriteTourResultWithoutCrash(t *testing.T) {
	path, err := WriteTourResult(t.TempDir(), "dev", &TourResult{Message: "Haha"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"pages": []`)
	assert.NotContains(t, string(data), "crash_id")
}
