/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: results.go
Description: Writes tour results as timestamped JSON files so successive runs can be
compared.
*/

package demo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type pageResult struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
	Title      string `json:"title"`
	LinkCount  int    `json:"link_count"`
	Bytes      int    `json:"bytes"`
	Attempts   int    `json:"attempts"`
}

type tourRecord struct {
	Message    string       `json:"message"`
	Pages      []pageResult `json:"pages"`
	CrashID    string       `json:"crash_id,omitempty"`
	CrashPath  string       `json:"crash_path,omitempty"`
	EventID    string       `json:"sentry_event_id,omitempty"`
	DurationMS int64        `json:"duration_ms"`
	Release    string       `json:"release"`
	WrittenAt  time.Time    `json:"written_at"`
}

// WriteTourResult writes result to dir as <timestamp>_tour_v<release>.json
// and returns the file path.
func WriteTourResult(dir, release string, result *TourResult) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}

	now := time.Now()
	record := tourRecord{
		Message:    result.Message,
		Pages:      make([]pageResult, 0, len(result.Pages)),
		DurationMS: result.Duration.Milliseconds(),
		Release:    release,
		WrittenAt:  now.UTC(),
	}
	for _, p := range result.Pages {
		record.Pages = append(record.Pages, pageResult(*p))
	}
	if result.Report != nil {
		record.CrashID = result.Report.ID
		record.CrashPath = result.Report.Path
		record.EventID = result.Report.EventID
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal tour result: %w", err)
	}

	name := fmt.Sprintf("%s_tour_v%s.json", now.Format("2006-01-02_15-04-05.000"), release)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write tour result: %w", err)
	}
	return path, nil
}
