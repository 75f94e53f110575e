/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: screen.go
Description: The demo screen. Each exported method is one button: crash with the
deterministic message, fetch a sample page through the instrumented client, record
a custom event or metric, or name the current interaction. Tour presses them all.
*/

package demo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/kleascm/agent-demo/pkg/agent"
	"github.com/kleascm/agent-demo/pkg/config"
	"github.com/kleascm/agent-demo/pkg/logging"
	"github.com/kleascm/agent-demo/pkg/selector"
)

const (
	// EventType is the custom event type used for every button event.
	EventType = "DemoEvent"

	maxBodyBytes = 4 << 20
)

// StatusError is returned for sample requests answered with a 4xx or 5xx
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// PageSummary is what a sample request extracts from its response
type PageSummary struct {
	URL        string
	StatusCode int
	Title      string
	LinkCount  int
	Bytes      int
	Attempts   int
}

// TourResult collects the outcome of pressing every button once
type TourResult struct {
	Message  string
	Pages    []*PageSummary
	Report   *agent.CrashReport
	Duration time.Duration
}

// Screen wires the buttons to the agent
type Screen struct {
	agent      agent.Agent
	logger     *logging.Logger
	client     *http.Client
	sampleURLs []string
	retries    int
	userAgent  string

	selectMessage func() string
}

// NewScreen builds a screen whose HTTP client is instrumented by a
func NewScreen(a agent.Agent, cfg *config.Config, logger *logging.Logger) *Screen {
	return &Screen{
		agent:  a,
		logger: logger,
		client: &http.Client{
			Timeout:   cfg.HTTP.Timeout,
			Transport: a.Transport(nil),
		},
		sampleURLs:    cfg.HTTP.SampleURLs,
		retries:       cfg.HTTP.Retries,
		userAgent:     cfg.HTTP.UserAgent,
		selectMessage: selector.SelectMessage,
	}
}

// Message returns the message the crash button would use
func (s *Screen) Message() string {
	return s.selectMessage()
}

// Crash reports a crash with the deterministic message
func (s *Screen) Crash(ctx context.Context) (*agent.CrashReport, error) {
	msg := s.selectMessage()
	s.logger.Debug("Crash button pressed", map[string]interface{}{"message": msg})
	return s.agent.CrashNow(ctx, msg)
}

// FetchSample requests url, retrying transport errors and 5xx answers up to
// the configured retry count, and parses the page title and links.
func (s *Screen) FetchSample(ctx context.Context, url string) (*PageSummary, error) {
	attempts := s.retries + 1
	for attempt := 1; ; attempt++ {
		summary, retryable, err := s.fetchOnce(ctx, url)
		if err == nil {
			summary.Attempts = attempt
			return summary, nil
		}

		fields := map[string]interface{}{"url": url, "attempt": attempt, "error": err}
		if !retryable || attempt >= attempts || ctx.Err() != nil {
			s.logger.Error("Sample request failed", fields)
			return nil, err
		}
		s.logger.Warning("Sample request failed, retrying", fields)
	}
}

func (s *Screen) fetchOnce(ctx context.Context, url string) (*PageSummary, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, true, fmt.Errorf("read %s: %w", url, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, resp.StatusCode >= http.StatusInternalServerError, &StatusError{URL: url, Code: resp.StatusCode}
	}

	summary := &PageSummary{URL: url, StatusCode: resp.StatusCode, Bytes: len(body)}
	s.parsePage(summary, resp.Header.Get("Content-Type"), body)
	return summary, false, nil
}

// parsePage fills title and link count; anything unparseable is logged and skipped
func (s *Screen) parsePage(summary *PageSummary, contentType string, body []byte) {
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || !strings.Contains(mediaType, "html") {
			s.logger.Warning("Sample response is not HTML, skipping parse", map[string]interface{}{
				"url":          summary.URL,
				"content_type": contentType,
			})
			return
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		s.logger.Warning("Failed to parse sample page", map[string]interface{}{"url": summary.URL, "error": err})
		return
	}
	summary.Title = strings.TrimSpace(doc.Find("title").First().Text())
	summary.LinkCount = doc.Find("a[href]").Length()
}

// FetchAll fetches every configured sample URL; failures are logged and skipped
func (s *Screen) FetchAll(ctx context.Context) []*PageSummary {
	var pages []*PageSummary
	for _, url := range s.sampleURLs {
		page, err := s.FetchSample(ctx, url)
		if err != nil {
			continue
		}
		pages = append(pages, page)
	}
	return pages
}

// RecordEvent records a button event, retrying once if the agent rejects it
func (s *Screen) RecordEvent(name string, attributes map[string]interface{}) error {
	err := s.agent.RecordCustomEvent(EventType, name, attributes)
	if err == nil {
		return nil
	}
	s.logger.Warning("Custom event failed, retrying", map[string]interface{}{"event": name, "error": err})

	if err = s.agent.RecordCustomEvent(EventType, name, attributes); err != nil {
		s.logger.Error("Custom event failed", map[string]interface{}{"event": name, "error": err})
		return err
	}
	return nil
}

// SetAttribute sets a session attribute on the agent
func (s *Screen) SetAttribute(key string, value interface{}) error {
	return s.agent.SetAttribute(key, value)
}

// RecordMetric records a custom metric value
func (s *Screen) RecordMetric(name, category string, value float64) error {
	return s.agent.RecordMetric(name, category, value)
}

// NameInteraction renames the current interaction
func (s *Screen) NameInteraction(name string) {
	s.agent.SetInteractionName(name)
}

// Tour presses every button once, in screen order. The crash button is only
// pressed when includeCrash is set.
func (s *Screen) Tour(ctx context.Context, includeCrash bool) (*TourResult, error) {
	start := time.Now()
	id := s.agent.StartInteraction("Tour")
	s.NameInteraction("MainScreen")

	result := &TourResult{Message: s.Message()}

	if err := s.SetAttribute("tour_crash", includeCrash); err != nil {
		return nil, err
	}

	if err := s.RecordEvent("tour_started", map[string]interface{}{"sample_urls": len(s.sampleURLs)}); err != nil {
		return nil, err
	}

	result.Pages = s.FetchAll(ctx)
	if err := s.RecordMetric("sample_pages_fetched", "Tour", float64(len(result.Pages))); err != nil {
		return nil, err
	}

	if includeCrash {
		report, err := s.Crash(ctx)
		result.Report = report
		if err != nil {
			s.logger.Error("Crash reporting incomplete", map[string]interface{}{"error": err})
		}
	}

	if _, err := s.agent.EndInteraction(id); err != nil {
		return nil, err
	}
	result.Duration = time.Since(start)
	return result, nil
}
