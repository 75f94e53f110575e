/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: interfaces.go
Description: Instrumentation API of the monitoring agent exercised by the demo screen:
crash reporting, HTTP transaction tracing, custom events and metrics, and
interaction naming. Also the crash reporter abstraction and shared data types.
*/

package agent

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ErrUnknownInteraction is returned when ending an interaction that was never started or has already ended.
	ErrUnknownInteraction = errors.New("unknown interaction")
	// ErrInvalidEvent is returned for custom events with an empty type, name or attribute key.
	ErrInvalidEvent = errors.New("invalid custom event")
	// ErrInvalidMetric is returned for blank or non-UTF-8 metric names and NaN or infinite values.
	ErrInvalidMetric = errors.New("invalid metric")
	// ErrInvalidAttribute is returned for session attributes with a blank key.
	ErrInvalidAttribute = errors.New("invalid attribute")
)

// Agent is the instrumentation surface the demo screen talks to
type Agent interface {
	// CrashNow records a crash with the given message. It does not panic;
	// callers decide whether to take the process down.
	CrashNow(ctx context.Context, message string) (*CrashReport, error)

	NoticeHTTPTransaction(tx *HTTPTransaction)
	NoticeNetworkFailure(tx *HTTPTransaction)

	RecordCustomEvent(eventType, name string, attributes map[string]interface{}) error
	RecordMetric(name, category string, value float64) error

	// SetAttribute sets a session attribute carried by every later crash report.
	SetAttribute(key string, value interface{}) error

	StartInteraction(name string) string
	SetInteractionName(name string)
	EndInteraction(id string) (time.Duration, error)

	// Transport wraps base so that every request is traced and noticed.
	Transport(base http.RoundTripper) http.RoundTripper

	Registry() *prometheus.Registry
	Shutdown(ctx context.Context) error
}

// CrashReporter persists or forwards crash reports. Description is shown to
// users listing the active reporters.
type CrashReporter interface {
	ReportCrash(ctx context.Context, crash *CrashReport) error
	Name() string
	Description() string
}

// CrashReport describes one crash handed to the agent
type CrashReport struct {
	ID          string
	AppName     string
	Timestamp   time.Time
	Message     string
	Interaction string
	StackTrace  string
	Attributes  map[string]interface{}
	// Path is set by reporters that write the report to disk.
	Path string
	// EventID is set when the report was forwarded to sentry.
	EventID string
}

// HTTPTransaction describes one outbound HTTP request
type HTTPTransaction struct {
	URL           string
	Method        string
	StatusCode    int
	Start         time.Time
	Duration      time.Duration
	BytesSent     int64
	BytesReceived int64
	// Err is set for network failures, where no response was received.
	Err error
}

// CustomEvent is a named, typed event with free-form attributes
type CustomEvent struct {
	EventType  string
	Name       string
	Attributes map[string]interface{}
	Timestamp  time.Time
}

// Interaction is a named span of user activity
type Interaction struct {
	ID    string
	Name  string
	Start time.Time
}
