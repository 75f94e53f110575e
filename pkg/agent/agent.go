/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: agent.go
Description: MonitorAgent implements the Agent instrumentation API on top of sentry
(crashes, breadcrumbs), OpenTelemetry (HTTP spans), prometheus (counters and
histograms) and the structured logger. Interactions are tracked in memory.
*/

package agent

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/kleascm/agent-demo/pkg/config"
	"github.com/kleascm/agent-demo/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/kleascm/agent-demo/pkg/agent"

	// DefaultMetricCategory is used when RecordMetric gets an empty category.
	DefaultMetricCategory = "Custom"
)

// Option customizes a MonitorAgent
type Option func(*MonitorAgent)

// WithTracerProvider uses tp instead of building one from the config
func WithTracerProvider(tp *sdktrace.TracerProvider) Option {
	return func(a *MonitorAgent) { a.tp = tp }
}

// WithSentryHub uses hub instead of building one from the config
func WithSentryHub(hub *sentry.Hub) Option {
	return func(a *MonitorAgent) { a.hub = hub }
}

// WithCrashReporters replaces the default crash reporters
func WithCrashReporters(reporters ...CrashReporter) Option {
	return func(a *MonitorAgent) { a.reporters = reporters }
}

// MonitorAgent is the default Agent implementation
type MonitorAgent struct {
	appName      string
	environment  string
	release      string
	flushTimeout time.Duration

	logger    *logging.Logger
	metrics   *Metrics
	tp        *sdktrace.TracerProvider
	tracer    trace.Tracer
	hub       *sentry.Hub
	reporters []CrashReporter

	mu           sync.Mutex
	interactions map[string]*Interaction
	current      string
	attributes   map[string]interface{}
}

var _ Agent = (*MonitorAgent)(nil)

// New builds an agent from cfg. The logger stays owned by the caller.
func New(ctx context.Context, cfg *config.Config, logger *logging.Logger, opts ...Option) (*MonitorAgent, error) {
	a := &MonitorAgent{
		appName:      cfg.AppName,
		environment:  cfg.Environment,
		release:      cfg.Release,
		flushTimeout: cfg.Sentry.FlushTimeout,
		logger:       logger,
		metrics:      NewMetrics(cfg.Metrics.Namespace),
		interactions: make(map[string]*Interaction),
		attributes:   make(map[string]interface{}),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.tp == nil {
		tp, err := NewTracerProvider(ctx, cfg.Tracing, cfg.AppName, cfg.Release)
		if err != nil {
			return nil, err
		}
		a.tp = tp
	}
	a.tracer = a.tp.Tracer(tracerName)

	if a.hub == nil {
		hub, err := NewSentryHub(SentryOptions(cfg.Sentry, cfg.Environment, cfg.Release, nil))
		if err != nil {
			return nil, err
		}
		a.hub = hub
	}
	if a.hub != nil {
		a.hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetTag("app", cfg.AppName)
		})
	}

	if a.reporters == nil {
		a.reporters = []CrashReporter{NewFileCrashReporter(cfg.Crash.Dir)}
		if a.hub != nil {
			a.reporters = append(a.reporters, NewSentryCrashReporter(a.hub, a.flushTimeout))
		}
	}

	logger.Debug("Agent started", map[string]interface{}{
		"app":            a.appName,
		"environment":    a.environment,
		"sentry_enabled": a.hub != nil,
		"tracing":        cfg.Tracing.Enabled,
		"reporters":      len(a.reporters),
	})
	return a, nil
}

// CrashNow builds a crash report and hands it to every reporter
func (a *MonitorAgent) CrashNow(ctx context.Context, message string) (*CrashReport, error) {
	report := &CrashReport{
		ID:          uuid.New().String(),
		AppName:     a.appName,
		Timestamp:   time.Now(),
		Message:     message,
		Interaction: a.currentName(),
		StackTrace:  string(debug.Stack()),
		Attributes:  a.sessionAttributes(),
	}
	report.Attributes["environment"] = a.environment
	report.Attributes["release"] = a.release

	var result *multierror.Error
	for _, r := range a.reporters {
		if err := r.ReportCrash(ctx, report); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", r.Name(), err))
		}
	}

	a.metrics.CrashesTotal.Inc()
	a.logger.LogCrash(report.ID, message, map[string]interface{}{
		"path":        report.Path,
		"event_id":    report.EventID,
		"interaction": report.Interaction,
	})
	return report, result.ErrorOrNil()
}

// NoticeHTTPTransaction records a request that received a response
func (a *MonitorAgent) NoticeHTTPTransaction(tx *HTTPTransaction) {
	a.metrics.HTTPTransactions.WithLabelValues(tx.Method, statusClass(tx.StatusCode)).Inc()
	a.metrics.HTTPDuration.WithLabelValues(tx.Method).Observe(tx.Duration.Seconds())
	if tx.BytesReceived > 0 {
		a.metrics.HTTPBytesReceived.WithLabelValues(tx.Method).Add(float64(tx.BytesReceived))
	}
	a.breadcrumb("http", fmt.Sprintf("%s %s -> %d", tx.Method, tx.URL, tx.StatusCode), sentry.LevelInfo)
	a.logger.LogTransaction(tx.Method, tx.URL, tx.StatusCode, tx.Duration, map[string]interface{}{
		"bytes_received": tx.BytesReceived,
	})
}

// NoticeNetworkFailure records a request that produced no response
func (a *MonitorAgent) NoticeNetworkFailure(tx *HTTPTransaction) {
	a.metrics.NetworkFailures.WithLabelValues(tx.Method).Inc()
	a.breadcrumb("http", fmt.Sprintf("%s %s failed: %v", tx.Method, tx.URL, tx.Err), sentry.LevelWarning)
	a.logger.LogNetworkFailure(tx.Method, tx.URL, tx.Err, map[string]interface{}{
		"duration": tx.Duration,
	})
}

// RecordCustomEvent counts and logs a custom event
func (a *MonitorAgent) RecordCustomEvent(eventType, name string, attributes map[string]interface{}) error {
	if eventType == "" || name == "" {
		return fmt.Errorf("%w: event type and name are required", ErrInvalidEvent)
	}
	for k := range attributes {
		if k == "" {
			return fmt.Errorf("%w: empty attribute key", ErrInvalidEvent)
		}
	}

	event := CustomEvent{
		EventType:  eventType,
		Name:       name,
		Attributes: attributes,
		Timestamp:  time.Now(),
	}
	a.metrics.CustomEvents.WithLabelValues(event.EventType).Inc()
	a.breadcrumb("event", event.EventType+"/"+event.Name, sentry.LevelInfo)
	a.logger.LogEvent(event.EventType, event.Name, event.Attributes)
	return nil
}

// RecordMetric observes a value for a named custom metric
func (a *MonitorAgent) RecordMetric(name, category string, value float64) error {
	if strings.TrimSpace(name) == "" || !utf8.ValidString(name) {
		return fmt.Errorf("%w: name %q", ErrInvalidMetric, name)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: value %v for %q", ErrInvalidMetric, value, name)
	}
	if category == "" {
		category = DefaultMetricCategory
	}

	a.metrics.CustomMetric.WithLabelValues(name, category).Observe(value)
	a.metrics.CustomMetricLast.WithLabelValues(name, category).Set(value)
	a.logger.LogMetric(name, category, value)
	return nil
}

// SetAttribute sets a session attribute and tags the sentry scope with it
func (a *MonitorAgent) SetAttribute(key string, value interface{}) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidAttribute)
	}

	a.mu.Lock()
	a.attributes[key] = value
	a.mu.Unlock()

	if a.hub != nil {
		a.hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetTag(key, fmt.Sprint(value))
		})
	}
	a.logger.Debug("Attribute set", map[string]interface{}{"key": key, "value": value})
	return nil
}

func (a *MonitorAgent) sessionAttributes() map[string]interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	attrs := make(map[string]interface{}, len(a.attributes)+2)
	for k, v := range a.attributes {
		attrs[k] = v
	}
	return attrs
}

// StartInteraction opens a new interaction and makes it current
func (a *MonitorAgent) StartInteraction(name string) string {
	in := &Interaction{ID: uuid.New().String(), Name: name, Start: time.Now()}

	a.mu.Lock()
	a.interactions[in.ID] = in
	a.current = in.ID
	a.mu.Unlock()

	a.metrics.Interactions.WithLabelValues("start").Inc()
	a.tagInteraction(name)
	a.logger.LogInteraction(in.ID, name, "start", 0)
	return in.ID
}

// SetInteractionName renames the current interaction, starting one if none is open
func (a *MonitorAgent) SetInteractionName(name string) {
	a.mu.Lock()
	in, ok := a.interactions[a.current]
	if ok {
		in.Name = name
	}
	a.mu.Unlock()

	if !ok {
		a.StartInteraction(name)
		return
	}
	a.metrics.Interactions.WithLabelValues("rename").Inc()
	a.tagInteraction(name)
	a.logger.LogInteraction(in.ID, name, "rename", 0)
}

// EndInteraction closes an interaction and returns how long it was open
func (a *MonitorAgent) EndInteraction(id string) (time.Duration, error) {
	a.mu.Lock()
	in, ok := a.interactions[id]
	if ok {
		delete(a.interactions, id)
		if a.current == id {
			a.current = ""
		}
	}
	a.mu.Unlock()

	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownInteraction, id)
	}

	d := time.Since(in.Start)
	a.metrics.Interactions.WithLabelValues("end").Inc()
	a.metrics.InteractionDuration.WithLabelValues(in.Name).Observe(d.Seconds())
	a.logger.LogInteraction(in.ID, in.Name, "end", d)
	return d, nil
}

// CurrentInteraction returns a copy of the current interaction, if any
func (a *MonitorAgent) CurrentInteraction() (Interaction, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	in, ok := a.interactions[a.current]
	if !ok {
		return Interaction{}, false
	}
	return *in, true
}

func (a *MonitorAgent) currentName() string {
	in, ok := a.CurrentInteraction()
	if !ok {
		return ""
	}
	return in.Name
}

// Transport wraps base with tracing and transaction reporting
func (a *MonitorAgent) Transport(base http.RoundTripper) http.RoundTripper {
	return newInstrumentedTransport(base, a.tracer, a)
}

// Registry returns the prometheus registry with the agent's collectors
func (a *MonitorAgent) Registry() *prometheus.Registry {
	return a.metrics.Registry()
}

// Reporters returns the crash reporters in the order they run
func (a *MonitorAgent) Reporters() []CrashReporter {
	return append([]CrashReporter(nil), a.reporters...)
}

// Metrics exposes the collectors for inspection
func (a *MonitorAgent) Metrics() *Metrics {
	return a.metrics
}

// Shutdown flushes sentry and the tracer provider
func (a *MonitorAgent) Shutdown(ctx context.Context) error {
	var result *multierror.Error
	if a.hub != nil && !a.hub.Flush(a.flushTimeout) {
		result = multierror.Append(result, fmt.Errorf("sentry flush timed out after %s", a.flushTimeout))
	}
	if err := a.tp.Shutdown(ctx); err != nil {
		result = multierror.Append(result, fmt.Errorf("tracer shutdown: %w", err))
	}
	return result.ErrorOrNil()
}

func (a *MonitorAgent) breadcrumb(category, message string, level sentry.Level) {
	if a.hub == nil {
		return
	}
	a.hub.AddBreadcrumb(&sentry.Breadcrumb{
		Category:  category,
		Message:   message,
		Level:     level,
		Timestamp: time.Now(),
	}, nil)
}

func (a *MonitorAgent) tagInteraction(name string) {
	if a.hub == nil {
		return
	}
	a.hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("interaction", name)
	})
}
