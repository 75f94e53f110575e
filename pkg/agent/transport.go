/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: transport.go
Description: Instrumented http.RoundTripper. Each request runs inside a client span,
carries W3C trace context headers, and is reported to the agent as either an HTTP
transaction or a network failure.
*/

package agent

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// transactionNotifier receives the outcome of each instrumented request
type transactionNotifier interface {
	NoticeHTTPTransaction(tx *HTTPTransaction)
	NoticeNetworkFailure(tx *HTTPTransaction)
}

type instrumentedTransport struct {
	base       http.RoundTripper
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	notifier   transactionNotifier
}

func newInstrumentedTransport(base http.RoundTripper, tracer trace.Tracer, notifier transactionNotifier) *instrumentedTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &instrumentedTransport{
		base:       base,
		tracer:     tracer,
		propagator: propagation.TraceContext{},
		notifier:   notifier,
	}
}

func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, span := t.tracer.Start(req.Context(), "HTTP "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
			attribute.String("net.peer.name", req.URL.Hostname()),
		),
	)
	defer span.End()

	// A RoundTripper must not modify the caller's request.
	out := req.Clone(ctx)
	t.propagator.Inject(ctx, propagation.HeaderCarrier(out.Header))

	tx := &HTTPTransaction{
		URL:    req.URL.String(),
		Method: req.Method,
		Start:  time.Now(),
	}
	if req.ContentLength > 0 {
		tx.BytesSent = req.ContentLength
	}

	resp, err := t.base.RoundTrip(out)
	tx.Duration = time.Since(tx.Start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		tx.Err = err
		t.notifier.NoticeNetworkFailure(tx)
		return nil, err
	}

	tx.StatusCode = resp.StatusCode
	if resp.ContentLength > 0 {
		tx.BytesReceived = resp.ContentLength
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
	t.notifier.NoticeHTTPTransaction(tx)
	return resp, nil
}
