/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: sentry.go
Description: Sentry client setup for crash capture. Builds an isolated hub per agent,
scrubs obvious secrets before events leave the process, and exposes breadcrumb
and tag helpers used by events and interaction naming.
*/

package agent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/kleascm/agent-demo/pkg/config"
)

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9_-]{20,}`),
	regexp.MustCompile(`(?i)(api[_-]?key|token|secret)["\s:=]+[a-zA-Z0-9_-]{16,}`),
}

// SentryOptions builds client options for cfg. Transport may be nil to use
// the default HTTP transport.
func SentryOptions(cfg config.SentryConfig, environment, release string, transport sentry.Transport) sentry.ClientOptions {
	return sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      environment,
		Release:          release,
		SampleRate:       cfg.SampleRate,
		AttachStacktrace: true,
		BeforeSend:       scrubEvent,
		Transport:        transport,
	}
}

// NewSentryHub returns a hub bound to its own client, or nil if no DSN is set.
func NewSentryHub(opts sentry.ClientOptions) (*sentry.Hub, error) {
	if opts.Dsn == "" {
		return nil, nil
	}
	if !strings.HasPrefix(opts.Dsn, "https://") && !strings.HasPrefix(opts.Dsn, "http://") {
		return nil, fmt.Errorf("invalid sentry DSN %q", opts.Dsn)
	}
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create sentry client: %w", err)
	}
	return sentry.NewHub(client, sentry.NewScope()), nil
}

func scrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	for i := range event.Exception {
		event.Exception[i].Value = scrubSecrets(event.Exception[i].Value)
	}
	event.Message = scrubSecrets(event.Message)
	for key, value := range event.Extra {
		if s, ok := value.(string); ok {
			event.Extra[key] = scrubSecrets(s)
		}
	}
	return event
}

func scrubSecrets(text string) string {
	for _, p := range secretPatterns {
		text = p.ReplaceAllString(text, "[REDACTED]")
	}
	return text
}
