/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: crash_reporter.go
Description: Crash reporters used by the agent. FileCrashReporter writes a timestamped
plain-text report per crash; SentryCrashReporter forwards the crash as an exception
event and waits for delivery.
*/

package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

// CrashError is the error value captured for a crash report
type CrashError struct {
	Message string
}

func (e *CrashError) Error() string { return e.Message }

// FileCrashReporter writes crash reports to a directory
type FileCrashReporter struct {
	dir string
}

func NewFileCrashReporter(dir string) *FileCrashReporter {
	return &FileCrashReporter{dir: dir}
}

func (r *FileCrashReporter) ReportCrash(_ context.Context, crash *CrashReport) error {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("failed to create crash dir: %w", err)
	}

	filename := fmt.Sprintf("crash_%s_%s.txt", fileSafe(crash.AppName), fileSafe(crash.ID))
	path := filepath.Join(r.dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(f, "Crash Report for %s\n", crash.AppName)
	fmt.Fprintf(f, "ID: %s\n", crash.ID)
	fmt.Fprintf(f, "Timestamp: %s\n", crash.Timestamp.Format(time.RFC3339Nano))
	fmt.Fprintf(f, "Message: %s\n", crash.Message)
	if crash.Interaction != "" {
		fmt.Fprintf(f, "Interaction: %s\n", crash.Interaction)
	}
	if len(crash.Attributes) > 0 {
		fmt.Fprintf(f, "Attributes:\n")
		keys := make([]string, 0, len(crash.Attributes))
		for k := range crash.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(f, "  %s=%v\n", k, crash.Attributes[k])
		}
	}
	fmt.Fprintf(f, "StackTrace:\n%s\n", crash.StackTrace)

	crash.Path = path
	return nil
}

// fileSafe replaces path separators so s stays a single file name component
func fileSafe(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, s)
	if s == "" || s == "." || s == ".." {
		return "app"
	}
	return s
}

func (r *FileCrashReporter) Name() string { return "FileCrashReporter" }
func (r *FileCrashReporter) Description() string {
	return "Writes each crash report to a plain-text file in the crash directory."
}

// SentryCrashReporter forwards crash reports to sentry
type SentryCrashReporter struct {
	hub          *sentry.Hub
	flushTimeout time.Duration
}

func NewSentryCrashReporter(hub *sentry.Hub, flushTimeout time.Duration) *SentryCrashReporter {
	return &SentryCrashReporter{hub: hub, flushTimeout: flushTimeout}
}

func (r *SentryCrashReporter) ReportCrash(ctx context.Context, crash *CrashReport) error {
	var eventID *sentry.EventID
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelFatal)
		scope.SetTag("crash_id", crash.ID)
		scope.SetTag("app", crash.AppName)
		if crash.Interaction != "" {
			scope.SetTag("interaction", crash.Interaction)
		}
		for k, v := range crash.Attributes {
			scope.SetExtra(k, v)
		}
		eventID = r.hub.CaptureException(&CrashError{Message: crash.Message})
	})
	if eventID == nil {
		return errors.New("sentry dropped crash event")
	}
	crash.EventID = string(*eventID)

	if err := ctx.Err(); err != nil {
		return err
	}
	if !r.hub.Flush(r.flushTimeout) {
		return fmt.Errorf("sentry flush timed out after %s", r.flushTimeout)
	}
	return nil
}

func (r *SentryCrashReporter) Name() string { return "SentryCrashReporter" }
func (r *SentryCrashReporter) Description() string {
	return "Captures each crash report as a fatal sentry exception event."
}
