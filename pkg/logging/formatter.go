/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: formatter.go
Description: Custom log formatter for the agent demo. Colored timestamp, level and
caller, a short tag naming the instrumentation call (CRASH, HTTP, EVENT, METRIC,
INTERACTION), and sorted structured fields.
*/

package logging

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// tagField carries the instrumentation tag; the formatter prints it as a
// prefix instead of a regular field.
const tagField = "agent_call"

// CustomFormatter provides readable, colored log output
type CustomFormatter struct {
	Timestamp bool
	Caller    bool
	Colors    bool
}

// Format formats a log entry
func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var output strings.Builder

	if f.Timestamp {
		f.paint(&output, 36, entry.Time.Format("2006-01-02 15:04:05.000"))
		output.WriteString(" ")
	}

	f.paint(&output, f.getLevelColor(entry.Level), strings.ToUpper(entry.Level.String()))
	output.WriteString(" ")

	if tag, ok := entry.Data[tagField].(string); ok && tag != "" {
		f.paint(&output, 35, "["+tag+"]")
		output.WriteString(" ")
	}

	if f.Caller && entry.HasCaller() {
		f.paint(&output, 33, fmt.Sprintf("[%s:%d]", entry.Caller.File, entry.Caller.Line))
		output.WriteString(" ")
	}

	output.WriteString(entry.Message)

	if fields := f.formatFields(entry.Data); fields != "" {
		output.WriteString(" ")
		output.WriteString(fields)
	}

	output.WriteString("\n")
	return []byte(output.String()), nil
}

func (f *CustomFormatter) paint(b *strings.Builder, color int, s string) {
	if f.Colors {
		fmt.Fprintf(b, "\033[%dm%s\033[0m", color, s)
		return
	}
	b.WriteString(s)
}

// getLevelColor returns the ANSI color code for a log level
func (f *CustomFormatter) getLevelColor(level logrus.Level) int {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return 37 // White
	case logrus.InfoLevel:
		return 32 // Green
	case logrus.WarnLevel:
		return 33 // Yellow
	case logrus.ErrorLevel:
		return 31 // Red
	case logrus.FatalLevel, logrus.PanicLevel:
		return 35 // Magenta
	default:
		return 37
	}
}

// formatFields renders fields as key=value pairs in key order
func (f *CustomFormatter) formatFields(fields logrus.Fields) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == tagField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		value := formatValue(fields[key])
		if f.Colors {
			parts = append(parts, fmt.Sprintf("\033[34m%s\033[0m=\033[32m%s\033[0m", key, value))
		} else {
			parts = append(parts, fmt.Sprintf("%s=%s", key, value))
		}
	}
	return strings.Join(parts, " ")
}

// formatValue formats a field value appropriately
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case time.Duration:
		return v.String()
	case time.Time:
		return v.Format("15:04:05.000")
	case string:
		if len(v) > 80 {
			return v[:80] + "..."
		}
		return v
	case float64:
		return fmt.Sprintf("%.3f", v)
	case error:
		return v.Error()
	default:
		return fmt.Sprintf("%v", v)
	}
}
