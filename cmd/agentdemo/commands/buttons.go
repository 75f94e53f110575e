/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: buttons.go
Description: One command per demo button: message, crash, request, event, metric and
interaction. Each builds a session, presses its button, prints the outcome and
flushes the agent before returning.
*/

package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kleascm/agent-demo/pkg/selector"
	"github.com/spf13/cobra"
)

// RunMessage prints the deterministic crash message without touching the agent
func RunMessage(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(cmd.OutOrStdout(), selector.SelectMessage())
	return nil
}

// RunCrash reports a crash and then takes the process down with the same message
func RunCrash(cmd *cobra.Command, args []string) error {
	noPanic, _ := cmd.Flags().GetBool("no-panic")
	rawAttrs, _ := cmd.Flags().GetStringSlice("attr")
	attrs, err := parseAttributes(rawAttrs)
	if err != nil {
		return err
	}

	ctx := cmdContext(cmd)
	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	for k, v := range attrs {
		if err := s.screen.SetAttribute(k, v); err != nil {
			s.closeAndWarn(ctx, cmd)
			return err
		}
	}

	report, crashErr := s.screen.Crash(ctx)
	if report != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "crash %s reported: %q\n", report.ID, report.Message)
		if report.Path != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "  file:   %s\n", report.Path)
		}
		if report.EventID != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "  sentry: %s\n", report.EventID)
		}
	}
	for _, r := range s.agent.Reporters() {
		fmt.Fprintf(cmd.OutOrStdout(), "  via %s: %s\n", r.Name(), r.Description())
	}
	s.closeAndWarn(ctx, cmd)
	if crashErr != nil {
		return fmt.Errorf("crash reporting incomplete: %w", crashErr)
	}

	if !noPanic {
		panic(report.Message)
	}
	return nil
}

// RunRequest fetches the given URLs, or the configured sample URLs when none are given
func RunRequest(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.closeAndWarn(ctx, cmd)

	urls := args
	if len(urls) == 0 {
		urls = s.cfg.HTTP.SampleURLs
	}

	failed := 0
	for _, url := range urls {
		page, err := s.screen.FetchSample(ctx, url)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: error: %v\n", url, err)
			failed++
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d %q links=%d bytes=%d attempts=%d\n",
			url, page.StatusCode, page.Title, page.LinkCount, page.Bytes, page.Attempts)
	}
	if failed > 0 {
		return fmt.Errorf("%d/%d requests failed", failed, len(urls))
	}
	return nil
}

// RunEvent records a custom event; extra args are key=value attributes
func RunEvent(cmd *cobra.Command, args []string) error {
	attrs, err := parseAttributes(args[1:])
	if err != nil {
		return err
	}

	ctx := cmdContext(cmd)
	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.closeAndWarn(ctx, cmd)

	if err := s.screen.RecordEvent(args[0], attrs); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "event %q recorded with %d attributes\n", args[0], len(attrs))
	return nil
}

// RunMetric records a custom metric value
func RunMetric(cmd *cobra.Command, args []string) error {
	value, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid metric value %q: %w", args[1], err)
	}
	category, _ := cmd.Flags().GetString("category")

	ctx := cmdContext(cmd)
	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.closeAndWarn(ctx, cmd)

	if err := s.screen.RecordMetric(args[0], category, value); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "metric %s=%g recorded\n", args[0], value)
	return nil
}

// RunInteraction names an interaction and closes it
func RunInteraction(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.closeAndWarn(ctx, cmd)

	s.screen.NameInteraction(args[0])
	in, ok := s.agent.CurrentInteraction()
	if !ok {
		return fmt.Errorf("interaction %q was not started", args[0])
	}
	d, err := s.agent.EndInteraction(in.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "interaction %q (%s) lasted %s\n", in.Name, in.ID, d)
	return nil
}

func parseAttributes(pairs []string) (map[string]interface{}, error) {
	attrs := make(map[string]interface{}, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid attribute %q, want key=value", p)
		}
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			attrs[k] = n
			continue
		}
		if b, err := strconv.ParseBool(v); err == nil {
			attrs[k] = b
			continue
		}
		attrs[k] = v
	}
	return attrs, nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
