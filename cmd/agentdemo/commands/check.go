/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: check.go
Description: Self-check command. Validates configuration, the crash directory, sample
URLs and the Sentry DSN before any button is pressed.
*/

package commands

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/kleascm/agent-demo/pkg/agent"
	"github.com/kleascm/agent-demo/pkg/config"
	"github.com/spf13/cobra"
)

type selfCheck struct {
	name     string
	function func(cfg *config.Config) error
}

var selfChecks = []selfCheck{
	{"Crash Directory", checkCrashDir},
	{"Sample URLs", checkSampleURLs},
	{"Sentry DSN", checkSentryDSN},
}

// PerformSelfCheck runs every check and reports how many passed
func PerformSelfCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Agent Demo - Self-Check")
	fmt.Fprintln(out, "=======================")

	fmt.Fprint(out, "Configuration... ")
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(out, "FAILED: %v\n", err)
		return err
	}
	fmt.Fprintln(out, "PASSED")

	passed := 0
	for _, check := range selfChecks {
		fmt.Fprintf(out, "%s... ", check.name)
		if err := check.function(cfg); err != nil {
			fmt.Fprintf(out, "FAILED: %v\n", err)
			continue
		}
		fmt.Fprintln(out, "PASSED")
		passed++
	}

	total := len(selfChecks)
	fmt.Fprintf(out, "Results: %d/%d checks passed\n", passed, total)
	if passed != total {
		return fmt.Errorf("%d/%d checks failed", total-passed, total)
	}
	return nil
}

func checkCrashDir(cfg *config.Config) error {
	if err := os.MkdirAll(cfg.Crash.Dir, 0755); err != nil {
		return fmt.Errorf("cannot create %s: %w", cfg.Crash.Dir, err)
	}
	probe, err := os.CreateTemp(cfg.Crash.Dir, ".check_*")
	if err != nil {
		return fmt.Errorf("%s is not writable: %w", cfg.Crash.Dir, err)
	}
	probe.Close()
	return os.Remove(filepath.Clean(probe.Name()))
}

func checkSampleURLs(cfg *config.Config) error {
	if len(cfg.HTTP.SampleURLs) == 0 {
		return fmt.Errorf("no sample URLs configured")
	}
	for _, raw := range cfg.HTTP.SampleURLs {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid sample URL %q: %w", raw, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("sample URL %q must be http or https", raw)
		}
		if u.Host == "" {
			return fmt.Errorf("sample URL %q has no host", raw)
		}
	}
	return nil
}

// checkSentryDSN passes when no DSN is set, since crash files are still written
func checkSentryDSN(cfg *config.Config) error {
	opts := agent.SentryOptions(cfg.Sentry, cfg.Environment, cfg.Release, nil)
	_, err := agent.NewSentryHub(opts)
	return err
}
