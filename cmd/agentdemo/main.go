/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Command-line interface for the agent demo. Each subcommand is one button of
the demo screen: crash with the deterministic message, fetch sample pages through the
instrumented client, record events, metrics and interactions, or tour them all.
*/

package main

import (
	"fmt"
	"os"

	"github.com/kleascm/agent-demo/cmd/agentdemo/commands"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Configuration
	configFile string
	jsonLogs   bool

	// Logging configuration
	logLevel  string
	logFormat string
	logDir    string

	// Button configuration
	noPanic     bool
	crashAttrs  []string
	category    string
	tourCrash   bool
	metricsAddr string
	resultsDir  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "agentdemo",
		Short: "Agent Demo - exercise a crash and telemetry agent from the command line",
		Long: `Agent Demo drives a monitoring agent through the buttons of a demo screen.
It reports crashes to local files and Sentry, traces outbound HTTP requests with
OpenTelemetry, and exposes counters and histograms for Prometheus.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Use JSON log format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (text, json, custom)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Log output directory (empty = console only)")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("json_logs", rootCmd.PersistentFlags().Lookup("json-logs"))
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("logging.output_dir", rootCmd.PersistentFlags().Lookup("log-dir"))

	messageCmd := &cobra.Command{
		Use:   "message",
		Short: "Print the message the crash button uses",
		Args:  cobra.NoArgs,
		RunE:  commands.RunMessage,
	}

	crashCmd := &cobra.Command{
		Use:   "crash",
		Short: "Report a crash and terminate",
		Long: `Select the deterministic crash message, report it to every configured crash
reporter, flush, and then panic with the same message.`,
		Args: cobra.NoArgs,
		RunE: commands.RunCrash,
	}
	crashCmd.Flags().StringSliceVar(&crashAttrs, "attr", nil, "Session attribute key=value set before crashing (repeatable)")
	crashCmd.Flags().BoolVar(&noPanic, "no-panic", false, "Report the crash without terminating the process")

	requestCmd := &cobra.Command{
		Use:   "request [url...]",
		Short: "Fetch sample pages through the instrumented HTTP client",
		RunE:  commands.RunRequest,
	}

	eventCmd := &cobra.Command{
		Use:   "event <name> [key=value...]",
		Short: "Record a custom event",
		Args:  cobra.MinimumNArgs(1),
		RunE:  commands.RunEvent,
	}

	metricCmd := &cobra.Command{
		Use:   "metric <name> <value>",
		Short: "Record a custom metric value",
		Args:  cobra.ExactArgs(2),
		RunE:  commands.RunMetric,
	}
	metricCmd.Flags().StringVar(&category, "category", "Custom", "Metric category")

	interactionCmd := &cobra.Command{
		Use:   "interaction <name>",
		Short: "Name the current interaction and end it",
		Args:  cobra.ExactArgs(1),
		RunE:  commands.RunInteraction,
	}

	tourCmd := &cobra.Command{
		Use:   "tour",
		Short: "Press every button once",
		Long: `Start an interaction, record an event, fetch every sample URL, record the page
count as a metric and optionally crash. With --metrics-addr the command keeps
serving /metrics until interrupted.`,
		Args: cobra.NoArgs,
		RunE: commands.RunTour,
	}
	tourCmd.Flags().BoolVar(&tourCrash, "crash", false, "Press the crash button during the tour (no panic)")
	tourCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	tourCmd.Flags().StringVar(&resultsDir, "results-dir", "", "Write the tour result as JSON into this directory")
	viper.BindPFlag("metrics.addr", tourCmd.Flags().Lookup("metrics-addr"))

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and environment",
		Args:  cobra.NoArgs,
		RunE:  commands.PerformSelfCheck,
	}

	rootCmd.AddCommand(messageCmd, crashCmd, requestCmd, eventCmd, metricCmd, interactionCmd, tourCmd, checkCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
