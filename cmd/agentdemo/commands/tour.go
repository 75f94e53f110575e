/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: tour.go
Description: Tour command. Presses every demo button once, prints a summary, and when a
metrics address is configured keeps serving /metrics until interrupted. Results can be
saved as JSON.
*/

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kleascm/agent-demo/pkg/agent"
	"github.com/kleascm/agent-demo/pkg/demo"
	"github.com/spf13/cobra"
)

// RunTour presses every button on the demo screen
func RunTour(cmd *cobra.Command, args []string) error {
	includeCrash, _ := cmd.Flags().GetBool("crash")
	resultsDir, _ := cmd.Flags().GetString("results-dir")

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.closeAndWarn(shutdownCtx, cmd)
	}()

	var server *agent.MetricsServer
	if s.cfg.Metrics.Addr != "" {
		server = agent.NewMetricsServer(s.cfg.Metrics.Addr, s.agent.Registry(), s.logger)
		if err := server.Start(); err != nil {
			return err
		}
	}

	result, err := s.screen.Tour(ctx, includeCrash)
	if err != nil {
		return fmt.Errorf("tour failed: %w", err)
	}
	printTour(cmd, result.Message, len(result.Pages), result.Duration)
	for _, page := range result.Pages {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-40s %d %q\n", page.URL, page.StatusCode, page.Title)
	}
	if result.Report != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Crash:    %s (%s)\n", result.Report.ID, result.Report.Path)
	}
	if resultsDir != "" {
		path, err := demo.WriteTourResult(resultsDir, s.cfg.Release, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Results:  %s\n", path)
	}

	if server == nil {
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving metrics on http://%s/metrics, press Ctrl+C to stop\n", server.Addr())
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func printTour(cmd *cobra.Command, message string, pages int, elapsed time.Duration) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Agent Demo - Tour")
	fmt.Fprintln(out, "=================")
	fmt.Fprintf(out, "Message:  %s\n", message)
	fmt.Fprintf(out, "Pages:    %d fetched\n", pages)
	fmt.Fprintf(out, "Duration: %s\n", elapsed.Round(time.Millisecond))
}
