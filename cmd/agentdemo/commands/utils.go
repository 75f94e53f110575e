/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for the agent demo commands. Loads configuration through
viper, builds the logger, and assembles the agent and demo screen for a command run.
*/

package commands

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/kleascm/agent-demo/pkg/agent"
	"github.com/kleascm/agent-demo/pkg/config"
	"github.com/kleascm/agent-demo/pkg/demo"
	"github.com/kleascm/agent-demo/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from defaults, the --config file, environment and flags
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper(), viper.GetString("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if viper.GetBool("json_logs") {
		cfg.Logging.Format = logging.LogFormatJSON
	}
	return cfg, nil
}

// SetupLogging builds the logger described by cfg
func SetupLogging(cfg *config.Config) (*logging.Logger, error) {
	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	return logger, nil
}

// session is everything a button command needs
type session struct {
	cfg    *config.Config
	logger *logging.Logger
	agent  *agent.MonitorAgent
	screen *demo.Screen
}

func newSession(ctx context.Context) (*session, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := SetupLogging(cfg)
	if err != nil {
		return nil, err
	}
	a, err := agent.New(ctx, cfg, logger)
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("failed to start agent: %w", err)
	}
	return &session{
		cfg:    cfg,
		logger: logger,
		agent:  a,
		screen: demo.NewScreen(a, cfg, logger),
	}, nil
}

// Close flushes the agent and closes the logger
func (s *session) Close(ctx context.Context) error {
	var result *multierror.Error
	if err := s.agent.Shutdown(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := s.logger.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// closeAndWarn closes the session and prints any flush error as a warning
func (s *session) closeAndWarn(ctx context.Context, cmd *cobra.Command) {
	if err := s.Close(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
}
