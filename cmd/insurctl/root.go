package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kirillkom/insurance-clause-qa/internal/bootstrap"
	"github.com/kirillkom/insurance-clause-qa/internal/config"
	"github.com/kirillkom/insurance-clause-qa/internal/observability/logging"
)

var (
	flagConfig   string
	flagLogLevel string

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:           "insurctl",
	Short:         "Operate the insurance clause question-answering index",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagConfig != "" {
			if err := os.Setenv("CONFIG_FILE", flagConfig); err != nil {
				return err
			}
		}
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		level := cfg.LogLevel
		if flagLogLevel != "" {
			level = flagLogLevel
		}
		logging.Setup(cmd.ErrOrStderr(), "insurctl", level, "text")
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML config file (overrides CONFIG_FILE)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
}

func newApp(ctx context.Context) (*bootstrap.App, error) {
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return app, nil
}

// parseTimeFlag accepts RFC 3339 timestamps or plain dates; empty means unbounded.
func parseTimeFlag(name, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected RFC 3339 or YYYY-MM-DD, got %q", name, raw)
	}
	return t, nil
}
