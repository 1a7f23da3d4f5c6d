
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"newsinlevels-crawler/internal/config"
	"newsinlevels-crawler/internal/pipeline"
	"newsinlevels-crawler/pkg/logger"
)

var (
	configFile string
	logLevel   string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "levels",
		Short:         "Scrape News in Levels articles with cached details",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ./config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	cmd.AddCommand(
		newRunCommand(),
		newListCommand(),
		newDetailCommand(),
		newTextCommand(),
	)
	return cmd
}

// setup loads configuration and builds the logger. Errors here are wiring
// errors and make the command fail.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	slog.SetDefault(log)
	return cfg, log, nil
}

// withPipeline runs fn with a pipeline built from configuration and releases
// its resources afterwards.
func withPipeline(ctx context.Context, fn func(*config.Config, *slog.Logger, *pipeline.Pipeline) error) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	p, closeFn, err := pipeline.FromConfig(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeFn(); err != nil {
			log.Warn("cli: close stores", "err", err)
		}
	}()
	return fn(cfg, log, p)
}
