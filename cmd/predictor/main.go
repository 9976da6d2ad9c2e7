// Package main provides the matchup engine command line.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/matchup-engine/internal/config"
	"github.com/yourusername/matchup-engine/internal/datasource"
	"github.com/yourusername/matchup-engine/internal/engine"
	applogger "github.com/yourusername/matchup-engine/internal/logger"
	"github.com/yourusername/matchup-engine/internal/metrics"
	"github.com/yourusername/matchup-engine/internal/repository"
	"github.com/yourusername/matchup-engine/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	cfg        *config.Config
	logger     *logrus.Logger
	repos      *repository.Repositories
)

var rootCmd = &cobra.Command{
	Use:   "predictor",
	Short: "Incremental multi-model match prediction engine",
	Long: `Replays finished games through skill rating, head-to-head and recent form
models, tracking each model's accuracy and calibration.`,
	Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := setupDependencies(cmd.Context()); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if repos == nil {
			return nil
		}
		return repos.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config/config.yaml", "Path to configuration file")
	rootCmd.AddCommand(initCmd, replayCmd, syncCmd, predictCmd, ratingsCmd, resetCmd, serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	return config.Validate(cfg)
}

func setupDependencies(ctx context.Context) error {
	logger = applogger.NewLoggerForEnvironment(cfg.App.LogLevel, cfg.App.Environment)
	logger.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"storage":     cfg.Storage.Driver,
		"version":     Version,
	}).Debug("Matchup engine starting")

	metrics.InitRegistry()

	var err error
	repos, err = repository.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	return nil
}

// newOrchestrator builds the engine with Prometheus publishing plus any extra observers
func newOrchestrator(opts ...engine.Option) (*engine.Orchestrator, error) {
	engineCfg, err := engine.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts = append([]engine.Option{engine.WithObserver(engine.MetricsObserver{})}, opts...)
	return engine.New(engineCfg, repos, logger, opts...)
}

// newSyncService wires the configured source to orchestrator
func newSyncService(orchestrator *engine.Orchestrator) (*service.SyncService, error) {
	source, err := datasource.NewGameSource(cfg.DataSource, logger)
	if err != nil {
		return nil, err
	}
	return service.NewSyncService(source, repos, orchestrator, service.SeasonWindow{
		StartMonth: cfg.DataSource.SeasonStartMonth,
		EndMonth:   cfg.DataSource.SeasonEndMonth,
	}, logger)
}
