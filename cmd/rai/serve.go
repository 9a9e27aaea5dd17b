package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/reflectai/reflectai/internal/config"
	"github.com/reflectai/reflectai/internal/editor"
	"github.com/reflectai/reflectai/internal/llm"
	"github.com/reflectai/reflectai/internal/metrics"
	"github.com/reflectai/reflectai/internal/notify"
	"github.com/reflectai/reflectai/internal/report"
	"github.com/reflectai/reflectai/internal/server"
	"github.com/reflectai/reflectai/internal/treestore"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the ReflectAI web server",
		Long: `Serves the mind map API, the presentation page and Prometheus metrics.
When report.schedule is set, weekly reports are generated and delivered in
the background.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to ReflectAI config file")
	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (default: server.port from config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if port <= 0 {
		port = cfg.Server.Port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	m := metrics.New()
	store, err := treestore.New(gormDB, logger)
	if err != nil {
		return err
	}
	registry, err := editor.NewRegistry(editor.RegistryOpts{
		Store:       store,
		SaveTimeout: cfg.Sync.Timeout,
		Logger:      logger,
		Metrics:     m,
	})
	if err != nil {
		return err
	}

	gen, err := newGenerator(cfg, gormDB, store, logger, m)
	if err != nil {
		return err
	}
	notifier, err := newNotifier(cfg)
	if err != nil {
		return err
	}

	if cfg.Report.Schedule != "" {
		sched, err := report.NewScheduler(report.SchedulerOpts{
			Generator: gen,
			Notifier:  notifier,
			OwnerID:   cfg.Owner,
			Schedule:  cfg.Report.Schedule,
			Logger:    logger,
		})
		if err != nil {
			return err
		}
		go func() {
			if err := sched.Run(ctx); err != nil {
				logger.Error("report scheduler stopped", zap.Error(err))
			}
		}()
		fmt.Fprintf(cmd.OutOrStdout(), "Weekly reports scheduled: %s (via %s)\n", cfg.Report.Schedule, notifier.Name())
	}

	return server.Start(ctx, server.Opts{
		DB:       gormDB,
		Registry: registry,
		Trees:    store,
		Reports:  gen,
		Notifier: notifier,
		Metrics:  m,
		Logger:   logger,
		Port:     port,
		Out:      cmd.OutOrStdout(),
	})
}

// newGenerator builds the report generator. Without an API key reports are
// written from the snapshot alone.
func newGenerator(cfg *config.Config, gormDB *gorm.DB, store *treestore.Store, logger *zap.Logger, m *metrics.Metrics) (*report.Generator, error) {
	opts := report.GeneratorOpts{
		DB:      gormDB,
		Store:   store,
		Logger:  logger,
		Metrics: m,
	}
	if cfg.Secrets.AIAPIKey != "" {
		client, err := llm.New(llm.Config{
			Provider: cfg.AI.Provider,
			Model:    cfg.AI.Model,
			BaseURL:  cfg.AI.BaseURL,
			APIKey:   cfg.Secrets.AIAPIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("init %s client: %w", cfg.AI.Provider, err)
		}
		opts.AI = client
	} else {
		logger.Info("no AI API key configured; reports will not include a summary")
	}
	return report.NewGenerator(opts)
}

func newNotifier(cfg *config.Config) (notify.Notifier, error) {
	return notify.New(notify.Opts{
		Kind:         cfg.Report.Notify,
		Channel:      cfg.Report.Channel,
		SlackToken:   cfg.Secrets.SlackBotToken,
		DiscordToken: cfg.Secrets.DiscordBotToken,
	})
}
