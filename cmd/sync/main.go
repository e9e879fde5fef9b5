package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalogsync/internal/app"
	"catalogsync/internal/config"
	"catalogsync/internal/events"
	"catalogsync/internal/importer"
	"catalogsync/internal/logger"
)

func main() {
	stageFlag := flag.String("stage", "all", "stage to run: all, brands, categories or products")
	purge := flag.Bool("purge-categories", false, "delete every category document and exit")
	notify := flag.Bool("notify", false, "publish the run result to the events topic")
	enqueue := flag.Bool("enqueue", false, "publish a sync request for the worker instead of running it here")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	stage, err := importer.ParseStage(*stageFlag)
	if err != nil {
		logger.Fatal("%v", err)
	}

	if *enqueue {
		os.Exit(enqueueSync(cfg, logger, stage))
	}

	a, err := app.New(cfg, logger, app.Options{Notify: *notify})
	if err != nil {
		logger.Fatal("Failed to initialize: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, a, logger, stage, *purge)
	stop()

	if err := a.Close(); err != nil {
		logger.Warn("Failed to close resources: %v", err)
	}
	os.Exit(code)
}

func run(ctx context.Context, a *app.App, logger *logger.Logger, stage importer.Stage, purge bool) int {
	if purge {
		n, err := a.Orchestrator.PurgeCategories(ctx)
		if err != nil {
			logger.Error("Failed to purge categories: %v", err)
			return 1
		}
		logger.Info("Deleted %d categories", n)
		return 0
	}

	result, err := a.Orchestrator.RunStage(ctx, "cli", stage)
	if result != nil {
		for _, s := range importer.Stages {
			if stats, ok := result.Stats[s]; ok {
				logger.Info("%s: %d created, %d updated, %d skipped", s, stats.Created, stats.Updated, stats.Skipped)
			}
		}
	}
	if err != nil {
		logger.Error("Sync failed: %v", err)
		return 1
	}
	return 0
}

// enqueueSync hands the run to the worker through the sync topic.
func enqueueSync(cfg *config.Config, logger *logger.Logger, stage importer.Stage) int {
	brokers := cfg.KafkaBrokerList()
	if len(brokers) == 0 {
		logger.Error("KAFKA_BROKERS is required to enqueue a sync")
		return 1
	}

	producer := events.NewProducer(brokers, cfg.KafkaSyncTopic)
	defer producer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	event, err := producer.RequestSync(ctx, "cli", stage)
	if err != nil {
		logger.Error("Failed to enqueue sync: %v", err)
		return 1
	}
	logger.Info("Enqueued %s sync request %s on %s", stage, event.ID, cfg.KafkaSyncTopic)
	return 0
}
