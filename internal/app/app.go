// Package app wires configuration into a ready orchestrator for the binaries.
package app

import (
	"errors"

	"catalogsync/internal/config"
	"catalogsync/internal/database"
	"catalogsync/internal/docstore"
	"catalogsync/internal/events"
	"catalogsync/internal/importer"
	"catalogsync/internal/logger"
	"catalogsync/internal/metrics"
	"catalogsync/internal/services/logicom"
)

type Options struct {
	// Notify publishes run results to the events topic.
	Notify bool
}

type App struct {
	DB           *database.Database
	Store        *docstore.GormStore
	Runs         *database.RunRepository
	Metrics      *metrics.Metrics
	Producer     *events.Producer
	Orchestrator *importer.Orchestrator
}

// New validates cfg, opens the database and builds the orchestrator.
func New(cfg *config.Config, log *logger.Logger, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := database.New(cfg.DatabaseURL, cfg.LogLevel == "debug")
	if err != nil {
		return nil, err
	}

	a := &App{
		DB:      db,
		Store:   docstore.NewGormStore(db.DB),
		Runs:    database.NewRunRepository(db.DB),
		Metrics: metrics.New(),
	}

	client := logicom.NewClient(cfg.Credentials(), logicom.ClientConfig{
		Timeout:   cfg.LogicomTimeout,
		RateLimit: cfg.LogicomRateLimit,
	}, log.With("logicom"))

	images := importer.NewImagePipeline(a.Store, importer.ImageConfig{
		Timeout: cfg.ImageTimeout,
		Referer: cfg.ImageReferer,
		Retries: cfg.ImageRetries,
	}, log.With("images"), a.Metrics)

	orchestratorOpts := importer.Options{
		Recorder: a.Runs,
		Metrics:  a.Metrics,
	}
	if brokers := cfg.KafkaBrokerList(); opts.Notify && len(brokers) > 0 {
		a.Producer = events.NewProducer(brokers, cfg.KafkaEventsTopic)
		orchestratorOpts.Notifier = a.Producer
	}

	a.Orchestrator = importer.NewOrchestrator(client, a.Store, images, log.With("sync"), orchestratorOpts)
	return a, nil
}

func (a *App) Close() error {
	var errs []error
	if a.Producer != nil {
		errs = append(errs, a.Producer.Close())
	}
	errs = append(errs, a.DB.Close())
	return errors.Join(errs...)
}
