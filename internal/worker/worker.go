package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"catalogsync/internal/config"
	"catalogsync/internal/events"
	"catalogsync/internal/importer"
	"catalogsync/internal/logger"
)

// Runner runs sync stages; *importer.Orchestrator implements it.
type Runner interface {
	RunStage(ctx context.Context, trigger string, stage importer.Stage) (*importer.RunResult, error)
}

// Worker runs a sync for every sync.requested event on the sync topic.
type Worker struct {
	config   *config.Config
	logger   *logger.Logger
	consumer *events.Consumer
	runner   Runner
}

func New(cfg *config.Config, logger *logger.Logger, runner Runner) *Worker {
	consumer := events.NewConsumer(cfg.KafkaBrokerList(), cfg.KafkaSyncTopic, cfg.KafkaGroupID, logger)

	return &Worker{
		config:   cfg,
		logger:   logger,
		consumer: consumer,
		runner:   runner,
	}
}

// Start blocks until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Worker started, listening for sync requests on %s...", w.config.KafkaSyncTopic)
	return w.consumer.Consume(ctx, w.HandleMessage)
}

// HandleMessage runs the sync an event asks for. Other event types are
// ignored; a request arriving while a run is active is dropped.
func (w *Worker) HandleMessage(ctx context.Context, key, value []byte) error {
	var event events.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("failed to parse event: %w", err)
	}
	if event.Type != events.TypeSyncRequested {
		w.logger.Debug("Ignoring %s event %s", event.Type, event.ID)
		return nil
	}

	stage, err := importer.ParseStage(event.Stage)
	if err != nil {
		return fmt.Errorf("event %s: %w", event.ID, err)
	}

	trigger := "kafka"
	if event.Trigger != "" {
		trigger = "kafka:" + event.Trigger
	}

	w.logger.Info("Processing sync request %s (stage: %s)", event.ID, stage)
	result, err := w.runner.RunStage(ctx, trigger, stage)
	if errors.Is(err, importer.ErrRunInProgress) {
		w.logger.Warn("Sync request %s dropped: %v", event.ID, err)
		return nil
	}
	if err != nil {
		return err
	}

	w.logger.Info("Sync request %s processed (run %s)", event.ID, result.RunID)
	return nil
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.consumer.Close()
}
