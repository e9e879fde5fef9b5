// Package importer reconciles the supplier's catalog into the document store:
// brands, then categories, then products.
package importer

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"catalogsync/internal/docstore"
	"catalogsync/internal/logger"
	"catalogsync/internal/metrics"
	"catalogsync/internal/models"
	"catalogsync/internal/services/logicom"
)

// Supplier is the part of the supplier client the importer needs.
type Supplier interface {
	GetBrands(ctx context.Context) ([]logicom.Brand, error)
	GetProductCategories(ctx context.Context) ([]logicom.Category, error)
	GetProducts(ctx context.Context, params url.Values) ([]logicom.Product, error)
}

// RunRecorder persists run history.
type RunRecorder interface {
	Start(ctx context.Context, trigger, stage string) (*models.SyncRun, error)
	Finish(ctx context.Context, run *models.SyncRun) error
}

// Notifier is told about every finished run.
type Notifier interface {
	RunFinished(ctx context.Context, result *RunResult) error
}

// RunResult reports a run. Stats holds only stages that completed; a failed
// run keeps the stats of the stages before the failure.
type RunResult struct {
	RunID       string                       `json:"run_id,omitempty"`
	Trigger     string                       `json:"trigger"`
	Stage       Stage                        `json:"stage"`
	Stats       map[Stage]models.ImportStats `json:"stats"`
	FailedStage Stage                        `json:"failed_stage,omitempty"`
	Err         error                        `json:"-"`
	StartedAt   time.Time                    `json:"started_at"`
	FinishedAt  time.Time                    `json:"finished_at"`
}

func (r *RunResult) Succeeded() bool {
	return r.Err == nil
}

func (r *RunResult) Status() models.SyncRunStatus {
	if r.Err != nil {
		return models.SyncRunFailed
	}
	return models.SyncRunSucceeded
}

type Options struct {
	Recorder RunRecorder
	Notifier Notifier
	Metrics  *metrics.Metrics
	// ProductFilters are passed to GetProducts as query parameters.
	ProductFilters url.Values
}

// Orchestrator runs the import stages. Only one run may be active at a time.
type Orchestrator struct {
	supplier    Supplier
	store       docstore.Store
	transformer *logicom.Transformer
	images      *ImagePipeline
	opts        Options
	logger      *logger.Logger
	now         func() time.Time

	mu sync.Mutex
}

func NewOrchestrator(supplier Supplier, store docstore.Store, images *ImagePipeline, logger *logger.Logger, opts Options) *Orchestrator {
	return &Orchestrator{
		supplier:    supplier,
		store:       store,
		transformer: logicom.NewTransformer(logger.With("transform")),
		images:      images,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
	}
}

// Run executes every stage in order.
func (o *Orchestrator) Run(ctx context.Context, trigger string) (*RunResult, error) {
	return o.RunStage(ctx, trigger, StageAll)
}

// RunStage executes one stage, or all of them for StageAll. The first stage
// error aborts the run and is returned as a *StageError together with the
// partial result. Stages already committed stay committed.
func (o *Orchestrator) RunStage(ctx context.Context, trigger string, stage Stage) (*RunResult, error) {
	if !o.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer o.mu.Unlock()
	return o.run(ctx, trigger, stage)
}

// Start launches a run in the background. It fails fast with
// ErrRunInProgress; otherwise the result is delivered on the channel.
func (o *Orchestrator) Start(ctx context.Context, trigger string, stage Stage) (<-chan *RunResult, error) {
	if !o.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	done := make(chan *RunResult, 1)
	go func() {
		defer close(done)
		defer o.mu.Unlock()
		result, _ := o.run(ctx, trigger, stage)
		done <- result
	}()
	return done, nil
}

func (o *Orchestrator) run(ctx context.Context, trigger string, stage Stage) (*RunResult, error) {
	stages, err := stagesFor(stage)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		Trigger:   trigger,
		Stage:     stage,
		Stats:     make(map[Stage]models.ImportStats, len(stages)),
		StartedAt: o.now(),
	}
	record := o.startRecord(ctx, trigger, stage)
	if record != nil {
		result.RunID = record.ID
	}

	o.logger.Info("Starting %s sync (trigger: %s)", stage, trigger)
	for _, s := range stages {
		started := o.now()
		stats, err := o.importStage(ctx, s)
		o.opts.Metrics.ObserveStage(string(s), o.now().Sub(started))
		if err != nil {
			result.FailedStage = s
			result.Err = &StageError{Stage: s, Err: err}
			break
		}
		result.Stats[s] = stats
		o.opts.Metrics.RecordStats(string(s), stats.Created, stats.Updated, stats.Skipped)
	}
	result.FinishedAt = o.now()

	o.finishRecord(ctx, record, result)
	o.opts.Metrics.RunFinished(string(result.Status()))
	if o.opts.Notifier != nil {
		if err := o.opts.Notifier.RunFinished(context.WithoutCancel(ctx), result); err != nil {
			o.logger.Warn("Failed to publish run result: %v", err)
		}
	}

	if result.Err != nil {
		o.logger.Error("Sync aborted: %v", result.Err)
		return result, result.Err
	}
	o.logger.Info("Sync finished in %s", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))
	return result, nil
}

func (o *Orchestrator) importStage(ctx context.Context, stage Stage) (models.ImportStats, error) {
	switch stage {
	case StageBrands:
		return o.ImportBrands(ctx)
	case StageCategories:
		return o.ImportCategories(ctx)
	case StageProducts:
		return o.ImportProducts(ctx)
	default:
		return models.ImportStats{}, fmt.Errorf("unknown stage %q", stage)
	}
}

func stagesFor(stage Stage) ([]Stage, error) {
	switch stage {
	case StageAll, "":
		return Stages, nil
	case StageBrands, StageCategories, StageProducts:
		return []Stage{stage}, nil
	default:
		return nil, fmt.Errorf("unknown stage %q", stage)
	}
}

func (o *Orchestrator) startRecord(ctx context.Context, trigger string, stage Stage) *models.SyncRun {
	if o.opts.Recorder == nil {
		return nil
	}
	run, err := o.opts.Recorder.Start(ctx, trigger, string(stage))
	if err != nil {
		o.logger.Warn("Failed to record sync run: %v", err)
		return nil
	}
	return run
}

func (o *Orchestrator) finishRecord(ctx context.Context, run *models.SyncRun, result *RunResult) {
	if run == nil {
		return
	}
	run.Status = result.Status()
	if result.Err != nil {
		failed := string(result.FailedStage)
		msg := result.Err.Error()
		run.FailedStage = &failed
		run.Error = &msg
	}
	for stage, stats := range result.Stats {
		switch stage {
		case StageBrands:
			run.BrandsCreated, run.BrandsUpdated, run.BrandsSkipped = stats.Created, stats.Updated, stats.Skipped
		case StageCategories:
			run.CategoriesCreated, run.CategoriesUpdated, run.CategoriesSkipped = stats.Created, stats.Updated, stats.Skipped
		case StageProducts:
			run.ProductsCreated, run.ProductsUpdated, run.ProductsSkipped = stats.Created, stats.Updated, stats.Skipped
		}
	}
	if err := o.opts.Recorder.Finish(context.WithoutCancel(ctx), run); err != nil {
		o.logger.Warn("Failed to update sync run %s: %v", run.ID, err)
	}
}

func logDropped(log *logger.Logger, dropped []error) {
	for _, err := range dropped {
		log.Warn("%v", err)
	}
}

// fetchAll loads and decodes every document of a type.
func fetchAll[T any](ctx context.Context, store docstore.Store, docType string) ([]T, error) {
	docs, err := store.Fetch(ctx, docstore.Query{Type: docType})
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := d.Decode(&v); err != nil {
			return nil, fmt.Errorf("failed to decode %s %s: %w", docType, d.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}
