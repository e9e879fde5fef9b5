package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalogsync/internal/models"

	"gorm.io/gorm"
)

var ErrRunNotFound = errors.New("sync run not found")

// RunRepository persists the history of sync runs.
type RunRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db, now: time.Now}
}

// Start records a new running sync.
func (r *RunRepository) Start(ctx context.Context, trigger, stage string) (*models.SyncRun, error) {
	run := &models.SyncRun{
		Trigger:   trigger,
		Stage:     stage,
		Status:    models.SyncRunRunning,
		StartedAt: r.now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to record sync run: %w", err)
	}
	return run, nil
}

// Finish stores the run's final status and stats.
func (r *RunRepository) Finish(ctx context.Context, run *models.SyncRun) error {
	finished := r.now().UTC()
	run.FinishedAt = &finished
	if err := r.db.WithContext(ctx).Save(run).Error; err != nil {
		return fmt.Errorf("failed to update sync run %s: %w", run.ID, err)
	}
	return nil
}

// MaxListLimit caps how many runs one List call returns.
const MaxListLimit = 100

// List returns the most recent runs first. A non-positive limit means 20;
// larger limits are capped at MaxListLimit.
func (r *RunRepository) List(ctx context.Context, limit int) ([]models.SyncRun, error) {
	switch {
	case limit <= 0:
		limit = 20
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	var runs []models.SyncRun
	err := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	return runs, nil
}

func (r *RunRepository) Get(ctx context.Context, id string) (*models.SyncRun, error) {
	var run models.SyncRun
	err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync run %s: %w", id, err)
	}
	return &run, nil
}
