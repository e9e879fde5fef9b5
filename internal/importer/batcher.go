package importer

import (
	"context"

	"catalogsync/internal/docstore"
	"catalogsync/internal/logger"
	"catalogsync/internal/models"
)

// Batch accumulates one stage's writes and commits them as a single
// transaction. It is used for exactly one pass.
type Batch struct {
	stage  Stage
	tx     docstore.Transaction
	stats  models.ImportStats
	logger *logger.Logger
}

func NewBatch(store docstore.Store, stage Stage, logger *logger.Logger) *Batch {
	return &Batch{stage: stage, tx: store.Transaction(), logger: logger}
}

func (b *Batch) Create(doc *docstore.Document, label string) {
	b.tx.Create(doc)
	b.stats.Created++
	b.logger.Info("Created: %s", label)
}

func (b *Batch) Patch(id string, p docstore.Patch, label string) {
	b.tx.Patch(id, p)
	b.stats.Updated++
	b.logger.Info("Updated: %s", label)
}

func (b *Batch) Skip() {
	b.stats.Skipped++
}

// Commit writes the queued operations if any create or update was queued.
// The stats are returned either way.
func (b *Batch) Commit(ctx context.Context) (models.ImportStats, error) {
	if b.stats.Writes() == 0 {
		b.logger.Info("All %s are up-to-date (%d skipped)", b.stage, b.stats.Skipped)
		return b.stats, nil
	}

	b.logger.Info("Saving %d %s changes...", b.tx.Len(), b.stage)
	if err := b.tx.Commit(ctx); err != nil {
		return b.stats, &CommitError{Stage: b.stage, Err: err}
	}
	b.logger.Info("Import completed: created=%d updated=%d skipped=%d",
		b.stats.Created, b.stats.Updated, b.stats.Skipped)
	return b.stats, nil
}
