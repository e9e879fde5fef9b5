// Package events carries sync requests and run outcomes over Kafka.
package events

import (
	"time"

	"catalogsync/internal/importer"
	"catalogsync/internal/models"

	"github.com/google/uuid"
)

const (
	TypeSyncRequested = "sync.requested"
	TypeSyncCompleted = "sync.completed"
	TypeSyncFailed    = "sync.failed"
)

type Event struct {
	ID          string                        `json:"id"`
	Type        string                        `json:"type"`
	Trigger     string                        `json:"trigger,omitempty"`
	Stage       string                        `json:"stage,omitempty"`
	RunID       string                        `json:"run_id,omitempty"`
	Stats       map[string]models.ImportStats `json:"stats,omitempty"`
	FailedStage string                        `json:"failed_stage,omitempty"`
	Error       string                        `json:"error,omitempty"`
	Timestamp   time.Time                     `json:"timestamp"`
}

// NewSyncRequested asks a worker to run the given stage.
func NewSyncRequested(trigger string, stage importer.Stage) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      TypeSyncRequested,
		Trigger:   trigger,
		Stage:     string(stage),
		Timestamp: time.Now().UTC(),
	}
}

// NewRunFinished describes a finished run.
func NewRunFinished(result *importer.RunResult) Event {
	e := Event{
		ID:        uuid.New().String(),
		Type:      TypeSyncCompleted,
		Trigger:   result.Trigger,
		Stage:     string(result.Stage),
		RunID:     result.RunID,
		Stats:     make(map[string]models.ImportStats, len(result.Stats)),
		Timestamp: result.FinishedAt.UTC(),
	}
	for stage, stats := range result.Stats {
		e.Stats[string(stage)] = stats
	}
	if result.Err != nil {
		e.Type = TypeSyncFailed
		e.FailedStage = string(result.FailedStage)
		e.Error = result.Err.Error()
	}
	return e
}
