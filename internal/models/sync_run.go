package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SyncRun struct {
	ID          string        `json:"id" gorm:"type:varchar(36);primary_key"`
	Trigger     string        `json:"trigger" gorm:"not null"`
	Stage       string        `json:"stage" gorm:"not null;default:all"`
	Status      SyncRunStatus `json:"status" gorm:"not null;default:running"`
	FailedStage *string       `json:"failed_stage"`
	Error       *string       `json:"error"`

	BrandsCreated     int `json:"brands_created"`
	BrandsUpdated     int `json:"brands_updated"`
	BrandsSkipped     int `json:"brands_skipped"`
	CategoriesCreated int `json:"categories_created"`
	CategoriesUpdated int `json:"categories_updated"`
	CategoriesSkipped int `json:"categories_skipped"`
	ProductsCreated   int `json:"products_created"`
	ProductsUpdated   int `json:"products_updated"`
	ProductsSkipped   int `json:"products_skipped"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

type SyncRunStatus string

const (
	SyncRunRunning   SyncRunStatus = "running"
	SyncRunSucceeded SyncRunStatus = "succeeded"
	SyncRunFailed    SyncRunStatus = "failed"
)

func (r *SyncRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
