package models

import (
	"time"

	"gorm.io/datatypes"
)

// DocumentRecord is the persisted form of one catalog document. Body holds
// the full JSON document including its _id and _type.
type DocumentRecord struct {
	ID        string         `gorm:"type:varchar(191);primary_key"`
	Type      string         `gorm:"type:varchar(64);not null;index"`
	Body      datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (DocumentRecord) TableName() string { return "documents" }

// AssetRecord is an uploaded binary asset, addressed by the SHA-1 of its
// content.
type AssetRecord struct {
	ID          string `gorm:"type:varchar(191);primary_key"`
	Kind        string `gorm:"type:varchar(32);not null"`
	SHA1        string `gorm:"type:char(40);not null;index"`
	Filename    string
	ContentType string
	Size        int64
	Data        []byte `gorm:"not null"`
	CreatedAt   time.Time
}

func (AssetRecord) TableName() string { return "assets" }
