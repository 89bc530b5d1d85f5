package models

import (
	"time"

	"github.com/google/uuid"
)

type Lead struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Name        string    `gorm:"type:varchar(255);not null;index"`
	Email       string    `gorm:"type:varchar(255);not null"`
	Phone       string    `gorm:"type:varchar(32);not null"`
	Address     *string   `gorm:"type:text"`
	LoanAmount  float64   `gorm:"type:numeric(12,2);not null"`
	Notes       *string   `gorm:"type:text"`
	Status      string    `gorm:"type:varchar(20);not null;default:'new';index"`
	AffiliateID uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time

	Affiliate Affiliate `gorm:"foreignKey:AffiliateID"`
}

type StatusHistoryItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	LeadID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Status    string    `gorm:"type:varchar(20);not null"`
	ChangedBy uuid.UUID `gorm:"type:uuid;not null"`
	ChangedAt time.Time `gorm:"not null;index"`
	Notes     *string   `gorm:"type:text"`

	ChangedByUser User `gorm:"foreignKey:ChangedBy"`
}

func (StatusHistoryItem) TableName() string {
	return "status_history"
}

type Comment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	LeadID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Content   string    `gorm:"type:text;not null"`
	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time `gorm:"not null"`

	CreatedByUser User `gorm:"foreignKey:CreatedBy"`
}

type Document struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	LeadID     uuid.UUID `gorm:"type:uuid;not null;index"`
	FileName   string    `gorm:"type:varchar(255);not null"`
	FileType   string    `gorm:"type:varchar(100);not null"`
	FileSize   int64     `gorm:"not null"`
	StorageKey string    `gorm:"type:varchar(512);not null;uniqueIndex"`
	UploadedAt time.Time `gorm:"not null"`
}
