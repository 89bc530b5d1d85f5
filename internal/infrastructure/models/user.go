package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Name         string     `gorm:"type:varchar(100);not null"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string     `gorm:"type:varchar(255);not null"`
	Role         string     `gorm:"type:varchar(50);not null;default:'affiliate_user'"`
	AffiliateID  *uuid.UUID `gorm:"type:uuid;index"`
	LastLogin    *time.Time `gorm:"type:timestamp"`
	CreatedAt    time.Time
}

type Affiliate struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Name         string    `gorm:"type:varchar(255);not null"`
	ContactEmail string    `gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time
}
