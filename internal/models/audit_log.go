package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLog captures notable authentication and administrative events.
type AuditLog struct {
	ID         int64          `gorm:"primaryKey;autoIncrement"`
	ActorID    *uuid.UUID     `gorm:"type:char(36);index"`
	Action     string         `gorm:"type:varchar(100);not null"`
	TargetType string         `gorm:"type:varchar(100);not null"`
	TargetID   *string        `gorm:"type:varchar(255)"`
	Metadata   datatypes.JSON `gorm:""`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`

	Actor *User `gorm:"constraint:OnDelete:SET NULL;foreignKey:ActorID;references:ID"`
}
