package models

import (
	"time"

	"github.com/google/uuid"
)

// Project groups tasks under an owning user. Deletion is soft: inactive
// projects are hidden from listings but their rows are retained.
type Project struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey"`
	Name        string    `gorm:"type:varchar(100);not null;index:idx_projects_name_owner"`
	Description string    `gorm:"type:varchar(500)"`
	OwnerID     uuid.UUID `gorm:"type:char(36);not null;index;index:idx_projects_name_owner"`
	IsActive    bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`

	Owner   *User           `gorm:"constraint:OnDelete:RESTRICT;foreignKey:OwnerID;references:ID"`
	Tasks   []Task          `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID"`
	Members []ProjectMember `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID"`
}
