package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is the durable account record for an authenticated principal. Rows are
// created when a pending invitation is accepted on first login.
type User struct {
	ID         uuid.UUID `gorm:"type:char(36);primaryKey"`
	Email      string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	FirstName  string    `gorm:"type:varchar(100);not null"`
	LastName   string    `gorm:"type:varchar(100);not null"`
	ExternalID *string   `gorm:"type:varchar(255);index"`
	IsActive   bool      `gorm:"not null;default:true"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`

	OwnedProjects []Project       `gorm:"foreignKey:OwnerID"`
	Memberships   []ProjectMember `gorm:"foreignKey:UserID"`
	AssignedTasks []Task          `gorm:"foreignKey:AssignedToID"`
}

// DisplayName returns "First Last", falling back to the email address when no
// name parts were captured from the identity provider.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}
