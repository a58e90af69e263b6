package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectRole is the permission level of a member within a project.
type ProjectRole string

const (
	ProjectRoleMember ProjectRole = "member"
	ProjectRoleAdmin  ProjectRole = "admin"
)

// Valid reports whether r is one of the known roles.
func (r ProjectRole) Valid() bool {
	return r == ProjectRoleMember || r == ProjectRoleAdmin
}

// ProjectMember ties a user to a project with a role. The composite key keeps
// membership unique per (project, user) pair.
type ProjectMember struct {
	ProjectID uuid.UUID   `gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID   `gorm:"type:char(36);primaryKey;index"`
	Role      ProjectRole `gorm:"type:varchar(20);not null;default:member"`
	JoinedAt  time.Time   `gorm:"autoCreateTime"`

	Project *Project `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID"`
	User    *User    `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID"`
}
