package models

import (
	"time"

	"github.com/google/uuid"
)

// Invitation permits a specific email address to sign in for the first time.
//
// An invitation is pending iff neither IsAccepted nor IsRevoked is set.
// Accepted and Revoked are terminal; no code path sets both flags. Uniqueness
// is enforced among non-revoked rows per normalized email, so revoking an
// invitation frees the address for re-invitation.
type Invitation struct {
	ID              uuid.UUID `gorm:"type:char(36);primaryKey"`
	Email           string    `gorm:"type:varchar(255);not null;index"`
	InvitedByUserID uuid.UUID `gorm:"type:char(36);not null;index"`
	InvitedAt       time.Time `gorm:"not null"`
	AcceptedAt      *time.Time
	IsAccepted      bool `gorm:"not null;default:false"`
	IsRevoked       bool `gorm:"not null;default:false"`

	InvitedBy *User `gorm:"constraint:OnDelete:RESTRICT;foreignKey:InvitedByUserID;references:ID"`
}

// Pending reports whether the invitation can still be accepted or revoked.
func (i *Invitation) Pending() bool {
	return !i.IsAccepted && !i.IsRevoked
}
