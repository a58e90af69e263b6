package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskhub/internal/invitation"
	"taskhub/internal/models"
)

// Store is the gorm-backed implementation of invitation.Store. Handlers that
// need richer queries use the ORM handle directly.
type Store struct {
	ORM *gorm.DB
}

// New wraps a gorm handle.
func New(orm *gorm.DB) *Store {
	return &Store{ORM: orm}
}

func (s *Store) UserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.ORM.WithContext(ctx).
		Where("email = ? AND is_active = ?", email, true).
		First(&u).Error
	if err != nil {
		return models.User{}, fmt.Errorf("user by email: %w", notFound(err))
	}
	return u, nil
}

func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	var u models.User
	err := s.ORM.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		return models.User{}, fmt.Errorf("user by id: %w", notFound(err))
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.ORM.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) SaveUser(ctx context.Context, u *models.User) error {
	if err := s.ORM.WithContext(ctx).Save(u).Error; err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *Store) ActiveInvitationByEmail(ctx context.Context, email string) (models.Invitation, error) {
	var inv models.Invitation
	err := s.ORM.WithContext(ctx).
		Where("email = ? AND is_revoked = ?", email, false).
		First(&inv).Error
	if err != nil {
		return models.Invitation{}, fmt.Errorf("active invitation by email: %w", notFound(err))
	}
	return inv, nil
}

func (s *Store) PendingInvitationByEmail(ctx context.Context, email string) (models.Invitation, error) {
	var inv models.Invitation
	err := s.ORM.WithContext(ctx).
		Where("email = ? AND is_accepted = ? AND is_revoked = ?", email, false, false).
		First(&inv).Error
	if err != nil {
		return models.Invitation{}, fmt.Errorf("pending invitation by email: %w", notFound(err))
	}
	return inv, nil
}

func (s *Store) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	if err := s.ORM.WithContext(ctx).Create(inv).Error; err != nil {
		return fmt.Errorf("create invitation: %w", err)
	}
	return nil
}

func (s *Store) SaveInvitation(ctx context.Context, inv *models.Invitation) error {
	if err := s.ORM.WithContext(ctx).Save(inv).Error; err != nil {
		return fmt.Errorf("save invitation: %w", err)
	}
	return nil
}

func (s *Store) PendingInvitations(ctx context.Context) ([]models.Invitation, error) {
	var invs []models.Invitation
	err := s.ORM.WithContext(ctx).
		Where("is_accepted = ? AND is_revoked = ?", false, false).
		Order("invited_at ASC").
		Find(&invs).Error
	if err != nil {
		return nil, fmt.Errorf("pending invitations: %w", err)
	}
	return invs, nil
}

// InTx runs fn against a store bound to a single database transaction.
func (s *Store) InTx(ctx context.Context, fn func(invitation.Store) error) error {
	return s.ORM.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{ORM: tx})
	})
}

// Audit records an administrative event. Failures are returned for the caller
// to log; auditing never blocks the main operation.
func (s *Store) Audit(ctx context.Context, entry *models.AuditLog) error {
	if err := s.ORM.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invitation.ErrNotFound
	}
	return err
}
