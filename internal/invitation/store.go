package invitation

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"taskhub/internal/models"
)

// ErrNotFound is returned by Store lookups when no row matches. Implementations
// map their driver's missing-row error to this sentinel.
var ErrNotFound = errors.New("not found")

// Store is the persistence surface the gate depends on. The production
// implementation lives in internal/store; tests use an in-memory fake.
type Store interface {
	// UserByEmail returns the active user for a normalized email.
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id uuid.UUID) (models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	SaveUser(ctx context.Context, u *models.User) error

	// ActiveInvitationByEmail matches non-revoked rows (pending or accepted).
	ActiveInvitationByEmail(ctx context.Context, email string) (models.Invitation, error)
	// PendingInvitationByEmail matches rows that are neither accepted nor revoked.
	PendingInvitationByEmail(ctx context.Context, email string) (models.Invitation, error)
	CreateInvitation(ctx context.Context, inv *models.Invitation) error
	SaveInvitation(ctx context.Context, inv *models.Invitation) error
	// PendingInvitations returns pending rows ordered by invited_at ascending.
	PendingInvitations(ctx context.Context) ([]models.Invitation, error)

	// InTx runs fn against a transactional view of the store. fn returning an
	// error rolls every write back.
	InTx(ctx context.Context, fn func(Store) error) error
}
