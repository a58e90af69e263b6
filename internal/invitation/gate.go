package invitation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"taskhub/internal/models"
)

var (
	// ErrConflict is returned by Create when the email is already occupied by
	// an active invitation or an existing user. Callers must not retry without
	// re-checking state.
	ErrConflict = errors.New("invitation conflict")

	// ErrInvalidEmail is returned by Create for a blank email.
	ErrInvalidEmail = errors.New("email is required")
)

// unknownInviter is the display name used when the inviting user record is gone.
const unknownInviter = "Unknown"

// Record is an invitation enriched with the inviter's display name, as served
// to API clients.
type Record struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	InvitedByUserID uuid.UUID  `json:"invited_by_user_id"`
	InvitedByName   string     `json:"invited_by_name"`
	InvitedAt       time.Time  `json:"invited_at"`
	AcceptedAt      *time.Time `json:"accepted_at,omitempty"`
	IsAccepted      bool       `json:"is_accepted"`
	IsRevoked       bool       `json:"is_revoked"`
}

// Gate owns the invitation lifecycle and the decision of whether an
// authenticating email may obtain a session. All collaborators are injected;
// the gate holds no ambient state and no in-process locks. Correctness under
// concurrent logins for the same email rests on the store's uniqueness
// constraints.
type Gate struct {
	store Store
	now   func() time.Time
}

// New returns a Gate backed by the given store.
func New(store Store) *Gate {
	return &Gate{store: store, now: time.Now}
}

// NormalizeEmail trims surrounding whitespace and lowercases the address. All
// gate comparisons and writes use the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsAuthorized reports whether the email may use the system: either an active
// user already exists for it, or a pending invitation does. A blank email is
// simply unauthorized, never an error. No side effects.
func (g *Gate) IsAuthorized(ctx context.Context, email string) (bool, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return false, nil
	}

	if _, err := g.store.UserByEmail(ctx, email); err == nil {
		return true, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, fmt.Errorf("look up user %s: %w", email, err)
	}

	if _, err := g.store.PendingInvitationByEmail(ctx, email); err == nil {
		return true, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, fmt.Errorf("look up invitation %s: %w", email, err)
	}

	return false, nil
}

// Create persists a new pending invitation for the email. It fails with
// ErrConflict, writing nothing, when a non-revoked invitation or an existing
// user already occupies the address.
func (g *Gate) Create(ctx context.Context, email string, invitedBy uuid.UUID) (Record, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return Record{}, ErrInvalidEmail
	}

	if _, err := g.store.ActiveInvitationByEmail(ctx, email); err == nil {
		return Record{}, fmt.Errorf("invitation already exists for %s: %w", email, ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return Record{}, fmt.Errorf("look up invitation %s: %w", email, err)
	}

	if _, err := g.store.UserByEmail(ctx, email); err == nil {
		return Record{}, fmt.Errorf("user %s already exists: %w", email, ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return Record{}, fmt.Errorf("look up user %s: %w", email, err)
	}

	inv := models.Invitation{
		ID:              uuid.New(),
		Email:           email,
		InvitedByUserID: invitedBy,
		InvitedAt:       g.now().UTC(),
	}
	if err := g.store.CreateInvitation(ctx, &inv); err != nil {
		return Record{}, fmt.Errorf("create invitation for %s: %w", email, err)
	}

	log.Info().Str("email", email).Str("invited_by", invitedBy.String()).Msg("invitation created")

	return g.record(ctx, inv), nil
}

// Accept finalizes the pending invitation for the email, if one exists, and
// creates or updates the user record carrying the external identity reference.
// Both writes happen in one store transaction: a failure on the identity side
// leaves the invitation pending. Returns (false, nil) when there is nothing to
// accept, which is a normal outcome for returning users.
func (g *Gate) Accept(ctx context.Context, email, externalID string) (bool, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return false, nil
	}

	inv, err := g.store.PendingInvitationByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("look up invitation %s: %w", email, err)
	}

	now := g.now().UTC()
	err = g.store.InTx(ctx, func(tx Store) error {
		inv.IsAccepted = true
		inv.AcceptedAt = &now
		if err := tx.SaveInvitation(ctx, &inv); err != nil {
			return fmt.Errorf("mark invitation accepted: %w", err)
		}

		user, err := tx.UserByEmail(ctx, email)
		switch {
		case errors.Is(err, ErrNotFound):
			user = models.User{
				ID:         uuid.New(),
				Email:      email,
				ExternalID: &externalID,
				IsActive:   true,
			}
			if err := tx.CreateUser(ctx, &user); err != nil {
				return fmt.Errorf("create user: %w", err)
			}
		case err != nil:
			return fmt.Errorf("look up user: %w", err)
		default:
			if user.ExternalID == nil || *user.ExternalID != externalID {
				user.ExternalID = &externalID
				if err := tx.SaveUser(ctx, &user); err != nil {
					return fmt.Errorf("update user: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("accept invitation for %s: %w", email, err)
	}

	log.Info().Str("email", email).Msg("invitation accepted")
	return true, nil
}

// Revoke marks the pending invitation for the email as revoked. Existing users
// are unaffected. Returns (false, nil) when no pending invitation exists.
func (g *Gate) Revoke(ctx context.Context, email string) (bool, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return false, nil
	}

	inv, err := g.store.PendingInvitationByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("look up invitation %s: %w", email, err)
	}

	inv.IsRevoked = true
	if err := g.store.SaveInvitation(ctx, &inv); err != nil {
		return false, fmt.Errorf("revoke invitation for %s: %w", email, err)
	}

	log.Info().Str("email", email).Msg("invitation revoked")
	return true, nil
}

// Pending lists all pending invitations, oldest first, enriched with inviter
// display names. A store read failure degrades to an empty list after logging;
// this is a read path and callers render whatever is returned.
func (g *Gate) Pending(ctx context.Context) ([]Record, error) {
	invs, err := g.store.PendingInvitations(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list pending invitations")
		return []Record{}, nil
	}

	names := make(map[uuid.UUID]string, len(invs))
	records := make([]Record, 0, len(invs))
	for _, inv := range invs {
		rec := g.toRecord(inv)
		name, ok := names[inv.InvitedByUserID]
		if !ok {
			name = g.inviterName(ctx, inv.InvitedByUserID)
			names[inv.InvitedByUserID] = name
		}
		rec.InvitedByName = name
		records = append(records, rec)
	}
	return records, nil
}

func (g *Gate) record(ctx context.Context, inv models.Invitation) Record {
	rec := g.toRecord(inv)
	rec.InvitedByName = g.inviterName(ctx, inv.InvitedByUserID)
	return rec
}

func (g *Gate) toRecord(inv models.Invitation) Record {
	return Record{
		ID:              inv.ID,
		Email:           inv.Email,
		InvitedByUserID: inv.InvitedByUserID,
		InvitedAt:       inv.InvitedAt,
		AcceptedAt:      inv.AcceptedAt,
		IsAccepted:      inv.IsAccepted,
		IsRevoked:       inv.IsRevoked,
	}
}

func (g *Gate) inviterName(ctx context.Context, id uuid.UUID) string {
	user, err := g.store.UserByID(ctx, id)
	if err != nil {
		return unknownInviter
	}
	return user.DisplayName()
}
