// Package storetest provides an in-memory invitation.Store for tests that need
// gate semantics without a database.
package storetest

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"taskhub/internal/invitation"
	"taskhub/internal/models"
)

// MemStore keeps users and invitations in maps guarded by a mutex. InTx takes a
// snapshot and restores it when the callback fails, mirroring a database
// rollback.
type MemStore struct {
	mu          sync.Mutex
	users       map[uuid.UUID]models.User
	invitations map[uuid.UUID]models.Invitation

	// FailCreateUser forces CreateUser to return this error, for exercising
	// transaction rollback.
	FailCreateUser error
}

func New() *MemStore {
	return &MemStore{
		users:       make(map[uuid.UUID]models.User),
		invitations: make(map[uuid.UUID]models.Invitation),
	}
}

func (m *MemStore) UserByEmail(ctx context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email && u.IsActive {
			return u, nil
		}
	}
	return models.User{}, invitation.ErrNotFound
}

func (m *MemStore) UserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, invitation.ErrNotFound
	}
	return u, nil
}

func (m *MemStore) CreateUser(ctx context.Context, u *models.User) error {
	if m.FailCreateUser != nil {
		return m.FailCreateUser
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
	return nil
}

func (m *MemStore) SaveUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
	return nil
}

func (m *MemStore) ActiveInvitationByEmail(ctx context.Context, email string) (models.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invitations {
		if inv.Email == email && !inv.IsRevoked {
			return inv, nil
		}
	}
	return models.Invitation{}, invitation.ErrNotFound
}

func (m *MemStore) PendingInvitationByEmail(ctx context.Context, email string) (models.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invitations {
		if inv.Email == email && inv.Pending() {
			return inv, nil
		}
	}
	return models.Invitation{}, invitation.ErrNotFound
}

func (m *MemStore) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invitations[inv.ID] = *inv
	return nil
}

func (m *MemStore) SaveInvitation(ctx context.Context, inv *models.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invitations[inv.ID] = *inv
	return nil
}

func (m *MemStore) PendingInvitations(ctx context.Context) ([]models.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Invitation
	for _, inv := range m.invitations {
		if inv.Pending() {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvitedAt.Before(out[j].InvitedAt) })
	return out, nil
}

func (m *MemStore) InTx(ctx context.Context, fn func(invitation.Store) error) error {
	m.mu.Lock()
	users := make(map[uuid.UUID]models.User, len(m.users))
	for k, v := range m.users {
		users[k] = v
	}
	invitations := make(map[uuid.UUID]models.Invitation, len(m.invitations))
	for k, v := range m.invitations {
		invitations[k] = v
	}
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.users = users
		m.invitations = invitations
		m.mu.Unlock()
		return err
	}
	return nil
}

// SeedUser inserts a user directly, bypassing the gate.
func (m *MemStore) SeedUser(u models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

// InvitationByID returns the raw stored row for assertions.
func (m *MemStore) InvitationByID(id uuid.UUID) (models.Invitation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invitations[id]
	return inv, ok
}

// UserCount reports the number of stored users.
func (m *MemStore) UserCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}
