package invitation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"taskhub/internal/invitation"
	"taskhub/internal/models"
	"taskhub/internal/store/storetest"
)

func seedAdmin(st *storetest.MemStore) models.User {
	admin := models.User{
		ID:        uuid.New(),
		Email:     "admin@example.com",
		FirstName: "Ada",
		LastName:  "Admin",
		IsActive:  true,
	}
	st.SeedUser(admin)
	return admin
}

func TestIsAuthorized(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email is unauthorized", func(t *testing.T) {
		gate := invitation.New(storetest.New())

		ok, err := gate.IsAuthorized(ctx, "nobody@example.com")
		if err != nil {
			t.Fatalf("IsAuthorized: %v", err)
		}
		if ok {
			t.Fatal("expected unauthorized")
		}
	})

	t.Run("blank email is unauthorized without error", func(t *testing.T) {
		gate := invitation.New(storetest.New())

		ok, err := gate.IsAuthorized(ctx, "   ")
		if err != nil {
			t.Fatalf("IsAuthorized: %v", err)
		}
		if ok {
			t.Fatal("expected unauthorized")
		}
	})

	t.Run("existing user is authorized", func(t *testing.T) {
		st := storetest.New()
		seedAdmin(st)
		gate := invitation.New(st)

		ok, err := gate.IsAuthorized(ctx, "admin@example.com")
		if err != nil {
			t.Fatalf("IsAuthorized: %v", err)
		}
		if !ok {
			t.Fatal("expected authorized")
		}
	})

	t.Run("pending invitation is authorized", func(t *testing.T) {
		st := storetest.New()
		admin := seedAdmin(st)
		gate := invitation.New(st)

		if _, err := gate.Create(ctx, "new@example.com", admin.ID); err != nil {
			t.Fatalf("Create: %v", err)
		}

		ok, err := gate.IsAuthorized(ctx, "new@example.com")
		if err != nil {
			t.Fatalf("IsAuthorized: %v", err)
		}
		if !ok {
			t.Fatal("expected authorized")
		}
	})

	t.Run("comparison is case-insensitive", func(t *testing.T) {
		st := storetest.New()
		admin := seedAdmin(st)
		gate := invitation.New(st)

		if _, err := gate.Create(ctx, "Mixed.Case@Example.COM", admin.ID); err != nil {
			t.Fatalf("Create: %v", err)
		}

		ok, err := gate.IsAuthorized(ctx, "mixed.case@example.com")
		if err != nil {
			t.Fatalf("IsAuthorized: %v", err)
		}
		if !ok {
			t.Fatal("expected authorized for lowercased lookup")
		}
	})
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending record", func(t *testing.T) {
		st := storetest.New()
		admin := seedAdmin(st)
		gate := invitation.New(st)

		rec, err := gate.Create(ctx, "  New@Example.com ", admin.ID)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if rec.Email != "new@example.com" {
			t.Fatalf("email = %q, want normalized form", rec.Email)
		}
		if rec.IsAccepted || rec.IsRevoked {
			t.Fatal("new invitation must be pending")
		}
		if rec.InvitedByName != "Ada Admin" {
			t.Fatalf("invited_by_name = %q, want %q", rec.InvitedByName, "Ada Admin")
		}
		if rec.InvitedAt.IsZero() {
			t.Fatal("invited_at not set")
		}
	})

	t.Run("blank email is rejected", func(t *testing.T) {
		st := storetest.New()
		admin := seedAdmin(st)
		gate := invitation.New(st)

		if _, err := gate.Create(ctx, "  ", admin.ID); !errors.Is(err, invitation.ErrInvalidEmail) {
			t.Fatalf("err = %v, want ErrInvalidEmail", err)
		}
	})

	t.Run("duplicate invitation conflicts", func(t *testing.T) {
		st := storetest.New()
		admin := seedAdmin(st)
		gate := invitation.New(st)

		if _, err := gate.Create(ctx, "dup@example.com", admin.ID); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, err := gate.Create(ctx, "DUP@example.com", admin.ID); !errors.Is(err, invitation.ErrConflict) {
			t.Fatalf("err = %v, want ErrConflict", err)
		}
	})

	t.Run("existing user conflicts", func(t *testing.T) {
		st := storetest.New()
		admin := seedAdmin(st)
		gate := invitation.New(st)

		if _, err := gate.Create(ctx, admin.Email, admin.ID); !errors.Is(err, invitation.ErrConflict) {
			t.Fatalf("err = %v, want ErrConflict", err)
		}
	})
}

func TestAccept(t *testing.T) {
	ctx := context.Background()

	t.Run("finalizes invitation and creates user", func(t *testing.T) {
		st := storetest.New()
		admin := seedAdmin(st)
		gate := invitation.New(st)

		rec, err := gate.Create(ctx, "new@example.com", admin.ID)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}

		accepted, err := gate.Accept(ctx, "new@example.com", "ext-123")
		if err != nil {
			t.Fatalf("Accept: %v", err)
		}
		if !accepted {
			t.Fatal("expected accepted")
		}

		inv, ok := st.InvitationByID(rec.ID)
		if !ok {
			t.Fatal("invitation row missing")
		}
		if !inv.IsAccepted || inv.AcceptedAt == nil {
			t.Fatal("invitation not marked accepted")
		}

		user, err := st.UserByEmail(ctx, "new@example.com")
		if err != nil {
			t.Fatalf("UserByEmail: %v", err)
		}
		if user.ExternalID == nil || *user.ExternalID != "ext-123" {
			t.Fatalf("external id = %v, want ext-123", user.ExternalID)
		}

		// The invitation is consumed; authorization now flows from the user row.
		ok2, err := gate.IsAuthorized(ctx, "new@example.com")
		if err != nil {
			t.Fatalf("IsAuthorized: %v", err)
		}
		if !ok2 {
			t.Fatal("expected authorized via user record")
		}
	})

	t.Run("no pending invitation is a no-op", func(t *testing.T) {
		st := storetest.New()
		seedAdmin(st)
		gate := invitation.New(st)

		accepted, err := gate.Accept(ctx, "nobody@example.com", "ext-9")
		if err != nil {
			t.Fatalf("Accept: %v", err)
		}
		if accepted {
			t.Fatal("expected no acceptance")
		}
		if got := st.UserCount(); got != 1 {
			t.Fatalf("user count = %d, want 1 (admin only)", got)
		}
	})

	t.Run("accepting again is a no-op", func(t *testing.T) {
		st := storetest.New()
		admin := seedAdmin(st)
		gate := invitation.New(st)

		if _, err := gate.Create(ctx, "new@example.com", admin.ID); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, err := gate.Accept(ctx, "new@example.com", "ext-1"); err != nil {
			t.Fatalf("Accept: %v", err)
		}

		accepted, err := gate.Accept(ctx, "new@example.com", "ext-1")
		if err != nil {
			t.Fatalf("Accept: %v", err)
		}
		if accepted {
			t.Fatal("second accept must report nothing to do")
		}
	})

	t.Run("identity write failure leaves invitation pending", func(t *testing.T) {
		st := storetest.New()
		admin := seedAdmin(st)
		gate := invitation.New(st)

		rec, err := gate.Create(ctx, "new@example.com", admin.ID)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}

		st.FailCreateUser = errors.New("disk full")
		if _, err := gate.Accept(ctx, "new@example.com", "ext-1"); err == nil {
			t.Fatal("expected error from Accept")
		}
		st.FailCreateUser = nil

		inv, ok := st.InvitationByID(rec.ID)
		if !ok {
			t.Fatal("invitation row missing")
		}
		if inv.IsAccepted {
			t.Fatal("invitation must roll back to pending")
		}

		// A later login can still accept.
		accepted, err := gate.Accept(ctx, "new@example.com", "ext-1")
		if err != nil {
			t.Fatalf("Accept after rollback: %v", err)
		}
		if !accepted {
			t.Fatal("expected acceptance after rollback")
		}
	})
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()

	t.Run("revoked email loses authorization", func(t *testing.T) {
		st := storetest.New()
		admin := seedAdmin(st)
		gate := invitation.New(st)

		if _, err := gate.Create(ctx, "new@example.com", admin.ID); err != nil {
			t.Fatalf("Create: %v", err)
		}

		revoked, err := gate.Revoke(ctx, "NEW@example.com")
		if err != nil {
			t.Fatalf("Revoke: %v", err)
		}
		if !revoked {
			t.Fatal("expected revocation")
		}

		ok, err := gate.IsAuthorized(ctx, "new@example.com")
		if err != nil {
			t.Fatalf("IsAuthorized: %v", err)
		}
		if ok {
			t.Fatal("revoked email must be unauthorized")
		}
	})

	t.Run("revoking frees the email for re-invitation", func(t *testing.T) {
		st := storetest.New()
		admin := seedAdmin(st)
		gate := invitation.New(st)

		if _, err := gate.Create(ctx, "new@example.com", admin.ID); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, err := gate.Revoke(ctx, "new@example.com"); err != nil {
			t.Fatalf("Revoke: %v", err)
		}
		if _, err := gate.Create(ctx, "new@example.com", admin.ID); err != nil {
			t.Fatalf("Create after revoke: %v", err)
		}
	})

	t.Run("nothing pending reports false", func(t *testing.T) {
		gate := invitation.New(storetest.New())

		revoked, err := gate.Revoke(ctx, "nobody@example.com")
		if err != nil {
			t.Fatalf("Revoke: %v", err)
		}
		if revoked {
			t.Fatal("expected no revocation")
		}
	})
}

func TestPending(t *testing.T) {
	ctx := context.Background()

	st := storetest.New()
	admin := seedAdmin(st)
	gate := invitation.New(st)

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		if _, err := gate.Create(ctx, email, admin.ID); err != nil {
			t.Fatalf("Create %s: %v", email, err)
		}
	}
	if _, err := gate.Revoke(ctx, "b@example.com"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := gate.Accept(ctx, "c@example.com", "ext-c"); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	records, err := gate.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("pending count = %d, want 1", len(records))
	}
	if records[0].Email != "a@example.com" {
		t.Fatalf("pending email = %q, want a@example.com", records[0].Email)
	}
	if records[0].InvitedByName != "Ada Admin" {
		t.Fatalf("invited_by_name = %q, want Ada Admin", records[0].InvitedByName)
	}
}

func TestPendingOrder(t *testing.T) {
	ctx := context.Background()

	st := storetest.New()
	admin := seedAdmin(st)
	gate := invitation.New(st)

	emails := []string{"first@example.com", "second@example.com", "third@example.com"}
	for _, email := range emails {
		if _, err := gate.Create(ctx, email, admin.ID); err != nil {
			t.Fatalf("Create %s: %v", email, err)
		}
	}

	records, err := gate.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(records) != len(emails) {
		t.Fatalf("pending count = %d, want %d", len(records), len(emails))
	}
	for i := 1; i < len(records); i++ {
		if records[i].InvitedAt.Before(records[i-1].InvitedAt) {
			t.Fatalf("records not ordered oldest first: %v before %v",
				records[i].InvitedAt, records[i-1].InvitedAt)
		}
	}
}
