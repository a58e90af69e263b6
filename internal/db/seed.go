package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskhub/internal/invitation"
	"taskhub/internal/models"
)

// SeedFile is the YAML layout for bootstrap data. Without at least one seeded
// user or invitation a fresh deployment has no way in, since signups are
// invitation-gated.
type SeedFile struct {
	Admin struct {
		Email     string `yaml:"email"`
		FirstName string `yaml:"first_name"`
		LastName  string `yaml:"last_name"`
	} `yaml:"admin"`
	Invitations []struct {
		Email string `yaml:"email"`
	} `yaml:"invitations"`
}

// Seed applies the bootstrap file at path, if configured. Inserts are
// idempotent: the admin upsert does nothing on conflict and invitations are
// only created when no active one exists.
func Seed(ctx context.Context, database *gorm.DB, path string) error {
	if path == "" {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	adminEmail := invitation.NormalizeEmail(seed.Admin.Email)
	if adminEmail == "" {
		return nil
	}

	admin := models.User{
		ID:        uuid.New(),
		Email:     adminEmail,
		FirstName: seed.Admin.FirstName,
		LastName:  seed.Admin.LastName,
		IsActive:  true,
	}
	if err := database.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&admin).Error; err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	// Re-read so invitations reference the surviving row, not a discarded insert.
	if err := database.WithContext(ctx).First(&admin, "email = ?", adminEmail).Error; err != nil {
		return fmt.Errorf("load admin user: %w", err)
	}

	for _, entry := range seed.Invitations {
		email := invitation.NormalizeEmail(entry.Email)
		if email == "" || email == adminEmail {
			continue
		}

		var existing models.Invitation
		err := database.WithContext(ctx).
			Where("email = ? AND is_revoked = ?", email, false).
			First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check seed invitation: %w", err)
		}

		inv := models.Invitation{
			ID:              uuid.New(),
			Email:           email,
			InvitedByUserID: admin.ID,
			InvitedAt:       time.Now().UTC(),
		}
		if err := database.WithContext(ctx).Create(&inv).Error; err != nil {
			return fmt.Errorf("seed invitation for %s: %w", email, err)
		}
	}

	return nil
}
