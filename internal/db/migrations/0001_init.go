package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"taskhub/internal/models"
)

func init() {
	goose.AddMigrationContext(upInit, downInit)
}

func upInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Invitation{},
		&models.Project{},
		&models.Task{},
		&models.ProjectMember{},
		&models.AuditLog{},
	); err != nil {
		return err
	}

	// One live invitation per address: revoked rows fall outside the index, so
	// a revoke frees the email for re-invitation.
	return gormDB.WithContext(ctx).Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_invitations_active_email
		 ON invitations (email) WHERE NOT is_revoked`,
	).Error
}

func downInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	return gormDB.WithContext(ctx).Migrator().DropTable(
		&models.AuditLog{},
		&models.ProjectMember{},
		&models.Task{},
		&models.Project{},
		&models.Invitation{},
		&models.User{},
	)
}
