package db

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	_ "taskhub/internal/db/migrations"
	"taskhub/internal/models"
)

// Migrate applies schema migrations. Postgres runs the versioned goose
// migrations over the pgx driver; mysql falls back to a direct AutoMigrate
// because the active-invitation partial index is postgres-specific.
func Migrate(ctx context.Context, driver, dsn string, database *gorm.DB) error {
	switch driver {
	case DriverPostgres:
		if err := goose.SetDialect("postgres"); err != nil {
			return err
		}

		sqlDB, err := goose.OpenDBWithDriver("pgx", dsn)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		return goose.UpContext(ctx, sqlDB, "migrations")
	case DriverMySQL:
		return database.WithContext(ctx).AutoMigrate(allModels()...)
	}
	return fmt.Errorf("unsupported database driver %q", driver)
}

func allModels() []any {
	return []any{
		&models.User{},
		&models.Invitation{},
		&models.Project{},
		&models.Task{},
		&models.ProjectMember{},
		&models.AuditLog{},
	}
}
