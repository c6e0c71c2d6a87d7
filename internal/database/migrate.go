package database

import (
	"context"
	"fmt"

	"kasinoforum/internal/models"

	"gorm.io/gorm"
)

// Models lists every persisted forum model in dependency order.
func Models() []any {
	return []any{
		&models.User{},
		&models.ForumCategory{},
		&models.Thread{},
		&models.Post{},
		&models.Like{},
		&models.Report{},
	}
}

// PendingReportIndex enforces at most one PENDING report per (user, post).
const PendingReportIndex = "idx_reports_one_pending"

// Migrate brings the schema up to date. Safe to run repeatedly.
func Migrate(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx)
	if err := tx.AutoMigrate(Models()...); err != nil {
		return err
	}

	// PostgreSQL and SQLite both accept this partial index form.
	stmt := fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS %s ON reports (user_id, post_id) WHERE status = '%s'",
		PendingReportIndex, models.ReportPending,
	)
	if err := tx.Exec(stmt).Error; err != nil {
		return fmt.Errorf("create %s: %w", PendingReportIndex, err)
	}
	return nil
}
