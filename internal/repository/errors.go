// Package repository provides the forum's data access layer over gorm.
package repository

import (
	"errors"
	"strings"

	"kasinoforum/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pgUniqueViolation = "23505"

// translate maps store errors onto the forum error taxonomy. AppErrors pass through.
func translate(err error, resource string, id any) error {
	if err == nil {
		return nil
	}

	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.NewNotFoundError(resource, id)
	case isUniqueViolation(err):
		return &models.AppError{
			Code:    models.CodeConflict,
			Message: resource + " already exists",
			Err:     err,
		}
	default:
		// Timeouts, cancellations and connection failures alike are
		// surfaced as retryable; the core never retries on its own.
		return models.NewTransientError(err)
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// forUpdate locks selected rows until the surrounding transaction ends.
// SQLite has no row locks and already serialises writers, so it is skipped there.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
