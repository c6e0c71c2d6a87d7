// Package service holds the forum's business rules: permissions, validation,
// lock and state-machine checks. Persistence is delegated to repositories.
package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"kasinoforum/internal/models"
	"kasinoforum/internal/observability"
)

const (
	maxTitleLen    = 200
	maxContentLen  = 50000
	maxReasonLen   = 1000
	maxCategoryLen = 120
)

var (
	errAuthRequired  = models.NewUnauthorizedError("Authentication required")
	errStaffRequired = models.NewForbiddenError("Moderator access required")
	errAdminRequired = models.NewForbiddenError("Admin access required")
	errThreadLocked  = models.NewForbiddenError("Thread is locked")
	errNotOwner      = models.NewForbiddenError("You can only change your own content")
)

func requireAuth(caller *models.Caller) error {
	if !caller.Authenticated() {
		return errAuthRequired
	}
	return nil
}

func requireStaff(caller *models.Caller) error {
	if err := requireAuth(caller); err != nil {
		return err
	}
	if !caller.IsStaff() {
		return errStaffRequired
	}
	return nil
}

func requireAdmin(caller *models.Caller) error {
	if err := requireAuth(caller); err != nil {
		return err
	}
	if !caller.IsAdmin() {
		return errAdminRequired
	}
	return nil
}

// requireOwnerOrStaff allows the author of an entity and any moderator or admin.
func requireOwnerOrStaff(caller *models.Caller, authorID uint) error {
	if err := requireAuth(caller); err != nil {
		return err
	}
	if !caller.Owns(authorID) && !caller.IsStaff() {
		return errNotOwner
	}
	return nil
}

func tooLong(s string, limit int) bool {
	return utf8.RuneCountInString(s) > limit
}

func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(title), " ")
}

// begin starts the span of a forum action; the returned func ends it and
// counts the outcome. Use with a named error: defer done(&err).
func begin(ctx context.Context, action string) (context.Context, func(*error)) {
	ctx, span := observability.StartSpan(ctx, action)
	return ctx, func(err *error) {
		record(action, *err)
		span.End(err)
	}
}

// record counts the outcome of a forum action by error code.
func record(action string, err error) {
	if err == nil {
		observability.RecordAction(action, "")
		return
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		observability.RecordAction(action, appErr.Code)
		return
	}
	observability.RecordAction(action, models.CodeInternal)
}
