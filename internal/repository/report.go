package repository

import (
	"context"
	"errors"
	"time"

	"kasinoforum/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const duplicatePendingReport = "You already have a pending report on this post"

// ReportRepository defines the interface for report data operations
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uint) (*models.Report, error)
	Resolve(ctx context.Context, id uint, status models.ReportStatus, resolution *string, resolverID uint, at time.Time) (*models.Report, error)
	List(ctx context.Context, filter models.ReportFilter) ([]*models.Report, int64, error)
}

type reportRepository struct {
	base
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *gorm.DB, opts ...Option) ReportRepository {
	return &reportRepository{base: newBase(db, opts)}
}

// Create files a PENDING report. A second pending report by the same user on
// the same post is a Conflict, including when two requests race past the
// existence check and collide on the partial unique index.
func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	report.Status = models.ReportPending
	err := db.Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, report.PostID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", report.PostID)
			}
			return err
		}

		var pending int64
		if err := tx.Model(&models.Report{}).
			Where("user_id = ? AND post_id = ? AND status = ?", report.UserID, report.PostID, models.ReportPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return models.NewConflictError(duplicatePendingReport)
		}

		return tx.Omit(clause.Associations).Create(report).Error
	})
	if err != nil && isUniqueViolation(err) {
		return &models.AppError{Code: models.CodeConflict, Message: duplicatePendingReport, Err: err}
	}
	return translate(err, "Report", report.ID)
}

func (r *reportRepository) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var report models.Report
	if err := db.Preload("Reporter").First(&report, id).Error; err != nil {
		return nil, translate(err, "Report", id)
	}
	return &report, nil
}

// Resolve moves a PENDING report to a terminal status. The update is
// conditional on the row still being PENDING, so of two concurrent resolves
// exactly one wins and the other gets a Conflict.
func (r *reportRepository) Resolve(ctx context.Context, id uint, status models.ReportStatus, resolution *string, resolverID uint, at time.Time) (*models.Report, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	res := db.Model(&models.Report{}).
		Where("id = ? AND status = ?", id, models.ReportPending).
		Updates(map[string]any{
			"status":         status,
			"resolution":     resolution,
			"resolved_by_id": resolverID,
			"resolved_at":    at,
		})
	if res.Error != nil {
		return nil, translate(res.Error, "Report", id)
	}

	var report models.Report
	if err := db.Preload("Reporter").First(&report, id).Error; err != nil {
		return nil, translate(err, "Report", id)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewConflictError("Report already handled")
	}
	return &report, nil
}

// List returns one page of reports, newest first, plus the total match count.
func (r *reportRepository) List(ctx context.Context, filter models.ReportFilter) ([]*models.Report, int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	scope := func(q *gorm.DB) *gorm.DB {
		if len(filter.Statuses) > 0 {
			return q.Where("status IN ?", filter.Statuses)
		}
		return q
	}

	var total int64
	if err := scope(db.Model(&models.Report{})).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "Report", nil)
	}

	var reports []*models.Report
	query := scope(db.Model(&models.Report{})).
		Preload("Reporter").
		Preload("Post").
		Order("created_at DESC, id DESC")
	if filter.PageSize > 0 {
		page := max(filter.Page, 1)
		query = query.Limit(filter.PageSize).Offset((page - 1) * filter.PageSize)
	}
	if err := query.Find(&reports).Error; err != nil {
		return nil, 0, translate(err, "Report", nil)
	}
	return reports, total, nil
}
