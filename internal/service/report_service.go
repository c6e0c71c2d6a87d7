package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"kasinoforum/internal/observability"
	"kasinoforum/internal/models"
	"kasinoforum/internal/repository"
)

const (
	defaultReportPageSize = 20
	maxReportPageSize     = 100
)

// ReportService runs the report queue: users file, staff resolve or reject.
type ReportService struct {
	reports repository.ReportRepository
	now     func() time.Time
}

type FileReportInput struct {
	PostID uint
	Reason string
}

type ResolveReportInput struct {
	Status     models.ReportStatus
	Resolution *string
}

func NewReportService(reports repository.ReportRepository) *ReportService {
	return &ReportService{reports: reports, now: time.Now}
}

// File creates a PENDING report. A user may hold one pending report per post.
func (s *ReportService) File(ctx context.Context, caller *models.Caller, in FileReportInput) (_ *models.Report, err error) {
	ctx, done := begin(ctx, "report.file")
	defer done(&err)

	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, models.NewValidationError("Reason is required")
	}
	if tooLong(reason, maxReasonLen) {
		return nil, models.NewValidationError("Reason too long (max 1000 characters)")
	}

	report := &models.Report{Reason: reason, PostID: in.PostID, UserID: caller.UserID}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}

	observability.GlobalLogger.InfoContext(ctx, "report filed",
		slog.Uint64("report_id", uint64(report.ID)),
		slog.Uint64("post_id", uint64(report.PostID)),
	)
	return report, nil
}

// Resolve closes a PENDING report as RESOLVED or REJECTED.
func (s *ReportService) Resolve(ctx context.Context, caller *models.Caller, id uint, in ResolveReportInput) (_ *models.Report, err error) {
	ctx, done := begin(ctx, "report.resolve")
	defer done(&err)

	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	if !in.Status.Terminal() {
		return nil, models.NewValidationError("Status must be RESOLVED or REJECTED")
	}

	resolution := normalizeDescription(in.Resolution)
	if resolution != nil && tooLong(*resolution, maxReasonLen) {
		return nil, models.NewValidationError("Resolution too long (max 1000 characters)")
	}

	report, err := s.reports.Resolve(ctx, id, in.Status, resolution, caller.UserID, s.now())
	if err != nil {
		return nil, err
	}

	observability.GlobalLogger.InfoContext(ctx, "report resolved",
		slog.Uint64("report_id", uint64(report.ID)),
		slog.String("status", string(report.Status)),
	)
	return report, nil
}

// Get returns one report with its reporter. Staff only.
func (s *ReportService) Get(ctx context.Context, caller *models.Caller, id uint) (*models.Report, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	return s.reports.GetByID(ctx, id)
}

// List returns the moderation queue, newest first.
func (s *ReportService) List(ctx context.Context, caller *models.Caller, filter models.ReportFilter) (*models.ReportPage, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}

	filter.Page = max(filter.Page, 1)
	if filter.PageSize <= 0 {
		filter.PageSize = defaultReportPageSize
	}
	filter.PageSize = min(filter.PageSize, maxReportPageSize)

	reports, total, err := s.reports.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &models.ReportPage{
		Reports: reports,
		Meta:    models.NewPageMeta(filter.Page, filter.PageSize, total),
	}, nil
}
