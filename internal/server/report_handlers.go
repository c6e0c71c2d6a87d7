package server

import (
	"strings"

	"kasinoforum/internal/middleware"
	"kasinoforum/internal/models"
	"kasinoforum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// FileReport handles POST /api/forum/posts/:id/reports
// @Summary Report post
// @Tags reports
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body object{reason=string} true "Reason"
// @Success 201 {object} models.Report
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/reports [post]
func (s *Server) FileReport(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	report, err := s.reportService.File(c.UserContext(), middleware.CallerFrom(c), service.FileReportInput{
		PostID: postID,
		Reason: req.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// ListReports handles GET /api/forum/reports?status=PENDING,RESOLVED&page=1&pageSize=20
// @Summary List reports
// @Tags reports
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param page query int false "Page" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Success 200 {object} models.ReportPage
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /reports [get]
func (s *Server) ListReports(c *fiber.Ctx) error {
	filter := models.ReportFilter{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("pageSize", 0),
	}
	for _, raw := range strings.Split(c.Query("status"), ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		status, err := models.ParseReportStatus(raw)
		if err != nil {
			return respondError(c, err)
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	page, err := s.reportService.List(c.UserContext(), middleware.CallerFrom(c), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetReport handles GET /api/forum/reports/:id
// @Summary Get report
// @Tags reports
// @Produce json
// @Param id path int true "Report ID"
// @Success 200 {object} models.Report
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /reports/{id} [get]
func (s *Server) GetReport(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	report, err := s.reportService.Get(c.UserContext(), middleware.CallerFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// ResolveReport handles POST /api/forum/reports/:id/resolve
// @Summary Resolve report
// @Description Moves a pending report to RESOLVED or REJECTED.
// @Tags reports
// @Accept json
// @Produce json
// @Param id path int true "Report ID"
// @Param request body object{status=string,resolution=string} true "Resolution"
// @Success 200 {object} models.Report
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /reports/{id}/resolve [post]
func (s *Server) ResolveReport(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Status     string  `json:"status"`
		Resolution *string `json:"resolution"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	status, err := models.ParseReportStatus(req.Status)
	if err != nil {
		return respondError(c, err)
	}
	report, err := s.reportService.Resolve(c.UserContext(), middleware.CallerFrom(c), id, service.ResolveReportInput{
		Status:     status,
		Resolution: req.Resolution,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}
