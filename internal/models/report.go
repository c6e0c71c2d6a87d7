package models

import (
	"strings"
	"time"
)

// ReportStatus is the moderation state of a report. PENDING is the only non-terminal state.
type ReportStatus string

const (
	ReportPending  ReportStatus = "PENDING"
	ReportResolved ReportStatus = "RESOLVED"
	ReportRejected ReportStatus = "REJECTED"
)

// Terminal reports whether no transition leaves s.
func (s ReportStatus) Terminal() bool {
	return s == ReportResolved || s == ReportRejected
}

// ParseReportStatus normalizes and validates a status value.
func ParseReportStatus(raw string) (ReportStatus, error) {
	s := ReportStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case ReportPending, ReportResolved, ReportRejected:
		return s, nil
	}
	return "", NewValidationError("Invalid report status: " + raw)
}

// Report is a user complaint against a post.
type Report struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Reason       string       `gorm:"type:text;not null" json:"reason"`
	PostID       uint         `gorm:"not null;index" json:"post_id"`
	Post         *Post        `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"post,omitempty"`
	UserID       uint         `gorm:"not null;index" json:"user_id"`
	Reporter     *User        `gorm:"foreignKey:UserID" json:"reporter,omitempty"`
	Status       ReportStatus `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	Resolution   *string      `gorm:"type:text" json:"resolution,omitempty"`
	ResolvedByID *uint        `json:"resolved_by_id,omitempty"`
	ResolvedAt   *time.Time   `json:"resolved_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// ReportFilter narrows a moderation queue listing. Empty Statuses lists all.
type ReportFilter struct {
	Statuses []ReportStatus
	Page     int
	PageSize int
}

// PageMeta describes one page of a paginated listing.
type PageMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPageMeta computes page metadata for total rows.
func NewPageMeta(page, pageSize int, total int64) PageMeta {
	pages := 0
	if pageSize > 0 {
		pages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return PageMeta{Page: page, PageSize: pageSize, Total: total, TotalPages: pages}
}

// ReportPage is one page of the moderation queue.
type ReportPage struct {
	Reports []*Report `json:"reports"`
	Meta    PageMeta  `json:"meta"`
}
