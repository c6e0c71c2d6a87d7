package models

import "time"

// Thread is a discussion in a category. Its body is the content of its first post.
type Thread struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Title          string         `gorm:"size:200;not null" json:"title"`
	Slug           string         `gorm:"size:220;not null;uniqueIndex" json:"slug"`
	CategoryID     uint           `gorm:"not null;index" json:"category_id"`
	Category       *ForumCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"category,omitempty"`
	AuthorID       uint           `gorm:"not null;index" json:"author_id"`
	Author         *User          `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	IsSticky       bool           `gorm:"not null;default:false;index" json:"is_sticky"`
	IsLocked       bool           `gorm:"not null;default:false" json:"is_locked"`
	ViewCount      int64          `gorm:"not null;default:0" json:"view_count"`
	LastPostAt     *time.Time     `gorm:"index" json:"last_post_at,omitempty"`
	LastPostByID   *uint          `json:"last_post_by_id,omitempty"`
	LastPostBy     *User          `gorm:"foreignKey:LastPostByID" json:"last_post_by,omitempty"`
	LastPostID     *uint          `json:"last_post_id,omitempty"`
	AcceptedPostID *uint          `json:"accepted_post_id,omitempty"`
	// PostCount and FirstPostContent are not persisted; computed at query time
	PostCount        int64     `gorm:"->;-:migration" json:"post_count"`
	FirstPostContent string    `gorm:"->;-:migration" json:"-"`
	Excerpt          string    `gorm:"-" json:"excerpt,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ThreadSort selects the ordering of a thread listing. Sticky threads always come first.
type ThreadSort string

const (
	ThreadSortLatest     ThreadSort = "latest"
	ThreadSortNewest     ThreadSort = "newest"
	ThreadSortMostViewed ThreadSort = "most-viewed"
)

// ParseThreadSort validates a sort value; empty means ThreadSortLatest.
func ParseThreadSort(raw string) (ThreadSort, error) {
	switch ThreadSort(raw) {
	case "", ThreadSortLatest:
		return ThreadSortLatest, nil
	case ThreadSortNewest, ThreadSortMostViewed:
		return ThreadSort(raw), nil
	}
	return "", NewValidationError("Invalid sort: " + raw)
}

// ThreadFilter narrows a thread listing. Nil fields do not filter.
type ThreadFilter struct {
	CategoryID *uint
	AuthorID   *uint
	Sticky     *bool
	Locked     *bool
	Sort       ThreadSort
	Limit      int
	Offset     int
}
