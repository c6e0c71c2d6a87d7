package models

import "time"

// ForumCategory groups threads on the forum index.
type ForumCategory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Slug        string    `gorm:"size:120;not null;uniqueIndex" json:"slug"`
	Name        string    `gorm:"size:120;not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	Order       int       `gorm:"column:sort_order;not null;default:0;index" json:"order"`
	ThreadCount int64     `gorm:"->;-:migration" json:"thread_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
