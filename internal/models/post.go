package models

import "time"

// Post is a reply in a thread. Content is stored sanitized.
type Post struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Content  string  `gorm:"type:text;not null" json:"content"`
	AuthorID uint    `gorm:"not null;index" json:"author_id"`
	Author   *User   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	ThreadID uint    `gorm:"not null;index" json:"thread_id"`
	Thread   *Thread `gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE" json:"-"`
	IsEdited bool    `gorm:"not null;default:false" json:"is_edited"`
	// LikeCount is not persisted; computed at query time
	LikeCount int64 `gorm:"->;-:migration" json:"like_count"`
	// Liked indicates whether the viewing user liked this post (computed)
	Liked     bool      `gorm:"->;-:migration" json:"liked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Like records that a user liked a post. At most one per (user, post).
type Like struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	PostID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"post_id"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeResult is the state of a post after a like toggle.
type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}
