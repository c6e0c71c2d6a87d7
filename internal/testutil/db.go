// Package testutil provides shared stores and fixtures for forum tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"kasinoforum/internal/database"
	"kasinoforum/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Uint64

func next() uint64 { return seq.Add(1) }

var (
	clockMu sync.Mutex
	lastNow time.Time
)

// stamp returns strictly increasing timestamps so fixture ordering is stable.
func stamp() time.Time {
	clockMu.Lock()
	defer clockMu.Unlock()
	now := time.Now()
	if !now.After(lastNow) {
		now = lastNow.Add(time.Microsecond)
	}
	lastNow = now
	return now
}

// NewTestDB opens a migrated in-memory SQLite store that lives for the test.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is its own database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

// CreateUser inserts a user with role.
func CreateUser(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()
	n := next()
	user := &models.User{
		ExternalID: fmt.Sprintf("ext-%d", n),
		Username:   fmt.Sprintf("medlem%d", n),
		Role:       role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// Caller returns the caller identity of user.
func Caller(user *models.User) *models.Caller {
	return &models.Caller{UserID: user.ID, Role: user.Role}
}

// CreateCategory inserts a category with a unique slug.
func CreateCategory(t *testing.T, db *gorm.DB) *models.ForumCategory {
	t.Helper()
	n := next()
	category := &models.ForumCategory{
		Slug:  fmt.Sprintf("kategori-%d", n),
		Name:  fmt.Sprintf("Kategori %d", n),
		Order: int(n),
	}
	require.NoError(t, db.Create(category).Error)
	return category
}

// CreateThread inserts a thread by author with a first post, wired the way
// thread creation leaves it.
func CreateThread(t *testing.T, db *gorm.DB, category *models.ForumCategory, author *models.User) (*models.Thread, *models.Post) {
	t.Helper()
	n := next()
	thread := &models.Thread{
		Title:      fmt.Sprintf("Tråd %d", n),
		Slug:       fmt.Sprintf("trad-%d", n),
		CategoryID: category.ID,
		AuthorID:   author.ID,
	}
	require.NoError(t, db.Omit("Category", "Author", "LastPostBy").Create(thread).Error)

	post := CreatePost(t, db, thread, author)
	require.NoError(t, db.First(thread, thread.ID).Error)
	return thread, post
}

// CreatePost inserts a post into thread and moves the thread's last-post pointer.
func CreatePost(t *testing.T, db *gorm.DB, thread *models.Thread, author *models.User) *models.Post {
	t.Helper()
	post := &models.Post{
		Content:   fmt.Sprintf("<p>Inlägg %d</p>", next()),
		AuthorID:  author.ID,
		ThreadID:  thread.ID,
		CreatedAt: stamp(),
	}
	require.NoError(t, db.Omit("Author", "Thread").Create(post).Error)
	require.NoError(t, db.Model(&models.Thread{}).Where("id = ?", thread.ID).Updates(map[string]any{
		"last_post_id":    post.ID,
		"last_post_by_id": post.AuthorID,
		"last_post_at":    post.CreatedAt,
	}).Error)
	return post
}

// Reputation reads the current reputation of a user.
func Reputation(t *testing.T, db *gorm.DB, userID uint) int {
	t.Helper()
	var user models.User
	require.NoError(t, db.First(&user, userID).Error)
	return user.Reputation
}
