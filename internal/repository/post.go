package repository

import (
	"context"
	"errors"

	"kasinoforum/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ThreadGuard decides, inside the writing transaction, whether a post may be
// added to thread. The thread row is locked while it runs.
type ThreadGuard func(thread *models.Thread) error

// PostGuard decides, inside the writing transaction, whether post may be
// changed. The parent thread row is locked while it runs.
type PostGuard func(post *models.Post, thread *models.Thread) error

// PostRepository defines the interface for post data operations
type PostRepository interface {
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error)
	ListByThread(ctx context.Context, threadID uint, limit, offset int, viewerID uint) ([]*models.Post, int64, error)
	Create(ctx context.Context, post *models.Post, guard ThreadGuard) error
	Update(ctx context.Context, id uint, content string, guard PostGuard) error
	Delete(ctx context.Context, id uint, guard PostGuard) (*models.Post, error)
}

type postRepository struct {
	base
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB, opts ...Option) PostRepository {
	return &postRepository{base: newBase(db, opts)}
}

func (r *postRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var post models.Post
	if err := withPostDetails(db, viewerID).Preload("Author").First(&post, id).Error; err != nil {
		return nil, translate(err, "Post", id)
	}
	return &post, nil
}

// ListByThread returns posts of a thread oldest first, with like counts and
// whether viewerID liked each one.
func (r *postRepository) ListByThread(ctx context.Context, threadID uint, limit, offset int, viewerID uint) ([]*models.Post, int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var total int64
	if err := db.Model(&models.Post{}).Where("thread_id = ?", threadID).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "Post", nil)
	}

	query := withPostDetails(db, viewerID).
		Preload("Author").
		Where("posts.thread_id = ?", threadID).
		Order("posts.created_at ASC, posts.id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var posts []*models.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, 0, translate(err, "Post", nil)
	}
	return posts, total, nil
}

// Create inserts post and moves the thread's last-post pointer to it.
func (r *postRepository) Create(ctx context.Context, post *models.Post, guard ThreadGuard) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		thread, err := lockThread(tx, post.ThreadID)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(thread); err != nil {
				return err
			}
		}

		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		return tx.Model(&models.Thread{}).Where("id = ?", thread.ID).Updates(map[string]any{
			"last_post_id":    post.ID,
			"last_post_by_id": post.AuthorID,
			"last_post_at":    post.CreatedAt,
		}).Error
	})
	return translate(err, "Post", post.ID)
}

// Update replaces the content of a post and flags it as edited.
func (r *postRepository) Update(ctx context.Context, id uint, content string, guard PostGuard) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		post, thread, err := loadPostForWrite(tx, id)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(post, thread); err != nil {
				return err
			}
		}

		return tx.Model(&models.Post{}).Where("id = ?", id).Updates(map[string]any{
			"content":   content,
			"is_edited": true,
		}).Error
	})
	return translate(err, "Post", id)
}

// Delete removes a post with its likes and reports and returns the removed row.
// The thread's last-post pointer and accepted answer are repaired when they
// referenced the post.
func (r *postRepository) Delete(ctx context.Context, id uint, guard PostGuard) (*models.Post, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var deleted *models.Post
	err := db.Transaction(func(tx *gorm.DB) error {
		post, thread, err := loadPostForWrite(tx, id)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(post, thread); err != nil {
				return err
			}
		}

		if err := tx.Where("post_id = ?", id).Delete(&models.Report{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Post{}, id).Error; err != nil {
			return err
		}

		if thread.AcceptedPostID != nil && *thread.AcceptedPostID == id {
			if err := tx.Model(&models.Thread{}).Where("id = ?", thread.ID).
				Update("accepted_post_id", nil).Error; err != nil {
				return err
			}
		}
		if thread.LastPostID == nil || *thread.LastPostID == id {
			if err := recomputeLastPost(tx, thread.ID); err != nil {
				return err
			}
		}

		deleted = post
		return nil
	})
	if err != nil {
		return nil, translate(err, "Post", id)
	}
	return deleted, nil
}

func lockThread(tx *gorm.DB, id uint) (*models.Thread, error) {
	var thread models.Thread
	if err := forUpdate(tx).First(&thread, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Thread", id)
		}
		return nil, err
	}
	return &thread, nil
}

func loadPostForWrite(tx *gorm.DB, id uint) (*models.Post, *models.Thread, error) {
	var post models.Post
	if err := tx.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, models.NewNotFoundError("Post", id)
		}
		return nil, nil, err
	}
	thread, err := lockThread(tx, post.ThreadID)
	if err != nil {
		return nil, nil, err
	}
	return &post, thread, nil
}

// recomputeLastPost points the thread at its newest remaining post, or clears
// the pointer when none is left.
func recomputeLastPost(tx *gorm.DB, threadID uint) error {
	var last models.Post
	err := tx.Where("thread_id = ?", threadID).Order("created_at DESC, id DESC").First(&last).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return tx.Model(&models.Thread{}).Where("id = ?", threadID).Updates(map[string]any{
			"last_post_id":    nil,
			"last_post_by_id": nil,
			"last_post_at":    nil,
		}).Error
	case err != nil:
		return err
	}
	return tx.Model(&models.Thread{}).Where("id = ?", threadID).Updates(map[string]any{
		"last_post_id":    last.ID,
		"last_post_by_id": last.AuthorID,
		"last_post_at":    last.CreatedAt,
	}).Error
}

// withPostDetails adds like count and viewer liked status in a single query.
func withPostDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS like_count"

	db = db.Model(&models.Post{})
	if viewerID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) AS liked", viewerID)
	}
	return db.Select(selectQuery + ", false AS liked")
}
