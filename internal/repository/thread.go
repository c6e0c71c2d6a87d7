package repository

import (
	"context"
	"errors"

	"kasinoforum/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ThreadRepository defines the interface for thread data operations
type ThreadRepository interface {
	Create(ctx context.Context, thread *models.Thread, firstPost *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Thread, error)
	GetBySlug(ctx context.Context, slug string) (*models.Thread, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, filter models.ThreadFilter) ([]*models.Thread, int64, error)
	UpdateTitle(ctx context.Context, id uint, title string) error
	SetLocked(ctx context.Context, id uint, locked bool) error
	SetSticky(ctx context.Context, id uint, sticky bool) error
	SetAcceptedPost(ctx context.Context, id uint, postID *uint) error
	Delete(ctx context.Context, id uint) ([]uint, error)
	IncrementViews(ctx context.Context, id uint) error
}

type threadRepository struct {
	base
}

// NewThreadRepository creates a new thread repository
func NewThreadRepository(db *gorm.DB, opts ...Option) ThreadRepository {
	return &threadRepository{base: newBase(db, opts)}
}

// Create inserts thread and its first post in one transaction and points the
// thread's last-post fields at that post.
func (r *threadRepository) Create(ctx context.Context, thread *models.Thread, firstPost *models.Post) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		var category models.ForumCategory
		if err := tx.Select("id").First(&category, thread.CategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Category", thread.CategoryID)
			}
			return err
		}

		if err := tx.Omit(clause.Associations).Create(thread).Error; err != nil {
			return err
		}

		firstPost.ThreadID = thread.ID
		firstPost.AuthorID = thread.AuthorID
		if err := tx.Omit(clause.Associations).Create(firstPost).Error; err != nil {
			return err
		}

		thread.LastPostID = &firstPost.ID
		thread.LastPostByID = &firstPost.AuthorID
		thread.LastPostAt = &firstPost.CreatedAt
		return tx.Model(&models.Thread{}).Where("id = ?", thread.ID).Updates(map[string]any{
			"last_post_id":    firstPost.ID,
			"last_post_by_id": firstPost.AuthorID,
			"last_post_at":    firstPost.CreatedAt,
		}).Error
	})
	return translate(err, "Thread", thread.Slug)
}

func (r *threadRepository) GetByID(ctx context.Context, id uint) (*models.Thread, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var thread models.Thread
	if err := withThreadDetails(db).First(&thread, id).Error; err != nil {
		return nil, translate(err, "Thread", id)
	}
	return &thread, nil
}

func (r *threadRepository) GetBySlug(ctx context.Context, slug string) (*models.Thread, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var thread models.Thread
	if err := withThreadDetails(db).Where("threads.slug = ?", slug).First(&thread).Error; err != nil {
		return nil, translate(err, "Thread", slug)
	}
	return &thread, nil
}

func (r *threadRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var count int64
	if err := db.Model(&models.Thread{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, translate(err, "Thread", slug)
	}
	return count > 0, nil
}

// List returns one page of threads matching filter plus the total match count.
// Sticky threads always sort ahead of the rest.
func (r *threadRepository) List(ctx context.Context, filter models.ThreadFilter) ([]*models.Thread, int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var total int64
	if err := applyThreadFilter(db.Model(&models.Thread{}), filter).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "Thread", nil)
	}

	query := applyThreadSort(applyThreadFilter(withThreadDetails(db), filter), filter.Sort)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var threads []*models.Thread
	if err := query.Find(&threads).Error; err != nil {
		return nil, 0, translate(err, "Thread", nil)
	}
	return threads, total, nil
}

func (r *threadRepository) UpdateTitle(ctx context.Context, id uint, title string) error {
	return r.updateColumn(ctx, id, "title", title)
}

func (r *threadRepository) SetLocked(ctx context.Context, id uint, locked bool) error {
	return r.updateColumn(ctx, id, "is_locked", locked)
}

func (r *threadRepository) SetSticky(ctx context.Context, id uint, sticky bool) error {
	return r.updateColumn(ctx, id, "is_sticky", sticky)
}

// SetAcceptedPost marks postID as the accepted answer; nil clears it.
func (r *threadRepository) SetAcceptedPost(ctx context.Context, id uint, postID *uint) error {
	return r.updateColumn(ctx, id, "accepted_post_id", postID)
}

func (r *threadRepository) updateColumn(ctx context.Context, id uint, column string, value any) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	res := db.Model(&models.Thread{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return translate(res.Error, "Thread", id)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Thread", id)
	}
	return nil
}

// Delete removes a thread with its posts and their likes and reports. It
// returns the thread author and every author of a removed post.
func (r *threadRepository) Delete(ctx context.Context, id uint) ([]uint, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var authors []uint
	err := db.Transaction(func(tx *gorm.DB) error {
		var thread models.Thread
		if err := forUpdate(tx).Select("id").First(&thread, id).Error; err != nil {
			return err
		}

		threadIDs := tx.Model(&models.Thread{}).Select("id").Where("id = ?", id)
		var err error
		if authors, err = deleteThreadContent(tx, threadIDs); err != nil {
			return err
		}
		return tx.Delete(&models.Thread{}, id).Error
	})
	if err != nil {
		return nil, translate(err, "Thread", id)
	}
	return authors, nil
}

// IncrementViews bumps the view counter in place. Lost updates are tolerated.
func (r *threadRepository) IncrementViews(ctx context.Context, id uint) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	res := db.Model(&models.Thread{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if res.Error != nil {
		return translate(res.Error, "Thread", id)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Thread", id)
	}
	return nil
}

// withThreadDetails selects the post count and first post body alongside each thread.
func withThreadDetails(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Thread{}).
		Select("threads.*, " +
			"(SELECT COUNT(*) FROM posts WHERE posts.thread_id = threads.id) AS post_count, " +
			"COALESCE((SELECT p.content FROM posts p WHERE p.thread_id = threads.id " +
			"ORDER BY p.created_at ASC, p.id ASC LIMIT 1), '') AS first_post_content").
		Preload("Category").
		Preload("Author").
		Preload("LastPostBy")
}

func applyThreadFilter(db *gorm.DB, f models.ThreadFilter) *gorm.DB {
	if f.CategoryID != nil {
		db = db.Where("threads.category_id = ?", *f.CategoryID)
	}
	if f.AuthorID != nil {
		db = db.Where("threads.author_id = ?", *f.AuthorID)
	}
	if f.Sticky != nil {
		db = db.Where("threads.is_sticky = ?", *f.Sticky)
	}
	if f.Locked != nil {
		db = db.Where("threads.is_locked = ?", *f.Locked)
	}
	return db
}

func applyThreadSort(db *gorm.DB, sort models.ThreadSort) *gorm.DB {
	db = db.Order("threads.is_sticky DESC")
	switch sort {
	case models.ThreadSortNewest:
		return db.Order("threads.created_at DESC, threads.id DESC")
	case models.ThreadSortMostViewed:
		return db.Order("threads.view_count DESC, threads.id DESC")
	default:
		return db.Order("COALESCE(threads.last_post_at, threads.created_at) DESC, threads.id DESC")
	}
}
