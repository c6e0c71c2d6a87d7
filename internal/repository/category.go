package repository

import (
	"context"

	"kasinoforum/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository defines the interface for forum category data operations
type CategoryRepository interface {
	Create(ctx context.Context, category *models.ForumCategory) error
	GetByID(ctx context.Context, id uint) (*models.ForumCategory, error)
	GetBySlug(ctx context.Context, slug string) (*models.ForumCategory, error)
	List(ctx context.Context) ([]*models.ForumCategory, error)
	Update(ctx context.Context, category *models.ForumCategory) error
	Delete(ctx context.Context, id uint) ([]uint, error)
}

type categoryRepository struct {
	base
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB, opts ...Option) CategoryRepository {
	return &categoryRepository{base: newBase(db, opts)}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.ForumCategory) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return translate(db.Create(category).Error, "Category", category.Slug)
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.ForumCategory, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var category models.ForumCategory
	if err := withThreadCount(db).First(&category, id).Error; err != nil {
		return nil, translate(err, "Category", id)
	}
	return &category, nil
}

func (r *categoryRepository) GetBySlug(ctx context.Context, slug string) (*models.ForumCategory, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var category models.ForumCategory
	if err := withThreadCount(db).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, translate(err, "Category", slug)
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]*models.ForumCategory, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var categories []*models.ForumCategory
	err := withThreadCount(db).
		Order("sort_order ASC, name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, translate(err, "Category", nil)
	}
	return categories, nil
}

// Update persists slug, name, description and order of an existing category.
func (r *categoryRepository) Update(ctx context.Context, category *models.ForumCategory) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	res := db.Model(&models.ForumCategory{}).
		Where("id = ?", category.ID).
		Select("Slug", "Name", "Description", "Order").
		Updates(category)
	if res.Error != nil {
		return translate(res.Error, "Category", category.Slug)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Category", category.ID)
	}
	return nil
}

// Delete removes a category together with its threads, their posts, and
// everything hanging off those posts, in one transaction. It returns the
// users who authored any removed thread or post.
func (r *categoryRepository) Delete(ctx context.Context, id uint) ([]uint, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var authors []uint
	err := db.Transaction(func(tx *gorm.DB) error {
		var category models.ForumCategory
		if err := forUpdate(tx).Select("id").First(&category, id).Error; err != nil {
			return err
		}

		threadIDs := tx.Model(&models.Thread{}).Select("id").Where("category_id = ?", id)
		var err error
		if authors, err = deleteThreadContent(tx, threadIDs); err != nil {
			return err
		}
		if err := tx.Where("category_id = ?", id).Delete(&models.Thread{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ForumCategory{}, id).Error
	})
	if err != nil {
		return nil, translate(err, "Category", id)
	}
	return authors, nil
}

func withThreadCount(db *gorm.DB) *gorm.DB {
	return db.Model(&models.ForumCategory{}).Select(
		"forum_categories.*, " +
			"(SELECT COUNT(*) FROM threads WHERE threads.category_id = forum_categories.id) AS thread_count",
	)
}

// deleteThreadContent removes the reports, likes and posts of every thread
// selected by threadIDs and returns the distinct authors of those threads and
// posts. The threads themselves are left to the caller.
func deleteThreadContent(tx *gorm.DB, threadIDs *gorm.DB) ([]uint, error) {
	var threadAuthors, postAuthors []uint
	if err := tx.Model(&models.Thread{}).Where("id IN (?)", threadIDs).
		Distinct().Pluck("author_id", &threadAuthors).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.Post{}).Where("thread_id IN (?)", threadIDs).
		Distinct().Pluck("author_id", &postAuthors).Error; err != nil {
		return nil, err
	}

	postIDs := tx.Model(&models.Post{}).Select("id").Where("thread_id IN (?)", threadIDs)
	if err := tx.Where("post_id IN (?)", postIDs).Delete(&models.Report{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("post_id IN (?)", postIDs).Delete(&models.Like{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("thread_id IN (?)", threadIDs).Delete(&models.Post{}).Error; err != nil {
		return nil, err
	}
	return mergeIDs(threadAuthors, postAuthors), nil
}

func mergeIDs(lists ...[]uint) []uint {
	seen := make(map[uint]struct{})
	var out []uint
	for _, list := range lists {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
