package service

import (
	"context"
	"strings"

	"kasinoforum/internal/cache"
	"kasinoforum/internal/models"
	"kasinoforum/internal/repository"
	"kasinoforum/internal/textutil"
)

// CategoryService manages the forum category registry.
type CategoryService struct {
	repo  repository.CategoryRepository
	cache *cache.Store
}

type CreateCategoryInput struct {
	Name        string
	Slug        string
	Description *string
	Order       *int
}

// UpdateCategoryInput is a partial update; nil fields are left unchanged.
// An empty Description clears it.
type UpdateCategoryInput struct {
	Name        *string
	Slug        *string
	Description *string
	Order       *int
}

func NewCategoryService(repo repository.CategoryRepository, store *cache.Store) *CategoryService {
	return &CategoryService{repo: repo, cache: store}
}

// List returns all categories by display order with their thread counts.
func (s *CategoryService) List(ctx context.Context) ([]*models.ForumCategory, error) {
	var categories []*models.ForumCategory
	err := s.cache.Aside(ctx, cache.CategoryListKey, &categories, cache.CategoryListTTL, func() error {
		var err error
		categories, err = s.repo.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*models.ForumCategory, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if !textutil.ValidSlug(slug) {
		return nil, models.NewNotFoundError("Category", slug)
	}
	return s.repo.GetBySlug(ctx, slug)
}

func (s *CategoryService) Create(ctx context.Context, caller *models.Caller, in CreateCategoryInput) (_ *models.ForumCategory, err error) {
	ctx, done := begin(ctx, "category.create")
	defer done(&err)

	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	name, err := validateCategoryName(in.Name)
	if err != nil {
		return nil, err
	}
	slug, err := validateCategorySlug(in.Slug)
	if err != nil {
		return nil, err
	}

	category := &models.ForumCategory{
		Name:        name,
		Slug:        slug,
		Description: normalizeDescription(in.Description),
	}
	if in.Order != nil {
		category.Order = *in.Order
	}

	if err := s.repo.Create(ctx, category); err != nil {
		if models.IsCode(err, models.CodeConflict) {
			return nil, models.NewConflictError("A category with slug " + slug + " already exists")
		}
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.CategoryListKey)
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, caller *models.Caller, id uint, in UpdateCategoryInput) (_ *models.ForumCategory, err error) {
	ctx, done := begin(ctx, "category.update")
	defer done(&err)

	if err := requireStaff(caller); err != nil {
		return nil, err
	}

	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if category.Name, err = validateCategoryName(*in.Name); err != nil {
			return nil, err
		}
	}
	if in.Slug != nil {
		if category.Slug, err = validateCategorySlug(*in.Slug); err != nil {
			return nil, err
		}
	}
	if in.Description != nil {
		category.Description = normalizeDescription(in.Description)
	}
	if in.Order != nil {
		category.Order = *in.Order
	}

	if err := s.repo.Update(ctx, category); err != nil {
		if models.IsCode(err, models.CodeConflict) {
			return nil, models.NewConflictError("A category with slug " + category.Slug + " already exists")
		}
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.CategoryListKey)
	return category, nil
}

// Delete removes a category and everything in it, returning what was deleted.
func (s *CategoryService) Delete(ctx context.Context, caller *models.Caller, id uint) (_ *models.ForumCategory, err error) {
	ctx, done := begin(ctx, "category.delete")
	defer done(&err)

	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	authors, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, append(profileKeys(authors), cache.CategoryListKey)...)
	return category, nil
}

func validateCategoryName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", models.NewValidationError("Name is required")
	}
	if tooLong(name, maxCategoryLen) {
		return "", models.NewValidationError("Name too long (max 120 characters)")
	}
	return name, nil
}

func validateCategorySlug(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", models.NewValidationError("Slug is required")
	}
	slug := textutil.Slugify(raw)
	if !textutil.ValidSlug(slug) {
		return "", models.NewValidationError("Invalid slug: " + raw)
	}
	return slug, nil
}

func normalizeDescription(raw *string) *string {
	if raw == nil {
		return nil
	}
	desc := strings.TrimSpace(*raw)
	if desc == "" {
		return nil
	}
	return &desc
}
