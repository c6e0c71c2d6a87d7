package service

import (
	"context"
	"strings"
	"testing"

	"kasinoforum/internal/cache"
	"kasinoforum/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*cache.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewStore(client), mr
}

func TestCategoryService_Create_Validation(t *testing.T) {
	svc := NewCategoryService(noopCategoryRepo(), cache.NewStore(nil))
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateCategoryInput
	}{
		{"empty name", CreateCategoryInput{Name: "  ", Slug: "slots"}},
		{"long name", CreateCategoryInput{Name: strings.Repeat("a", maxCategoryLen+1), Slug: "slots"}},
		{"empty slug", CreateCategoryInput{Name: "Slots", Slug: " "}},
		{"unsluggable slug", CreateCategoryInput{Name: "Slots", Slug: "!!!"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, admin, tt.in)
			assertValidationError(t, err)
		})
	}
}

func TestCategoryService_Create_AdminOnly(t *testing.T) {
	repo := noopCategoryRepo()
	repo.createFn = func(_ context.Context, _ *models.ForumCategory) error {
		t.Fatal("repository must not be reached")
		return nil
	}
	svc := NewCategoryService(repo, cache.NewStore(nil))
	in := CreateCategoryInput{Name: "Slots", Slug: "slots"}

	_, err := svc.Create(context.Background(), anonymous, in)
	assertUnauthorizedError(t, err)
	_, err = svc.Create(context.Background(), moderator, in)
	assertForbiddenError(t, err)
}

func TestCategoryService_Create_NormalizesInput(t *testing.T) {
	var saved *models.ForumCategory
	repo := noopCategoryRepo()
	repo.createFn = func(_ context.Context, c *models.ForumCategory) error {
		saved = c
		return nil
	}
	svc := NewCategoryService(repo, cache.NewStore(nil))

	order := 3
	blank := "   "
	_, err := svc.Create(context.Background(), admin, CreateCategoryInput{
		Name: "  Sportbetting ", Slug: "Sport Betting", Description: &blank, Order: &order,
	})
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "Sportbetting", saved.Name)
	assert.Equal(t, "sport-betting", saved.Slug)
	assert.Nil(t, saved.Description)
	assert.Equal(t, 3, saved.Order)
}

func TestCategoryService_Create_ConflictMessage(t *testing.T) {
	repo := noopCategoryRepo()
	repo.createFn = func(_ context.Context, _ *models.ForumCategory) error {
		return models.NewConflictError("ForumCategory already exists")
	}
	svc := NewCategoryService(repo, cache.NewStore(nil))

	_, err := svc.Create(context.Background(), admin, CreateCategoryInput{Name: "Poker", Slug: "poker"})
	assertCode(t, err, models.CodeConflict)
	assert.Contains(t, err.Error(), "A category with slug poker already exists")
}

func TestCategoryService_ListIsCachedUntilWrite(t *testing.T) {
	store, mr := newRedisStore(t)
	calls := 0
	repo := noopCategoryRepo()
	repo.listFn = func(_ context.Context) ([]*models.ForumCategory, error) {
		calls++
		return []*models.ForumCategory{{ID: 1, Slug: "slots", Name: "Slots", ThreadCount: 2}}, nil
	}
	svc := NewCategoryService(repo, store)
	ctx := context.Background()

	first, err := svc.List(ctx)
	require.NoError(t, err)
	second, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, first[0].Slug, second[0].Slug)
	assert.Equal(t, int64(2), second[0].ThreadCount)
	assert.True(t, mr.Exists(cache.CategoryListKey))

	_, err = svc.Create(ctx, admin, CreateCategoryInput{Name: "Poker", Slug: "poker"})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.CategoryListKey))

	_, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCategoryService_Update_Patch(t *testing.T) {
	var saved *models.ForumCategory
	repo := noopCategoryRepo()
	repo.updateFn = func(_ context.Context, c *models.ForumCategory) error {
		saved = c
		return nil
	}
	svc := NewCategoryService(repo, cache.NewStore(nil))
	ctx := context.Background()

	name := "Slotmaskiner"
	got, err := svc.Update(ctx, moderator, 7, UpdateCategoryInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Slotmaskiner", got.Name)
	assert.Equal(t, "slots", saved.Slug)

	_, err = svc.Update(ctx, member, 7, UpdateCategoryInput{Name: &name})
	assertForbiddenError(t, err)

	empty := ""
	_, err = svc.Update(ctx, moderator, 7, UpdateCategoryInput{Name: &empty})
	assertValidationError(t, err)
}

func TestCategoryService_GetBySlug_InvalidIsNotFound(t *testing.T) {
	repo := noopCategoryRepo()
	repo.getBySlugFn = func(_ context.Context, _ string) (*models.ForumCategory, error) {
		t.Fatal("repository must not be reached")
		return nil, nil
	}
	svc := NewCategoryService(repo, cache.NewStore(nil))

	_, err := svc.GetBySlug(context.Background(), "Inte En Slug!")
	assertCode(t, err, models.CodeNotFound)
}
