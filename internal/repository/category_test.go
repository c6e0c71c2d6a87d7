package repository

import (
	"context"
	"testing"

	"kasinoforum/internal/models"
	"kasinoforum/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRepository_CreateAndConflict(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.ForumCategory{Slug: "bordsspel", Name: "Bordsspel"}))
	err := repo.Create(ctx, &models.ForumCategory{Slug: "bordsspel", Name: "Bordsspel igen"})
	assert.True(t, models.IsCode(err, models.CodeConflict), "got %v", err)

	var count int64
	require.NoError(t, db.Model(&models.ForumCategory{}).Where("slug = ?", "bordsspel").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCategoryRepository_ListOrder(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	for _, c := range []models.ForumCategory{
		{Slug: "slots", Name: "Slots", Order: 2},
		{Slug: "poker", Name: "Poker", Order: 1},
		{Slug: "allmant", Name: "Allmänt", Order: 2},
	} {
		require.NoError(t, repo.Create(ctx, &c))
	}

	slots, err := repo.GetBySlug(ctx, "slots")
	require.NoError(t, err)
	author := testutil.CreateUser(t, db, models.RoleUser)
	testutil.CreateThread(t, db, slots, author)
	testutil.CreateThread(t, db, slots, author)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "poker", list[0].Slug)
	assert.Equal(t, "allmant", list[1].Slug)
	assert.Equal(t, "slots", list[2].Slug)
	assert.Equal(t, int64(2), list[2].ThreadCount)
	assert.Zero(t, list[0].ThreadCount)
}

func TestCategoryRepository_Update(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	a := &models.ForumCategory{Slug: "poker", Name: "Poker"}
	b := &models.ForumCategory{Slug: "slots", Name: "Slots"}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	desc := "Allt om texas hold'em"
	a.Name = "Poker & Texas"
	a.Description = &desc
	a.Order = 5
	require.NoError(t, repo.Update(ctx, a))

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Poker & Texas", got.Name)
	assert.Equal(t, 5, got.Order)
	require.NotNil(t, got.Description)
	assert.Equal(t, desc, *got.Description)

	b.Slug = "poker"
	err = repo.Update(ctx, b)
	assert.True(t, models.IsCode(err, models.CodeConflict), "got %v", err)

	err = repo.Update(ctx, &models.ForumCategory{ID: 9999, Slug: "ny", Name: "Ny"})
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)
}

func TestCategoryRepository_DeleteCascades(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCategoryRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, models.RoleUser)
	fan := testutil.CreateUser(t, db, models.RoleUser)
	doomed := testutil.CreateCategory(t, db)
	kept := testutil.CreateCategory(t, db)

	thread, post := testutil.CreateThread(t, db, doomed, author)
	reply := testutil.CreatePost(t, db, thread, fan)
	require.NoError(t, db.Create(&models.Like{UserID: fan.ID, PostID: post.ID}).Error)
	require.NoError(t, db.Create(&models.Report{Reason: "spam", PostID: reply.ID, UserID: author.ID}).Error)
	keptThread, keptPost := testutil.CreateThread(t, db, kept, author)
	require.NoError(t, db.Create(&models.Like{UserID: fan.ID, PostID: keptPost.ID}).Error)

	authors, err := repo.Delete(ctx, doomed.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{author.ID, fan.ID}, authors)
	_, err = repo.Delete(ctx, doomed.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	_, err = repo.GetByID(ctx, doomed.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	var threads, posts, likes, reports int64
	require.NoError(t, db.Model(&models.Thread{}).Count(&threads).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	require.NoError(t, db.Model(&models.Like{}).Count(&likes).Error)
	require.NoError(t, db.Model(&models.Report{}).Count(&reports).Error)
	assert.Equal(t, int64(1), threads)
	assert.Equal(t, int64(1), posts)
	assert.Equal(t, int64(1), likes)
	assert.Zero(t, reports)

	var survivor models.Thread
	require.NoError(t, db.First(&survivor, keptThread.ID).Error)
}
