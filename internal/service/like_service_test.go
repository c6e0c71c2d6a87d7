package service

import (
	"context"
	"testing"

	"kasinoforum/internal/cache"
	"kasinoforum/internal/models"
	"kasinoforum/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReputationRule(t *testing.T) {
	post := &models.Post{AuthorID: 1}

	assert.Equal(t, 1, reputationRule(2)(post, true))
	assert.Equal(t, -1, reputationRule(2)(post, false))
	assert.Equal(t, 0, reputationRule(1)(post, true))
	assert.Equal(t, 0, reputationRule(1)(post, false))
}

func TestLikeService_InvalidatesAuthorProfile(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	authorKey := cache.UserProfileKey(1)

	delta := 1
	repo := &likeRepoStub{toggleFn: func(_ context.Context, userID, postID uint, rule repository.ReputationRule) (*repository.ToggleOutcome, error) {
		return &repository.ToggleOutcome{
			LikeResult:      models.LikeResult{Liked: true, LikeCount: 1},
			AuthorID:        1,
			ReputationDelta: delta,
		}, nil
	}}
	svc := NewLikeService(repo, store)

	require.NoError(t, mr.Set(authorKey, `{"id":1}`))
	res, err := svc.Toggle(ctx, stranger, 10)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.False(t, mr.Exists(authorKey))

	delta = 0
	require.NoError(t, mr.Set(authorKey, `{"id":1}`))
	_, err = svc.Toggle(ctx, member, 10)
	require.NoError(t, err)
	assert.True(t, mr.Exists(authorKey))
}
