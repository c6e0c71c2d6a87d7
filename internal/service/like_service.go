package service

import (
	"context"

	"kasinoforum/internal/cache"
	"kasinoforum/internal/models"
	"kasinoforum/internal/repository"
)

// LikeService toggles likes and keeps author reputation in step with them.
type LikeService struct {
	likes repository.LikeRepository
	cache *cache.Store
}

func NewLikeService(likes repository.LikeRepository, store *cache.Store) *LikeService {
	return &LikeService{likes: likes, cache: store}
}

// Toggle likes or unlikes a post for the caller. The post author gains one
// reputation point per like and loses it on unlike; self-likes count for nothing.
func (s *LikeService) Toggle(ctx context.Context, caller *models.Caller, postID uint) (_ *models.LikeResult, err error) {
	ctx, done := begin(ctx, "like.toggle")
	defer done(&err)

	if err := requireAuth(caller); err != nil {
		return nil, err
	}

	out, err := s.likes.Toggle(ctx, caller.UserID, postID, reputationRule(caller.UserID))
	if err != nil {
		return nil, err
	}

	if out.ReputationDelta != 0 {
		s.cache.Invalidate(ctx, cache.UserProfileKey(out.AuthorID))
	}
	return &out.LikeResult, nil
}

func reputationRule(likerID uint) repository.ReputationRule {
	return func(post *models.Post, liked bool) int {
		if post.AuthorID == likerID {
			return 0
		}
		if liked {
			return 1
		}
		return -1
	}
}
