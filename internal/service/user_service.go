package service

import (
	"context"

	"kasinoforum/internal/cache"
	"kasinoforum/internal/models"
	"kasinoforum/internal/repository"
)

// UserService exposes the public reputation profile of forum members.
type UserService struct {
	users repository.UserRepository
	cache *cache.Store
}

func NewUserService(users repository.UserRepository, store *cache.Store) *UserService {
	return &UserService{users: users, cache: store}
}

func (s *UserService) Profile(ctx context.Context, id uint) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.cache.Aside(ctx, cache.UserProfileKey(id), &profile, cache.UserProfileTTL, func() error {
		p, err := s.users.Profile(ctx, id)
		if err != nil {
			return err
		}
		profile = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// SetRole changes the role of a user. Only admins may grant or revoke roles.
func (s *UserService) SetRole(ctx context.Context, caller *models.Caller, id uint, role models.Role) (err error) {
	ctx, done := begin(ctx, "user.role")
	defer done(&err)

	if err := requireAdmin(caller); err != nil {
		return err
	}
	if err := s.users.SetRole(ctx, id, role); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.UserProfileKey(id))
	return nil
}

func profileKeys(userIDs []uint) []string {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, cache.UserProfileKey(id))
	}
	return keys
}
