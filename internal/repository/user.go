package repository

import (
	"context"
	"errors"
	"strings"

	"kasinoforum/internal/models"

	"gorm.io/gorm"
)

const maxUsernameLength = 100

// UserRepository defines the interface for user data operations
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	EnsureFromIdentity(ctx context.Context, externalID, displayName string) (*models.User, error)
	Profile(ctx context.Context, id uint) (*models.UserProfile, error)
	SetRole(ctx context.Context, id uint, role models.Role) error
}

type userRepository struct {
	base
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB, opts ...Option) UserRepository {
	return &userRepository{base: newBase(db, opts)}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		return nil, translate(err, "User", id)
	}
	return &user, nil
}

// EnsureFromIdentity returns the user bound to externalID, creating a USER
// on first sight. A changed display name is written back.
func (r *userRepository) EnsureFromIdentity(ctx context.Context, externalID, displayName string) (*models.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	named := strings.TrimSpace(displayName) != ""
	displayName = normalizeUsername(displayName, externalID)

	var user models.User
	err := db.Where("external_id = ?", externalID).First(&user).Error
	switch {
	case err == nil:
		// tokens without a name claim keep the stored username
		if named && displayName != user.Username {
			if err := db.Model(&user).Update("username", displayName).Error; err != nil {
				return nil, translate(err, "User", user.ID)
			}
		}
		return &user, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, translate(err, "User", externalID)
	}

	user = models.User{ExternalID: externalID, Username: displayName, Role: models.RoleUser}
	if err := db.Create(&user).Error; err != nil {
		if !isUniqueViolation(err) {
			return nil, translate(err, "User", externalID)
		}
		// Lost a first-login race; the other request created the row.
		if err := db.Where("external_id = ?", externalID).First(&user).Error; err != nil {
			return nil, translate(err, "User", externalID)
		}
	}
	return &user, nil
}

func (r *userRepository) Profile(ctx context.Context, id uint) (*models.UserProfile, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var profile models.UserProfile
	res := db.Model(&models.User{}).
		Select("users.id, users.username, users.role, users.reputation, users.created_at, "+
			"(SELECT COUNT(*) FROM threads WHERE threads.author_id = users.id) AS thread_count, "+
			"(SELECT COUNT(*) FROM posts WHERE posts.author_id = users.id) AS post_count").
		Where("users.id = ?", id).
		Limit(1).
		Scan(&profile)
	if res.Error != nil {
		return nil, translate(res.Error, "User", id)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("User", id)
	}
	return &profile, nil
}

func (r *userRepository) SetRole(ctx context.Context, id uint, role models.Role) error {
	if !role.Valid() {
		return models.NewValidationError("Invalid role: " + string(role))
	}

	db, cancel := r.conn(ctx)
	defer cancel()

	res := db.Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return translate(res.Error, "User", id)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

func normalizeUsername(name, externalID string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		name = "medlem-" + externalID
	}
	if r := []rune(name); len(r) > maxUsernameLength {
		name = string(r[:maxUsernameLength])
	}
	return name
}
