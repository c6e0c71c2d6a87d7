package repository

import (
	"context"
	"errors"

	"kasinoforum/internal/models"

	"gorm.io/gorm"
)

// ReputationRule returns the reputation change for the author of post after
// a toggle that left the like in state liked.
type ReputationRule func(post *models.Post, liked bool) int

// ToggleOutcome is the result of one like toggle.
type ToggleOutcome struct {
	models.LikeResult
	AuthorID        uint
	ReputationDelta int
}

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	Toggle(ctx context.Context, userID, postID uint, rule ReputationRule) (*ToggleOutcome, error)
}

type likeRepository struct {
	base
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *gorm.DB, opts ...Option) LikeRepository {
	return &likeRepository{base: newBase(db, opts)}
}

// Toggle flips the like of userID on postID and applies the reputation change
// decided by rule in the same transaction. On PostgreSQL the post row and the
// author row are locked, so toggles on one post are serialised.
func (r *likeRepository) Toggle(ctx context.Context, userID, postID uint, rule ReputationRule) (*ToggleOutcome, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var out ToggleOutcome
	err := db.Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := forUpdate(tx).Select("id", "author_id", "thread_id").First(&post, postID).Error; err != nil {
			return err
		}

		var existing models.Like
		err := tx.Where("user_id = ? AND post_id = ?", userID, postID).Take(&existing).Error
		switch {
		case err == nil:
			if err := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{}).Error; err != nil {
				return err
			}
			out.Liked = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&models.Like{UserID: userID, PostID: postID}).Error; err != nil {
				return err
			}
			out.Liked = true
		default:
			return err
		}

		out.AuthorID = post.AuthorID
		if rule != nil {
			out.ReputationDelta = rule(&post, out.Liked)
		}
		if out.ReputationDelta != 0 {
			var author models.User
			if err := forUpdate(tx).Select("id").First(&author, post.AuthorID).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.User{}).Where("id = ?", post.AuthorID).
				UpdateColumn("reputation", gorm.Expr("reputation + ?", out.ReputationDelta)).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.Like{}).Where("post_id = ?", postID).Count(&out.LikeCount).Error
	})
	if err != nil {
		return nil, translate(err, "Post", postID)
	}
	return &out, nil
}
