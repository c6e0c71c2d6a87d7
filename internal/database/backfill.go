package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kasinoforum/internal/observability"
	"kasinoforum/internal/models"
	"kasinoforum/internal/textutil"

	"gorm.io/gorm"
)

// MissingContentPlaceholder is the body given to backfilled first posts whose legacy content was empty.
const MissingContentPlaceholder = "<p>[Innehållet saknas]</p>"

const legacyContentColumn = "content"

// BackfillResult summarizes one BackfillFirstPosts run.
type BackfillResult struct {
	PostsCreated     int
	PointersRepaired int
	ColumnDropped    bool
}

type legacyThread struct {
	ID        uint
	AuthorID  uint
	Content   *string
	CreatedAt time.Time
}

// Upgrade brings a legacy store to the current schema and then backfills first
// posts. BackfillFirstPosts alone expects the last-post columns to exist.
func Upgrade(ctx context.Context, db *gorm.DB) (BackfillResult, error) {
	if err := Migrate(ctx, db); err != nil {
		return BackfillResult{}, fmt.Errorf("migrate before backfill: %w", err)
	}
	return BackfillFirstPosts(ctx, db)
}

// BackfillFirstPosts repairs stores created before thread bodies moved into first posts.
// When the legacy threads.content column exists, every thread without posts gets a first
// post built from that column and the column is dropped. Threads that have posts but no
// last-post pointer get it recomputed. Running it again is a no-op.
func BackfillFirstPosts(ctx context.Context, db *gorm.DB) (BackfillResult, error) {
	var result BackfillResult

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Migrator().HasColumn(&models.Thread{}, legacyContentColumn) {
			created, err := createMissingFirstPosts(tx)
			if err != nil {
				return err
			}
			result.PostsCreated = created

			// the sqlite migrator's table rebuild misses unquoted legacy columns
			if err := tx.Exec("ALTER TABLE threads DROP COLUMN " + legacyContentColumn).Error; err != nil {
				return fmt.Errorf("drop threads.%s: %w", legacyContentColumn, err)
			}
			if tx.Migrator().HasColumn(&models.Thread{}, legacyContentColumn) {
				return fmt.Errorf("drop threads.%s: column still present", legacyContentColumn)
			}
			result.ColumnDropped = true
		}

		repaired, err := repairLastPostPointers(tx)
		if err != nil {
			return err
		}
		result.PointersRepaired = repaired
		return nil
	})
	if err != nil {
		return BackfillResult{}, err
	}

	observability.GlobalLogger.InfoContext(ctx, "first post backfill finished",
		slog.Int("posts_created", result.PostsCreated),
		slog.Int("pointers_repaired", result.PointersRepaired),
		slog.Bool("column_dropped", result.ColumnDropped),
	)
	return result, nil
}

func createMissingFirstPosts(tx *gorm.DB) (int, error) {
	var orphans []legacyThread
	err := tx.Raw(`SELECT t.id, t.author_id, t.content, t.created_at FROM threads t
		WHERE NOT EXISTS (SELECT 1 FROM posts p WHERE p.thread_id = t.id)
		ORDER BY t.id`).Scan(&orphans).Error
	if err != nil {
		return 0, fmt.Errorf("find threads without posts: %w", err)
	}

	for _, t := range orphans {
		content := MissingContentPlaceholder
		if t.Content != nil && !textutil.IsBlank(*t.Content) {
			content = textutil.SanitizeHTML(*t.Content)
		}

		post := models.Post{
			Content:   content,
			AuthorID:  t.AuthorID,
			ThreadID:  t.ID,
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.CreatedAt,
		}
		if err := tx.Create(&post).Error; err != nil {
			return 0, fmt.Errorf("create first post for thread %d: %w", t.ID, err)
		}
	}
	return len(orphans), nil
}

func repairLastPostPointers(tx *gorm.DB) (int, error) {
	var threadIDs []uint
	err := tx.Model(&models.Thread{}).
		Where("last_post_id IS NULL").
		Where("EXISTS (SELECT 1 FROM posts WHERE posts.thread_id = threads.id)").
		Pluck("id", &threadIDs).Error
	if err != nil {
		return 0, fmt.Errorf("find threads without last post: %w", err)
	}

	for _, id := range threadIDs {
		var last models.Post
		if err := tx.Where("thread_id = ?", id).
			Order("created_at DESC, id DESC").
			First(&last).Error; err != nil {
			return 0, fmt.Errorf("load last post of thread %d: %w", id, err)
		}
		if err := tx.Model(&models.Thread{}).Where("id = ?", id).Updates(map[string]any{
			"last_post_id":    last.ID,
			"last_post_by_id": last.AuthorID,
			"last_post_at":    last.CreatedAt,
		}).Error; err != nil {
			return 0, fmt.Errorf("repair last post of thread %d: %w", id, err)
		}
	}
	return len(threadIDs), nil
}
