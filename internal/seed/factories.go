package seed

import (
	"context"
	"fmt"
	"log"
	"strings"

	"kasinoforum/internal/cache"
	"kasinoforum/internal/models"
	"kasinoforum/internal/repository"
	"kasinoforum/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DemoExternalPrefix marks identities created by the demo seeder.
const DemoExternalPrefix = "demo|"

// DemoOptions sizes a demo population.
type DemoOptions struct {
	Users              int
	ThreadsPerCategory int
	RepliesPerThread   int
	MaxLikesPerPost    int
	Seed               int64
	DryRun             bool
}

// DemoResult counts what a demo run created.
type DemoResult struct {
	Users   int
	Threads int
	Posts   int
	Likes   int
}

// Factory writes demo content through the forum services so counters,
// last-post pointers and reputation stay consistent.
type Factory struct {
	db      *gorm.DB
	opts    DemoOptions
	faker   *gofakeit.Faker
	users   repository.UserRepository
	threads *service.ThreadService
	posts   *service.PostService
	likes   *service.LikeService
}

// NewFactory builds a Factory over db. A zero Seed gives a random population.
func NewFactory(db *gorm.DB, opts DemoOptions) *Factory {
	if opts.Users <= 0 {
		opts.Users = 10
	}
	if opts.ThreadsPerCategory < 0 {
		opts.ThreadsPerCategory = 0
	}
	if opts.RepliesPerThread < 0 {
		opts.RepliesPerThread = 0
	}
	if opts.MaxLikesPerPost < 0 {
		opts.MaxLikesPerPost = 0
	}

	store := cache.NewStore(nil)
	threadRepo := repository.NewThreadRepository(db)
	postRepo := repository.NewPostRepository(db)

	return &Factory{
		db:      db,
		opts:    opts,
		faker:   gofakeit.New(opts.Seed),
		users:   repository.NewUserRepository(db),
		threads: service.NewThreadService(threadRepo, postRepo, store),
		posts:   service.NewPostService(postRepo, threadRepo, store),
		likes:   service.NewLikeService(repository.NewLikeRepository(db), store),
	}
}

// Demo fills every existing category with threads, replies and likes.
func (f *Factory) Demo(ctx context.Context) (DemoResult, error) {
	var result DemoResult

	var categories []models.ForumCategory
	if err := f.db.WithContext(ctx).Order("sort_order ASC, id ASC").Find(&categories).Error; err != nil {
		return result, fmt.Errorf("load categories: %w", err)
	}
	if len(categories) == 0 {
		return result, fmt.Errorf("no categories to fill, seed categories first")
	}

	if f.opts.DryRun {
		threads := len(categories) * f.opts.ThreadsPerCategory
		log.Printf("[dry-run] would create %d users, %d threads, %d posts",
			f.opts.Users, threads, threads*(1+f.opts.RepliesPerThread))
		return result, nil
	}

	members := make([]*models.User, 0, f.opts.Users)
	for i := 0; i < f.opts.Users; i++ {
		user, err := f.users.EnsureFromIdentity(ctx, DemoExternalPrefix+f.faker.UUID(), f.faker.Username())
		if err != nil {
			return result, fmt.Errorf("create demo user: %w", err)
		}
		members = append(members, user)
	}
	result.Users = len(members)

	for _, category := range categories {
		for i := 0; i < f.opts.ThreadsPerCategory; i++ {
			author := f.pick(members)
			thread, first, err := f.threads.Create(ctx, callerOf(author), service.CreateThreadInput{
				CategoryID: category.ID,
				Title:      strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 8)), "."),
				Content:    f.faker.Paragraph(2, 3, 12, "\n\n"),
			})
			if err != nil {
				return result, fmt.Errorf("create thread in %s: %w", category.Slug, err)
			}
			result.Threads++
			result.Posts++

			created := []*models.Post{first}
			for r := 0; r < f.opts.RepliesPerThread; r++ {
				reply, err := f.posts.Create(ctx, callerOf(f.pick(members)), thread.ID, f.faker.Paragraph(1, 2, 10, "\n\n"))
				if err != nil {
					return result, fmt.Errorf("reply to thread %d: %w", thread.ID, err)
				}
				created = append(created, reply)
				result.Posts++
			}

			for _, post := range created {
				n, err := f.like(ctx, post, members)
				if err != nil {
					return result, err
				}
				result.Likes += n
			}
		}
	}

	return result, nil
}

// like has up to MaxLikesPerPost distinct members like post.
func (f *Factory) like(ctx context.Context, post *models.Post, members []*models.User) (int, error) {
	limit := f.opts.MaxLikesPerPost
	if limit > len(members) {
		limit = len(members)
	}
	if limit == 0 {
		return 0, nil
	}

	count := f.faker.Number(0, limit)
	start := f.faker.Number(0, len(members)-1)
	for i := 0; i < count; i++ {
		liker := members[(start+i)%len(members)]
		if _, err := f.likes.Toggle(ctx, callerOf(liker), post.ID); err != nil {
			return i, fmt.Errorf("like post %d: %w", post.ID, err)
		}
	}
	return count, nil
}

func (f *Factory) pick(members []*models.User) *models.User {
	return members[f.faker.Number(0, len(members)-1)]
}

func callerOf(user *models.User) *models.Caller {
	return &models.Caller{UserID: user.ID, Role: user.Role}
}
