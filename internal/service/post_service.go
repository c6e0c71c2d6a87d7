package service

import (
	"context"

	"kasinoforum/internal/cache"
	"kasinoforum/internal/models"
	"kasinoforum/internal/repository"
)

const (
	defaultPostPageSize = 30
	maxPostPageSize     = 100
)

// PostService manages replies within threads and enforces thread locks.
type PostService struct {
	posts   repository.PostRepository
	threads repository.ThreadRepository
	cache   *cache.Store
}

// PostPage is one page of a thread's posts.
type PostPage struct {
	Posts  []*models.Post `json:"posts"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

func NewPostService(posts repository.PostRepository, threads repository.ThreadRepository, store *cache.Store) *PostService {
	return &PostService{posts: posts, threads: threads, cache: store}
}

// Create adds a reply. Locked threads accept no new posts, whoever asks.
func (s *PostService) Create(ctx context.Context, caller *models.Caller, threadID uint, content string) (_ *models.Post, err error) {
	ctx, done := begin(ctx, "post.create")
	defer done(&err)

	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	content, err = validateContent(content)
	if err != nil {
		return nil, err
	}

	post := &models.Post{Content: content, AuthorID: caller.UserID, ThreadID: threadID}
	err = s.posts.Create(ctx, post, func(thread *models.Thread) error {
		if thread.IsLocked {
			return errThreadLocked
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.UserProfileKey(caller.UserID))
	return s.posts.GetByID(ctx, post.ID, caller.UserID)
}

// Update replaces post content. Only the author or staff may edit, and never
// while the thread is locked.
func (s *PostService) Update(ctx context.Context, caller *models.Caller, id uint, content string) (_ *models.Post, err error) {
	ctx, done := begin(ctx, "post.update")
	defer done(&err)

	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	content, err = validateContent(content)
	if err != nil {
		return nil, err
	}

	err = s.posts.Update(ctx, id, content, func(post *models.Post, thread *models.Thread) error {
		if thread.IsLocked {
			return errThreadLocked
		}
		if !caller.Owns(post.AuthorID) && !caller.IsStaff() {
			return errNotOwner
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.posts.GetByID(ctx, id, caller.UserID)
}

// Delete removes a post with its likes and reports. Staff may delete from
// locked threads; authors may not.
func (s *PostService) Delete(ctx context.Context, caller *models.Caller, id uint) (err error) {
	ctx, done := begin(ctx, "post.delete")
	defer done(&err)

	if err := requireAuth(caller); err != nil {
		return err
	}

	deleted, err := s.posts.Delete(ctx, id, func(post *models.Post, thread *models.Thread) error {
		if thread.IsLocked && !caller.IsStaff() {
			return errThreadLocked
		}
		if !caller.Owns(post.AuthorID) && !caller.IsStaff() {
			return errNotOwner
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, cache.UserProfileKey(deleted.AuthorID))
	return nil
}

// ListByThread returns posts oldest first; viewer may be nil.
func (s *PostService) ListByThread(ctx context.Context, viewer *models.Caller, threadID uint, limit, offset int) (*PostPage, error) {
	if _, err := s.threads.GetByID(ctx, threadID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultPostPageSize
	}
	limit = min(limit, maxPostPageSize)
	offset = max(offset, 0)

	var viewerID uint
	if viewer.Authenticated() {
		viewerID = viewer.UserID
	}

	posts, total, err := s.posts.ListByThread(ctx, threadID, limit, offset, viewerID)
	if err != nil {
		return nil, err
	}
	return &PostPage{Posts: posts, Total: total, Limit: limit, Offset: offset}, nil
}
