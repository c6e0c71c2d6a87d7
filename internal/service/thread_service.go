package service

import (
	"context"
	"log/slog"

	"kasinoforum/internal/cache"
	"kasinoforum/internal/models"
	"kasinoforum/internal/observability"
	"kasinoforum/internal/repository"
	"kasinoforum/internal/textutil"
)

const (
	defaultThreadPageSize = 20
	maxThreadPageSize     = 100
	// fallbackThreadSlug is used when a title has no sluggable characters.
	fallbackThreadSlug = "trad"
)

// ThreadService manages thread lifecycle: creation with a first post,
// moderation flags, deletion and listings.
type ThreadService struct {
	threads repository.ThreadRepository
	posts   repository.PostRepository
	cache   *cache.Store
}

type CreateThreadInput struct {
	CategoryID uint
	Title      string
	Content    string
}

// ThreadPage is one page of a thread listing.
type ThreadPage struct {
	Threads []*models.Thread `json:"threads"`
	Total   int64            `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

func NewThreadService(threads repository.ThreadRepository, posts repository.PostRepository, store *cache.Store) *ThreadService {
	return &ThreadService{threads: threads, posts: posts, cache: store}
}

// Create opens a thread whose body becomes its first post. The slug is
// derived from the title and disambiguated on collision.
func (s *ThreadService) Create(ctx context.Context, caller *models.Caller, in CreateThreadInput) (_ *models.Thread, _ *models.Post, err error) {
	ctx, done := begin(ctx, "thread.create")
	defer done(&err)

	if err := requireAuth(caller); err != nil {
		return nil, nil, err
	}
	if in.CategoryID == 0 {
		return nil, nil, models.NewValidationError("Category is required")
	}
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, nil, err
	}
	content, err := validateContent(in.Content)
	if err != nil {
		return nil, nil, err
	}

	slug, err := s.uniqueSlug(ctx, title)
	if err != nil {
		return nil, nil, err
	}

	thread := &models.Thread{
		Title:      title,
		Slug:       slug,
		CategoryID: in.CategoryID,
		AuthorID:   caller.UserID,
	}
	post := &models.Post{Content: content, AuthorID: caller.UserID}

	err = s.threads.Create(ctx, thread, post)
	if models.IsCode(err, models.CodeConflict) {
		// Another thread took the slug between the check and the insert.
		thread.ID = 0
		post.ID = 0
		thread.Slug = textutil.WithSuffix(slugBase(title))
		err = s.threads.Create(ctx, thread, post)
	}
	if err != nil {
		return nil, nil, err
	}

	s.cache.Invalidate(ctx, cache.CategoryListKey, cache.UserProfileKey(caller.UserID))

	created, err := s.threads.GetByID(ctx, thread.ID)
	if err != nil {
		return nil, nil, err
	}
	return decorateThread(created), post, nil
}

func slugBase(title string) string {
	if slug := textutil.Slugify(title); slug != "" {
		return slug
	}
	return fallbackThreadSlug
}

func (s *ThreadService) uniqueSlug(ctx context.Context, title string) (string, error) {
	slug := slugBase(title)
	taken, err := s.threads.SlugExists(ctx, slug)
	if err != nil {
		return "", err
	}
	if taken {
		return textutil.WithSuffix(slug), nil
	}
	return slug, nil
}

func (s *ThreadService) GetByID(ctx context.Context, id uint) (*models.Thread, error) {
	thread, err := s.threads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return decorateThread(thread), nil
}

func (s *ThreadService) GetBySlug(ctx context.Context, slug string) (*models.Thread, error) {
	thread, err := s.threads.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return decorateThread(thread), nil
}

// List returns a page of threads. Sticky threads come first in every sort.
func (s *ThreadService) List(ctx context.Context, filter models.ThreadFilter) (*ThreadPage, error) {
	sort, err := models.ParseThreadSort(string(filter.Sort))
	if err != nil {
		return nil, err
	}
	filter.Sort = sort
	if filter.Limit <= 0 {
		filter.Limit = defaultThreadPageSize
	}
	filter.Limit = min(filter.Limit, maxThreadPageSize)
	filter.Offset = max(filter.Offset, 0)

	threads, total, err := s.threads.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, t := range threads {
		decorateThread(t)
	}
	return &ThreadPage{Threads: threads, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// Update changes the title of a thread. The slug is kept so links stay valid.
func (s *ThreadService) Update(ctx context.Context, caller *models.Caller, id uint, title string) (_ *models.Thread, err error) {
	ctx, done := begin(ctx, "thread.update")
	defer done(&err)

	thread, err := s.threads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwnerOrStaff(caller, thread.AuthorID); err != nil {
		return nil, err
	}
	if thread.IsLocked && !caller.IsStaff() {
		return nil, errThreadLocked
	}
	if title, err = validateTitle(title); err != nil {
		return nil, err
	}

	if err := s.threads.UpdateTitle(ctx, id, title); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *ThreadService) Lock(ctx context.Context, caller *models.Caller, id uint, locked bool) (_ *models.Thread, err error) {
	ctx, done := begin(ctx, "thread.lock")
	defer done(&err)

	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	if err := s.threads.SetLocked(ctx, id, locked); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *ThreadService) Pin(ctx context.Context, caller *models.Caller, id uint, sticky bool) (_ *models.Thread, err error) {
	ctx, done := begin(ctx, "thread.pin")
	defer done(&err)

	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	if err := s.threads.SetSticky(ctx, id, sticky); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// AcceptAnswer marks postID as the accepted answer of the thread. Zero clears it.
func (s *ThreadService) AcceptAnswer(ctx context.Context, caller *models.Caller, threadID, postID uint) (_ *models.Thread, err error) {
	ctx, done := begin(ctx, "thread.accept")
	defer done(&err)

	thread, err := s.threads.GetByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if err := requireOwnerOrStaff(caller, thread.AuthorID); err != nil {
		return nil, err
	}
	if thread.IsLocked && !caller.IsStaff() {
		return nil, errThreadLocked
	}

	var accepted *uint
	if postID != 0 {
		post, err := s.posts.GetByID(ctx, postID, 0)
		if err != nil {
			return nil, err
		}
		if post.ThreadID != threadID {
			return nil, models.NewValidationError("Post does not belong to this thread")
		}
		accepted = &post.ID
	}

	if err := s.threads.SetAcceptedPost(ctx, threadID, accepted); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, threadID)
}

// Delete removes a thread with all its posts. Authors may delete their own threads.
func (s *ThreadService) Delete(ctx context.Context, caller *models.Caller, id uint) (err error) {
	ctx, done := begin(ctx, "thread.delete")
	defer done(&err)

	thread, err := s.threads.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwnerOrStaff(caller, thread.AuthorID); err != nil {
		return err
	}
	authors, err := s.threads.Delete(ctx, id)
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, append(profileKeys(authors), cache.CategoryListKey)...)
	return nil
}

// IncrementView counts a thread view. Failures are logged and dropped.
func (s *ThreadService) IncrementView(ctx context.Context, id uint) {
	if err := s.threads.IncrementViews(ctx, id); err != nil {
		observability.ViewCountFailures.Inc()
		observability.GlobalLogger.WarnContext(ctx, "thread view increment failed",
			slog.Uint64("thread_id", uint64(id)),
			slog.String("error", err.Error()),
		)
	}
}

func decorateThread(t *models.Thread) *models.Thread {
	t.Excerpt = textutil.Excerpt(t.FirstPostContent)
	return t
}

func validateTitle(raw string) (string, error) {
	title := normalizeTitle(raw)
	if title == "" {
		return "", models.NewValidationError("Title is required")
	}
	if tooLong(title, maxTitleLen) {
		return "", models.NewValidationError("Title too long (max 200 characters)")
	}
	return title, nil
}

// validateContent checks and sanitizes rich-text content for storage.
func validateContent(raw string) (string, error) {
	if tooLong(raw, maxContentLen) {
		return "", models.NewValidationError("Content too long (max 50000 characters)")
	}
	content := textutil.SanitizeHTML(raw)
	if textutil.IsBlank(content) {
		return "", models.NewValidationError("Content is required")
	}
	return content, nil
}
