package server

import (
	"kasinoforum/internal/featureflags"
	"kasinoforum/internal/middleware"
	"kasinoforum/internal/models"
	"kasinoforum/internal/service"

	"github.com/gofiber/fiber/v2"
)

const defaultThreadLimit = 20

// ListThreads handles GET /api/forum/threads
// @Summary List threads
// @Description Sticky threads first, then by the chosen sort.
// @Tags threads
// @Produce json
// @Param categoryId query int false "Category ID"
// @Param authorId query int false "Author ID"
// @Param sort query string false "latest, newest or most-viewed"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset"
// @Success 200 {object} service.ThreadPage
// @Failure 400 {object} models.ErrorResponse
// @Router /threads [get]
func (s *Server) ListThreads(c *fiber.Ctx) error {
	filter := models.ThreadFilter{Sort: models.ThreadSort(c.Query("sort"))}

	var err error
	if filter.CategoryID, err = queryID(c, "categoryId"); err != nil {
		return nil
	}
	if filter.AuthorID, err = queryID(c, "authorId"); err != nil {
		return nil
	}
	if filter.Sticky, err = queryBool(c, "sticky"); err != nil {
		return nil
	}
	if filter.Locked, err = queryBool(c, "locked"); err != nil {
		return nil
	}
	page := parsePagination(c, defaultThreadLimit)
	filter.Limit, filter.Offset = page.Limit, page.Offset

	threads, err := s.threadService.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(threads)
}

// GetThread handles GET /api/forum/threads/:slug and counts the view.
// @Summary Get thread by slug
// @Tags threads
// @Produce json
// @Param slug path string true "Thread slug"
// @Success 200 {object} models.Thread
// @Failure 404 {object} models.ErrorResponse
// @Router /threads/{slug} [get]
func (s *Server) GetThread(c *fiber.Ctx) error {
	ctx := c.UserContext()
	thread, err := s.threadService.GetBySlug(ctx, c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}

	if s.featureFlags.Enabled(featureflags.ThreadViewCounter, callerID(c)) {
		s.threadService.IncrementView(ctx, thread.ID)
	}
	return c.JSON(thread)
}

// CreateThread handles POST /api/forum/threads
// @Summary Create thread
// @Description Creates the thread and its first post in one step.
// @Tags threads
// @Accept json
// @Produce json
// @Param request body object{categoryId=int,title=string,content=string} true "Thread"
// @Success 201 {object} object{thread=models.Thread,post=models.Post}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /threads [post]
func (s *Server) CreateThread(c *fiber.Ctx) error {
	var req struct {
		CategoryID uint   `json:"categoryId"`
		Title      string `json:"title"`
		Content    string `json:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	thread, post, err := s.threadService.Create(c.UserContext(), middleware.CallerFrom(c), service.CreateThreadInput{
		CategoryID: req.CategoryID,
		Title:      req.Title,
		Content:    req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"thread": thread,
		"post":   post,
	})
}

// UpdateThread handles PATCH /api/forum/threads/:id
// @Summary Edit thread title
// @Tags threads
// @Accept json
// @Produce json
// @Param id path int true "Thread ID"
// @Param request body object{title=string} true "New title"
// @Success 200 {object} models.Thread
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /threads/{id} [patch]
func (s *Server) UpdateThread(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Title string `json:"title"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	thread, err := s.threadService.Update(c.UserContext(), middleware.CallerFrom(c), id, req.Title)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(thread)
}

// LockThread handles POST /api/forum/threads/:id/lock
// @Summary Lock or unlock thread
// @Tags threads
// @Accept json
// @Produce json
// @Param id path int true "Thread ID"
// @Param request body object{locked=bool} true "Lock state"
// @Success 200 {object} models.Thread
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /threads/{id}/lock [post]
func (s *Server) LockThread(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Locked bool `json:"locked"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	thread, err := s.threadService.Lock(c.UserContext(), middleware.CallerFrom(c), id, req.Locked)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(thread)
}

// PinThread handles POST /api/forum/threads/:id/pin
// @Summary Pin or unpin thread
// @Tags threads
// @Accept json
// @Produce json
// @Param id path int true "Thread ID"
// @Param request body object{sticky=bool} true "Sticky state"
// @Success 200 {object} models.Thread
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /threads/{id}/pin [post]
func (s *Server) PinThread(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Sticky bool `json:"sticky"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	thread, err := s.threadService.Pin(c.UserContext(), middleware.CallerFrom(c), id, req.Sticky)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(thread)
}

// AcceptAnswer handles POST /api/forum/threads/:id/accept. A null postId clears the answer.
// @Summary Accept answer
// @Tags threads
// @Accept json
// @Produce json
// @Param id path int true "Thread ID"
// @Param request body object{postId=int} true "Post ID or null"
// @Success 200 {object} models.Thread
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /threads/{id}/accept [post]
func (s *Server) AcceptAnswer(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		PostID *uint `json:"postId"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	var postID uint
	if req.PostID != nil {
		postID = *req.PostID
	}
	thread, err := s.threadService.AcceptAnswer(c.UserContext(), middleware.CallerFrom(c), id, postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(thread)
}

// DeleteThread handles DELETE /api/forum/threads/:id
// @Summary Delete thread
// @Tags threads
// @Param id path int true "Thread ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /threads/{id} [delete]
func (s *Server) DeleteThread(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.threadService.Delete(c.UserContext(), middleware.CallerFrom(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
