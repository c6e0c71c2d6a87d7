package server

import (
	"kasinoforum/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

const defaultPostLimit = 30

type contentRequest struct {
	Content string `json:"content"`
}

// ListPosts handles GET /api/forum/threads/:id/posts
// @Summary List posts in thread
// @Tags posts
// @Produce json
// @Param id path int true "Thread ID"
// @Param limit query int false "Page size" default(30)
// @Param offset query int false "Offset"
// @Success 200 {object} service.PostPage
// @Failure 404 {object} models.ErrorResponse
// @Router /threads/{id}/posts [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	threadID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultPostLimit)

	posts, err := s.postService.ListByThread(c.UserContext(), middleware.CallerFrom(c), threadID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /api/forum/threads/:id/posts
// @Summary Reply to thread
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Thread ID"
// @Param request body object{content=string} true "Reply"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /threads/{id}/posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	threadID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req contentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.Create(c.UserContext(), middleware.CallerFrom(c), threadID, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PATCH /api/forum/posts/:id
// @Summary Edit post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body object{content=string} true "New content"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id} [patch]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req contentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.Update(c.UserContext(), middleware.CallerFrom(c), id, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/forum/posts/:id
// @Summary Delete post
// @Tags posts
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.Delete(c.UserContext(), middleware.CallerFrom(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleLike handles POST /api/forum/posts/:id/like
// @Summary Like or unlike post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.LikeResult
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.likeService.Toggle(c.UserContext(), middleware.CallerFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
