package server

import (
	"kasinoforum/internal/middleware"
	"kasinoforum/internal/service"

	"github.com/gofiber/fiber/v2"
)

type categoryRequest struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Order       *int    `json:"order"`
}

// ListCategories handles GET /api/forum/categories
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {array} models.ForumCategory
// @Router /categories [get]
func (s *Server) ListCategories(c *fiber.Ctx) error {
	categories, err := s.categoryService.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(categories)
}

// GetCategory handles GET /api/forum/categories/:slug
// @Summary Get category by slug
// @Tags categories
// @Produce json
// @Param slug path string true "Category slug"
// @Success 200 {object} models.ForumCategory
// @Failure 404 {object} models.ErrorResponse
// @Router /categories/{slug} [get]
func (s *Server) GetCategory(c *fiber.Ctx) error {
	category, err := s.categoryService.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(category)
}

// CreateCategory handles POST /api/forum/categories
// @Summary Create category
// @Tags categories
// @Accept json
// @Produce json
// @Param request body object{name=string,slug=string,description=string,order=int} true "Category"
// @Success 201 {object} models.ForumCategory
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /categories [post]
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	in := service.CreateCategoryInput{Description: req.Description, Order: req.Order}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Slug != nil {
		in.Slug = *req.Slug
	}

	category, err := s.categoryService.Create(c.UserContext(), middleware.CallerFrom(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// UpdateCategory handles PATCH /api/forum/categories/:id
// @Summary Update category
// @Tags categories
// @Accept json
// @Produce json
// @Param id path int true "Category ID"
// @Param request body object{name=string,slug=string,description=string,order=int} true "Fields to change"
// @Success 200 {object} models.ForumCategory
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /categories/{id} [patch]
func (s *Server) UpdateCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req categoryRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	category, err := s.categoryService.Update(c.UserContext(), middleware.CallerFrom(c), id, service.UpdateCategoryInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Order:       req.Order,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(category)
}

// DeleteCategory handles DELETE /api/forum/categories/:id and returns what was removed.
// @Summary Delete category
// @Description Deletes the category with its threads, posts, likes and reports.
// @Tags categories
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} models.ForumCategory
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /categories/{id} [delete]
func (s *Server) DeleteCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	category, err := s.categoryService.Delete(c.UserContext(), middleware.CallerFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(category)
}
