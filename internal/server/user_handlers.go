package server

import (
	"strings"

	"kasinoforum/internal/middleware"
	"kasinoforum/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/forum/users/:id
// @Summary Get user profile
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.UserProfile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	profile, err := s.userService.Profile(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// SetUserRole handles PATCH /api/forum/users/:id/role
// @Summary Change user role
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body object{role=string} true "USER, MODERATOR or ADMIN"
// @Success 200 {object} models.UserProfile
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/role [patch]
func (s *Server) SetUserRole(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	role := models.Role(strings.ToUpper(strings.TrimSpace(req.Role)))
	if err := s.userService.SetRole(c.UserContext(), middleware.CallerFrom(c), id, role); err != nil {
		return respondError(c, err)
	}

	profile, err := s.userService.Profile(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}
