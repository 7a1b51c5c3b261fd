package server

import (
	"strconv"

	"photoshare/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AdminUpdatePost handles PUT /api/admin/posts/:id
// @Summary Update any post (admin)
// @Description Same surface as the owner update, plus an average rating override
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param rating query number false "Average rating override"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/posts/{id} [put]
func (s *Server) AdminUpdatePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	in, err := s.parseUpdateInput(c, postID)
	if err != nil {
		return respondError(c, err)
	}
	in.AsAdmin = true

	if queryHas(c, "rating") {
		override, parseErr := strconv.ParseFloat(c.Query("rating"), 64)
		if parseErr != nil || override < 1 || override > 5 {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Rating override must be a number between 1 and 5"))
		}
		in.RatingOverride = &override
	}

	post, err := s.postService.UpdatePost(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// AdminDeletePost handles DELETE /api/admin/posts/:id
func (s *Server) AdminDeletePost(c *fiber.Ctx) error {
	userID := currentUserID(c)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.DeletePost(c.Context(), userID, postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// BanUser handles POST /api/admin/users/:id/ban
// @Summary Ban a user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /admin/users/{id}/ban [post]
func (s *Server) BanUser(c *fiber.Ctx) error {
	return s.setBanned(c, true)
}

// UnbanUser handles POST /api/admin/users/:id/unban
func (s *Server) UnbanUser(c *fiber.Ctx) error {
	return s.setBanned(c, false)
}

func (s *Server) setBanned(c *fiber.Ctx, banned bool) error {
	actorID := currentUserID(c)
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.SetBanned(c.Context(), actorID, targetID, banned)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}
