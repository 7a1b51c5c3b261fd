package server

import (
	"photoshare/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetTags handles GET /api/tags
func (s *Server) GetTags(c *fiber.Ctx) error {
	page := parsePagination(c, 50)

	tags, err := s.tagRepo.List(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tags)
}

// GetTagByText handles GET /api/tags/text/:text
func (s *Server) GetTagByText(c *fiber.Ctx) error {
	tag, err := s.tagRepo.GetByText(c.Context(), c.Params("text"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tag)
}

// GetTagByID handles GET /api/tags/:id
func (s *Server) GetTagByID(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	tag, err := s.tagRepo.GetByID(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tag)
}

// CreateTag handles POST /api/tags
func (s *Server) CreateTag(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	tag, err := s.tagRepo.Create(c.Context(), req.Text)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tag)
}

// ResolveTags handles POST /api/tags/resolve
// @Summary Resolve a tag string
// @Description Turn a comma-separated string into canonical tags, creating missing ones
// @Tags tags
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{tags=string} true "Comma-separated tags"
// @Success 200 {array} models.Tag
// @Router /tags/resolve [post]
func (s *Server) ResolveTags(c *fiber.Ctx) error {
	var req struct {
		Tags string `json:"tags"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	tags, err := s.tagRepo.Resolve(c.Context(), req.Tags)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tags)
}
