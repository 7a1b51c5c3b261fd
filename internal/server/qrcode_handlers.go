package server

import (
	"photoshare/internal/models"

	"github.com/gofiber/fiber/v2"
	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 256

// QRCode handles GET /api/qr?url=...
// @Summary Render a QR code
// @Description Encode the given URL as a PNG QR code for sharing
// @Tags qr
// @Produce png
// @Param url query string true "URL to encode"
// @Success 200 {file} binary
// @Failure 400 {object} models.ErrorResponse
// @Router /qr [get]
func (s *Server) QRCode(c *fiber.Ctx) error {
	url := c.Query("url")
	if url == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("url query parameter is required"))
	}

	png, err := qrcode.Encode(url, qrcode.Medium, qrImageSize)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not encode URL as QR code"))
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}
