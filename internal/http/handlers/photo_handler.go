package handlers

import (
	"errors"

	applog "bricpa/internal/log"
	"bricpa/internal/photos"
	"bricpa/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type PhotoHandler struct {
	Photos photos.Store
}

// Serve streams one stored photo; unknown or malformed names are 404.
func (h *PhotoHandler) Serve(c *fiber.Ctx) error {
	name, ok := validate.PhotoName(c.Params("name"))
	if !ok {
		applog.Security(c, "photo.name.block", map[string]any{"name": c.Params("name")})
		return c.SendStatus(fiber.StatusNotFound)
	}
	rc, ct, err := h.Photos.Open(c.UserContext(), name)
	if errors.Is(err, photos.ErrNotFound) {
		return c.SendStatus(fiber.StatusNotFound)
	}
	if err != nil {
		applog.Error(c, "photo.open", err, map[string]any{"name": name})
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	c.Set(fiber.HeaderContentType, ct)
	c.Set(fiber.HeaderCacheControl, "private, max-age=86400")
	return c.SendStream(rc)
}
