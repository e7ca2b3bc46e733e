package handlers

import (
	"fmt"
	"log/slog"

	"github.com/blackwealthexchange/bwe-auth/internal/middleware"
	"github.com/blackwealthexchange/bwe-auth/internal/services"
	"github.com/gofiber/fiber/v2"
)

// MediaHandler serves the profile image endpoints.
type MediaHandler struct {
	media *services.MediaService
	log   *slog.Logger
}

// NewMediaHandler creates a MediaHandler.
func NewMediaHandler(media *services.MediaService, log *slog.Logger) *MediaHandler {
	return &MediaHandler{media: media, log: log}
}

// UploadProfileImage accepts a multipart upload in the "file" field.
func (h *MediaHandler) UploadProfileImage(c *fiber.Ctx) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return respondError(c, h.log, services.ErrMissingSession)
	}

	header, err := c.FormFile("file")
	if err != nil {
		return respondError(c, h.log, fmt.Errorf("%w: missing file field", services.ErrInvalidUpload))
	}
	if header.Size > services.MaxProfileImageSize {
		return respondError(c, h.log, fmt.Errorf("%w: file exceeds 5 MiB", services.ErrInvalidUpload))
	}

	file, err := header.Open()
	if err != nil {
		return respondError(c, h.log, fmt.Errorf("open upload: %w", err))
	}
	defer file.Close()

	key, err := h.media.UploadProfileImage(c.UserContext(), claims, file)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Profile image uploaded",
		"key":     key,
	})
}

// ProfileImageURL returns a short-lived URL for the caller's profile image.
func (h *MediaHandler) ProfileImageURL(c *fiber.Ctx) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return respondError(c, h.log, services.ErrMissingSession)
	}

	url, err := h.media.ProfileImageURL(c.UserContext(), claims)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"url":       url,
		"expiresIn": int(services.ProfileImageURLTTL.Seconds()),
	})
}
