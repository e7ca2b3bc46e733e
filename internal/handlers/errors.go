package handlers

import (
	"errors"
	"log/slog"

	"github.com/blackwealthexchange/bwe-auth/internal/services"
	"github.com/blackwealthexchange/bwe-auth/internal/validator"
	"github.com/gofiber/fiber/v2"
)

// StatusFor maps a service error to an HTTP status. Unknown errors are 500.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidAccountType),
		errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrPasswordTooLong),
		errors.Is(err, services.ErrMissingField),
		errors.Is(err, services.ErrInvalidUpload),
		errors.Is(err, services.ErrInvalidResetToken):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrAccountExists):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrMissingSession),
		errors.Is(err, services.ErrInvalidSession):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbiddenRole):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	}

	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// respondError writes the error body. 500s are logged and never echo err to the client.
func respondError(c *fiber.Ctx, log *slog.Logger, err error) error {
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation failed", "fields": verr.Fields})
	}

	status := StatusFor(err)
	if status == fiber.StatusInternalServerError {
		log.ErrorContext(c.UserContext(), "request failed",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", requestID(c),
			"error", err,
		)
		return c.Status(status).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
