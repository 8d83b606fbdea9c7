package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"pointflow/internal/models"
	"pointflow/internal/services"
)

// respondOK wraps data in the success envelope.
func respondOK(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(models.ApiResponse{
		Success: true,
		Data:    data,
	})
}

// respondErr wraps a message in the failure envelope.
func respondErr(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(models.ApiResponse{
		Success: false,
		Error:   msg,
	})
}

// respondDomainErr maps the domain error taxonomy onto HTTP statuses.
// Unknown errors are logged and reported as a generic 500 so internals
// never leak to clients.
func respondDomainErr(c *fiber.Ctx, err error) error {
	var (
		validation *services.ValidationError
		quota      *services.QuotaExceededError
		upstream   *services.UpstreamError
		storage    *services.StorageError
	)

	switch {
	case errors.As(err, &validation):
		return respondErr(c, fiber.StatusBadRequest, validation.Msg)
	case errors.Is(err, services.ErrNotFound):
		return respondErr(c, fiber.StatusNotFound, "Not found")
	case errors.As(err, &quota):
		return respondErr(c, fiber.StatusTooManyRequests, quota.Error())
	case errors.Is(err, services.ErrEmptyProject):
		return respondErr(c, fiber.StatusBadRequest, "Project has no points to summarize")
	case errors.As(err, &upstream):
		log.Printf("❌ Upstream failure: %v", err)
		return respondErr(c, fiber.StatusBadGateway, "Summary generation failed. Please try again.")
	case errors.As(err, &storage):
		log.Printf("❌ Storage failure: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Internal server error")
	default:
		log.Printf("❌ Unhandled error: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Internal server error")
	}
}
