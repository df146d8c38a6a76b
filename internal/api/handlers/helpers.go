package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/socialdesk/internal/models"
	"github.com/maheshrc27/socialdesk/internal/service"
)

func GetUserID(c *fiber.Ctx) int64 {
	userID, _ := c.Locals("user_id").(int64)
	return userID
}

func GetUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

// paramID reads a positive integer route parameter. Anything else is reported
// as not found so ids cannot be enumerated.
func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, service.ErrNotFound
	}
	return id, nil
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": message,
	})
}

// respondError maps service errors to HTTP responses. Unknown errors are
// logged and hidden behind a generic message.
func respondError(c *fiber.Ctx, err error) error {
	var validation *service.ValidationError
	switch {
	case errors.As(err, &validation):
		return badRequest(c, validation.Msg)
	case errors.Is(err, service.ErrInvalidCredentials):
		return badRequest(c, "Invalid credentials")
	case errors.Is(err, service.ErrConflict):
		return badRequest(c, "User already exists")
	case errors.Is(err, service.ErrImmutable):
		return badRequest(c, "Cannot modify published post")
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Not found",
		})
	}

	slog.Error(err.Error(), "method", c.Method(), "path", c.Path())
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Server error",
	})
}

// ErrorHandler is the app-wide fallback for errors returned by handlers and
// middleware. A body over the app limit is an oversized upload and gets the
// same 400 the upload service returns.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code == fiber.StatusRequestEntityTooLarge {
			return badRequest(c, service.FileTooLargeMessage)
		}
		return c.Status(fe.Code).JSON(fiber.Map{
			"message": fe.Message,
		})
	}
	return respondError(c, err)
}
