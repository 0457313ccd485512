package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/tradechat/internal/middleware"
	"github.com/saeid-a/tradechat/internal/repository"
	"github.com/saeid-a/tradechat/internal/validator"
)

func errorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// failedValidation answers 422 with the field errors as the error object.
func failedValidation(c *fiber.Ctx, v *validator.Validator) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": v.Errors})
}

func currentUserID(c *fiber.Ctx) (int64, bool) {
	id, ok := c.Locals(middleware.LocalUserID).(int64)
	return id, ok && id > 0
}

func parseIDParam(c *fiber.Ctx, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func mapRepositoryError(c *fiber.Ctx, err error, notFound string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return errorResponse(c, fiber.StatusNotFound, notFound)
	case errors.Is(err, repository.ErrDuplicateEmail):
		v := validator.New()
		v.AddError("email", "a user with this email address already exists")
		return failedValidation(c, v)
	case errors.Is(err, repository.ErrSameUser):
		return errorResponse(c, fiber.StatusBadRequest, "Conversation needs two distinct participants")
	default:
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to process request")
	}
}
