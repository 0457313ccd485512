package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/tradechat/internal/models"
	"github.com/saeid-a/tradechat/internal/repository"
	"github.com/saeid-a/tradechat/internal/validator"
)

type UserHandler struct {
	users *repository.UserRepository
}

func NewUserHandler(users *repository.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Search(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Query parameter q is required")
	}

	users, err := h.users.Search(c.Context(), query)
	if err != nil {
		return mapRepositoryError(c, err, "User not found")
	}
	return c.JSON(users)
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid user id")
	}

	user, err := h.users.GetByID(c.Context(), id)
	if err != nil {
		return mapRepositoryError(c, err, "User not found")
	}
	return c.JSON(user)
}

// Update replaces the caller's own profile fields.
func (h *UserHandler) Update(c *fiber.Ctx) error {
	me, ok := currentUserID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid token")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid user id")
	}
	if id != me {
		return errorResponse(c, fiber.StatusForbidden, "Forbidden")
	}

	var req models.User
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.ID = id
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	v := validator.New()
	models.ValidateEmail(v, req.Email)
	v.Check(req.Name != "", "name", "must be provided")
	if !v.Valid() {
		return failedValidation(c, v)
	}

	if err := h.users.UpdateUser(c.Context(), &req); err != nil {
		return mapRepositoryError(c, err, "User not found")
	}
	return c.JSON(req)
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	me, ok := currentUserID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid token")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid user id")
	}
	if id != me {
		return errorResponse(c, fiber.StatusForbidden, "Forbidden")
	}

	if err := h.users.DeleteUser(c.Context(), id); err != nil {
		return mapRepositoryError(c, err, "User not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
