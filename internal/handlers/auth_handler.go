package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/tradechat/internal/models"
	"github.com/saeid-a/tradechat/internal/repository"
	"github.com/saeid-a/tradechat/internal/validator"
	"github.com/saeid-a/tradechat/pkg/utils"
)

type AuthHandler struct {
	users     *repository.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthHandler(users *repository.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		users:     users,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// Register handles POST /v1/users.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req models.PostUserDto
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	v := validator.New()
	if models.ValidatePostUser(v, req); !v.Valid() {
		return failedValidation(c, v)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to hash password")
	}

	user := models.User{
		Email:   req.Email,
		Name:    req.Name,
		Type:    req.Type,
		ImageID: req.ImageID,
	}
	if err := h.users.CreateUser(c.Context(), &user, hash); err != nil {
		return mapRepositoryError(c, err, "User not found")
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login handles POST /v1/tokens.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	v := validator.New()
	models.ValidateEmail(v, req.Email)
	v.Check(req.Password != "", "password", "must be provided")
	if !v.Valid() {
		return failedValidation(c, v)
	}

	user, hash, err := h.users.GetByEmail(c.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errorResponse(c, fiber.StatusUnauthorized, "Invalid email or password")
		}
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to look up user")
	}
	if !utils.CheckPassword(req.Password, hash) {
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid email or password")
	}

	signed, expiry, err := utils.GenerateToken(user.ID, int(user.Type), h.jwtSecret, h.tokenTTL)
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to generate token")
	}

	return c.Status(fiber.StatusCreated).JSON(models.TokenResponse{
		User:  *user,
		Token: models.Token{Token: signed, Expiry: expiry},
	})
}
