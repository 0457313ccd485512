package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/tradechat/internal/middleware"
	"github.com/saeid-a/tradechat/internal/models"
	"github.com/saeid-a/tradechat/internal/repository"
	"github.com/saeid-a/tradechat/internal/validator"
)

type ItemHandler struct {
	items *repository.ItemRepository
}

func NewItemHandler(items *repository.ItemRepository) *ItemHandler {
	return &ItemHandler{items: items}
}

func (h *ItemHandler) List(c *fiber.Ctx) error {
	var supplierID int64
	if raw := c.Query("supplierId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid supplierId")
		}
		supplierID = id
	}

	items, err := h.items.List(c.Context(), supplierID)
	if err != nil {
		return mapRepositoryError(c, err, "Item not found")
	}
	return c.JSON(items)
}

func (h *ItemHandler) Get(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid item id")
	}

	item, err := h.items.GetByID(c.Context(), id)
	if err != nil {
		return mapRepositoryError(c, err, "Item not found")
	}
	return c.JSON(item)
}

// Create adds an item to the calling supplier's catalog.
func (h *ItemHandler) Create(c *fiber.Ctx) error {
	me, ok := currentUserID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid token")
	}
	if userType, _ := c.Locals(middleware.LocalUserType).(int); models.UserType(userType) != models.UserTypeSupplier {
		return errorResponse(c, fiber.StatusForbidden, "Only suppliers can manage items")
	}

	var req models.PostItemDto
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Unit = strings.ToLower(strings.TrimSpace(req.Unit))

	v := validator.New()
	if models.ValidatePostItem(v, req); !v.Valid() {
		return failedValidation(c, v)
	}

	item := models.Item{
		SupplierID: me,
		Unit:       req.Unit,
		Size:       req.Size,
		Name:       req.Name,
		ImageID:    req.ImageID,
	}
	if err := h.items.CreateItem(c.Context(), &item); err != nil {
		return mapRepositoryError(c, err, "Item not found")
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *ItemHandler) Update(c *fiber.Ctx) error {
	me, ok := currentUserID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid token")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid item id")
	}

	current, err := h.items.GetByID(c.Context(), id)
	if err != nil {
		return mapRepositoryError(c, err, "Item not found")
	}
	if current.SupplierID != me {
		return errorResponse(c, fiber.StatusForbidden, "Forbidden")
	}

	var req models.Item
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.ID = id
	req.Name = strings.TrimSpace(req.Name)
	req.Unit = strings.ToLower(strings.TrimSpace(req.Unit))

	v := validator.New()
	models.ValidatePostItem(v, models.PostItemDto{Unit: req.Unit, Size: req.Size, Name: req.Name, ImageID: req.ImageID})
	if !v.Valid() {
		return failedValidation(c, v)
	}

	if err := h.items.UpdateItem(c.Context(), &req); err != nil {
		return mapRepositoryError(c, err, "Item not found")
	}
	return c.JSON(req)
}

func (h *ItemHandler) Delete(c *fiber.Ctx) error {
	me, ok := currentUserID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid token")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid item id")
	}

	current, err := h.items.GetByID(c.Context(), id)
	if err != nil {
		return mapRepositoryError(c, err, "Item not found")
	}
	if current.SupplierID != me {
		return errorResponse(c, fiber.StatusForbidden, "Forbidden")
	}

	if err := h.items.DeleteItem(c.Context(), id); err != nil {
		return mapRepositoryError(c, err, "Item not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
