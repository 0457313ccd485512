package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/tradechat/internal/models"
	"github.com/saeid-a/tradechat/internal/repository"
	"github.com/saeid-a/tradechat/internal/validator"
)

type OrderHandler struct {
	orders        *repository.OrderRepository
	conversations *repository.ConversationRepository
}

func NewOrderHandler(orders *repository.OrderRepository, conversations *repository.ConversationRepository) *OrderHandler {
	return &OrderHandler{
		orders:        orders,
		conversations: conversations,
	}
}

func (h *OrderHandler) List(c *fiber.Ctx) error {
	me, ok := currentUserID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid token")
	}
	if raw := c.Query("userId"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid userId")
		}
		if userID != me {
			return errorResponse(c, fiber.StatusForbidden, "Forbidden")
		}
	}

	orders, err := h.orders.ListForUser(c.Context(), me)
	if err != nil {
		return mapRepositoryError(c, err, "Order not found")
	}
	return c.JSON(orders)
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	me, ok := currentUserID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid token")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid order id")
	}
	allowed, err := h.canAccess(c.Context(), id, me)
	if err != nil {
		return mapRepositoryError(c, err, "Order not found")
	}
	if !allowed {
		return errorResponse(c, fiber.StatusForbidden, "Forbidden")
	}

	order, err := h.orders.GetByID(c.Context(), id)
	if err != nil {
		return mapRepositoryError(c, err, "Order not found")
	}
	return c.JSON(order)
}

// Create places an order in a conversation the caller takes part in. The
// anchor message is created with it.
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	me, ok := currentUserID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid token")
	}

	var req models.PostOrderDto
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	v := validator.New()
	if models.ValidatePostOrder(v, req); !v.Valid() {
		return failedValidation(c, v)
	}

	member, err := h.conversations.IsParticipant(c.Context(), req.ConversationID, me)
	if err != nil {
		return mapRepositoryError(c, err, "Conversation not found")
	}
	if !member {
		return errorResponse(c, fiber.StatusForbidden, "Forbidden")
	}

	order, _, err := h.orders.CreateOrder(c.Context(), me, req)
	if err != nil {
		return mapRepositoryError(c, err, "Conversation not found")
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

func (h *OrderHandler) Update(c *fiber.Ctx) error {
	me, ok := currentUserID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid token")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid order id")
	}

	var req models.PatchOrderDto
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	v := validator.New()
	if models.ValidatePatchOrder(v, req); !v.Valid() {
		return failedValidation(c, v)
	}
	allowed, err := h.canAccess(c.Context(), id, me)
	if err != nil {
		return mapRepositoryError(c, err, "Order not found")
	}
	if !allowed {
		return errorResponse(c, fiber.StatusForbidden, "Forbidden")
	}

	order, err := h.orders.UpdateOrder(c.Context(), id, req)
	if err != nil {
		return mapRepositoryError(c, err, "Order not found")
	}
	return c.JSON(order)
}

// canAccess reports whether userID takes part in the order's conversation.
func (h *OrderHandler) canAccess(ctx context.Context, orderID, userID int64) (bool, error) {
	conversationID, err := h.orders.ConversationID(ctx, orderID)
	if err != nil {
		return false, err
	}
	return h.conversations.IsParticipant(ctx, conversationID, userID)
}
