package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/tradechat/internal/models"
	"github.com/saeid-a/tradechat/internal/repository"
)

type ConversationHandler struct {
	conversations *repository.ConversationRepository
	messages      *repository.MessageRepository
}

func NewConversationHandler(conversations *repository.ConversationRepository, messages *repository.MessageRepository) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		messages:      messages,
	}
}

// List handles GET /v1/conversations?userId=&expanded=. Callers may only list
// their own conversations.
func (h *ConversationHandler) List(c *fiber.Ctx) error {
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

	conversations, err := h.conversations.ListForUser(c.Context(), me, c.QueryBool("expanded", false))
	if err != nil {
		return mapRepositoryError(c, err, "Conversation not found")
	}
	return c.JSON(conversations)
}

func (h *ConversationHandler) Create(c *fiber.Ctx) error {
	me, ok := currentUserID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid token")
	}

	var req models.PostConversationDto
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if len(req.ParticipantIDs) != 2 || req.ParticipantIDs[0] == req.ParticipantIDs[1] {
		return errorResponse(c, fiber.StatusBadRequest, "Conversation needs two distinct participants")
	}
	if req.ParticipantIDs[0] != me && req.ParticipantIDs[1] != me {
		return errorResponse(c, fiber.StatusForbidden, "Forbidden")
	}

	conversation, created, err := h.conversations.CreateOrGet(c.Context(), req.ParticipantIDs[0], req.ParticipantIDs[1])
	if err != nil {
		return mapRepositoryError(c, err, "Participant not found")
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(conversation)
}

func (h *ConversationHandler) Messages(c *fiber.Ctx) error {
	me, ok := currentUserID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid token")
	}
	conversationID, ok := parseIDParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid conversation id")
	}

	member, err := h.conversations.IsParticipant(c.Context(), conversationID, me)
	if err != nil {
		return mapRepositoryError(c, err, "Conversation not found")
	}
	if !member {
		return errorResponse(c, fiber.StatusForbidden, "Forbidden")
	}

	messages, err := h.messages.ListByConversation(c.Context(), conversationID)
	if err != nil {
		return mapRepositoryError(c, err, "Conversation not found")
	}
	return c.JSON(messages)
}

func (h *ConversationHandler) GetMessage(c *fiber.Ctx) error {
	me, ok := currentUserID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid token")
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid message id")
	}

	message, err := h.messages.GetByID(c.Context(), id)
	if err != nil {
		return mapRepositoryError(c, err, "Message not found")
	}
	member, err := h.conversations.IsParticipant(c.Context(), message.ConversationID, me)
	if err != nil {
		return mapRepositoryError(c, err, "Message not found")
	}
	if !member {
		return errorResponse(c, fiber.StatusForbidden, "Forbidden")
	}
	return c.JSON(message)
}
