package handlers

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/tradechat/internal/middleware"
	"github.com/saeid-a/tradechat/internal/models"
	"github.com/saeid-a/tradechat/internal/repository"
	chatws "github.com/saeid-a/tradechat/internal/websocket"
	"github.com/saeid-a/tradechat/pkg/utils"
)

const maxMessageRunes = 4096

// ChatHandler serves /v1/chat and decides what each inbound event turns into.
type ChatHandler struct {
	hub           *chatws.Hub
	conversations *repository.ConversationRepository
	messages      *repository.MessageRepository
	orders        *repository.OrderRepository
	jwtSecret     string
}

func NewChatHandler(
	hub *chatws.Hub,
	conversations *repository.ConversationRepository,
	messages *repository.MessageRepository,
	orders *repository.OrderRepository,
	jwtSecret string,
) *ChatHandler {
	return &ChatHandler{
		hub:           hub,
		conversations: conversations,
		messages:      messages,
		orders:        orders,
		jwtSecret:     jwtSecret,
	}
}

func (h *ChatHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	c.Locals(middleware.LocalUserID, claims.UserID)
	c.Locals(middleware.LocalUserType, claims.UserType)
	return c.Next()
}

func (h *ChatHandler) HandleWebSocket(conn *websocket.Conn) {
	userID, _ := conn.Locals(middleware.LocalUserID).(int64)
	client := chatws.NewClient(h.hub, conn, userID)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump(h)
}

// ProcessEvent persists chat messages and echoes them to both participants,
// the sender included so it can reconcile its pending copy by clientKey.
// Order events are relayed to the other participant with the stored order.
func (h *ChatHandler) ProcessEvent(ctx context.Context, senderID int64, event models.Event) (*chatws.Delivery, error) {
	switch event.Type {
	case models.EventMessage:
		return h.processMessage(ctx, senderID, event)
	case models.EventOrderCreated, models.EventOrderUpdated:
		return h.processOrder(ctx, senderID, event)
	default:
		return nil, &chatws.EventError{Code: "unsupported_event", Message: "unsupported event type " + event.Type}
	}
}

func (h *ChatHandler) processMessage(ctx context.Context, senderID int64, event models.Event) (*chatws.Delivery, error) {
	var outgoing models.OutgoingMessage
	if err := event.Decode(&outgoing); err != nil {
		return nil, &chatws.EventError{Code: "invalid_payload", Message: "invalid message payload"}
	}
	outgoing.Content = strings.TrimSpace(outgoing.Content)
	if outgoing.Content == "" || utf8.RuneCountInString(outgoing.Content) > maxMessageRunes {
		return nil, &chatws.EventError{Code: "invalid_message", Message: "message content must be 1 to 4096 characters"}
	}

	participants, err := h.participantsOf(ctx, outgoing.ConversationID, senderID)
	if err != nil {
		return nil, err
	}

	message := models.Message{
		SenderID:       senderID,
		ConversationID: outgoing.ConversationID,
		PrevMessageID:  outgoing.PrevMessageID,
		Content:        outgoing.Content,
		ClientKey:      outgoing.ClientKey,
	}
	if err := h.messages.CreateMessage(ctx, &message); err != nil {
		return nil, err
	}

	echo, err := models.NewEvent(models.EventMessage, message)
	if err != nil {
		return nil, err
	}
	return &chatws.Delivery{RecipientIDs: participants, Event: echo}, nil
}

func (h *ChatHandler) processOrder(ctx context.Context, senderID int64, event models.Event) (*chatws.Delivery, error) {
	var claimed models.Order
	if err := event.Decode(&claimed); err != nil || claimed.ID <= 0 {
		return nil, &chatws.EventError{Code: "invalid_payload", Message: "invalid order payload"}
	}

	conversationID, err := h.orders.ConversationID(ctx, claimed.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &chatws.EventError{Code: "order_not_found", Message: "order not found"}
	}
	if err != nil {
		return nil, err
	}
	participants, err := h.participantsOf(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	stored, err := h.orders.GetByID(ctx, claimed.ID)
	if err != nil {
		return nil, err
	}
	relay, err := models.NewEvent(event.Type, stored)
	if err != nil {
		return nil, err
	}

	recipients := make([]int64, 0, 1)
	for _, id := range participants {
		if id != senderID {
			recipients = append(recipients, id)
		}
	}
	return &chatws.Delivery{RecipientIDs: recipients, Event: relay}, nil
}

func (h *ChatHandler) participantsOf(ctx context.Context, conversationID, senderID int64) ([]int64, error) {
	participants, err := h.conversations.ParticipantIDs(ctx, conversationID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &chatws.EventError{Code: "conversation_not_found", Message: "conversation not found"}
	}
	if err != nil {
		return nil, err
	}
	for _, id := range participants {
		if id == senderID {
			return participants, nil
		}
	}
	return nil, &chatws.EventError{Code: "forbidden", Message: "not a participant of this conversation"}
}

func (h *ChatHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}
