package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/saeid-a/tradechat/internal/models"
	"github.com/saeid-a/tradechat/internal/repository"
	chatws "github.com/saeid-a/tradechat/internal/websocket"
)

type chatFixture struct {
	handler      *ChatHandler
	db           *repository.MemoryDB
	business     models.User
	supplier     models.User
	outsider     models.User
	conversation *models.Conversation
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	db := repository.NewMemoryDB()
	users := repository.NewUserRepository(db)

	f := &chatFixture{
		db:       db,
		business: models.User{Email: "cafe@example.com", Name: "Cafe", Type: models.UserTypeBusiness},
		supplier: models.User{Email: "acme@example.com", Name: "Acme", Type: models.UserTypeSupplier},
		outsider: models.User{Email: "other@example.com", Name: "Other", Type: models.UserTypeBusiness},
	}
	for _, u := range []*models.User{&f.business, &f.supplier, &f.outsider} {
		if err := users.CreateUser(context.Background(), u, nil); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}

	conversations := repository.NewConversationRepository(db)
	conversation, _, err := conversations.CreateOrGet(context.Background(), f.business.ID, f.supplier.ID)
	if err != nil {
		t.Fatalf("CreateOrGet: %v", err)
	}
	f.conversation = conversation
	f.handler = NewChatHandler(chatws.NewHub(), conversations,
		repository.NewMessageRepository(db), repository.NewOrderRepository(db), "secret")
	return f
}

func mustEvent(t *testing.T, eventType string, payload any) models.Event {
	t.Helper()
	evt, err := models.NewEvent(eventType, payload)
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	return evt
}

func TestProcessMessageEchoesToBothParticipants(t *testing.T) {
	f := newChatFixture(t)

	delivery, err := f.handler.ProcessEvent(context.Background(), f.business.ID, mustEvent(t, models.EventMessage, models.OutgoingMessage{
		ConversationID: f.conversation.ID,
		PrevMessageID:  999,
		Content:        "  hello  ",
		ClientKey:      "key-1",
	}))
	if err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}

	if len(delivery.RecipientIDs) != 2 {
		t.Fatalf("expected both participants, got %v", delivery.RecipientIDs)
	}
	var message models.Message
	if err := delivery.Event.Decode(&message); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if message.ID == 0 || message.SenderID != f.business.ID || message.Content != "hello" || message.ClientKey != "key-1" {
		t.Fatalf("unexpected echo: %+v", message)
	}
	if message.PrevMessageID != 0 {
		t.Fatalf("expected server-linked prev id 0, got %d", message.PrevMessageID)
	}
}

func TestProcessMessageRejectsOutsider(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.handler.ProcessEvent(context.Background(), f.outsider.ID, mustEvent(t, models.EventMessage, models.OutgoingMessage{
		ConversationID: f.conversation.ID,
		Content:        "hi",
	}))
	var eventErr *chatws.EventError
	if !errors.As(err, &eventErr) || eventErr.Code != "forbidden" {
		t.Fatalf("expected forbidden event error, got %v", err)
	}
}

func TestProcessMessageRejectsEmptyContent(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.handler.ProcessEvent(context.Background(), f.business.ID, mustEvent(t, models.EventMessage, models.OutgoingMessage{
		ConversationID: f.conversation.ID,
		Content:        "   ",
	}))
	var eventErr *chatws.EventError
	if !errors.As(err, &eventErr) || eventErr.Code != "invalid_message" {
		t.Fatalf("expected invalid_message, got %v", err)
	}
}

func TestProcessOrderRelaysStoredOrderToCounterpart(t *testing.T) {
	f := newChatFixture(t)
	orders := repository.NewOrderRepository(f.db)
	order, _, err := orders.CreateOrder(context.Background(), f.business.ID, models.PostOrderDto{
		ConversationID: f.conversation.ID,
		Items:          []models.ItemQuantity{{ItemID: 1, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	// The sender's claimed state is ignored in favour of the stored order.
	claimed := *order
	claimed.StateID = models.OrderStateFulfilled
	delivery, err := f.handler.ProcessEvent(context.Background(), f.business.ID, mustEvent(t, models.EventOrderCreated, claimed))
	if err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}

	if len(delivery.RecipientIDs) != 1 || delivery.RecipientIDs[0] != f.supplier.ID {
		t.Fatalf("expected relay to supplier only, got %v", delivery.RecipientIDs)
	}
	if delivery.Event.Type != models.EventOrderCreated {
		t.Fatalf("expected %s, got %s", models.EventOrderCreated, delivery.Event.Type)
	}
	var relayed models.Order
	if err := delivery.Event.Decode(&relayed); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if relayed.StateID != models.OrderStateCreated || relayed.MessageID != order.MessageID {
		t.Fatalf("unexpected relayed order: %+v", relayed)
	}
}

func TestProcessOrderUnknownOrder(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.handler.ProcessEvent(context.Background(), f.business.ID, mustEvent(t, models.EventOrderUpdated, models.Order{ID: 42}))
	var eventErr *chatws.EventError
	if !errors.As(err, &eventErr) || eventErr.Code != "order_not_found" {
		t.Fatalf("expected order_not_found, got %v", err)
	}
}

func TestProcessEventRejectsUnknownType(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.handler.ProcessEvent(context.Background(), f.business.ID, models.Event{Type: "typing"})
	var eventErr *chatws.EventError
	if !errors.As(err, &eventErr) || eventErr.Code != "unsupported_event" {
		t.Fatalf("expected unsupported_event, got %v", err)
	}
}
