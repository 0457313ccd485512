package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/saeid-a/tradechat/internal/api"
	"github.com/saeid-a/tradechat/internal/logging"
	"github.com/saeid-a/tradechat/internal/models"
	"github.com/saeid-a/tradechat/internal/realtime"
	"github.com/saeid-a/tradechat/internal/store"
	"golang.org/x/sync/errgroup"
)

// EventSender pushes an event onto the realtime connection.
type EventSender interface {
	Send(evt models.Event) error
}

// ChatService wires the stores to the realtime channel. Inbound events are
// routed to the owning store and outbound operations keep local state in
// step with what was sent.
type ChatService struct {
	identity      store.Identity
	conversations *store.ConversationStore
	history       *store.HistoryStore
	orders        *store.OrderStore

	mu     sync.RWMutex
	sender EventSender

	newKey func() string
	now    func() time.Time
}

func NewChatService(
	identity store.Identity,
	conversations *store.ConversationStore,
	history *store.HistoryStore,
	orders *store.OrderStore,
) *ChatService {
	return &ChatService{
		identity:      identity,
		conversations: conversations,
		history:       history,
		orders:        orders,
		newKey:        uuid.NewString,
		now:           time.Now,
	}
}

// NewChannel builds the realtime channel for this service: inbound events go
// to HandleEvent and every reconnect triggers a resync.
func (s *ChatService) NewChannel(wsURL string, tokens realtime.TokenProvider, opts ...realtime.Option) *realtime.Channel {
	opts = append([]realtime.Option{realtime.WithConnectHook(s.onConnect)}, opts...)
	channel := realtime.NewChannel(wsURL, tokens, s.HandleEvent, opts...)
	s.AttachSender(channel)
	return channel
}

func (s *ChatService) AttachSender(sender EventSender) {
	s.mu.Lock()
	s.sender = sender
	s.mu.Unlock()
}

func (s *ChatService) Conversations() *store.ConversationStore {
	return s.conversations
}

func (s *ChatService) History() *store.HistoryStore {
	return s.history
}

func (s *ChatService) Orders() *store.OrderStore {
	return s.orders
}

// SendMessage pushes a message event and inserts a pending copy that the
// server's echo later replaces.
func (s *ChatService) SendMessage(ctx context.Context, content string, conversationID int64) (models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Message{}, &api.ValidationError{Fields: map[string]string{"content": "must be provided"}}
	}
	me := s.identity.UserID()
	if me == 0 {
		return models.Message{}, store.ErrUnauthenticated
	}

	pending := models.Message{
		SenderID:       me,
		ConversationID: conversationID,
		PrevMessageID:  s.history.LastMessageID(conversationID),
		CreatedAt:      s.now().UTC(),
		Content:        content,
		ClientKey:      s.newKey(),
	}

	evt, err := models.NewEvent(models.EventMessage, models.OutgoingMessage{
		ConversationID: pending.ConversationID,
		PrevMessageID:  pending.PrevMessageID,
		Content:        pending.Content,
		ClientKey:      pending.ClientKey,
	})
	if err != nil {
		return models.Message{}, err
	}

	s.history.AppendPending(pending)
	if err := s.send(evt); err != nil {
		s.history.DropPending(conversationID, pending.ClientKey)
		return models.Message{}, err
	}

	logging.FromContext(logging.WithConversationID(ctx, conversationID)).
		Debug("message sent", "client_key", pending.ClientKey, "prev_message_id", pending.PrevMessageID)
	return pending, nil
}

func (s *ChatService) SendOrder(order models.Order) error {
	return s.sendOrderEvent(models.EventOrderCreated, order)
}

func (s *ChatService) SendUpdatedOrder(order models.Order) error {
	return s.sendOrderEvent(models.EventOrderUpdated, order)
}

// CreateOrder places an order in the conversation and announces it to the
// counterpart.
func (s *ChatService) CreateOrder(ctx context.Context, conversationID int64, items []models.ItemQuantity) (*models.Order, error) {
	order, err := s.orders.Create(ctx, models.PostOrderDto{Items: items, ConversationID: conversationID})
	if err != nil {
		return nil, err
	}
	if err := s.history.EnsureMessage(ctx, order.MessageID); err != nil {
		logging.Logger().Warn("failed to load order message", "message_id", order.MessageID, "error", err)
	}
	if err := s.SendOrder(*order); err != nil {
		return order, fmt.Errorf("order %d created but not announced: %w", order.ID, err)
	}
	return order, nil
}

// UpdateOrder patches the order and announces the new revision.
func (s *ChatService) UpdateOrder(ctx context.Context, orderID int64, dto models.PatchOrderDto) (*models.Order, error) {
	order, err := s.orders.Update(ctx, orderID, dto)
	if err != nil {
		return nil, err
	}
	if err := s.SendUpdatedOrder(*order); err != nil {
		return order, fmt.Errorf("order %d updated but not announced: %w", order.ID, err)
	}
	return order, nil
}

// StartConversation returns the existing chat with userID or creates one.
func (s *ChatService) StartConversation(ctx context.Context, userID int64) (*models.Conversation, error) {
	me := s.identity.UserID()
	if me == 0 {
		return nil, store.ErrUnauthenticated
	}
	if userID == me {
		return nil, store.ErrInvalidParticipants
	}
	if existing, ok := s.conversations.FindWithParticipant(userID); ok {
		return &existing, nil
	}
	return s.conversations.Create(ctx, []int64{me, userID})
}

// OpenConversation hydrates the conversation's history and marks it read.
func (s *ChatService) OpenConversation(ctx context.Context, conversationID int64) ([]models.Message, error) {
	if err := s.conversations.Ensure(ctx, conversationID); err != nil {
		return nil, err
	}
	if !s.history.Loaded(conversationID) {
		if _, err := s.history.FetchByConversation(ctx, conversationID); err != nil {
			return nil, err
		}
	}
	s.conversations.MarkRead(conversationID)
	return s.history.Messages(conversationID), nil
}

// HandleEvent is the realtime handler. Failures are logged; the next
// resync repairs whatever the event could not apply.
func (s *ChatService) HandleEvent(ctx context.Context, evt models.Event) {
	if err := s.Dispatch(ctx, evt); err != nil {
		logging.Logger().Warn("failed to apply realtime event", "type", evt.Type, "error", err)
	}
}

// Dispatch routes one inbound event. Order events load their message first
// so an order is never visible without the message that carries it.
func (s *ChatService) Dispatch(ctx context.Context, evt models.Event) error {
	switch evt.Type {
	case models.EventMessage:
		var message models.Message
		if err := evt.Decode(&message); err != nil {
			return err
		}
		return s.history.Append(ctx, message)

	case models.EventOrderCreated, models.EventOrderUpdated:
		var order models.Order
		if err := evt.Decode(&order); err != nil {
			return err
		}
		if err := s.history.EnsureMessage(ctx, order.MessageID); err != nil {
			return fmt.Errorf("load message %d of order %d: %w", order.MessageID, order.ID, err)
		}
		s.orders.UpsertFromEvent(order)
		return nil

	case models.EventError:
		var failure models.EventFailure
		if err := evt.Decode(&failure); err != nil {
			return err
		}
		logging.Logger().Warn("server rejected realtime event", "code", failure.Code, "message", failure.Message)
		return nil

	default:
		logging.Logger().Debug("ignoring unknown realtime event", "type", evt.Type)
		return nil
	}
}

// Resync refetches conversations, orders and every history already loaded.
func (s *ChatService) Resync(ctx context.Context) error {
	me := s.identity.UserID()
	if me == 0 {
		return store.ErrUnauthenticated
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.conversations.FetchAll(ctx, me)
		return err
	})
	g.Go(func() error {
		_, err := s.orders.FetchAll(ctx, me)
		return err
	})
	for _, id := range s.history.LoadedConversations() {
		id := id
		g.Go(func() error {
			_, err := s.history.FetchByConversation(ctx, id)
			return err
		})
	}
	return g.Wait()
}

func (s *ChatService) onConnect(ctx context.Context, reconnect bool) {
	if !reconnect {
		return
	}
	if err := s.Resync(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Logger().Warn("resync after reconnect failed", "error", err)
		return
	}
	logging.Logger().Info("resynced after reconnect")
}

func (s *ChatService) sendOrderEvent(eventType string, order models.Order) error {
	evt, err := models.NewEvent(eventType, order)
	if err != nil {
		return err
	}
	return s.send(evt)
}

func (s *ChatService) send(evt models.Event) error {
	s.mu.RLock()
	sender := s.sender
	s.mu.RUnlock()
	if sender == nil {
		return ErrNotConnected
	}
	return sender.Send(evt)
}
