package repository

import (
	"context"
	"sort"

	"github.com/saeid-a/tradechat/internal/models"
)

// OrderMessageContent is the body of the chat message that anchors an order
// in its conversation.
const OrderMessageContent = "order"

type OrderRepository struct {
	db       *MemoryDB
	messages *MessageRepository
}

func NewOrderRepository(db *MemoryDB) *OrderRepository {
	return &OrderRepository{db: db, messages: NewMessageRepository(db)}
}

// CreateOrder inserts the anchor message sent by clientID and the order that
// references it in one step.
func (r *OrderRepository) CreateOrder(ctx context.Context, clientID int64, dto models.PostOrderDto) (*models.Order, *models.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	message := models.Message{
		SenderID:       clientID,
		ConversationID: dto.ConversationID,
		Content:        OrderMessageContent,
	}
	if err := r.messages.insertLocked(&message); err != nil {
		return nil, nil, err
	}

	order := models.Order{
		ID:        r.db.nextID("orders"),
		MessageID: message.ID,
		CreatedAt: message.CreatedAt,
		UpdatedAt: message.CreatedAt,
		Items:     append([]models.ItemQuantity(nil), dto.Items...),
		StateID:   models.OrderStateCreated,
	}
	r.db.orders[order.ID] = order
	return &order, &message, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	order, ok := r.db.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &order, nil
}

// ConversationID resolves the conversation an order belongs to through its
// anchor message.
func (r *OrderRepository) ConversationID(ctx context.Context, orderID int64) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	order, ok := r.db.orders[orderID]
	if !ok {
		return 0, ErrNotFound
	}
	message, ok := r.db.messages[order.MessageID]
	if !ok {
		return 0, ErrNotFound
	}
	return message.ConversationID, nil
}

// UpdateOrder applies the non-empty fields of patch. UpdatedAt always moves
// forward so clients can order revisions.
func (r *OrderRepository) UpdateOrder(ctx context.Context, id int64, patch models.PatchOrderDto) (*models.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	order, ok := r.db.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	if len(patch.Items) > 0 {
		order.Items = append([]models.ItemQuantity(nil), patch.Items...)
	}
	if patch.StateID != 0 {
		order.StateID = patch.StateID
	}

	now := r.db.now()
	if !now.After(order.UpdatedAt) {
		now = order.UpdatedAt.Add(1)
	}
	order.UpdatedAt = now
	r.db.orders[id] = order
	return &order, nil
}

// ListForUser returns the orders of every conversation userID takes part in.
func (r *OrderRepository) ListForUser(ctx context.Context, userID int64) ([]models.Order, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	orders := make([]models.Order, 0)
	for _, order := range r.db.orders {
		message, ok := r.db.messages[order.MessageID]
		if !ok || !r.db.isParticipant(message.ConversationID, userID) {
			continue
		}
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}
