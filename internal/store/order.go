package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/saeid-a/tradechat/internal/api"
	"github.com/saeid-a/tradechat/internal/logging"
	"github.com/saeid-a/tradechat/internal/models"
	"github.com/saeid-a/tradechat/internal/validator"
)

type OrderAPI interface {
	ListOrders(ctx context.Context, userID int64) ([]models.Order, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	CreateOrder(ctx context.Context, dto models.PostOrderDto) (*models.Order, error)
	UpdateOrder(ctx context.Context, id int64, dto models.PatchOrderDto) (*models.Order, error)
}

// OrderMap is keyed by the id of the message that carries the order.
type OrderMap map[int64]models.Order

// OrderStore treats order states as opaque; the server owns transitions.
type OrderStore struct {
	api OrderAPI

	mu         sync.Mutex
	orders     OrderMap
	observable *Observable[OrderMap]

	// revision counts local upserts; touched holds the revision of the last
	// upsert per message id.
	revision uint64
	touched  map[int64]uint64
}

func NewOrderStore(api OrderAPI) *OrderStore {
	return &OrderStore{
		api:        api,
		orders:     OrderMap{},
		observable: NewObservable(OrderMap{}),
		touched:    map[int64]uint64{},
	}
}

func (s *OrderStore) Snapshot() OrderMap {
	return s.observable.Get()
}

func (s *OrderStore) Subscribe() (<-chan OrderMap, func()) {
	return s.observable.Subscribe()
}

// FetchAll replaces every local order with the user's orders. A local copy
// with a newer updatedAt wins over the listed one, and orders upserted while
// the request was in flight are kept.
func (s *OrderStore) FetchAll(ctx context.Context, userID int64) (OrderMap, error) {
	s.mu.Lock()
	started := s.revision
	s.mu.Unlock()

	list, err := s.api.ListOrders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(OrderMap, len(list))
	for _, o := range list {
		if prev, ok := s.orders[o.MessageID]; ok && prev.UpdatedAt.After(o.UpdatedAt) {
			o = prev
		}
		next[o.MessageID] = o
	}
	for messageID, o := range s.orders {
		if _, ok := next[messageID]; !ok && s.touched[messageID] > started {
			next[messageID] = o
		}
	}
	for messageID := range s.touched {
		if _, ok := next[messageID]; !ok {
			delete(s.touched, messageID)
		}
	}
	s.orders = next
	s.publishLocked()
	return s.Snapshot(), nil
}

func (s *OrderStore) FetchByID(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.api.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch order %d: %w", id, err)
	}
	s.UpsertFromEvent(*order)
	return order, nil
}

func (s *OrderStore) Create(ctx context.Context, dto models.PostOrderDto) (*models.Order, error) {
	if err := validatePostOrder(dto); err != nil {
		return nil, err
	}
	order, err := s.api.CreateOrder(ctx, dto)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.UpsertFromEvent(*order)
	return order, nil
}

func (s *OrderStore) Update(ctx context.Context, id int64, dto models.PatchOrderDto) (*models.Order, error) {
	if err := validatePatchOrder(dto); err != nil {
		return nil, err
	}
	order, err := s.api.UpdateOrder(ctx, id, dto)
	if err != nil {
		return nil, fmt.Errorf("update order %d: %w", id, err)
	}
	s.UpsertFromEvent(*order)
	return order, nil
}

// UpsertFromEvent stores the order under its message id. Applying the same
// order twice is a no-op, and an older revision never replaces a newer one.
func (s *OrderStore) UpsertFromEvent(order models.Order) {
	if order.MessageID == 0 {
		logging.WithFields("order_id", order.ID).Warn("ignoring order without message id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.orders[order.MessageID]; ok && prev.UpdatedAt.After(order.UpdatedAt) {
		return
	}
	order.Items = append([]models.ItemQuantity(nil), order.Items...)
	s.orders[order.MessageID] = order
	s.revision++
	s.touched[order.MessageID] = s.revision
	s.publishLocked()
}

func (s *OrderStore) GetByMessageID(messageID int64) (models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[messageID]
	return o, ok
}

// FindByID scans for an order by its own id.
func (s *OrderStore) FindByID(id int64) (models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == id {
			return o, true
		}
	}
	return models.Order{}, false
}

func (s *OrderStore) publishLocked() {
	snapshot := make(OrderMap, len(s.orders))
	for id, o := range s.orders {
		snapshot[id] = o
	}
	s.observable.Set(snapshot)
}

func validatePostOrder(dto models.PostOrderDto) error {
	v := validator.New()
	models.ValidatePostOrder(v, dto)
	return api.Validate(v)
}

func validatePatchOrder(dto models.PatchOrderDto) error {
	v := validator.New()
	models.ValidatePatchOrder(v, dto)
	return api.Validate(v)
}
