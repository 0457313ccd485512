package store

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/saeid-a/tradechat/internal/api"
	"github.com/saeid-a/tradechat/internal/models"
)

func sampleOrder() models.Order {
	created := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	return models.Order{
		ID:        7,
		MessageID: 42,
		CreatedAt: created,
		UpdatedAt: created,
		Items:     []models.ItemQuantity{{ItemID: 1, Quantity: 3}},
		StateID:   models.OrderStateCreated,
	}
}

func TestOrderUpsertFromEventIsIdempotent(t *testing.T) {
	orders := NewOrderStore(newStubBackend())
	order := sampleOrder()

	orders.UpsertFromEvent(order)
	first := orders.Snapshot()
	orders.UpsertFromEvent(order)
	second := orders.Snapshot()

	if !reflect.DeepEqual(first, second) || len(second) != 1 {
		t.Fatalf("expected identical snapshots, got %+v and %+v", first, second)
	}
}

func TestOrderCreateThenGetByMessageID(t *testing.T) {
	backend := newStubBackend()
	order := sampleOrder()
	backend.orderResult = &order
	orders := NewOrderStore(backend)

	result, err := orders.Create(context.Background(), models.PostOrderDto{
		ConversationID: 3,
		Items:          []models.ItemQuantity{{ItemID: 1, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, ok := orders.GetByMessageID(result.MessageID)
	if !ok || !reflect.DeepEqual(got, order) {
		t.Fatalf("expected stored order to equal server object, got %+v", got)
	}
	if backend.lastPostOrder == nil || backend.lastPostOrder.ConversationID != 3 {
		t.Fatalf("unexpected post body %+v", backend.lastPostOrder)
	}
}

func TestOrderUpsertIgnoresOlderRevision(t *testing.T) {
	orders := NewOrderStore(newStubBackend())
	newer := sampleOrder()
	newer.UpdatedAt = newer.UpdatedAt.Add(time.Minute)
	newer.StateID = models.OrderStateAccepted
	orders.UpsertFromEvent(newer)

	orders.UpsertFromEvent(sampleOrder())

	got, _ := orders.GetByMessageID(42)
	if got.StateID != models.OrderStateAccepted {
		t.Fatalf("older revision replaced newer one: %+v", got)
	}
}

func TestOrderFetchAllKeysByMessageID(t *testing.T) {
	backend := newStubBackend()
	a, b := sampleOrder(), sampleOrder()
	b.ID, b.MessageID = 8, 43
	backend.orders = []models.Order{a, b}
	orders := NewOrderStore(backend)

	snapshot, err := orders.FetchAll(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if snapshot[42].ID != 7 || snapshot[43].ID != 8 {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
	if found, ok := orders.FindByID(8); !ok || found.MessageID != 43 {
		t.Fatalf("FindByID: %+v %v", found, ok)
	}
}

func TestOrderFetchAllKeepsNewerLocalRevision(t *testing.T) {
	backend := newStubBackend()
	stale := sampleOrder()
	backend.orders = []models.Order{stale}
	orders := NewOrderStore(backend)

	newer := sampleOrder()
	newer.UpdatedAt = newer.UpdatedAt.Add(time.Minute)
	newer.StateID = models.OrderStateAccepted
	backend.beforeListOrders = func() { orders.UpsertFromEvent(newer) }

	snapshot, err := orders.FetchAll(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if got := snapshot[42]; got.StateID != models.OrderStateAccepted || !got.UpdatedAt.Equal(newer.UpdatedAt) {
		t.Fatalf("listed copy rolled back a newer revision: %+v", got)
	}
}

func TestOrderFetchAllKeepsOrdersUpsertedDuringFetch(t *testing.T) {
	backend := newStubBackend()
	listed := sampleOrder()
	backend.orders = []models.Order{listed}
	orders := NewOrderStore(backend)

	dropped := sampleOrder()
	dropped.ID, dropped.MessageID = 9, 50
	orders.UpsertFromEvent(dropped)

	arrived := sampleOrder()
	arrived.ID, arrived.MessageID = 8, 43
	backend.beforeListOrders = func() { orders.UpsertFromEvent(arrived) }

	snapshot, err := orders.FetchAll(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if _, ok := snapshot[43]; !ok {
		t.Fatalf("expected order upserted during the fetch to survive, got %+v", snapshot)
	}
	if _, ok := snapshot[50]; ok {
		t.Fatalf("expected order missing from the list and older than the fetch to be replaced away")
	}
	if _, ok := snapshot[42]; !ok {
		t.Fatalf("expected listed order, got %+v", snapshot)
	}
}

func TestOrderCreateRejectsEmptyItems(t *testing.T) {
	backend := newStubBackend()
	orders := NewOrderStore(backend)

	_, err := orders.Create(context.Background(), models.PostOrderDto{ConversationID: 3})
	if _, ok := api.FieldErrors(err)["items"]; !ok {
		t.Fatalf("expected items field error, got %v", err)
	}
	if backend.lastPostOrder != nil {
		t.Fatalf("invalid order must not be sent")
	}
}

func TestOrderUpdateValidatesBeforeRequest(t *testing.T) {
	backend := newStubBackend()
	orders := NewOrderStore(backend)

	if _, err := orders.Update(context.Background(), 7, models.PatchOrderDto{}); !errors.Is(err, api.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if backend.lastPatchOrder != nil {
		t.Fatalf("invalid patch must not be sent")
	}
}
