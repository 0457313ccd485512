package repository

import (
	"context"
	"sort"

	"github.com/saeid-a/tradechat/internal/models"
)

type ItemRepository struct {
	db *MemoryDB
}

func NewItemRepository(db *MemoryDB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) CreateItem(ctx context.Context, item *models.Item) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	item.ID = r.db.nextID("items")
	r.db.items[item.ID] = *item
	return nil
}

func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*models.Item, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	item, ok := r.db.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &item, nil
}

// List returns all items, or only supplierID's when it is non-zero.
func (r *ItemRepository) List(ctx context.Context, supplierID int64) ([]models.Item, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	items := make([]models.Item, 0)
	for _, item := range r.db.items {
		if supplierID != 0 && item.SupplierID != supplierID {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *ItemRepository) UpdateItem(ctx context.Context, item *models.Item) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	current, ok := r.db.items[item.ID]
	if !ok {
		return ErrNotFound
	}
	item.SupplierID = current.SupplierID
	r.db.items[item.ID] = *item
	return nil
}

func (r *ItemRepository) DeleteItem(ctx context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.db.items, id)
	return nil
}
