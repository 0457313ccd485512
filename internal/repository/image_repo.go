package repository

import (
	"context"

	"github.com/google/uuid"
)

type ImageRepository struct {
	db *MemoryDB
}

func NewImageRepository(db *MemoryDB) *ImageRepository {
	return &ImageRepository{db: db}
}

func (r *ImageRepository) SaveImage(ctx context.Context, contentType string, data []byte) (string, error) {
	id := uuid.NewString()

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.images[id] = imageRecord{contentType: contentType, data: append([]byte(nil), data...)}
	return id, nil
}

func (r *ImageRepository) GetImage(ctx context.Context, id string) (string, []byte, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	record, ok := r.db.images[id]
	if !ok {
		return "", nil, ErrNotFound
	}
	return record.contentType, record.data, nil
}
