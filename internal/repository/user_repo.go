package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/saeid-a/tradechat/internal/models"
)

type UserRepository struct {
	db *MemoryDB
}

func NewUserRepository(db *MemoryDB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User, passwordHash []byte) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.emailTaken(user.Email, 0) {
		return ErrDuplicateEmail
	}
	user.ID = r.db.nextID("users")
	r.db.users[user.ID] = userRecord{user: *user, passwordHash: passwordHash}
	return nil
}

// GetByEmail returns the user and their password hash.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, []byte, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, record := range r.db.users {
		if strings.EqualFold(record.user.Email, email) {
			user := record.user
			return &user, record.passwordHash, nil
		}
	}
	return nil, nil, ErrNotFound
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	record, ok := r.db.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	user := record.user
	return &user, nil
}

// UpdateUser replaces email, name and image. The account type is fixed at
// registration.
func (r *UserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	record, ok := r.db.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	if r.emailTaken(user.Email, user.ID) {
		return ErrDuplicateEmail
	}
	record.user.Email = user.Email
	record.user.Name = user.Name
	record.user.ImageID = user.ImageID
	r.db.users[user.ID] = record
	*user = record.user
	return nil
}

func (r *UserRepository) DeleteUser(ctx context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.db.users, id)
	return nil
}

// Search matches query against name and email, case-insensitively.
func (r *UserRepository) Search(ctx context.Context, query string) ([]models.User, error) {
	needle := strings.ToLower(strings.TrimSpace(query))

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	users := make([]models.User, 0)
	for _, record := range r.db.users {
		if strings.Contains(strings.ToLower(record.user.Name), needle) ||
			strings.Contains(strings.ToLower(record.user.Email), needle) {
			users = append(users, record.user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// Called with r.db.mu held.
func (r *UserRepository) emailTaken(email string, exceptID int64) bool {
	for id, record := range r.db.users {
		if id != exceptID && strings.EqualFold(record.user.Email, email) {
			return true
		}
	}
	return false
}
