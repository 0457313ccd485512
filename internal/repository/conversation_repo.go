package repository

import (
	"context"
	"sort"

	"github.com/saeid-a/tradechat/internal/models"
)

type ConversationRepository struct {
	db *MemoryDB
}

func NewConversationRepository(db *MemoryDB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// CreateOrGet returns the conversation between a and b, creating it when the
// pair has none. created reports whether a new row was inserted.
func (r *ConversationRepository) CreateOrGet(ctx context.Context, a, b int64) (*models.Conversation, bool, error) {
	if a == b {
		return nil, false, ErrSameUser
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, id := range []int64{a, b} {
		if _, ok := r.db.users[id]; !ok {
			return nil, false, ErrNotFound
		}
	}

	for _, record := range r.db.conversations {
		if (record.userIDs[0] == a && record.userIDs[1] == b) ||
			(record.userIDs[0] == b && record.userIDs[1] == a) {
			conversation := r.db.expandConversation(record, true)
			return &conversation, false, nil
		}
	}

	record := conversationRecord{id: r.db.nextID("conversations"), userIDs: [2]int64{a, b}}
	r.db.conversations[record.id] = record
	conversation := r.db.expandConversation(record, true)
	return &conversation, true, nil
}

func (r *ConversationRepository) GetByID(ctx context.Context, id int64) (*models.Conversation, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	record, ok := r.db.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	conversation := r.db.expandConversation(record, true)
	return &conversation, nil
}

// ListForUser returns the user's conversations ordered by id. Without
// expanded, participants carry only their id.
func (r *ConversationRepository) ListForUser(ctx context.Context, userID int64, expanded bool) ([]models.Conversation, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	conversations := make([]models.Conversation, 0)
	for _, record := range r.db.conversations {
		if record.userIDs[0] != userID && record.userIDs[1] != userID {
			continue
		}
		conversations = append(conversations, r.db.expandConversation(record, expanded))
	}
	sort.Slice(conversations, func(i, j int) bool { return conversations[i].ID < conversations[j].ID })
	return conversations, nil
}

func (r *ConversationRepository) ParticipantIDs(ctx context.Context, id int64) ([]int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	record, ok := r.db.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return []int64{record.userIDs[0], record.userIDs[1]}, nil
}

func (r *ConversationRepository) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if _, ok := r.db.conversations[conversationID]; !ok {
		return false, ErrNotFound
	}
	return r.db.isParticipant(conversationID, userID), nil
}
