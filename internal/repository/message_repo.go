package repository

import (
	"context"
	"sort"

	"github.com/saeid-a/tradechat/internal/models"
)

type MessageRepository struct {
	db *MemoryDB
}

func NewMessageRepository(db *MemoryDB) *MessageRepository {
	return &MessageRepository{db: db}
}

// CreateMessage assigns id and timestamp and links the message to the
// conversation's current last message, whatever the sender believed it was.
func (r *MessageRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	return r.insertLocked(message)
}

// Called with r.db.mu held.
func (r *MessageRepository) insertLocked(message *models.Message) error {
	if _, ok := r.db.conversations[message.ConversationID]; !ok {
		return ErrNotFound
	}

	message.PrevMessageID = 0
	if last := r.db.lastMessage(message.ConversationID); last != nil {
		message.PrevMessageID = last.ID
	}
	message.ID = r.db.nextID("messages")
	message.CreatedAt = r.db.now()
	r.db.messages[message.ID] = *message
	return nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	message, ok := r.db.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &message, nil
}

// ListByConversation returns messages oldest first.
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID int64) ([]models.Message, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if _, ok := r.db.conversations[conversationID]; !ok {
		return nil, ErrNotFound
	}

	messages := make([]models.Message, 0)
	for _, message := range r.db.messages {
		if message.ConversationID == conversationID {
			messages = append(messages, message)
		}
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].ID < messages[j].ID })
	return messages, nil
}
