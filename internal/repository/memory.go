package repository

import (
	"sync"
	"time"

	"github.com/saeid-a/tradechat/internal/models"
)

type userRecord struct {
	user         models.User
	passwordHash []byte
}

type conversationRecord struct {
	id      int64
	userIDs [2]int64
}

type imageRecord struct {
	contentType string
	data        []byte
}

// MemoryDB holds every sandbox table behind a single lock so that
// multi-table writes (an order and its message) are atomic.
type MemoryDB struct {
	mu  sync.RWMutex
	seq map[string]int64
	now func() time.Time

	users         map[int64]userRecord
	conversations map[int64]conversationRecord
	messages      map[int64]models.Message
	orders        map[int64]models.Order
	items         map[int64]models.Item
	images        map[string]imageRecord
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		seq:           make(map[string]int64),
		now:           func() time.Time { return time.Now().UTC() },
		users:         make(map[int64]userRecord),
		conversations: make(map[int64]conversationRecord),
		messages:      make(map[int64]models.Message),
		orders:        make(map[int64]models.Order),
		items:         make(map[int64]models.Item),
		images:        make(map[string]imageRecord),
	}
}

// Called with db.mu held.
func (db *MemoryDB) nextID(table string) int64 {
	db.seq[table]++
	return db.seq[table]
}

// Called with db.mu held.
func (db *MemoryDB) lastMessage(conversationID int64) *models.Message {
	var last *models.Message
	for _, message := range db.messages {
		if message.ConversationID != conversationID {
			continue
		}
		if last == nil || message.ID > last.ID {
			m := message
			last = &m
		}
	}
	return last
}

// Called with db.mu held.
func (db *MemoryDB) expandConversation(record conversationRecord, expanded bool) models.Conversation {
	conversation := models.Conversation{ID: record.id, Users: make([]models.User, 0, 2)}
	for _, id := range record.userIDs {
		user := models.User{ID: id}
		if expanded {
			if stored, ok := db.users[id]; ok {
				user = stored.user
			}
		}
		conversation.Users = append(conversation.Users, user)
	}
	conversation.LastMessage = db.lastMessage(record.id)
	return conversation
}

// Called with db.mu held.
func (db *MemoryDB) isParticipant(conversationID, userID int64) bool {
	record, ok := db.conversations[conversationID]
	if !ok {
		return false
	}
	return record.userIDs[0] == userID || record.userIDs[1] == userID
}
