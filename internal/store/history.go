package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/saeid-a/tradechat/internal/logging"
	"github.com/saeid-a/tradechat/internal/models"
	"golang.org/x/sync/singleflight"
)

type MessageAPI interface {
	ListMessages(ctx context.Context, conversationID int64) ([]models.Message, error)
	GetMessage(ctx context.Context, id int64) (*models.Message, error)
}

// History maps a conversation id to its messages in arrival order.
type History map[int64][]models.Message

// HistoryStore keeps per-conversation message lists. A list is hydrated from
// the server the first time a conversation is referenced.
type HistoryStore struct {
	api           MessageAPI
	conversations *ConversationStore

	mu         sync.Mutex
	messages   History
	loaded     map[int64]bool
	observable *Observable[History]
	hydrations singleflight.Group
}

func NewHistoryStore(api MessageAPI, conversations *ConversationStore) *HistoryStore {
	return &HistoryStore{
		api:           api,
		conversations: conversations,
		messages:      History{},
		loaded:        make(map[int64]bool),
		observable:    NewObservable(History{}),
	}
}

func (s *HistoryStore) Snapshot() History {
	return s.observable.Get()
}

func (s *HistoryStore) Subscribe() (<-chan History, func()) {
	return s.observable.Subscribe()
}

// Messages returns a copy of the conversation's list.
func (s *HistoryStore) Messages(conversationID int64) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.messages[conversationID]...)
}

func (s *HistoryStore) Loaded(conversationID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded[conversationID]
}

// LoadedConversations lists the conversations fetched at least once.
func (s *HistoryStore) LoadedConversations() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.loaded))
	for id := range s.loaded {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// FetchByConversation replaces the conversation's list with the server's.
// Unconfirmed local messages are kept at the tail, as are confirmed ones
// newer than anything the server returned.
func (s *HistoryStore) FetchByConversation(ctx context.Context, conversationID int64) ([]models.Message, error) {
	fetched, err := s.api.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("fetch messages of conversation %d: %w", conversationID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var maxID int64
	seen := make(map[int64]bool, len(fetched))
	keys := make(map[string]bool)
	for _, m := range fetched {
		seen[m.ID] = true
		if m.ID > maxID {
			maxID = m.ID
		}
		if m.ClientKey != "" {
			keys[m.ClientKey] = true
		}
	}

	next := append([]models.Message(nil), fetched...)
	for _, m := range s.messages[conversationID] {
		switch {
		case m.Pending() && !keys[m.ClientKey]:
			next = append(next, m)
		case !m.Pending() && !seen[m.ID] && m.ID > maxID:
			next = append(next, m)
		}
	}

	s.messages[conversationID] = next
	s.loaded[conversationID] = true
	s.publishLocked()
	return append([]models.Message(nil), next...), nil
}

// Append applies an inbound message. It makes sure the owning conversation
// exists locally and is flagged unread, hydrates the list on first
// reference, backfills when the message's predecessor is missing, and then
// upserts the message.
func (s *HistoryStore) Append(ctx context.Context, message models.Message) error {
	ctx = logging.WithConversationID(ctx, message.ConversationID)

	if err := s.conversations.Ensure(ctx, message.ConversationID); err != nil {
		return err
	}
	s.conversations.SetLastMessage(message)
	s.conversations.MarkUnread(message)

	if err := s.hydrate(ctx, message.ConversationID); err != nil {
		return err
	}

	if s.hasGap(message) {
		logging.FromContext(ctx).Info("message gap detected, backfilling",
			"message_id", message.ID, "prev_message_id", message.PrevMessageID)
		if err := s.refetch(ctx, message.ConversationID); err != nil {
			return err
		}
	}

	s.upsert(message)
	return nil
}

// AppendPending inserts an optimistic copy of an outbound message. It is
// replaced once the server echoes a message with the same client key.
func (s *HistoryStore) AppendPending(message models.Message) {
	message.ID = 0
	s.upsert(message)
	s.conversations.SetLastMessage(message)
}

// DropPending removes an optimistic copy that was never delivered.
func (s *HistoryStore) DropPending(conversationID int64, clientKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.messages[conversationID]
	for i, m := range list {
		if m.Pending() && m.ClientKey == clientKey {
			next := append([]models.Message(nil), list[:i]...)
			s.messages[conversationID] = append(next, list[i+1:]...)
			s.publishLocked()
			return
		}
	}
}

// FetchMessage loads one message by id and applies it like an inbound one.
func (s *HistoryStore) FetchMessage(ctx context.Context, messageID int64) (*models.Message, error) {
	message, err := s.api.GetMessage(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("fetch message %d: %w", messageID, err)
	}
	if err := s.Append(ctx, *message); err != nil {
		return nil, err
	}
	return message, nil
}

// EnsureMessage fetches the message only if it is not present locally.
func (s *HistoryStore) EnsureMessage(ctx context.Context, messageID int64) error {
	if s.Contains(messageID) {
		return nil
	}
	_, err := s.FetchMessage(ctx, messageID)
	return err
}

func (s *HistoryStore) Contains(messageID int64) bool {
	if messageID == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, list := range s.messages {
		if indexByID(list, messageID) >= 0 {
			return true
		}
	}
	return false
}

// LastMessageID is the id of the newest confirmed message, 0 if none.
func (s *HistoryStore) LastMessageID(conversationID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.messages[conversationID]
	for i := len(list) - 1; i >= 0; i-- {
		if !list[i].Pending() {
			return list[i].ID
		}
	}
	return 0
}

func (s *HistoryStore) hydrate(ctx context.Context, conversationID int64) error {
	if s.Loaded(conversationID) {
		return nil
	}
	return s.refetch(ctx, conversationID)
}

// refetch shares one in-flight request per conversation.
func (s *HistoryStore) refetch(ctx context.Context, conversationID int64) error {
	_, err, _ := s.hydrations.Do(strconv.FormatInt(conversationID, 10), func() (any, error) {
		return s.FetchByConversation(ctx, conversationID)
	})
	return err
}

func (s *HistoryStore) hasGap(message models.Message) bool {
	if message.PrevMessageID == 0 || message.Pending() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.messages[message.ConversationID]
	return indexByID(list, message.PrevMessageID) < 0 && indexByID(list, message.ID) < 0
}

func (s *HistoryStore) upsert(message models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := append([]models.Message(nil), s.messages[message.ConversationID]...)

	idx := -1
	if !message.Pending() {
		idx = indexByID(list, message.ID)
	}
	if idx < 0 && message.ClientKey != "" {
		idx = indexByClientKey(list, message.ClientKey)
	}

	if idx >= 0 {
		list[idx] = message
	} else {
		list = append(list, message)
	}
	s.messages[message.ConversationID] = list
	s.publishLocked()
}

// publishLocked shares list slices with the snapshot. Mutations always
// build a new slice, so published lists are never written to.
func (s *HistoryStore) publishLocked() {
	snapshot := make(History, len(s.messages))
	for id, list := range s.messages {
		snapshot[id] = list
	}
	s.observable.Set(snapshot)
}

func indexByID(list []models.Message, id int64) int {
	for i, m := range list {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func indexByClientKey(list []models.Message, key string) int {
	for i, m := range list {
		if m.ClientKey == key {
			return i
		}
	}
	return -1
}
