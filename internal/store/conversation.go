package store

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/saeid-a/tradechat/internal/logging"
	"github.com/saeid-a/tradechat/internal/models"
	"golang.org/x/sync/singleflight"
)

type ConversationAPI interface {
	ListConversations(ctx context.Context, userID int64) ([]models.Conversation, error)
	CreateConversation(ctx context.Context, participantIDs []int64) (*models.Conversation, error)
}

// Identity reports the signed-in user id, 0 when signed out.
type Identity interface {
	UserID() int64
}

// ConversationStore is the source of truth for which conversations exist
// locally and which of them carry unread messages.
type ConversationStore struct {
	api      ConversationAPI
	identity Identity

	mu            sync.Mutex
	conversations models.ConversationMap
	observable    *Observable[models.ConversationMap]
	fetches       singleflight.Group

	// revision counts local inserts; created holds the revision at which a
	// conversation was inserted by Create.
	revision uint64
	created  map[int64]uint64
}

func NewConversationStore(api ConversationAPI, identity Identity) *ConversationStore {
	return &ConversationStore{
		api:           api,
		identity:      identity,
		conversations: models.ConversationMap{},
		observable:    NewObservable(models.ConversationMap{}),
		created:       map[int64]uint64{},
	}
}

func (s *ConversationStore) Snapshot() models.ConversationMap {
	return s.observable.Get()
}

func (s *ConversationStore) Subscribe() (<-chan models.ConversationMap, func()) {
	return s.observable.Subscribe()
}

// FetchAll replaces the local map with the server's list. Unread flags of
// conversations that are still present survive the replace, and so do
// conversations created while the request was in flight.
func (s *ConversationStore) FetchAll(ctx context.Context, userID int64) (models.ConversationMap, error) {
	s.mu.Lock()
	started := s.revision
	s.mu.Unlock()

	list, err := s.api.ListConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch conversations: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(models.ConversationMap, len(list))
	for _, c := range list {
		if prev, ok := s.conversations[c.ID]; ok {
			c.Unread = prev.Unread
			if c.LastMessage == nil && prev.LastMessage != nil {
				c.LastMessage = prev.LastMessage
			}
		}
		next[c.ID] = c
	}
	for id, c := range s.conversations {
		if _, ok := next[id]; !ok && s.created[id] > started {
			next[id] = c
		}
	}
	for id := range s.created {
		if _, ok := next[id]; !ok {
			delete(s.created, id)
		}
	}
	s.conversations = next
	return s.publishLocked(), nil
}

// Ensure makes sure the conversation is present locally, refetching the
// whole list when it is not. Concurrent callers share one fetch.
func (s *ConversationStore) Ensure(ctx context.Context, conversationID int64) error {
	if s.Has(conversationID) {
		return nil
	}

	userID := s.identity.UserID()
	if userID == 0 {
		return ErrUnauthenticated
	}

	logging.FromContext(logging.WithConversationID(ctx, conversationID)).
		Debug("conversation not present locally, fetching")

	_, err, _ := s.fetches.Do(strconv.FormatInt(userID, 10), func() (any, error) {
		return s.FetchAll(ctx, userID)
	})
	if err != nil {
		return err
	}
	if !s.Has(conversationID) {
		return fmt.Errorf("conversation %d: %w", conversationID, ErrConversationNotFound)
	}
	return nil
}

// Create posts a new two-party conversation and inserts the result.
func (s *ConversationStore) Create(ctx context.Context, participantIDs []int64) (*models.Conversation, error) {
	if err := validateParticipants(participantIDs); err != nil {
		return nil, err
	}

	created, err := s.api.CreateConversation(ctx, participantIDs)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conversation := *created
	conversation.Unread = false
	s.conversations[conversation.ID] = conversation
	s.revision++
	s.created[conversation.ID] = s.revision
	s.publishLocked()
	return &conversation, nil
}

// MarkUnread flags the message's conversation unless the local user sent it.
// Without a signed-in user nothing is flagged.
func (s *ConversationStore) MarkUnread(message models.Message) {
	me := s.identity.UserID()
	if me == 0 || message.SenderID == me {
		return
	}
	s.setUnread(message.ConversationID, true)
}

func (s *ConversationStore) MarkRead(conversationID int64) {
	s.setUnread(conversationID, false)
}

// SetLastMessage updates the conversation preview. An older confirmed
// message never replaces a newer one.
func (s *ConversationStore) SetLastMessage(message models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[message.ConversationID]
	if !ok {
		return
	}
	if last := c.LastMessage; last != nil && !last.Pending() && !message.Pending() && last.ID > message.ID {
		return
	}
	m := message
	c.LastMessage = &m
	s.conversations[c.ID] = c
	s.publishLocked()
}

func (s *ConversationStore) Get(conversationID int64) (models.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[conversationID]
	return c, ok
}

func (s *ConversationStore) Has(conversationID int64) bool {
	_, ok := s.Get(conversationID)
	return ok
}

// FindWithParticipant returns the local conversation between the signed-in
// user and userID.
func (s *ConversationStore) FindWithParticipant(userID int64) (models.Conversation, bool) {
	me := s.identity.UserID()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conversations {
		if c.HasParticipant(me) && c.HasParticipant(userID) {
			return c, true
		}
	}
	return models.Conversation{}, false
}

// Counterpart is the other participant of the conversation as seen by the
// signed-in user. Its name and image label the chat.
func (s *ConversationStore) Counterpart(conversationID int64) (models.User, bool) {
	c, ok := s.Get(conversationID)
	if !ok {
		return models.User{}, false
	}
	return c.Counterpart(s.identity.UserID())
}

func (s *ConversationStore) setUnread(conversationID int64, unread bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok || c.Unread == unread {
		return
	}
	c.Unread = unread
	s.conversations[conversationID] = c
	s.publishLocked()
}

func (s *ConversationStore) publishLocked() models.ConversationMap {
	snapshot := make(models.ConversationMap, len(s.conversations))
	for id, c := range s.conversations {
		c.Users = append([]models.User(nil), c.Users...)
		snapshot[id] = c
	}
	s.observable.Set(snapshot)
	return snapshot
}

func validateParticipants(ids []int64) error {
	if len(ids) != 2 || ids[0] <= 0 || ids[1] <= 0 || ids[0] == ids[1] {
		return ErrInvalidParticipants
	}
	return nil
}
