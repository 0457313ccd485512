package store

import (
	"context"
	"sync"

	"github.com/saeid-a/tradechat/internal/models"
)

type stubIdentity struct {
	id int64
}

func (s stubIdentity) UserID() int64 {
	return s.id
}

// stubBackend implements every store API against in-memory fixtures and
// counts calls.
type stubBackend struct {
	mu sync.Mutex

	conversations []models.Conversation
	messages      map[int64][]models.Message
	orders        []models.Order

	conversationsErr error
	messagesErr      error

	listConversationsCalls int
	listMessagesCalls      map[int64]int
	getMessageCalls        []int64
	lastParticipantIDs     []int64
	lastPostOrder          *models.PostOrderDto
	lastPatchOrder         *models.PatchOrderDto
	createdConversation    *models.Conversation
	orderResult            *models.Order

	// Called before a list is served, outside the lock, to interleave local
	// mutations with an in-flight fetch.
	beforeListConversations func()
	beforeListOrders        func()
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		messages:          make(map[int64][]models.Message),
		listMessagesCalls: make(map[int64]int),
	}
}

func (s *stubBackend) ListConversations(_ context.Context, _ int64) ([]models.Conversation, error) {
	if s.beforeListConversations != nil {
		s.beforeListConversations()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listConversationsCalls++
	if s.conversationsErr != nil {
		return nil, s.conversationsErr
	}
	return append([]models.Conversation(nil), s.conversations...), nil
}

func (s *stubBackend) CreateConversation(_ context.Context, ids []int64) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastParticipantIDs = append([]int64(nil), ids...)
	return s.createdConversation, nil
}

func (s *stubBackend) ListMessages(_ context.Context, conversationID int64) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listMessagesCalls[conversationID]++
	if s.messagesErr != nil {
		return nil, s.messagesErr
	}
	return append([]models.Message(nil), s.messages[conversationID]...), nil
}

func (s *stubBackend) GetMessage(_ context.Context, id int64) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getMessageCalls = append(s.getMessageCalls, id)
	for _, list := range s.messages {
		for _, m := range list {
			if m.ID == id {
				found := m
				return &found, nil
			}
		}
	}
	return nil, errNotFound
}

func (s *stubBackend) ListOrders(_ context.Context, _ int64) ([]models.Order, error) {
	if s.beforeListOrders != nil {
		s.beforeListOrders()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Order(nil), s.orders...), nil
}

func (s *stubBackend) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == id {
			found := o
			return &found, nil
		}
	}
	return nil, errNotFound
}

func (s *stubBackend) CreateOrder(_ context.Context, dto models.PostOrderDto) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPostOrder = &dto
	return s.orderResult, nil
}

func (s *stubBackend) UpdateOrder(_ context.Context, _ int64, dto models.PatchOrderDto) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPatchOrder = &dto
	return s.orderResult, nil
}

func (s *stubBackend) messageCalls(conversationID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listMessagesCalls[conversationID]
}

type stubError string

func (e stubError) Error() string { return string(e) }

const errNotFound = stubError("not found")

func twoParty(id, a, b int64) models.Conversation {
	return models.Conversation{
		ID: id,
		Users: []models.User{
			{ID: a, Name: "user-a", Type: models.UserTypeBusiness},
			{ID: b, Name: "user-b", Type: models.UserTypeSupplier},
		},
	}
}
