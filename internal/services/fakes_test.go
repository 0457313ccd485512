package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/saeid-a/tradechat/internal/models"
	"github.com/saeid-a/tradechat/internal/store"
)

var errNotFound = errors.New("not found")

type stubIdentity struct {
	id int64
}

func (s stubIdentity) UserID() int64 {
	return s.id
}

// fakeBackend implements the REST surfaces the services depend on and
// records the last arguments it received.
type fakeBackend struct {
	mu sync.Mutex

	conversations []models.Conversation
	messages      map[int64][]models.Message
	orders        []models.Order
	items         map[int64]models.Item
	users         []models.User

	createConversationCalls [][]int64
	listMessagesCalls       []int64
	getMessageCalls         []int64
	orderVisibleAtFetch     map[int64]bool
	orderStore              *store.OrderStore
	createOrderResult       *models.Order
	updateOrderResult       *models.Order
	lastCreatedUser         *models.PostUserDto
	lastCreatedItem         *models.PostItemDto
	lastUpdatedItem         *models.Item
	uploads                 []string
	uploadErr               error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		messages:            make(map[int64][]models.Message),
		items:               make(map[int64]models.Item),
		orderVisibleAtFetch: make(map[int64]bool),
	}
}

func (f *fakeBackend) ListConversations(context.Context, int64) ([]models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Conversation(nil), f.conversations...), nil
}

func (f *fakeBackend) CreateConversation(_ context.Context, ids []int64) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createConversationCalls = append(f.createConversationCalls, append([]int64(nil), ids...))
	c := models.Conversation{
		ID:    int64(100 + len(f.createConversationCalls)),
		Users: []models.User{{ID: ids[0]}, {ID: ids[1]}},
	}
	f.conversations = append(f.conversations, c)
	return &c, nil
}

func (f *fakeBackend) ListMessages(_ context.Context, conversationID int64) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listMessagesCalls = append(f.listMessagesCalls, conversationID)
	return append([]models.Message(nil), f.messages[conversationID]...), nil
}

func (f *fakeBackend) GetMessage(_ context.Context, id int64) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getMessageCalls = append(f.getMessageCalls, id)
	if f.orderStore != nil {
		_, visible := f.orderStore.GetByMessageID(id)
		f.orderVisibleAtFetch[id] = visible
	}
	for _, list := range f.messages {
		for _, m := range list {
			if m.ID == id {
				found := m
				return &found, nil
			}
		}
	}
	return nil, errNotFound
}

func (f *fakeBackend) ListOrders(context.Context, int64) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Order(nil), f.orders...), nil
}

func (f *fakeBackend) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == id {
			found := o
			return &found, nil
		}
	}
	return nil, errNotFound
}

func (f *fakeBackend) CreateOrder(context.Context, models.PostOrderDto) (*models.Order, error) {
	return f.createOrderResult, nil
}

func (f *fakeBackend) UpdateOrder(context.Context, int64, models.PatchOrderDto) (*models.Order, error) {
	return f.updateOrderResult, nil
}

func (f *fakeBackend) CreateUser(_ context.Context, dto models.PostUserDto) (*models.User, error) {
	f.lastCreatedUser = &dto
	return &models.User{ID: 50, Email: dto.Email, Name: dto.Name, Type: dto.Type, ImageID: dto.ImageID}, nil
}

func (f *fakeBackend) UpdateUser(_ context.Context, user models.User) (*models.User, error) {
	return &user, nil
}

func (f *fakeBackend) DeleteUser(context.Context, int64) error {
	return nil
}

func (f *fakeBackend) SearchUsers(context.Context, string) ([]models.User, error) {
	return append([]models.User(nil), f.users...), nil
}

func (f *fakeBackend) UploadImage(_ context.Context, filename string, r io.Reader) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	_, _ = io.Copy(io.Discard, r)
	f.uploads = append(f.uploads, filename)
	return "img-" + filename, nil
}

func (f *fakeBackend) ListItems(_ context.Context, supplierID int64) ([]models.Item, error) {
	var items []models.Item
	for _, item := range f.items {
		if supplierID == 0 || item.SupplierID == supplierID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (f *fakeBackend) GetItem(_ context.Context, id int64) (*models.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, errNotFound
	}
	return &item, nil
}

func (f *fakeBackend) CreateItem(_ context.Context, dto models.PostItemDto) (*models.Item, error) {
	f.lastCreatedItem = &dto
	return &models.Item{ID: 1, Name: dto.Name, Unit: dto.Unit, Size: dto.Size, ImageID: dto.ImageID}, nil
}

func (f *fakeBackend) UpdateItem(_ context.Context, item models.Item) (*models.Item, error) {
	f.lastUpdatedItem = &item
	return &item, nil
}

func (f *fakeBackend) DeleteItem(_ context.Context, id int64) error {
	delete(f.items, id)
	return nil
}

// recordingSender captures outbound realtime events.
type recordingSender struct {
	mu     sync.Mutex
	events []models.Event
	err    error
}

func (r *recordingSender) Send(evt models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, evt)
	return nil
}

type stubTokenAPI struct {
	user models.User
}

func (s stubTokenAPI) CreateToken(context.Context, string, string) (*models.TokenResponse, error) {
	return &models.TokenResponse{
		User:  s.user,
		Token: models.Token{Token: "tok", Expiry: time.Now().Add(time.Hour)},
	}, nil
}

func newChatFixture(me int64) (*fakeBackend, *ChatService, *recordingSender) {
	backend := newFakeBackend()
	identity := stubIdentity{id: me}
	conversations := store.NewConversationStore(backend, identity)
	history := store.NewHistoryStore(backend, conversations)
	orders := store.NewOrderStore(backend)
	backend.orderStore = orders

	chat := NewChatService(identity, conversations, history, orders)
	sender := &recordingSender{}
	chat.AttachSender(sender)
	return backend, chat, sender
}

func twoParty(id, a, b int64) models.Conversation {
	return models.Conversation{ID: id, Users: []models.User{{ID: a}, {ID: b}}}
}
