package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/saeid-a/tradechat/internal/models"
)

type stubTokens struct {
	token string
	err   error
}

func (s stubTokens) Token() (models.Token, error) {
	if s.err != nil {
		return models.Token{}, s.err
	}
	return models.Token{Token: s.token, Expiry: time.Now().Add(time.Hour)}, nil
}

// chatServer accepts websocket connections and hands them to the test.
type chatServer struct {
	*httptest.Server
	conns     chan *websocket.Conn
	mu        sync.Mutex
	lastToken string
}

func newChatServer(t *testing.T) *chatServer {
	t.Helper()
	s := &chatServer{conns: make(chan *websocket.Conn, 4)}
	upgrader := websocket.Upgrader{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat" {
			http.NotFound(w, r)
			return
		}
		s.mu.Lock()
		s.lastToken = r.URL.Query().Get("token")
		s.mu.Unlock()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		s.conns <- conn
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *chatServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func (s *chatServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-s.conns:
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for connection")
		return nil
	}
}

func fastBackOff() backoff.BackOff {
	return backoff.NewConstantBackOff(10 * time.Millisecond)
}

func TestChannelDeliversInboundAndOutboundEvents(t *testing.T) {
	server := newChatServer(t)
	received := make(chan models.Event, 4)
	channel := NewChannel(server.wsURL(), stubTokens{token: "tok 1"}, func(_ context.Context, evt models.Event) {
		received <- evt
	}, WithBackOff(fastBackOff))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = channel.Run(ctx) }()

	conn := server.accept(t)
	server.mu.Lock()
	token := server.lastToken
	server.mu.Unlock()
	if token != "tok 1" {
		t.Fatalf("unexpected token query %q", token)
	}

	inbound, _ := models.NewEvent(models.EventMessage, models.Message{ID: 3, ConversationID: 1, Content: "hi"})
	if err := conn.WriteJSON(inbound); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	select {
	case evt := <-received:
		var msg models.Message
		if err := evt.Decode(&msg); err != nil || msg.ID != 3 {
			t.Fatalf("unexpected inbound event %+v %v", evt, err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for inbound event")
	}

	outbound, _ := models.NewEvent(models.EventMessage, models.OutgoingMessage{ConversationID: 1, Content: "yo"})
	if err := channel.Send(outbound); err != nil {
		t.Fatalf("Send: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var got models.Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	var payload models.OutgoingMessage
	if err := json.Unmarshal(got.Payload, &payload); err != nil || payload.Content != "yo" {
		t.Fatalf("unexpected outbound payload %s", got.Payload)
	}
}

func TestChannelSkipsMalformedFrames(t *testing.T) {
	server := newChatServer(t)
	received := make(chan models.Event, 4)
	channel := NewChannel(server.wsURL(), stubTokens{token: "t"}, func(_ context.Context, evt models.Event) {
		received <- evt
	}, WithBackOff(fastBackOff))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = channel.Run(ctx) }()

	conn := server.accept(t)
	_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"payload":{}}`))
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","payload":{"code":"bad","message":"x"}}`))

	select {
	case evt := <-received:
		if evt.Type != models.EventError {
			t.Fatalf("expected error event, got %+v", evt)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for event")
	}
}

func TestChannelReconnectsAfterDrop(t *testing.T) {
	server := newChatServer(t)
	hooks := make(chan bool, 4)
	channel := NewChannel(server.wsURL(), stubTokens{token: "t"}, nil,
		WithBackOff(fastBackOff),
		WithConnectHook(func(_ context.Context, reconnect bool) { hooks <- reconnect }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = channel.Run(ctx) }()

	first := server.accept(t)
	if reconnect := <-hooks; reconnect {
		t.Fatalf("first connection must not be a reconnect")
	}
	_ = first.Close()

	server.accept(t)
	select {
	case reconnect := <-hooks:
		if !reconnect {
			t.Fatalf("expected reconnect flag on second connection")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for reconnect")
	}
}

func TestChannelBacksOffWhenServerDropsRightAfterUpgrade(t *testing.T) {
	var dials atomic.Int32
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dials.Add(1)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.Close()
	}))
	defer server.Close()

	var hooks atomic.Int32
	channel := NewChannel("ws"+strings.TrimPrefix(server.URL, "http"), stubTokens{token: "t"}, nil,
		WithBackOff(func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.RandomizationFactor = 0
			b.MaxElapsedTime = 0
			b.Reset()
			return b
		}),
		WithConnectHook(func(context.Context, bool) { hooks.Add(1) }),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 600*time.Millisecond)
	defer cancel()
	if err := channel.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	// 50ms, 75ms, 112ms, 168ms, 253ms of waiting fill the window.
	if n := dials.Load(); n < 2 || n > 6 {
		t.Fatalf("expected backed off redials, got %d dials", n)
	}
	if n := hooks.Load(); n > dials.Load() {
		t.Fatalf("expected at most one connect hook per dial, got %d hooks for %d dials", n, dials.Load())
	}
}

func TestChannelResetsBackOffAfterStableConnection(t *testing.T) {
	server := newChatServer(t)
	hooks := make(chan bool, 4)
	channel := NewChannel(server.wsURL(), stubTokens{token: "t"}, nil,
		WithBackOff(func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 20 * time.Millisecond
			b.Multiplier = 100
			b.RandomizationFactor = 0
			b.MaxElapsedTime = 0
			b.Reset()
			return b
		}),
		WithStableAfter(50*time.Millisecond),
		WithConnectHook(func(_ context.Context, reconnect bool) { hooks <- reconnect }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = channel.Run(ctx) }()

	// Without a reset the third redial would wait 60s.
	for i := 0; i < 4; i++ {
		conn := server.accept(t)
		<-hooks
		time.Sleep(100 * time.Millisecond)
		_ = conn.Close()
	}
}

func TestChannelStopsWithoutSession(t *testing.T) {
	channel := NewChannel("ws://127.0.0.1:1", stubTokens{err: errors.New("expired")}, nil)

	err := channel.Run(context.Background())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestChannelStopsWhenServerRejectsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	channel := NewChannel("ws"+strings.TrimPrefix(server.URL, "http"), stubTokens{token: "bad"}, nil, WithBackOff(fastBackOff))
	err := channel.Run(context.Background())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestChannelSendBufferFull(t *testing.T) {
	channel := NewChannel("ws://unused", stubTokens{token: "t"}, nil)
	evt := models.Event{Type: models.EventMessage, Payload: json.RawMessage(`{}`)}

	for i := 0; i < sendBufferSize; i++ {
		if err := channel.Send(evt); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}
	if err := channel.Send(evt); !errors.Is(err, ErrSendBufferFull) {
		t.Fatalf("expected ErrSendBufferFull, got %v", err)
	}
}

func TestChannelRunReturnsOnCancel(t *testing.T) {
	channel := NewChannel("ws://127.0.0.1:1", stubTokens{token: "t"}, nil, WithBackOff(fastBackOff))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := channel.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestChannelFlushesQueuedEventsOnShutdown(t *testing.T) {
	server := newChatServer(t)
	channel := NewChannel(server.wsURL(), stubTokens{token: "t"}, nil, WithBackOff(fastBackOff))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- channel.Run(ctx) }()

	conn := server.accept(t)
	deadline := time.Now().Add(5 * time.Second)
	for !channel.Connected() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	for i := 0; i < 3; i++ {
		evt, _ := models.NewEvent(models.EventOrderUpdated, models.Order{ID: int64(i + 1)})
		if err := channel.Send(evt); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	cancel()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for i := 0; i < 3; i++ {
		var got models.Event
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("ReadJSON %d: %v", i, err)
		}
		if got.Type != models.EventOrderUpdated {
			t.Fatalf("unexpected event %+v", got)
		}
	}
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
