package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/saeid-a/tradechat/internal/logging"
	"github.com/saeid-a/tradechat/internal/models"
)

// Inbound events are handled on the read goroutine, so pongs wait while a
// handler runs. A handler that hydrates a conversation can chain up to three
// REST calls, each bounded by the client's HTTP timeout (15s by default),
// which stays under pongWait.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 64
)

var (
	ErrSendBufferFull  = errors.New("realtime send buffer full")
	ErrUnauthenticated = errors.New("realtime channel requires a valid session")
)

type TokenProvider interface {
	Token() (models.Token, error)
}

// Handler receives inbound events in arrival order.
type Handler func(ctx context.Context, evt models.Event)

// ConnectHook runs after every successful dial. reconnect is false only for
// the first connection of a Run.
type ConnectHook func(ctx context.Context, reconnect bool)

// Channel is the one websocket a session keeps to the chat endpoint. Run
// owns the connection and redials with exponential backoff until the
// context ends or the session becomes invalid.
type Channel struct {
	baseURL     string
	tokens      TokenProvider
	handler     Handler
	onConnect   ConnectHook
	dialer      *websocket.Dialer
	newBackOff  func() backoff.BackOff
	stableAfter time.Duration

	send      chan models.Event
	connected atomic.Bool
}

type Option func(*Channel)

func WithDialer(dialer *websocket.Dialer) Option {
	return func(c *Channel) {
		c.dialer = dialer
	}
}

func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Channel) {
		c.newBackOff = newBackOff
	}
}

// WithStableAfter sets how long a connection must stay up before the
// reconnect backoff starts over from its initial interval.
func WithStableAfter(d time.Duration) Option {
	return func(c *Channel) {
		c.stableAfter = d
	}
}

func WithConnectHook(hook ConnectHook) Option {
	return func(c *Channel) {
		c.onConnect = hook
	}
}

func NewChannel(baseURL string, tokens TokenProvider, handler Handler, opts ...Option) *Channel {
	c := &Channel{
		baseURL:     strings.TrimRight(baseURL, "/"),
		tokens:      tokens,
		handler:     handler,
		dialer:      websocket.DefaultDialer,
		newBackOff:  DefaultBackOff,
		stableAfter: pingPeriod,
		send:        make(chan models.Event, sendBufferSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultBackOff starts at 500ms, caps at 30s and never gives up.
func DefaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func (c *Channel) Connected() bool {
	return c.connected.Load()
}

// Send queues an event. Events queued while disconnected go out after the
// next successful dial. Delivery is at most once.
func (c *Channel) Send(evt models.Event) error {
	select {
	case c.send <- evt:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Run blocks until ctx is done or the session is no longer valid.
func (c *Channel) Run(ctx context.Context) error {
	policy := backoff.WithContext(c.newBackOff(), ctx)
	reconnect := false

	for {
		conn, err := c.dial(ctx)
		if errors.Is(err, ErrUnauthenticated) {
			return err
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			wait := policy.NextBackOff()
			if wait == backoff.Stop {
				return err
			}
			logging.Logger().Warn("realtime dial failed", "error", err, "retry_in", wait)
			if !sleep(ctx, wait) {
				return ctx.Err()
			}
			continue
		}

		started := time.Now()
		err = c.serve(ctx, conn, reconnect)
		reconnect = true
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// A connection dropped right after the upgrade keeps backing off.
		if time.Since(started) >= c.stableAfter {
			policy.Reset()
		}
		wait := policy.NextBackOff()
		if wait == backoff.Stop {
			return err
		}
		logging.Logger().Info("realtime connection lost", "error", err, "retry_in", wait)
		if !sleep(ctx, wait) {
			return ctx.Err()
		}
	}
}

func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	endpoint := c.baseURL + "/v1/chat?token=" + url.QueryEscape(token.Token)
	conn, resp, err := c.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: server answered %d", ErrUnauthenticated, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial chat: %w", err)
	}
	return conn, nil
}

func (c *Channel) serve(parent context.Context, conn *websocket.Conn, reconnect bool) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	c.connected.Store(true)
	defer c.connected.Store(false)
	logging.Logger().Info("realtime connected", "reconnect", reconnect)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump(ctx, conn, parent.Done())
	}()

	if c.onConnect != nil {
		go c.onConnect(ctx, reconnect)
	}

	err := c.readPump(ctx, conn)
	cancel()
	<-writerDone
	return err
}

func (c *Channel) readPump(ctx context.Context, conn *websocket.Conn) error {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var evt models.Event
		if err := json.Unmarshal(data, &evt); err != nil || evt.Type == "" {
			logging.Logger().Warn("dropping malformed realtime frame", "error", err)
			continue
		}
		if c.handler != nil {
			c.handler(ctx, evt)
		}
	}
}

// writePump owns all writes on conn. When shutdown closes, events already
// queued are written before the close frame; after a lost connection they
// stay queued for the next one.
func (c *Channel) writePump(ctx context.Context, conn *websocket.Conn, shutdown <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			select {
			case <-shutdown:
				c.flush(conn)
			default:
			}
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait),
			)
			return
		case evt := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(evt); err != nil {
				logging.Logger().Warn("realtime write failed", "type", evt.Type, "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Channel) flush(conn *websocket.Conn) {
	for {
		select {
		case evt := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(evt); err != nil {
				logging.Logger().Warn("realtime flush failed", "type", evt.Type, "error", err)
				return
			}
		default:
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
