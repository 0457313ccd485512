package chatws

import (
	"context"
	"encoding/json"
	"errors"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/saeid-a/tradechat/internal/logging"
	"github.com/saeid-a/tradechat/internal/models"
)

type Hub struct {
	clients    map[int64]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Delivery
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID int64
	send   chan []byte
}

// Delivery is an event addressed to every open connection of each recipient.
type Delivery struct {
	RecipientIDs []int64
	Event        models.Event
}

// EventProcessor turns an inbound client event into the delivery to fan out.
// A nil delivery means nothing is sent.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, senderID int64, event models.Event) (*Delivery, error)
}

// EventError is reported back to the sender as an error event.
type EventError struct {
	Code    string
	Message string
}

func (e *EventError) Error() string {
	return e.Code + ": " + e.Message
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Delivery, 64),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int64) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.userID]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				close(client.send)
			}
			if len(set) == 0 {
				delete(h.clients, client.userID)
			}
		case delivery := <-h.broadcast:
			h.deliver(delivery)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Publish queues a delivery for fan-out.
func (h *Hub) Publish(delivery *Delivery) {
	h.broadcast <- delivery
}

func (h *Hub) deliver(delivery *Delivery) {
	encoded, err := json.Marshal(delivery.Event)
	if err != nil {
		logging.WithFields("component", "chat_hub").Error("encode event", "type", delivery.Event.Type, "error", err)
		return
	}

	seen := make(map[int64]bool, len(delivery.RecipientIDs))
	for _, userID := range delivery.RecipientIDs {
		if seen[userID] {
			continue
		}
		seen[userID] = true
		h.sendToUser(userID, encoded)
	}
}

func (h *Hub) sendToUser(userID int64, payload []byte) {
	set, ok := h.clients[userID]
	if !ok {
		return
	}

	for client := range set {
		select {
		case client.send <- payload:
		default:
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

func (c *Client) ReadPump(processor EventProcessor) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	log := logging.WithFields("component", "chat_hub", "user_id", c.userID)
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming models.Event
		if err := json.Unmarshal(payload, &incoming); err != nil || incoming.Type == "" {
			writeError(c, "invalid_payload", "invalid event payload")
			continue
		}

		delivery, err := processor.ProcessEvent(context.Background(), c.userID, incoming)
		if err != nil {
			var eventErr *EventError
			if errors.As(err, &eventErr) {
				writeError(c, eventErr.Code, eventErr.Message)
				continue
			}
			log.Error("process event", "type", incoming.Type, "error", err)
			writeError(c, "internal", "failed to process event")
			continue
		}
		if delivery != nil {
			c.hub.Publish(delivery)
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func writeError(client *Client, code, message string) {
	event, err := models.NewEvent(models.EventError, models.EventFailure{Code: code, Message: message})
	if err != nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case client.send <- payload:
	default:
		client.hub.Unregister(client)
	}
}
