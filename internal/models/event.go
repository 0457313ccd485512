package models

import (
	"encoding/json"
	"fmt"
)

// Realtime event discriminators carried in Event.Type.
const (
	EventMessage      = "message"
	EventOrderCreated = "order-created"
	EventOrderUpdated = "order-updated"
	EventError        = "error"
)

type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// OutgoingMessage is the payload of a message event sent by the client. The
// server answers with a full Message carrying the same ClientKey.
type OutgoingMessage struct {
	ConversationID int64  `json:"conversationId"`
	PrevMessageID  int64  `json:"prevMessageId"`
	Content        string `json:"content"`
	ClientKey      string `json:"clientKey,omitempty"`
}

type EventFailure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewEvent(eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Event{Type: eventType, Payload: raw}, nil
}

func (e Event) Decode(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("decode %s payload: empty payload", e.Type)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

func (e Event) IsOrder() bool {
	return e.Type == EventOrderCreated || e.Type == EventOrderUpdated
}
