package models

import "time"

type Message struct {
	ID             int64     `json:"id"`
	SenderID       int64     `json:"senderId"`
	ConversationID int64     `json:"conversationId"`
	PrevMessageID  int64     `json:"prevMessageId"`
	CreatedAt      time.Time `json:"createdAt"`
	Content        string    `json:"content"`
	ClientKey      string    `json:"clientKey,omitempty"`
}

// Pending reports whether the message is a local optimistic copy that the
// server has not confirmed yet.
func (m Message) Pending() bool {
	return m.ID == 0
}
