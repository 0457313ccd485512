package models

// Conversation is a two-party chat. Unread is local state and is never sent
// by the backend.
type Conversation struct {
	ID          int64    `json:"id"`
	Users       []User   `json:"users"`
	LastMessage *Message `json:"lastMessage,omitempty"`
	Unread      bool     `json:"unread"`
}

type ConversationMap map[int64]Conversation

type PostConversationDto struct {
	ParticipantIDs []int64 `json:"participantIds"`
}

func (c Conversation) HasParticipant(userID int64) bool {
	for _, u := range c.Users {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// Counterpart returns the participant that is not me.
func (c Conversation) Counterpart(me int64) (User, bool) {
	for _, u := range c.Users {
		if u.ID != me {
			return u, true
		}
	}
	return User{}, false
}

func (c Conversation) Supplier() (User, bool) {
	for _, u := range c.Users {
		if u.Type == UserTypeSupplier {
			return u, true
		}
	}
	return User{}, false
}
