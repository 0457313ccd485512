package store

import "errors"

var (
	ErrUnauthenticated      = errors.New("not signed in")
	ErrSessionExpired       = errors.New("session expired, sign in again")
	ErrInvalidParticipants  = errors.New("a conversation needs exactly two distinct participants")
	ErrConversationNotFound = errors.New("conversation not found")
)
