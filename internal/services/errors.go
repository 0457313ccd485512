package services

import "errors"

var (
	ErrNotConnected  = errors.New("realtime channel is not connected")
	ErrQueryTooShort = errors.New("search query must be at least 3 characters")
)
