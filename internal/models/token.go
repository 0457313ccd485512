package models

import "time"

type Token struct {
	Token  string    `json:"token"`
	Expiry time.Time `json:"expiry"`
}

func (t Token) Expired(now time.Time) bool {
	return t.Token == "" || !now.Before(t.Expiry)
}

type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	User  User  `json:"user"`
	Token Token `json:"token"`
}

type ImageResponse struct {
	ImageID string `json:"imageId"`
}

// Credentials is the persisted session: the signed-in user and their token.
type Credentials struct {
	User  User  `json:"user"`
	Token Token `json:"token"`
}
