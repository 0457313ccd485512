package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/saeid-a/tradechat/internal/models"
)

type stubTokenAPI struct {
	resp      *models.TokenResponse
	err       error
	lastEmail string
}

func (s *stubTokenAPI) CreateToken(_ context.Context, email, _ string) (*models.TokenResponse, error) {
	s.lastEmail = email
	return s.resp, s.err
}

type memoryPersister struct {
	creds   *models.Credentials
	cleared int
}

func (m *memoryPersister) Load(context.Context) (*models.Credentials, error) {
	return m.creds, nil
}

func (m *memoryPersister) Save(_ context.Context, creds models.Credentials) error {
	m.creds = &creds
	return nil
}

func (m *memoryPersister) Clear(context.Context) error {
	m.creds = nil
	m.cleared++
	return nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestSessionLoginPersistsCredentials(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	tokens := &stubTokenAPI{resp: &models.TokenResponse{
		User:  models.User{ID: 7, Email: "buyer@example.com"},
		Token: models.Token{Token: "tok", Expiry: clock.now.Add(time.Hour)},
	}}
	persister := &memoryPersister{}
	session := NewSessionStore(tokens, persister, WithClock(clock.Now))

	user, err := session.Login(context.Background(), "buyer@example.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != 7 || tokens.lastEmail != "buyer@example.com" {
		t.Fatalf("unexpected login result %+v", user)
	}
	if persister.creds == nil || persister.creds.Token.Token != "tok" {
		t.Fatalf("expected persisted credentials, got %+v", persister.creds)
	}

	token, err := session.AccessToken()
	if err != nil || token != "tok" {
		t.Fatalf("unexpected access token %q %v", token, err)
	}
	if session.UserID() != 7 {
		t.Fatalf("expected user id 7, got %d", session.UserID())
	}
}

func TestSessionExpiryForcesLogout(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	persister := &memoryPersister{creds: &models.Credentials{
		User:  models.User{ID: 7},
		Token: models.Token{Token: "tok", Expiry: clock.now.Add(time.Minute)},
	}}
	session := NewSessionStore(&stubTokenAPI{}, persister, WithClock(clock.Now))
	if err := session.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	users, cancel := session.Subscribe()
	defer cancel()
	if u := <-users; u == nil || u.ID != 7 {
		t.Fatalf("expected restored user, got %+v", u)
	}

	clock.now = clock.now.Add(2 * time.Minute)
	if _, err := session.AccessToken(); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if persister.creds != nil || persister.cleared != 1 {
		t.Fatalf("expected cleared credentials, got %+v (cleared %d)", persister.creds, persister.cleared)
	}
	if u := <-users; u != nil {
		t.Fatalf("expected nil user after expiry, got %+v", u)
	}
	if _, err := session.CurrentUser(); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated after expiry, got %v", err)
	}
}

func TestSessionRestoreRejectsExpiredCredentials(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	persister := &memoryPersister{creds: &models.Credentials{
		User:  models.User{ID: 7},
		Token: models.Token{Token: "tok", Expiry: clock.now.Add(-time.Second)},
	}}
	session := NewSessionStore(&stubTokenAPI{}, persister, WithClock(clock.Now))

	if err := session.Restore(context.Background()); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if persister.creds != nil {
		t.Fatalf("expected stale credentials to be cleared")
	}
}

func TestSessionAnonymousAccessToken(t *testing.T) {
	session := NewSessionStore(&stubTokenAPI{}, nil)

	token, err := session.AccessToken()
	if err != nil || token != "" {
		t.Fatalf("expected empty anonymous token, got %q %v", token, err)
	}
	if _, err := session.Token(); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestSessionLogoutClearsPersister(t *testing.T) {
	persister := &memoryPersister{creds: &models.Credentials{
		User:  models.User{ID: 3},
		Token: models.Token{Token: "tok", Expiry: time.Now().Add(time.Hour)},
	}}
	session := NewSessionStore(&stubTokenAPI{}, persister)
	if err := session.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if err := session.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if persister.creds != nil || session.UserID() != 0 {
		t.Fatalf("expected signed out session")
	}
}
