package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/saeid-a/tradechat/internal/logging"
	"github.com/saeid-a/tradechat/internal/models"
)

type TokenAPI interface {
	CreateToken(ctx context.Context, email, password string) (*models.TokenResponse, error)
}

// CredentialPersister keeps the session across process restarts. Load
// returns nil credentials when nothing is stored.
type CredentialPersister interface {
	Load(ctx context.Context) (*models.Credentials, error)
	Save(ctx context.Context, creds models.Credentials) error
	Clear(ctx context.Context) error
}

// SessionStore owns the signed-in user and token. Expiry is checked on every
// access and an expired session is cleared, never refreshed.
type SessionStore struct {
	api       TokenAPI
	persister CredentialPersister
	now       func() time.Time

	mu    sync.Mutex
	creds *models.Credentials
	user  *Observable[*models.User]
}

type SessionOption func(*SessionStore)

func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionStore) {
		s.now = now
	}
}

func NewSessionStore(api TokenAPI, persister CredentialPersister, opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		api:       api,
		persister: persister,
		now:       time.Now,
		user:      NewObservable[*models.User](nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads persisted credentials. It returns ErrSessionExpired when the
// stored token has expired; the stale record is removed in that case.
func (s *SessionStore) Restore(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	creds, err := s.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	if creds == nil {
		return nil
	}
	if creds.Token.Expired(s.now()) {
		if err := s.persister.Clear(ctx); err != nil {
			logging.Logger().Warn("failed to clear expired credentials", "error", err)
		}
		return ErrSessionExpired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(creds)
	return nil
}

func (s *SessionStore) Login(ctx context.Context, email, password string) (*models.User, error) {
	resp, err := s.api.CreateToken(ctx, email, password)
	if err != nil {
		return nil, err
	}
	creds := &models.Credentials{User: resp.User, Token: resp.Token}
	if creds.Token.Expired(s.now()) {
		return nil, ErrSessionExpired
	}

	if s.persister != nil {
		if err := s.persister.Save(ctx, *creds); err != nil {
			return nil, fmt.Errorf("save credentials: %w", err)
		}
	}

	s.mu.Lock()
	s.setLocked(creds)
	s.mu.Unlock()

	logging.WithFields("user_id", creds.User.ID).Info("signed in")
	user := creds.User
	return &user, nil
}

func (s *SessionStore) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.setLocked(nil)
	s.mu.Unlock()

	if s.persister == nil {
		return nil
	}
	if err := s.persister.Clear(ctx); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// CurrentUser returns the signed-in user.
func (s *SessionStore) CurrentUser() (models.User, error) {
	creds, err := s.current()
	if err != nil {
		return models.User{}, err
	}
	return creds.User, nil
}

// UserID is the signed-in user's id, or 0 without a valid session.
func (s *SessionStore) UserID() int64 {
	creds, err := s.current()
	if err != nil {
		return 0
	}
	return creds.User.ID
}

// AccessToken implements api.TokenSource. Without a session it returns an
// empty token so the request is sent anonymously.
func (s *SessionStore) AccessToken() (string, error) {
	creds, err := s.current()
	if errors.Is(err, ErrUnauthenticated) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return creds.Token.Token, nil
}

// Token returns the raw token for the realtime channel.
func (s *SessionStore) Token() (models.Token, error) {
	creds, err := s.current()
	if err != nil {
		return models.Token{}, err
	}
	return creds.Token, nil
}

// UpdateUser replaces the cached profile after a successful PUT.
func (s *SessionStore) UpdateUser(ctx context.Context, user models.User) error {
	s.mu.Lock()
	if s.creds == nil || s.creds.User.ID != user.ID {
		s.mu.Unlock()
		return nil
	}
	creds := &models.Credentials{User: user, Token: s.creds.Token}
	s.setLocked(creds)
	s.mu.Unlock()

	if s.persister == nil {
		return nil
	}
	return s.persister.Save(ctx, *creds)
}

func (s *SessionStore) Subscribe() (<-chan *models.User, func()) {
	return s.user.Subscribe()
}

func (s *SessionStore) current() (*models.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.creds == nil {
		return nil, ErrUnauthenticated
	}
	if s.creds.Token.Expired(s.now()) {
		s.expireLocked()
		return nil, ErrSessionExpired
	}
	return s.creds, nil
}

func (s *SessionStore) expireLocked() {
	logging.WithFields("user_id", s.creds.User.ID).Info("session expired")
	s.setLocked(nil)
	if s.persister == nil {
		return
	}
	// Called with s.mu held.
	if err := s.persister.Clear(context.Background()); err != nil {
		logging.Logger().Warn("failed to clear expired credentials", "error", err)
	}
}

func (s *SessionStore) setLocked(creds *models.Credentials) {
	s.creds = creds
	if creds == nil {
		s.user.Set(nil)
		return
	}
	user := creds.User
	s.user.Set(&user)
}
