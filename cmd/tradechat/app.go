package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/saeid-a/tradechat/internal/api"
	"github.com/saeid-a/tradechat/internal/config"
	"github.com/saeid-a/tradechat/internal/database"
	"github.com/saeid-a/tradechat/internal/logging"
	"github.com/saeid-a/tradechat/internal/models"
	"github.com/saeid-a/tradechat/internal/realtime"
	"github.com/saeid-a/tradechat/internal/repository"
	"github.com/saeid-a/tradechat/internal/services"
	"github.com/saeid-a/tradechat/internal/store"
)

const connectTimeout = 10 * time.Second

// application is the composition root shared by every command.
type application struct {
	cfg     *config.Config
	client  *api.Client
	session *store.SessionStore
	auth    *services.AuthService
	catalog *services.CatalogService
	chat    *services.ChatService
	closers []func()
}

func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	persister, closer, err := openPersister(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client := api.NewClient(cfg.APIURL, api.WithTimeout(cfg.HTTPTimeout))
	session := store.NewSessionStore(client, persister)
	client.SetTokenSource(session)

	if err := session.Restore(ctx); err != nil {
		if !errors.Is(err, store.ErrSessionExpired) {
			closer()
			return nil, err
		}
		logging.Logger().Warn("stored session expired, log in again")
	}

	conversations := store.NewConversationStore(client, session)
	history := store.NewHistoryStore(client, conversations)
	orders := store.NewOrderStore(client)

	return &application{
		cfg:     cfg,
		client:  client,
		session: session,
		auth:    services.NewAuthService(session, client, client),
		catalog: services.NewCatalogService(session, client, client),
		chat:    services.NewChatService(session, conversations, history, orders),
		closers: []func(){closer},
	}, nil
}

func openPersister(ctx context.Context, cfg *config.Config) (store.CredentialPersister, func(), error) {
	switch cfg.SessionStore {
	case config.SessionStoreSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath, &repository.CredentialRecord{})
		if err != nil {
			return nil, nil, err
		}
		return repository.NewCredentialRepository(db), func() { database.CloseSQLite(db) }, nil
	case config.SessionStoreRedis:
		client, err := database.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisCredentialRepository(client, ""), func() { _ = client.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}

func (a *application) Close() {
	for _, closer := range a.closers {
		closer()
	}
}

func (a *application) me() (models.User, error) {
	user, err := a.session.CurrentUser()
	if err != nil {
		return models.User{}, fmt.Errorf("%w: run tradechat login first", err)
	}
	return user, nil
}

// withChannel runs fn while the realtime channel is connected and flushes
// outbound events before returning.
func (a *application) withChannel(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, err := a.me(); err != nil {
		return err
	}

	channel := a.chat.NewChannel(a.cfg.WSURL, a.session)
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- channel.Run(runCtx) }()

	if err := waitConnected(ctx, channel, done); err != nil {
		cancel()
		return err
	}

	err := fn(ctx)
	cancel()
	if runErr := <-done; err == nil && runErr != nil && !errors.Is(runErr, context.Canceled) {
		err = runErr
	}
	return err
}

func waitConnected(ctx context.Context, channel *realtime.Channel, done <-chan error) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	timeout := time.NewTimer(connectTimeout)
	defer timeout.Stop()

	for !channel.Connected() {
		select {
		case err := <-done:
			return fmt.Errorf("realtime connection failed: %w", err)
		case <-timeout.C:
			return errors.New("realtime connection timed out")
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
