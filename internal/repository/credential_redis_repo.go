package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/saeid-a/tradechat/internal/models"
)

const DefaultCredentialKey = "tradechat:session"

// RedisCredentialRepository stores the session as JSON under one key whose
// TTL ends at token expiry.
type RedisCredentialRepository struct {
	client *redis.Client
	key    string
}

func NewRedisCredentialRepository(client *redis.Client, key string) *RedisCredentialRepository {
	if key == "" {
		key = DefaultCredentialKey
	}
	return &RedisCredentialRepository{client: client, key: key}
}

func (r *RedisCredentialRepository) Load(ctx context.Context) (*models.Credentials, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	var creds models.Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	return &creds, nil
}

func (r *RedisCredentialRepository) Save(ctx context.Context, creds models.Credentials) error {
	ttl := time.Until(creds.Token.Expiry)
	if ttl <= 0 {
		return r.Clear(ctx)
	}

	raw, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := r.client.Set(ctx, r.key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

func (r *RedisCredentialRepository) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
