package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Aidensmirk/online-learning-platform/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type redisSessionStore struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
}

// NewRedisSessionStore хранит сессию одним ключом с TTL до истечения refresh-токена.
func NewRedisSessionStore(client *redis.Client, prefix string, logger zerolog.Logger) session.Store {
	return &redisSessionStore{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (r *redisSessionStore) key(id string) string {
	return r.prefix + id
}

func (r *redisSessionStore) Load(ctx context.Context, id string) (*session.Session, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s session.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if s.Expired(time.Now()) {
		return nil, session.ErrNotFound
	}

	return &s, nil
}

func (r *redisSessionStore) Save(ctx context.Context, s *session.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	ttl := time.Until(s.ExpiresAt)
	if s.ExpiresAt.IsZero() {
		ttl = 0
	} else if ttl <= 0 {
		return r.Clear(ctx, s.ID)
	}

	if err := r.client.Set(ctx, r.key(s.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *redisSessionStore) Clear(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (r *redisSessionStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
