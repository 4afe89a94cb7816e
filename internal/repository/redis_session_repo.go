package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"portfolio-chat/internal/chat"
)

const maxUpdateRetries = 5

// RedisSessionStore shares sessions between server instances. Keys expire
// after ttl without activity.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(id uuid.UUID) string {
	return "chat_session:" + id.String()
}

func (r *RedisSessionStore) Create(ctx context.Context, s *chat.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Get(ctx context.Context, id uuid.UUID) (*chat.Session, error) {
	data, err := r.client.GetEx(ctx, sessionKey(id), r.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return decodeSession(data)
}

func (r *RedisSessionStore) Update(ctx context.Context, id uuid.UUID, fn func(*chat.Session) (bool, error)) (*chat.Session, error) {
	key := sessionKey(id)
	var result *chat.Session

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}

		s, err := decodeSession(data)
		if err != nil {
			return err
		}

		changed, err := fn(s)
		if err != nil {
			return err
		}
		result = s

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if !changed {
				pipe.Expire(ctx, key, r.ttl)
				return nil
			}
			out, err := json.Marshal(s)
			if err != nil {
				return fmt.Errorf("failed to encode session: %w", err)
			}
			pipe.Set(ctx, key, out, r.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("session %s: too many concurrent updates", id)
}

func (r *RedisSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := r.client.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Close is a no-op, the client is owned by the caller.
func (r *RedisSessionStore) Close() error {
	return nil
}

func decodeSession(data []byte) (*chat.Session, error) {
	var s chat.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}
