package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// RedisClients holds the two connections a server instance keeps to Redis.
// Sessions serves the session store. PubSub carries the long-lived
// transcript subscriptions so they never hold session reads back.
type RedisClients struct {
	Sessions *redis.Client
	PubSub   *redis.Client
}

// NewRedisClients connects both clients to redisURL and fails unless each
// answers a PING.
func NewRedisClients(ctx context.Context, redisURL string) (*RedisClients, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	clients := &RedisClients{
		Sessions: redis.NewClient(namedOptions(opt, "sessions")),
		PubSub:   redis.NewClient(namedOptions(opt, "pubsub")),
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := clients.Ping(pingCtx); err != nil {
		clients.Close()
		return nil, err
	}
	return clients, nil
}

// namedOptions copies opt and tags the connection, so CLIENT LIST tells the
// two roles apart.
func namedOptions(opt *redis.Options, role string) *redis.Options {
	o := *opt
	o.ClientName = "portfolio-chat:" + role
	return &o
}

// Ping checks both clients.
func (r *RedisClients) Ping(ctx context.Context) error {
	var errs []error
	if err := r.Sessions.Ping(ctx).Err(); err != nil {
		errs = append(errs, fmt.Errorf("redis sessions: %w", err))
	}
	if err := r.PubSub.Ping(ctx).Err(); err != nil {
		errs = append(errs, fmt.Errorf("redis pubsub: %w", err))
	}
	return errors.Join(errs...)
}

func (r *RedisClients) Close() error {
	return errors.Join(r.Sessions.Close(), r.PubSub.Close())
}
