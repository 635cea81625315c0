// Package events publishes issue status changes to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/cityfix/internal/server/models"
	"github.com/redis/go-redis/v9"
)

// Publisher delivers status events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	PublishStatusChange(ctx context.Context, ev models.StatusEvent) error
}

// listPusher is the part of the redis client used for publishing.
type listPusher interface {
	LPush(ctx context.Context, key string, values ...any) *redis.IntCmd
}

// RedisPublisher pushes JSON-encoded events onto a Redis list, consumed with
// BRPOP by notification workers.
type RedisPublisher struct {
	client listPusher
	queue  string
}

func NewRedisPublisher(client listPusher, queue string) *RedisPublisher {
	return &RedisPublisher{client: client, queue: queue}
}

func (p *RedisPublisher) PublishStatusChange(ctx context.Context, ev models.StatusEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}
	if err := p.client.LPush(ctx, p.queue, payload).Err(); err != nil {
		return fmt.Errorf("push status event to %s: %w", p.queue, err)
	}
	return nil
}

// NewRedisClient connects to addr and checks the connection with PING.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Nop discards events. Used when no broker is configured.
type Nop struct{}

func (Nop) PublishStatusChange(context.Context, models.StatusEvent) error { return nil }
