package events

import (
	"context"
	"encoding/json"
	"fmt"

	"PriceTracker/internal/models"

	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "price-tracker:events"

// RedisPublisher publishes events as JSON on a Redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(addr, channel string) *RedisPublisher {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return newRedisPublisher(rdb, channel)
}

func newRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

func (r *RedisPublisher) Publish(ctx context.Context, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.Type, err)
	}
	if err := r.client.Publish(ctx, r.channel, string(payload)).Err(); err != nil {
		return fmt.Errorf("redis publish failure: %w", err)
	}
	return nil
}

// Ping checks the connection so a misconfigured address surfaces at startup.
func (r *RedisPublisher) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisPublisher) Close() error {
	return r.client.Close()
}
