package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// notifyChannel is the pub/sub channel outcome events are published on.
const notifyChannel = "stashbox:outcomes"

// RedisRecorder publishes events to a Redis pub/sub channel so a UI or
// dashboard process can subscribe to operation outcomes. Publish failures
// are logged and swallowed — the recorder must never affect the operation
// whose outcome it echoes.
type RedisRecorder struct {
	client *redis.Client
}

// NewRedisRecorder connects to the Redis instance at url and verifies the
// connection with a ping.
func NewRedisRecorder(ctx context.Context, url string) (*RedisRecorder, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisRecorder{client: client}, nil
}

// Record publishes the event as JSON.
func (r *RedisRecorder) Record(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("notify: marshal event: %v", err)
		return
	}
	if err := r.client.Publish(ctx, notifyChannel, payload).Err(); err != nil {
		log.Printf("notify: publish event call=%s op=%s: %v", ev.CallID, ev.Op, err)
	}
}

// Close releases the underlying Redis connection.
func (r *RedisRecorder) Close() error {
	return r.client.Close()
}
