package websocket

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisRelay shares live events between instances over a redis pub/sub
// channel.
type RedisRelay struct {
	client  *redis.Client
	channel string
}

func NewRedisRelay(client *redis.Client, channel string) *RedisRelay {
	return &RedisRelay{client: client, channel: channel}
}

func (r *RedisRelay) Publish(ctx context.Context, payload []byte) error {
	return r.client.Publish(ctx, r.channel, payload).Err()
}

func (r *RedisRelay) Subscribe(ctx context.Context) (<-chan []byte, func() error) {
	pubsub := r.client.Subscribe(ctx, r.channel)
	out := make(chan []byte, 256)

	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			select {
			case out <- []byte(msg.Payload):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, pubsub.Close
}
