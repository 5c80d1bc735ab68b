package pubsub

import (
	"context"
	"fmt"
	"time"

	"counseling-platform/backend/pkg/config"
	"counseling-platform/backend/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// Delivery is a single message received from a subscription
type Delivery struct {
	Channel string
	Payload []byte
}

// Publisher publishes payloads to a destination channel. Publishing is
// fire-and-forget: a missing subscriber is not an error.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Subscriber consumes payloads from channels matching the given patterns
type Subscriber interface {
	Subscribe(ctx context.Context, patterns ...string) (<-chan Delivery, func() error)
}

// Broker is the full pub/sub transport
type Broker interface {
	Publisher
	Subscriber
	Ping(ctx context.Context) error
	Close() error
}

// PartyChannel returns the destination key for a party's message
// channel, e.g. "counselor:3" or "user:7".
func PartyChannel(kind string, id uint) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

// ErrorChannel returns the destination key for a party's error channel
func ErrorChannel(kind string, id uint) string {
	return fmt.Sprintf("errors:%s:%d", kind, id)
}

// RedisBroker implements Broker on top of Redis pub/sub
type RedisBroker struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisBroker creates a broker from application configuration
func NewRedisBroker(log *logger.Logger) *RedisBroker {
	cfg := config.Get()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	return &RedisBroker{client: client, log: log}
}

// Publish sends a payload to a channel
func (b *RedisBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.client.Publish(ctx, channel, payload).Err()
}

// Subscribe listens on channels matching the given patterns. The
// returned function stops the subscription and closes the channel.
func (b *RedisBroker) Subscribe(ctx context.Context, patterns ...string) (<-chan Delivery, func() error) {
	sub := b.client.PSubscribe(ctx, patterns...)
	out := make(chan Delivery, 256)

	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			select {
			case out <- Delivery{Channel: msg.Channel, Payload: []byte(msg.Payload)}:
			default:
				b.log.Warn("Dropping pub/sub delivery, consumer too slow", "channel", msg.Channel)
			}
		}
	}()

	return out, sub.Close
}

// Ping verifies connectivity to the broker
func (b *RedisBroker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close releases the underlying client
func (b *RedisBroker) Close() error {
	return b.client.Close()
}

// Set stores a transient key with expiration (presence tracking)
func (b *RedisBroker) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return b.client.Set(ctx, key, value, expiration).Err()
}

// Get retrieves a transient key
func (b *RedisBroker) Get(ctx context.Context, key string) (string, error) {
	return b.client.Get(ctx, key).Result()
}

// Del removes a transient key
func (b *RedisBroker) Del(ctx context.Context, key string) error {
	return b.client.Del(ctx, key).Err()
}
