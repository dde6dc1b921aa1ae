package messaging

import (
	"context"
	"encoding/json"
	"log/slog"

	redis "github.com/redis/go-redis/v9"

	"github.com/aequall/aequall-api/internal/errors"
	redisclient "github.com/aequall/aequall-api/internal/redis"
)

// Config holds the dependencies for the Redis-backed channel
type Config struct {
	Client redisclient.Client

	// Topic defaults to DefaultTopic when empty
	Topic string
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c.Client == nil {
		return errors.InvalidArgument("redis client is required")
	}
	return nil
}

// Channel is the Redis pub/sub implementation of Publisher and Subscriber
type Channel struct {
	client redisclient.Client
	topic  string
	pubsub *redis.PubSub
}

// NewChannel creates a Redis-backed messaging channel
func NewChannel(cfg *Config) (*Channel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	return &Channel{
		client: cfg.Client,
		topic:  topic,
	}, nil
}

// Ensure Channel implements both sides of the messaging contract
var (
	_ Publisher  = (*Channel)(nil)
	_ Subscriber = (*Channel)(nil)
)

// Publish sends the envelope to the shared topic
func (c *Channel) Publish(ctx context.Context, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal envelope")
	}

	if err := c.client.Publish(ctx, c.topic, body).Err(); err != nil {
		return errors.Wrapf(err, "failed to publish to %s", c.topic)
	}

	return nil
}

// Subscribe returns a channel of inbound envelopes. Malformed frames are
// logged and dropped; per-publisher ordering follows Redis pub/sub delivery.
func (c *Channel) Subscribe(ctx context.Context) (<-chan Envelope, error) {
	c.pubsub = c.client.Subscribe(ctx, c.topic)

	// Force the subscription to be established before returning
	if _, err := c.pubsub.Receive(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to subscribe to %s", c.topic)
	}

	out := make(chan Envelope)
	go func() {
		defer close(out)
		msgs := c.pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				var env Envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					slog.Warn("Dropping malformed envelope",
						"topic", c.topic,
						"error", err,
					)
					continue
				}

				select {
				case out <- env:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close tears down the subscription
func (c *Channel) Close() error {
	if c.pubsub == nil {
		return nil
	}
	return c.pubsub.Close()
}
