package adapters

import (
	"context"
	"encoding/json"
	"fmt"

	"cargo-pipeline/internal/core/logger"
	"cargo-pipeline/internal/features/feed/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBroker implements ports.Broker over Redis Pub/Sub.
type RedisBroker struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisBroker creates a RedisBroker on channel.
func NewRedisBroker(client *redis.Client, channel string) *RedisBroker {
	return &RedisBroker{
		client:  client,
		channel: channel,
		logger:  logger.Named("feed.redis"),
	}
}

// Publish sends ch on the broker channel.
func (b *RedisBroker) Publish(ctx context.Context, ch domain.Change) error {
	data, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

// Listen subscribes to the broker channel and calls fn for each change until ctx
// is done. Malformed messages are logged and skipped.
func (b *RedisBroker) Listen(ctx context.Context, fn func(domain.Change)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// Wait for the subscription confirmation so no publish after this point is missed.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("subscription to %s closed", b.channel)
			}
			var ch domain.Change
			if err := json.Unmarshal([]byte(msg.Payload), &ch); err != nil {
				b.logger.Warn("Dropping malformed change", zap.String("payload", msg.Payload), zap.Error(err))
				continue
			}
			if _, err := domain.ParseTable(string(ch.Table)); err != nil {
				b.logger.Warn("Dropping change for unknown table", zap.String("table", string(ch.Table)))
				continue
			}
			fn(ch)
		}
	}
}

// Close closes the underlying client.
func (b *RedisBroker) Close() error {
	return b.client.Close()
}
