package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisDispatcher delivers events to in-process subscribers and
// additionally publishes each event JSON to a Redis channel so external
// consumers can follow the stream. Redis publication is best-effort.
type redisDispatcher struct {
	inner   Dispatcher
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisDispatcher wraps inner with Redis channel publication.
func NewRedisDispatcher(inner Dispatcher, client *redis.Client, channel string, logger *zap.Logger) Dispatcher {
	return &redisDispatcher{
		inner:   inner,
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

func (d *redisDispatcher) Publish(ctx context.Context, event Event) error {
	if err := d.inner.Publish(ctx, event); err != nil {
		return err
	}
	if d.client == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		d.logger.Warn("marshal event", zap.Error(err))
		return nil
	}
	if err := d.client.Publish(ctx, d.channel, payload).Err(); err != nil {
		d.logger.Warn("publish event to redis", zap.Error(err), zap.String("type", string(event.Type)))
	}
	return nil
}

func (d *redisDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.inner.Subscribe(eventType, handler)
}
