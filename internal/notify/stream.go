package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// EventPublisher appends an event to a named stream
type EventPublisher interface {
	Publish(ctx context.Context, stream string, v any) (string, error)
}

// StreamPublisher publishes JSON events to Redis streams
type StreamPublisher struct {
	client *redis.Client
	maxLen int64
	logger *zap.Logger
	now    func() time.Time
}

// NewStreamPublisher creates a new StreamPublisher. Streams are trimmed to
// roughly maxLen entries when maxLen is positive.
func NewStreamPublisher(client *redis.Client, maxLen int64, logger *zap.Logger) *StreamPublisher {
	return &StreamPublisher{
		client: client,
		maxLen: maxLen,
		logger: logger,
		now:    time.Now,
	}
}

// Publish adds v to stream as {data: json, timestamp: unix seconds} and
// returns the entry ID
func (p *StreamPublisher) Publish(ctx context.Context, stream string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode stream event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": p.now().Unix(),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		p.logger.Error("failed to publish stream event", zap.String("stream", stream), zap.Error(err))
		return "", fmt.Errorf("failed to publish to stream %s: %w", stream, err)
	}

	return id, nil
}
