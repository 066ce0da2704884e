package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"text-analysis-api/config"
	"text-analysis-api/models"
)

const PredictionChannel = "textanalysis:predictions"

// PredictionEvent is the message fanned out for every stored record.
type PredictionEvent struct {
	Kind   models.Kind   `json:"kind"`
	Record models.Record `json:"record"`
}

// Publisher is the narrow view of the broker the prediction service needs.
type Publisher interface {
	Publish(ctx context.Context, event PredictionEvent) error
}

// EventBroker publishes prediction events over Redis pub/sub. A broker built
// without a Redis URL is disabled and every call is a no-op.
type EventBroker struct {
	client *redis.Client
}

func NewEventBroker(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (*EventBroker, error) {
	if cfg.URL == "" {
		return &EventBroker{}, nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return &EventBroker{}, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	err = retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx).Err()
		},
		retry.Attempts(10),
		retry.Delay(2*time.Second),
		retry.DelayType(retry.FixedDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("Redis ping failed, retrying", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		_ = client.Close()
		return &EventBroker{}, fmt.Errorf("redis ping failed: %w", err)
	}
	return &EventBroker{client: client}, nil
}

// NewEventBrokerFromClient wraps an existing client without pinging it.
func NewEventBrokerFromClient(client *redis.Client) *EventBroker {
	return &EventBroker{client: client}
}

func (b *EventBroker) Available() bool {
	return b.client != nil
}

func (b *EventBroker) Ping(ctx context.Context) error {
	if b.client == nil {
		return nil
	}
	return b.client.Ping(ctx).Err()
}

func (b *EventBroker) Publish(ctx context.Context, event PredictionEvent) error {
	if b.client == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, PredictionChannel, data).Err()
}

// Subscribe returns nil when the broker is disabled.
func (b *EventBroker) Subscribe(ctx context.Context) *redis.PubSub {
	if b.client == nil {
		return nil
	}
	return b.client.Subscribe(ctx, PredictionChannel)
}

func (b *EventBroker) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}
