package broker

import (
	"context"
	"encoding/json"

	"github.com/recipenest/recipenest-api/internal/metrics"
	"github.com/recipenest/recipenest-api/internal/models"
	"github.com/recipenest/recipenest-api/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const ActivityChannel = "recipenest:activity"

// RedisActivityBroker implements ActivityBroker using Redis pub/sub
type RedisActivityBroker struct {
	client *redis.Client
}

func NewRedisActivityBroker(redisURL string) (*RedisActivityBroker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisActivityBroker{client: client}, nil
}

// NewRedisActivityBrokerFromClient wraps an existing client. Close closes it.
func NewRedisActivityBrokerFromClient(client *redis.Client) *RedisActivityBroker {
	return &RedisActivityBroker{client: client}
}

func (r *RedisActivityBroker) Publish(ctx context.Context, event models.ActivityEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := r.client.Publish(ctx, ActivityChannel, data).Err(); err != nil {
		return err
	}

	metrics.ActivityEventsPublished.WithLabelValues(string(event.Type)).Inc()
	return nil
}

func (r *RedisActivityBroker) Subscribe(ctx context.Context) (<-chan models.ActivityEvent, func(), error) {
	pubsub := r.client.Subscribe(ctx, ActivityChannel)

	// Wait for the subscription to be confirmed so no publish is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, err
	}

	events := make(chan models.ActivityEvent, 100)

	go func() {
		defer close(events)

		for redisMsg := range pubsub.Channel() {
			var event models.ActivityEvent
			if err := json.Unmarshal([]byte(redisMsg.Payload), &event); err != nil {
				logger.Log.Warn("Broker: dropping malformed activity payload", zap.Error(err))
				continue
			}

			select {
			case events <- event:
			default:
				// Slow consumer, drop rather than block the subscription
				logger.Log.Warn("Broker: subscriber buffer full, dropping event",
					zap.String("type", string(event.Type)),
				)
			}
		}
	}()

	return events, func() { pubsub.Close() }, nil
}

func (r *RedisActivityBroker) Close() error {
	return r.client.Close()
}
