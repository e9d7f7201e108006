package notify

import (
	"context"

	"delivery-scheduler/internal/pkg/errs"
	"delivery-scheduler/internal/usecase/commands"

	"github.com/go-redis/redis/v8"
)

// RedisPublishClient is the subset of *redis.Client used for publishing.
type RedisPublishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type RedisPublisher struct {
	client RedisPublishClient
}

func NewRedisPublisher(client RedisPublishClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Publish sends message on the topic channel. Zero receivers is not an error.
func (p *RedisPublisher) Publish(ctx context.Context, message, topic string) (*commands.PublishReceipt, error) {
	receivers, err := p.client.Publish(ctx, topic, message).Result()
	if err != nil {
		return nil, errs.Wrapf(err, "publish to %s", topic)
	}
	return &commands.PublishReceipt{Topic: topic, Receivers: receivers}, nil
}
