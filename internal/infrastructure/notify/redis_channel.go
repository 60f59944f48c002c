package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/garyjia/societyhub/internal/application/port"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultRedisTopic is the pub/sub channel notifications are published on
const DefaultRedisTopic = "societyhub:notifications"

// RedisConfig configures the redis publisher
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Topic    string
}

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisChannel publishes each notification as JSON for downstream mailers to pick up
type RedisChannel struct {
	client publisher
	closer func() error
	topic  string
	logger *zap.Logger
}

// redisEnvelope is the published payload
type redisEnvelope struct {
	port.OutboundMessage
	PublishedAt time.Time `json:"publishedAt"`
}

// NewRedisChannel connects to redis and verifies the connection
func NewRedisChannel(ctx context.Context, cfg RedisConfig, logger *zap.Logger) (*RedisChannel, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	ch := newRedisChannel(rdb, cfg.Topic, logger)
	ch.closer = rdb.Close
	return ch, nil
}

func newRedisChannel(client publisher, topic string, logger *zap.Logger) *RedisChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	if topic == "" {
		topic = DefaultRedisTopic
	}
	return &RedisChannel{client: client, topic: topic, logger: logger}
}

// Name returns the channel name
func (c *RedisChannel) Name() string {
	return ChannelRedis
}

// Send publishes msg on the configured topic
func (c *RedisChannel) Send(ctx context.Context, msg port.OutboundMessage) error {
	payload, err := json.Marshal(redisEnvelope{OutboundMessage: msg, PublishedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	receivers, err := c.client.Publish(ctx, c.topic, payload).Result()
	if err != nil {
		c.logger.Error("Failed to publish notification",
			zap.String("topic", c.topic),
			zap.Error(err))
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	if receivers == 0 {
		c.logger.Warn("Notification published with no subscribers", zap.String("topic", c.topic))
	}
	return nil
}

// Close releases the redis connection
func (c *RedisChannel) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

var _ port.NotificationChannel = (*RedisChannel)(nil)
