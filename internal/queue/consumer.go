package queue

import (
	"context"
	"time"

	"personnel-registry/internal/config"
	"personnel-registry/internal/logger"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

const pollTimeout = 5 * time.Second

type Consumer struct {
	client *redis.Client
	queue  string
	dlq    string
	log    zerolog.Logger
}

type MessageHandler func(ctx context.Context, data []byte) error

func NewConsumer(redisClient *RedisClient, cfg *config.Config) *Consumer {
	return &Consumer{
		client: redisClient.Client(),
		queue:  cfg.Redis.IngestionQueue,
		dlq:    cfg.Redis.IngestionQueue + cfg.Redis.DLQSuffix,
		log:    logger.Component("queue"),
	}
}

// ConsumeImportQueue blocks until ctx is done. Messages the handler rejects
// are moved to the dead letter list untouched.
func (c *Consumer) ConsumeImportQueue(ctx context.Context, handler MessageHandler) error {
	log := c.log.With().Str("queue", c.queue).Logger()
	log.Info().Msg("Consuming import queue")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result, err := c.client.BRPop(ctx, pollTimeout, c.queue).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Msg("Failed to consume message")
			time.Sleep(time.Second)
			continue
		}

		if len(result) < 2 {
			continue
		}

		message := result[1]
		if err := handler(ctx, []byte(message)); err != nil {
			log.Error().Err(err).Msg("Failed to process message")
			if dlqErr := c.client.LPush(ctx, c.dlq, message).Err(); dlqErr != nil {
				log.Error().Err(dlqErr).Str("dlq", c.dlq).Msg("Failed to move message to DLQ")
			}
		}
	}
}
