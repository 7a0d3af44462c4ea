package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"personnel-registry/internal/config"
	"personnel-registry/internal/model"

	"github.com/go-redis/redis/v8"
)

type Producer struct {
	client *redis.Client
	queue  string
}

func NewProducer(redisClient *RedisClient, cfg *config.Config) *Producer {
	return &Producer{
		client: redisClient.Client(),
		queue:  cfg.Redis.IngestionQueue,
	}
}

// EnqueueImportJob pushes job onto the ingestion list. Consumers pop from
// the other end, so jobs run in submission order.
func (p *Producer) EnqueueImportJob(ctx context.Context, job model.ImportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode import job: %w", err)
	}

	return p.client.LPush(ctx, p.queue, data).Err()
}
