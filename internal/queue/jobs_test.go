package queue

import (
	"context"
	"testing"
	"time"

	"personnel-registry/internal/config"
	"personnel-registry/internal/model"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
)

func unreachableClient() *RedisClient {
	return &RedisClient{client: redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})}
}

func TestJobStore_Key(t *testing.T) {
	cfg := config.Default()
	store := NewJobStore(unreachableClient(), cfg)
	defer store.client.Close()

	assert.Equal(t, "personnel:import-job:abc", store.key("abc"))
	assert.Equal(t, 24*time.Hour, store.ttl)
}

func TestJobStore_RedisDown(t *testing.T) {
	store := NewJobStore(unreachableClient(), config.Default())
	defer store.client.Close()

	ctx := context.Background()
	assert.Error(t, store.Save(ctx, model.ImportJobState{JobID: "abc", Status: model.JobStatusQueued}))

	_, err := store.Get(ctx, "abc")
	assert.Error(t, err)
}

func TestProducerAndConsumer_QueueNames(t *testing.T) {
	cfg := config.Default()
	client := unreachableClient()
	defer client.Close()

	producer := NewProducer(client, cfg)
	consumer := NewConsumer(client, cfg)

	assert.Equal(t, "personnel:imports", producer.queue)
	assert.Equal(t, "personnel:imports", consumer.queue)
	assert.Equal(t, "personnel:imports:dlq", consumer.dlq)
}
