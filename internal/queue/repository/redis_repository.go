package repository

import (
	"context"
	"time"

	"github.com/amankumarsingh77/episode-transcoder/internal/queue"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

type queueRedisRepo struct {
	redisClient *redis.Client
}

func NewQueueRedisRepo(redisClient *redis.Client) queue.RedisRepository {
	return &queueRedisRepo{
		redisClient: redisClient,
	}
}

func (q *queueRedisRepo) Push(ctx context.Context, key string, payload []byte) error {
	if err := q.redisClient.RPush(ctx, key, payload).Err(); err != nil {
		return errors.Wrapf(err, "rpush %s", key)
	}
	return nil
}

func (q *queueRedisRepo) Pop(ctx context.Context, key string, timeout time.Duration) ([]byte, bool, error) {
	res, err := q.redisClient.BLPop(ctx, timeout, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "blpop %s", key)
	}
	if len(res) != 2 {
		return nil, false, errors.Errorf("blpop %s: unexpected reply of %d elements", key, len(res))
	}
	return []byte(res[1]), true, nil
}
