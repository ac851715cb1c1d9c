package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"reddit-growth-bot/internal/domain"
)

// RedisGenerateQueue реализует очередь задач генерации на базе Redis lists.
// Неуспешная обработка возвращает задачу в очередь один раз, счётчик
// попыток хранится в самой задаче.
type RedisGenerateQueue struct {
	client *redis.Client
	key    string
}

// NewRedisGenerateQueue создаёт очередь по указанному ключу.
func NewRedisGenerateQueue(client *redis.Client, key string) *RedisGenerateQueue {
	return &RedisGenerateQueue{client: client, key: key}
}

// Enqueue публикует задачу в очередь.
func (q *RedisGenerateQueue) Enqueue(ctx context.Context, job domain.GenerateJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Receive блокирующе читает задачу из очереди.
func (q *RedisGenerateQueue) Receive(ctx context.Context) (domain.GenerateJob, domain.GenerateAckFunc, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.GenerateJob{}, nil, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.GenerateJob{}, nil, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.GenerateJob{}, nil, err
		}
		if len(res) != 2 {
			return domain.GenerateJob{}, nil, errors.New("redis queue: unexpected response")
		}
		raw := []byte(res[1])
		var job domain.GenerateJob
		if err := json.Unmarshal(raw, &job); err != nil {
			return domain.GenerateJob{}, nil, fmt.Errorf("decode job: %w", err)
		}
		ack := func(success bool) error {
			if success {
				return nil
			}
			retry, ok := retryJob(job)
			if !ok {
				return nil
			}
			payload, err := json.Marshal(retry)
			if err != nil {
				return fmt.Errorf("marshal retry: %w", err)
			}
			return q.client.LPush(context.Background(), q.key, payload).Err()
		}
		return job, ack, nil
	}
}

// retryJob решает судьбу неуспешной задачи: первую неудачу возвращаем
// в очередь с увеличенным счётчиком, повторную — отбрасываем.
func retryJob(job domain.GenerateJob) (domain.GenerateJob, bool) {
	if job.Attempts >= 1 {
		return domain.GenerateJob{}, false
	}
	job.Attempts++
	return job, true
}
