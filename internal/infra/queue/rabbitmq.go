package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"reddit-growth-bot/internal/domain"
	"reddit-growth-bot/internal/infra/metrics"
)

// RabbitGenerateQueue реализует очередь задач генерации поверх AMQP.
type RabbitGenerateQueue struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string

	mu         sync.Mutex
	deliveries <-chan amqp.Delivery
}

// NewRabbitGenerateQueue подключается к RabbitMQ и объявляет долговечную очередь.
func NewRabbitGenerateQueue(amqpURL, queueName string) (*RabbitGenerateQueue, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queueName == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &RabbitGenerateQueue{conn: conn, ch: ch, queue: queueName}, nil
}

// Enqueue публикует задачу в очередь.
func (q *RabbitGenerateQueue) Enqueue(ctx context.Context, job domain.GenerateJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	start := time.Now()
	err = q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// Receive блокирующе читает задачу из очереди. Подтверждение ручное:
// success=false возвращает задачу в очередь один раз, повторно
// доставленная задача при неудаче отбрасывается.
func (q *RabbitGenerateQueue) Receive(ctx context.Context) (domain.GenerateJob, domain.GenerateAckFunc, error) {
	deliveries, err := q.consumer()
	if err != nil {
		return domain.GenerateJob{}, nil, err
	}
	select {
	case <-ctx.Done():
		return domain.GenerateJob{}, nil, ctx.Err()
	case delivery, ok := <-deliveries:
		if !ok {
			return domain.GenerateJob{}, nil, errors.New("amqp consumer closed")
		}
		var job domain.GenerateJob
		if err := json.Unmarshal(delivery.Body, &job); err != nil {
			_ = delivery.Nack(false, false)
			return domain.GenerateJob{}, nil, fmt.Errorf("decode job: %w", err)
		}
		return job, ackFor(delivery), nil
	}
}

// ackFor строит подтверждение доставки. Неуспех возвращает задачу
// в очередь, но только один раз: для уже передоставленной задачи
// неуспех означает отбрасывание, иначе битая задача крутится вечно.
func ackFor(delivery amqp.Delivery) domain.GenerateAckFunc {
	return func(success bool) error {
		if success {
			return delivery.Ack(false)
		}
		if delivery.Redelivered {
			return delivery.Nack(false, false)
		}
		return delivery.Nack(false, true)
	}
}

// Close закрывает канал и соединение.
func (q *RabbitGenerateQueue) Close() error {
	if err := q.ch.Close(); err != nil {
		_ = q.conn.Close()
		return err
	}
	return q.conn.Close()
}

func (q *RabbitGenerateQueue) consumer() (<-chan amqp.Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.deliveries != nil {
		return q.deliveries, nil
	}
	deliveries, err := q.ch.Consume(q.queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("start consumer: %w", err)
	}
	q.deliveries = deliveries
	return deliveries, nil
}
