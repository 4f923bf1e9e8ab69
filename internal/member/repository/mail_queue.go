package repository

import (
	"context"
	"fmt"

	"book_story_service/internal/member/domain"
	"book_story_service/pkg/database"
	"book_story_service/pkg/logger"

	jsoniter "github.com/json-iterator/go"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MailQueue carries sign-in link mail jobs to the mailer worker
type MailQueue interface {
	Publish(ctx context.Context, job domain.MailJob) error
}

type rabbitMailQueue struct {
	rabbit database.RabbitRepo
	queue  string
}

// NewRabbitMailQueue publishes mail jobs to the named durable queue
func NewRabbitMailQueue(rabbit database.RabbitRepo, queue string) MailQueue {
	return &rabbitMailQueue{rabbit: rabbit, queue: queue}
}

func (q *rabbitMailQueue) Publish(ctx context.Context, job domain.MailJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal mail job: %w", err)
	}
	return q.rabbit.Publish("", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// ConsumeMailJobs delivers every job on queue to handle until ctx is done or the channel closes.
// A job whose handler fails is requeued once; a malformed body is dropped.
func ConsumeMailJobs(ctx context.Context, ch *amqp.Channel, queue string, handle func(domain.MailJob) error) error {
	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return amqp.ErrClosed
			}

			var job domain.MailJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				logger.Log.Error("mail job malformed", zap.Error(err))
				_ = d.Reject(false)
				continue
			}
			if err := handle(job); err != nil {
				logger.Log.Warn("mail job failed", zap.String("email", job.Email), zap.Error(err))
				_ = d.Nack(false, !d.Redelivered)
				continue
			}
			_ = d.Ack(false)
		}
	}
}
