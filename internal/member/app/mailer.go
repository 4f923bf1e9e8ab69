package app

import (
	"context"
	"errors"
	"time"

	"book_story_service/internal/member/domain"
	"book_story_service/internal/member/repository"
	"book_story_service/pkg/logger"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// DeliverFunc sends one sign-in mail
type DeliverFunc func(job domain.MailJob) error

// LogDelivery writes the link to the service log instead of an outbox
func LogDelivery(job domain.MailJob) error {
	if time.Now().After(job.ExpiredAt) {
		logger.Log.Warn("sign-in link expired before delivery", zap.String("email", job.Email))
		return nil
	}
	logger.Log.Info("sign-in link", zap.String("email", job.Email), zap.String("link", job.Link), zap.Time("expired_at", job.ExpiredAt))
	return nil
}

// RunMailer consumes the mail queue until ctx is done
func RunMailer(ctx context.Context, ch *amqp.Channel, queue string, deliver DeliverFunc) {
	logger.Log.Info("mailer started", zap.String("queue", queue))
	err := repository.ConsumeMailJobs(ctx, ch, queue, deliver)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Log.Error("mailer stopped", zap.Error(err))
	}
}
