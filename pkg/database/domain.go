package database

import (
	"context"
	"fmt"
	"time"

	"book_story_service/pkg/logger"

	"go.uber.org/zap"
)

// Retry how many connect attempts are made and how far apart
type Retry struct {
	Count    int
	Interval time.Duration
}

// RetrySeconds builds a Retry from yaml values where the interval is in seconds
func RetrySeconds(count, seconds int) Retry {
	return Retry{Count: count, Interval: time.Duration(seconds) * time.Second}
}

// Connection definition dsn based backend
type Connection struct {
	ConnectStr string
	Retry
}

// MinIOConnection definition minio
type MinIOConnection struct {
	Endpoint   string
	User       string
	Password   string
	BucketName string
	UseSSL     bool
	Retry
}

// KafkaConnection definition kafka
type KafkaConnection struct {
	Brokers []string
	Topic   string
	Retry
}

// withRetry runs connect until it succeeds, ctx ends or the attempts run out.
// At least one attempt is always made.
func withRetry(ctx context.Context, backend string, r Retry, connect func(ctx context.Context) error) error {
	attempts := max(r.Count, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = connect(ctx); err == nil {
			logger.Log.Info(backend+" connected", zap.Int("attempt", attempt))
			return nil
		}

		logger.Log.Warn(backend+" connect failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("retry_count", attempts),
			zap.Error(err),
		)
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", backend, ctx.Err())
		case <-time.After(r.Interval):
		}
	}
	return fmt.Errorf("%s unreachable after %d attempts: %w", backend, attempts, err)
}
