package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"book_story_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	logger.SetNewNop()
	boom := errors.New("boom")

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		err := withRetry(context.Background(), "test", Retry{Count: 3, Interval: time.Millisecond}, func(context.Context) error {
			calls++
			if calls < 3 {
				return boom
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up with last error", func(t *testing.T) {
		calls := 0
		err := withRetry(context.Background(), "test", Retry{Count: 2, Interval: time.Millisecond}, func(context.Context) error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 2, calls)
	})

	t.Run("zero count still tries once", func(t *testing.T) {
		calls := 0
		_ = withRetry(context.Background(), "test", Retry{}, func(context.Context) error {
			calls++
			return boom
		})
		assert.Equal(t, 1, calls)
	})

	t.Run("stops when ctx is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := withRetry(ctx, "test", Retry{Count: 5, Interval: time.Hour}, func(context.Context) error {
			calls++
			cancel()
			return boom
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestConnectionStrings(t *testing.T) {
	assert.Equal(t, "mongodb://db:27017", MongoURI("", "", "db", 27017))
	assert.Equal(t, "mongodb://u:p@db:27017", MongoURI("u", "p", "db", 27017))
	assert.Equal(t, "postgres://u:p@pg:5432/books", PostgresDSN("u", "p", "pg", 5432, "books"))
	assert.Equal(t, "amqp://guest:guest@mq:5672/", AMQPURL("guest", "guest", "mq", "5672"))
	assert.Equal(t, 3*time.Second, RetrySeconds(1, 3).Interval)
}
