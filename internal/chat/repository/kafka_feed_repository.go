package repository

import (
	"context"
	"fmt"
	"time"

	"book_story_service/internal/chat/domain"
	"book_story_service/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// DefaultReaderReopen wait before a failed reader is reopened
const DefaultReaderReopen = time.Second

// kafkaReader the part of *kafka.Reader the feed reads with
type kafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaFeed change feed on a single partition kafka topic.
// The topic must have one partition, which is what keeps commit order across nodes.
type KafkaFeed struct {
	writer      *kafka.Writer
	openReader  func() (kafkaReader, error)
	reopenAfter time.Duration
}

// NewKafkaFeed create KafkaFeed; newReader opens a reader positioned at the newest offset.
// A reader that fails is closed and reopened after reopenAfter.
func NewKafkaFeed(writer *kafka.Writer, newReader func() (*kafka.Reader, error), reopenAfter time.Duration) *KafkaFeed {
	if reopenAfter <= 0 {
		reopenAfter = DefaultReaderReopen
	}
	return &KafkaFeed{
		writer: writer,
		openReader: func() (kafkaReader, error) {
			r, err := newReader()
			if err != nil {
				return nil, err
			}
			return r, nil
		},
		reopenAfter: reopenAfter,
	}
}

// Publish writes msg keyed by the room channel
func (k *KafkaFeed) Publish(ctx context.Context, room string, msg domain.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(RoomChannel(room)),
		Value: data,
	})
}

// Subscribe reads the topic until ctx is done, forwarding messages of room
func (k *KafkaFeed) Subscribe(ctx context.Context, room string, handler func(domain.ChatMessage)) error {
	reader, err := k.openReader()
	if err != nil {
		return fmt.Errorf("open kafka reader: %w", err)
	}
	go k.consume(ctx, reader, room, handler)
	return nil
}

func (k *KafkaFeed) consume(ctx context.Context, reader kafkaReader, room string, handler func(domain.ChatMessage)) {
	key := RoomChannel(room)
	defer func() {
		if reader != nil {
			_ = reader.Close()
		}
	}()

	for {
		m, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// the new reader starts at the newest offset; messages committed in between are only in the store
			logger.Log.Error("kafka feed read failed, reopening", zap.String("room", room), zap.Error(err))
			_ = reader.Close()
			if reader = k.reopen(ctx, room); reader == nil {
				return
			}
			continue
		}
		if string(m.Key) != key {
			continue
		}

		var msg domain.ChatMessage
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			logger.Log.Error("drop undecodable feed payload", zap.Int64("offset", m.Offset), zap.Error(err))
			continue
		}
		handler(msg)
	}
}

// reopen retries until a reader opens; nil once ctx is done
func (k *KafkaFeed) reopen(ctx context.Context, room string) kafkaReader {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(k.reopenAfter):
		}
		reader, err := k.openReader()
		if err == nil {
			logger.Log.Info("kafka feed reader reopened", zap.String("room", room))
			return reader
		}
		logger.Log.Warn("reopen kafka reader", zap.String("room", room), zap.Error(err))
	}
}

// Close flushes the writer
func (k *KafkaFeed) Close() error {
	return k.writer.Close()
}
