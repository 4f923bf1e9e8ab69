package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// NewKafkaWriterWithRetry waits until the topic is reachable, then returns a writer.
// Messages are hashed by key so one key always lands on one partition.
func NewKafkaWriterWithRetry(ctx context.Context, k KafkaConnection) (*kafka.Writer, error) {
	if err := withRetry(ctx, "kafka", k.Retry, func(ctx context.Context) error { return pingKafka(ctx, k) }); err != nil {
		return nil, err
	}

	return &kafka.Writer{
		Addr:         kafka.TCP(k.Brokers...),
		Topic:        k.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}, nil
}

// NewKafkaReader reads one partition of the topic starting from the newest offset
func NewKafkaReader(k KafkaConnection, partition int) (*kafka.Reader, error) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   k.Brokers,
		Topic:     k.Topic,
		Partition: partition,
		MaxWait:   200 * time.Millisecond,
	})
	if err := r.SetOffset(kafka.LastOffset); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("set kafka offset: %w", err)
	}
	return r, nil
}

func pingKafka(ctx context.Context, k KafkaConnection) error {
	if len(k.Brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", k.Brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.ReadPartitions(k.Topic)
	return err
}
