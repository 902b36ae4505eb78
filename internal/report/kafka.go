package report

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const writeTimeout = 2 * time.Second

// KafkaSink mirrors status messages to a Kafka topic, keyed by device.
type KafkaSink struct {
	writer *kafka.Writer
	key    []byte
}

// NewKafkaSink creates a sink writing to topic on brokers.
func NewKafkaSink(brokers []string, topic, key string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: writeTimeout,
			MaxAttempts:  1,
		},
		key: []byte(key),
	}
}

// Write sends one status message synchronously, giving up after
// writeTimeout.
func (k *KafkaSink) Write(ctx context.Context, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	err := k.writer.WriteMessages(ctx, kafka.Message{
		Key:   k.key,
		Value: payload,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("kafka write to %s: %w", k.writer.Topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
