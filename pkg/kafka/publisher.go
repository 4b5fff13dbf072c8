package kafkautils

import (
	"context"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

// Publisher sends keyed messages to one topic and waits for the broker acknowledgment.
type Publisher struct {
	logger   *zap.Logger
	producer *kafka.Producer
	topic    string
}

// NewPublisher creates an idempotent producer (acks=all).
func NewPublisher(logger *zap.Logger, brokers, topic string, retries int) (*Publisher, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  brokers,
		"acks":               "all",
		"enable.idempotence": true,
		"retries":            retries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	logger.Info("kafka_producer_created", zap.String("brokers", brokers), zap.String("topic", topic))
	go handleProducerEvents(logger, p)
	return &Publisher{logger: logger, producer: p, topic: topic}, nil
}

// Publish blocks until the message is delivered, fails, or ctx is done.
func (p *Publisher) Publish(ctx context.Context, key string, value []byte) error {
	delivery := make(chan kafka.Event, 1)
	err := p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(key),
		Value:          value,
	}, delivery)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-delivery:
		msg, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event %v", e)
		}
		if msg.TopicPartition.Error != nil {
			return msg.TopicPartition.Error
		}
		return nil
	}
}

// Close flushes outstanding messages for up to 5s before closing the producer.
func (p *Publisher) Close() {
	if remaining := p.producer.Flush(5000); remaining > 0 {
		p.logger.Warn("kafka_producer_unflushed_messages", zap.Int("count", remaining))
	}
	p.producer.Close()
}

// handleProducerEvents drains client-level events; per-message reports go to the delivery channel passed to Produce.
func handleProducerEvents(logger *zap.Logger, p *kafka.Producer) {
	for e := range p.Events() {
		switch ev := e.(type) {
		case kafka.Error:
			logger.Error("kafka_producer_error", zap.String("code", ev.Code().String()), zap.Error(ev))
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				logger.Error("kafka_publish_failed", zap.Error(ev.TopicPartition.Error))
			}
		}
	}
}
