// Package consumer provides Kafka consumer functionality for the
// alerts.directives topic.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"alertengine/internal/events"

	"github.com/segmentio/kafka-go"
)

const (
	// maxPollWait is the maximum time the reader waits for a batch.
	maxPollWait = 500 * time.Millisecond
	// commitInterval is how often consumed offsets are committed.
	commitInterval = time.Second
)

// ParseBrokers parses a comma-separated broker list and trims whitespace.
// Returns a slice of broker addresses.
func ParseBrokers(brokers string) []string {
	if brokers == "" {
		return nil
	}
	brokerList := strings.Split(brokers, ",")
	for i := range brokerList {
		brokerList[i] = strings.TrimSpace(brokerList[i])
	}
	return brokerList
}

// Consumer wraps a Kafka reader and provides a simple interface for
// consuming alert directives.
type Consumer struct {
	reader *kafka.Reader
	topic  string
}

// NewConsumer creates a new Kafka consumer with the specified brokers, topic, and group ID.
// The consumer is configured for at-least-once delivery semantics.
func NewConsumer(brokers string, topic string, groupID string) (*Consumer, error) {
	if brokers == "" {
		return nil, fmt.Errorf("brokers cannot be empty")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if groupID == "" {
		return nil, fmt.Errorf("groupID cannot be empty")
	}

	brokerList := ParseBrokers(brokers)

	slog.Info("Initializing Kafka consumer",
		"brokers", brokerList,
		"topic", topic,
		"group_id", groupID,
	)

	// StartOffset only applies when no committed offset exists for the
	// consumer group; FirstOffset replays all directives on a fresh group.
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokerList,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        maxPollWait,
		CommitInterval: commitInterval,
		StartOffset:    kafka.FirstOffset,
	})

	return &Consumer{
		reader: reader,
		topic:  topic,
	}, nil
}

// ReadDirective reads the next message from Kafka and deserializes it as an
// AlertDirective. Returns an error if reading or deserialization fails.
func (c *Consumer) ReadDirective(ctx context.Context) (*events.AlertDirective, *kafka.Message, error) {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read message from Kafka: %w", err)
	}

	var directive events.AlertDirective
	if err := json.Unmarshal(msg.Value, &directive); err != nil {
		return nil, &msg, fmt.Errorf("failed to unmarshal directive: %w", err)
	}

	return &directive, &msg, nil
}

// Close gracefully closes the Kafka reader and releases resources.
func (c *Consumer) Close() error {
	slog.Info("Closing Kafka consumer", "topic", c.topic)
	if err := c.reader.Close(); err != nil {
		slog.Error("Error closing Kafka consumer", "error", err)
		return err
	}
	slog.Info("Kafka consumer closed successfully")
	return nil
}
