package kafkafeed

import (
	"context"
	"errors"
	"fmt"

	"tickerdash/internal/market/feed"

	"github.com/segmentio/kafka-go"
)

// Source consumes ticker messages from a Kafka topic.
type Source struct {
	brokers []string
	topic   string
	groupID string
}

func NewSource(brokers []string, topic, groupID string) *Source {
	return &Source{brokers: brokers, topic: topic, groupID: groupID}
}

func (s *Source) Name() string {
	return "kafka"
}

// ReaderConfig is the consumer configuration used for every connection.
func (s *Source) ReaderConfig() kafka.ReaderConfig {
	return kafka.ReaderConfig{
		Brokers:  s.brokers,
		Topic:    s.topic,
		GroupID:  s.groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	}
}

// Dial checks that a broker is reachable before creating the reader,
// since kafka.NewReader itself never fails.
func (s *Source) Dial(ctx context.Context) (feed.Conn, error) {
	if len(s.brokers) == 0 || s.topic == "" {
		return nil, errors.New("kafka brokers and topic are required")
	}

	var lastErr error
	for _, broker := range s.brokers {
		c, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		_ = c.Close()
		return &conn{reader: kafka.NewReader(s.ReaderConfig())}, nil
	}
	return nil, fmt.Errorf("no kafka broker reachable: %w", lastErr)
}

type conn struct {
	reader *kafka.Reader
}

func (c *conn) Read(ctx context.Context) ([]byte, error) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return nil, err
	}
	return m.Value, nil
}

func (c *conn) Close() error {
	return c.reader.Close()
}
