package events

import (
	"context"
	"time"

	"catalogsync/internal/logger"

	"github.com/segmentio/kafka-go"
)

type MessageHandler func(ctx context.Context, key, value []byte) error

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// readRetryDelay is the pause after a failed read before trying again.
const readRetryDelay = time.Second

type Consumer struct {
	reader     messageReader
	logger     *logger.Logger
	retryDelay time.Duration
}

func NewConsumer(brokers []string, topic, groupID string, logger *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, logger: logger, retryDelay: readRetryDelay}
}

// Consume hands every message to handler until ctx is done. Handler errors
// are logged and the message is not redelivered.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Error("Failed to read message: %v", err)
				if err := c.wait(ctx); err != nil {
					return err
				}
				continue
			}

			c.logger.Debug("Received message: %s", string(msg.Value))
			if err := handler(ctx, msg.Key, msg.Value); err != nil {
				c.logger.Error("Failed to handle message: %v", err)
			}
		}
	}
}

func (c *Consumer) wait(ctx context.Context) error {
	delay := c.retryDelay
	if delay <= 0 {
		delay = readRetryDelay
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
