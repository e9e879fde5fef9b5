package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"catalogsync/internal/importer"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer messageWriter
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: writer}
}

func (p *Producer) Publish(ctx context.Context, key string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	})
}

// RequestSync publishes a sync.requested event.
func (p *Producer) RequestSync(ctx context.Context, trigger string, stage importer.Stage) (Event, error) {
	event := NewSyncRequested(trigger, stage)
	return event, p.Publish(ctx, event.ID, event)
}

// RunFinished publishes sync.completed or sync.failed for a run.
func (p *Producer) RunFinished(ctx context.Context, result *importer.RunResult) error {
	event := NewRunFinished(result)
	key := result.RunID
	if key == "" {
		key = event.ID
	}
	return p.Publish(ctx, key, event)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
