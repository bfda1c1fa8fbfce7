package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// StreamPublisher mirrors audit entries onto a Kafka topic for downstream
// consumers (SIEM ingestion, long-term archive). The database remains the
// authoritative copy; the stream is a feed.
type StreamPublisher struct {
	client *kgo.Client
	topic  string
}

func NewStreamPublisher(brokers []string, topic string) (*StreamPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit stream client: %w", err)
	}
	return &StreamPublisher{client: client, topic: topic}, nil
}

// Publish produces one entry keyed by actor so a consumer sees each actor's
// actions in order.
func (p *StreamPublisher) Publish(ctx context.Context, entry *Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	record := &kgo.Record{
		Key:   []byte(entry.ActorID.String()),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit entry: %w", err)
	}
	return nil
}

func (p *StreamPublisher) Close() {
	p.client.Close()
}
