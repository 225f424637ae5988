package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink publishes audit events to a Kafka topic for downstream
// compliance consumers. Produces are synchronous: an event is either on the
// broker or the caller knows it is not.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &KafkaSink{client: client, topic: topic}, nil
}

func (s *KafkaSink) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.SwapID),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// ListBySwap is unsupported on the Kafka sink; it is write-only. Pair it
// with a queryable store via Tee when reads are needed.
func (s *KafkaSink) ListBySwap(context.Context, string) ([]Event, error) {
	return nil, ErrWriteOnly
}

func (s *KafkaSink) Close() {
	s.client.Close()
}

// Tee appends every event to both stores and serves reads from primary.
type Tee struct {
	Primary   Store
	Secondary Store
}

func (t Tee) Append(ctx context.Context, event Event) error {
	if err := t.Primary.Append(ctx, event); err != nil {
		return err
	}
	return t.Secondary.Append(ctx, event)
}

func (t Tee) ListBySwap(ctx context.Context, swapID string) ([]Event, error) {
	return t.Primary.ListBySwap(ctx, swapID)
}
