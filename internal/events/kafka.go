package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaProducer publishes domain events as JSON records on a single topic,
// keyed by event name so subscribers can partition by kind.
type KafkaProducer struct {
	client *kgo.Client
	topic  string
}

// NewKafkaProducer connects a producer to the given brokers.
func NewKafkaProducer(brokers []string, topic string) (*KafkaProducer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka producer: %w", err)
	}
	return &KafkaProducer{client: client, topic: topic}, nil
}

type envelope struct {
	Event   string `json:"event"`
	Payload Event  `json:"payload"`
}

func (p *KafkaProducer) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(envelope{Event: event.EventName(), Payload: event})
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.EventName(), err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.EventName()),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce event %s: %w", event.EventName(), err)
	}
	return nil
}

// Close flushes and shuts down the underlying client.
func (p *KafkaProducer) Close() {
	p.client.Close()
}

// Deliver lets a KafkaProducer terminate a Worker loop directly.
func (p *KafkaProducer) Deliver(ctx context.Context, event Event) error {
	return p.Publish(ctx, event)
}
