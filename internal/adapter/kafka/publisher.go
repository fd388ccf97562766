package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/coastalmesh/geocode-gateway/internal/config"
	"github.com/coastalmesh/geocode-gateway/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces resolved-lookup audit events to a Kafka topic.
// It implements resolve.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured lookups topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaLookupsTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishLookup serializes one resolved lookup and writes it to the topic.
// The lookup ID keys the message so replays land on the same partition.
func (p *Publisher) PublishLookup(ctx context.Context, lookup domain.LookupResult) error {
	msg, err := serializeToMessage(lookup)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a LookupResult into a Kafka message.
func serializeToMessage(lookup domain.LookupResult) (kafkago.Message, error) {
	data, err := json.Marshal(lookup)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize lookup result: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(lookup.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(lookup.Kind)},
			{Key: "resolved_at", Value: []byte(lookup.ResolvedAt.Format(time.RFC3339))},
		},
	}, nil
}
