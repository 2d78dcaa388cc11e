package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/hive-corporation/alert-enricher/internal/core/ports"
)

// MessageReader is the subset of *kafka.Reader the processor needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// MessageWriter is the subset of *kafka.Writer the processor needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.LeastBytes{},
	}
}

// Processor consumes SNS events from one topic and publishes enrichment
// results to another. A source message is committed only after its result
// has been published, so delivery is at-least-once.
type Processor struct {
	reader   MessageReader
	writer   MessageWriter
	enricher ports.Enricher
	now      func() time.Time
}

func NewProcessor(reader MessageReader, writer MessageWriter, enricher ports.Enricher) *Processor {
	return &Processor{
		reader:   reader,
		writer:   writer,
		enricher: enricher,
		now:      time.Now,
	}
}

// Run processes messages until ctx is cancelled. It returns nil on
// cancellation and the first publish or commit error otherwise.
func (p *Processor) Run(ctx context.Context) error {
	processed := 0

	for {
		msg, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				log.Printf("🏁 Consumer stopped after %d messages", processed)
				return nil
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		out, err := p.Handle(ctx, msg)
		if err != nil {
			return err
		}

		if err := p.writer.WriteMessages(ctx, out); err != nil {
			return fmt.Errorf("failed to publish result for offset %d: %w", msg.Offset, err)
		}

		if err := p.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("failed to commit offset %d: %w", msg.Offset, err)
		}

		processed++
	}
}

// Handle enriches one source message and builds the outbound result message.
func (p *Processor) Handle(ctx context.Context, msg kafka.Message) (kafka.Message, error) {
	result := p.enricher.Enrich(ctx, msg.Value)

	data, err := json.Marshal(result)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal result: %w", err)
	}

	if result.Succeeded() {
		log.Printf("✅ Enriched message %s/%d/%d: %s (%s)", msg.Topic, msg.Partition, msg.Offset,
			result.Alert.DetectionType, result.Alert.Severity)
	} else {
		log.Printf("⚠️  Message %s/%d/%d could not be enriched: %s", msg.Topic, msg.Partition, msg.Offset, result.Error)
	}

	return kafka.Message{
		Key:   []byte(uuid.NewString()),
		Value: data,
		Time:  p.now(),
		Headers: []kafka.Header{
			{Key: "status", Value: []byte(result.Status)},
			{Key: "source-topic", Value: []byte(msg.Topic)},
			{Key: "source-offset", Value: []byte(strconv.FormatInt(msg.Offset, 10))},
		},
	}, nil
}

func (p *Processor) Close() error {
	return errors.Join(p.reader.Close(), p.writer.Close())
}
