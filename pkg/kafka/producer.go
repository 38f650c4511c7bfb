package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// SchemaVersion is stamped on every published message.
const SchemaVersion = "1.0"

// MessageWriter is the part of kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes record and link events
type Producer struct {
	writer MessageWriter
	logger ectologger.Logger
	topic  string
}

func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	var compression kafka.Compression
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "snappy":
		compression = kafka.Snappy
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		MaxAttempts:            cfg.MaxAttempts,
		WriteTimeout:           cfg.WriteTimeout,
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return NewProducerWithWriter(writer, cfg.Topic, logger)
}

func NewProducerWithWriter(writer MessageWriter, topic string, logger ectologger.Logger) *Producer {
	return &Producer{
		writer: writer,
		logger: logger,
		topic:  topic,
	}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// RecordEvent describes a record write
type RecordEvent struct {
	EventType  string          `json:"event_type"` // record.created, record.updated, record.deleted
	Collection string          `json:"collection"`
	Kind       string          `json:"kind"`
	RecordID   string          `json:"record_id"`
	Data       json.RawMessage `json:"data,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// LinkEvent describes one typed link a write changed
type LinkEvent struct {
	EventType  string    `json:"event_type"` // link.set, link.cleared
	Collection string    `json:"collection"`
	RecordID   string    `json:"record_id"`
	Field      string    `json:"field"`
	TargetKind string    `json:"target_kind"`
	From       *string   `json:"from"`
	To         *string   `json:"to"`
	Timestamp  time.Time `json:"timestamp"`
}

func (p *Producer) message(ctx context.Context, key, eventType, collection string, event any) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}

	headers := []kafka.Header{
		{Key: "event_type", Value: []byte(eventType)},
		{Key: "collection", Value: []byte(collection)},
		{Key: "schema_version", Value: []byte(SchemaVersion)},
	}
	if traceParent := tracing.GetTraceParent(ctx); traceParent != "" {
		headers = append(headers, kafka.Header{Key: "traceparent", Value: []byte(traceParent)})
	}

	return kafka.Message{
		Topic:   p.topic,
		Key:     []byte(key),
		Value:   data,
		Headers: headers,
	}, nil
}

// PublishRecordEvent publishes a record event with its link events in one
// batch, keyed by record id so they stay ordered on one partition.
func (p *Producer) PublishRecordEvent(ctx context.Context, event *RecordEvent, links ...*LinkEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishRecordEvent")
	defer span.End()

	now := time.Now().UTC()
	if event.Timestamp.IsZero() {
		event.Timestamp = now
	}

	msg, err := p.message(ctx, event.RecordID, event.EventType, event.Collection, event)
	if err != nil {
		return err
	}
	messages := []kafka.Message{msg}

	for _, link := range links {
		if link.Timestamp.IsZero() {
			link.Timestamp = now
		}
		msg, err := p.message(ctx, link.RecordID, link.EventType, link.Collection, link)
		if err != nil {
			return err
		}
		messages = append(messages, msg)
	}

	start := time.Now()
	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		metrics.RecordKafkaPublish(p.topic, "error", time.Since(start).Seconds())
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type": event.EventType,
			"record_id":  event.RecordID,
			"batch_size": len(messages),
		}).Error("Failed to publish record event")
		return err
	}
	metrics.RecordKafkaPublish(p.topic, "success", time.Since(start).Seconds())

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": event.EventType,
		"record_id":  event.RecordID,
		"links":      len(links),
	}).Debug("Published record event")

	return nil
}
