package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Emitter publishes changes to Kafka.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

func (e *Emitter) Publish(ctx context.Context, change Change) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.Publish")
	defer span.End()

	event := &kafka.RecordEvent{
		EventType:  "record." + string(change.Action),
		Collection: change.Collection,
		Kind:       change.Kind,
		RecordID:   change.ID,
	}
	if change.Record != nil {
		data, err := json.Marshal(change.Record)
		if err != nil {
			return err
		}
		event.Data = data
	}

	links := make([]*kafka.LinkEvent, 0, len(change.Changes))
	for _, c := range change.Changes {
		eventType := "link.set"
		if c.To == nil {
			eventType = "link.cleared"
		}
		links = append(links, &kafka.LinkEvent{
			EventType:  eventType,
			Collection: change.Collection,
			RecordID:   change.ID,
			Field:      c.Field,
			TargetKind: change.TargetKind(c.Field),
			From:       c.From,
			To:         c.To,
		})
	}

	if err := e.producer.PublishRecordEvent(ctx, event, links...); err != nil {
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", event.EventType)
		return err
	}
	return nil
}
