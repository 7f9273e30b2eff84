package svc

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// kafkaMirror forwards decision-log events to the configured topic, keyed
// by trip id so per-trip ordering survives partitioning.
type kafkaMirror struct {
	writer *kafka.Writer
}

func (m *kafkaMirror) Publish(ctx context.Context, tripID, eventType string, payload []byte) error {
	return m.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(tripID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
		},
	})
}
